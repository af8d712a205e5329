package core

import "time"

// InboundMessage represents a message received from Telegram.
type InboundMessage struct {
	UpdateID  int64
	MessageID int64
	ChatID    int64
	// SenderID is nil when the update carried no resolvable sender.
	SenderID  *int64
	Text      string
	Timestamp time.Time
}

// MessageHandler consumes an inbound message. Receivers call it once per update.
type MessageHandler func(msg InboundMessage)
