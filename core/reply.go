package core

import "context"

// Reply is the text sent back to the chat a message came from.
type Reply struct {
	ChatID  int64
	ReplyTo int64
	Text    string
}

// Replier delivers replies to the chat platform.
type Replier interface {
	Send(ctx context.Context, r Reply) error
}
