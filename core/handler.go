package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jdelaire/addrbot/core/lookup"
)

// User-facing reply texts.
const (
	ReplyDenied        = "You do not have permission to use this bot."
	ReplyNotAttributed = "This address is not attributed."
	ReplyLookupFailed  = "Error verifying address."
	replyAttributedFmt = "This address is attributed to: %d"
)

// ErrNoSender is returned by Handle when a message has text but no sender
// identity. It is never turned into a user reply.
var ErrNoSender = errors.New("message has no sender identity")

// Allower decides whether a sender may use the bot.
type Allower interface {
	IsAllowed(senderID int64) bool
}

// Looker resolves a lookup key to a tagged result.
type Looker interface {
	Lookup(ctx context.Context, key string) lookup.Result
}

// Handler runs the per-message pipeline: authorize, look up, format.
// It holds no state between messages.
type Handler struct {
	policy   Allower
	lookup   Looker
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithRecorder attaches an operator metrics recorder.
func WithRecorder(r Recorder) HandlerOption {
	return func(h *Handler) {
		if r != nil {
			h.recorder = r
		}
	}
}

// NewHandler creates a Handler.
func NewHandler(pol Allower, lk Looker, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		policy:   pol,
		lookup:   lk,
		logger:   logger,
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes one inbound message. ok is false when no reply should be
// sent (empty text).
//
// Precondition: a message with text must carry a sender. If SenderID is nil,
// Handle returns ErrNoSender and the caller must treat the invocation as
// failed rather than allow or deny it.
func (h *Handler) Handle(ctx context.Context, msg InboundMessage) (reply Reply, ok bool, err error) {
	id := RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = WithRequestID(ctx, id)
	}
	log := h.logger.With("request_id", id, "update_id", msg.UpdateID, "chat_id", msg.ChatID)

	if msg.Text == "" {
		log.Debug("message has no text, ignoring")
		h.recorder.MessageHandled(OutcomeEmpty)
		return Reply{}, false, nil
	}

	if msg.SenderID == nil {
		h.recorder.MessageHandled(OutcomeNoSender)
		return Reply{}, false, fmt.Errorf("update %d: %w", msg.UpdateID, ErrNoSender)
	}
	sender := *msg.SenderID
	log = log.With("sender_id", sender)

	reply = Reply{ChatID: msg.ChatID, ReplyTo: msg.MessageID}

	if !h.policy.IsAllowed(sender) {
		log.Info("sender not in allowlist")
		h.recorder.MessageHandled(OutcomeDenied)
		reply.Text = ReplyDenied
		return reply, true, nil
	}

	start := h.now()
	res := h.lookup.Lookup(ctx, msg.Text)
	elapsed := h.now().Sub(start)

	h.recorder.LookupObserved(res.Kind.String(), elapsed)
	h.recorder.MessageHandled(res.Kind.String())

	if res.OK() {
		log.Info("lookup done", "result", res.String(), "duration", elapsed)
	} else {
		log.Warn("lookup failed", "result", res.String(), "duration", elapsed)
	}

	reply.Text = FormatReply(res)
	return reply, true, nil
}

// FormatReply maps a lookup result to the text shown to the user.
// NotFound and TransportError deliberately share one message.
func FormatReply(res lookup.Result) string {
	switch res.Kind {
	case lookup.Attributed:
		return fmt.Sprintf(replyAttributedFmt, res.TxCount)
	case lookup.NotAttributed:
		return ReplyNotAttributed
	default:
		return ReplyLookupFailed
	}
}

// senderString renders an optional sender for logs.
func senderString(id *int64) string {
	if id == nil {
		return "none"
	}
	return strconv.FormatInt(*id, 10)
}
