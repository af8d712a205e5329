package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxConcurrent caps in-flight message tasks.
	DefaultMaxConcurrent = 16
	sendTimeout          = 10 * time.Second
)

// Runtime runs one task per inbound message and delivers the replies.
type Runtime struct {
	handler  *Handler
	replier  Replier
	logger   *slog.Logger
	recorder Recorder
	sem      chan struct{}
	wg       sync.WaitGroup

	mu  sync.Mutex
	ctx context.Context
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithMaxConcurrent bounds the number of concurrently handled messages.
func WithMaxConcurrent(n int) RuntimeOption {
	return func(r *Runtime) {
		if n > 0 {
			r.sem = make(chan struct{}, n)
		}
	}
}

// WithRuntimeRecorder records delivery failures.
func WithRuntimeRecorder(rec Recorder) RuntimeOption {
	return func(r *Runtime) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// NewRuntime creates a Runtime.
func NewRuntime(h *Handler, replier Replier, logger *slog.Logger, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		handler:  h,
		replier:  replier,
		logger:   logger,
		recorder: nopRecorder{},
		sem:      make(chan struct{}, DefaultMaxConcurrent),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind sets the base context for tasks started afterwards. Cancelling it
// aborts in-flight lookups.
func (r *Runtime) Bind(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx = ctx
}

// Dispatch starts a task for msg and returns once the task holds a slot.
// It matches the MessageHandler signature so receivers can call it directly.
func (r *Runtime) Dispatch(msg InboundMessage) {
	r.mu.Lock()
	base := r.ctx
	r.mu.Unlock()

	// select picks randomly when both cases are ready.
	if base.Err() != nil {
		r.logger.Warn("dropping message, shutting down", "update_id", msg.UpdateID)
		return
	}
	select {
	case r.sem <- struct{}{}:
	case <-base.Done():
		r.logger.Warn("dropping message, shutting down", "update_id", msg.UpdateID)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() { <-r.sem }()
		r.run(base, msg)
	}()
}

// Wait blocks until all dispatched tasks finish.
func (r *Runtime) Wait() {
	r.wg.Wait()
}

func (r *Runtime) run(base context.Context, msg InboundMessage) {
	ctx := WithRequestID(base, uuid.NewString())

	reply, ok, err := r.handler.Handle(ctx, msg)
	if err != nil {
		r.logger.Error("message handling failed",
			"request_id", RequestID(ctx), "update_id", msg.UpdateID,
			"sender_id", senderString(msg.SenderID), "error", err)
		return
	}
	if !ok {
		return
	}

	r.respond(ctx, reply)
}

func (r *Runtime) respond(ctx context.Context, reply Reply) {
	// Deliver even if the base context was cancelled mid-lookup.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	if err := r.replier.Send(sendCtx, reply); err != nil {
		r.recorder.ReplyFailed()
		r.logger.Error("failed to send reply", "request_id", RequestID(ctx), "chat_id", reply.ChatID, "error", err)
	}
}
