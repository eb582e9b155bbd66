package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"flightsurety/internal/platform/kafka/consumer"
	audit "flightsurety/pkg/platform/audit"
)

// CategoryHandler handles decoded events of one category.
type CategoryHandler interface {
	Handle(ctx context.Context, event audit.Event) error
}

// Router decodes audit records and dispatches them by category.
type Router struct {
	handlers map[audit.EventCategory]CategoryHandler
	fallback CategoryHandler
	logger   *slog.Logger
}

// NewRouter creates a category router with an optional fallback handler.
func NewRouter(logger *slog.Logger, fallback CategoryHandler) *Router {
	return &Router{
		handlers: make(map[audit.EventCategory]CategoryHandler),
		fallback: fallback,
		logger:   logger,
	}
}

func (r *Router) Register(category audit.EventCategory, handler CategoryHandler) {
	r.handlers[category] = handler
}

// Handle decodes the record and routes it. Malformed records are logged and
// skipped so they do not block the partition.
func (r *Router) Handle(ctx context.Context, msg *consumer.Message) error {
	var event audit.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		r.logger.ErrorContext(ctx, "failed to decode audit record",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if event.Category == "" {
		event.Category = audit.EventCategory(msg.Headers["category"])
	}

	handler, ok := r.handlers[event.Category]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, event)
		}
		r.logger.WarnContext(ctx, "no handler for audit category, skipping",
			"category", event.Category,
			"key", string(msg.Key),
		)
		return nil
	}
	return handler.Handle(ctx, event)
}

// StoreHandler materializes events into a store.
type StoreHandler struct {
	store audit.Store
}

func NewStoreHandler(store audit.Store) *StoreHandler {
	return &StoreHandler{store: store}
}

func (h *StoreHandler) Handle(ctx context.Context, event audit.Event) error {
	return h.store.Append(ctx, event)
}

// LogHandler writes events to the structured log; used for categories that
// are not retained.
type LogHandler struct {
	logger *slog.Logger
}

func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

func (h *LogHandler) Handle(ctx context.Context, event audit.Event) error {
	h.logger.InfoContext(ctx, "audit event",
		"category", event.Category,
		"action", event.Action,
		"subject", event.Subject,
		"decision", event.Decision,
		"reason", event.Reason,
		"height", event.Height,
	)
	return nil
}
