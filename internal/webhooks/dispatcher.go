package webhooks

import (
	"context"

	"fitsink/internal/providers"
)

// HandlerFunc processes the raw body of one delivery whose event type
// matched the registration.
type HandlerFunc func(ctx context.Context, body []byte) (Result, error)

// Dispatcher routes a delivery by its declared event type. Unknown and
// intentionally ignored types are acknowledged without error: vendors
// retry on non-2xx responses, and a retry storm over events this system
// will never handle helps nobody.
type Dispatcher struct {
	provider string
	logger   providers.Logger
	handlers map[string]HandlerFunc
	ignored  map[string]struct{}
}

func NewDispatcher(provider string, logger providers.Logger) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
		ignored:  make(map[string]struct{}),
	}
}

func (d *Dispatcher) Register(eventType string, handler HandlerFunc) {
	d.handlers[eventType] = handler
}

// RegisterIgnored marks an event type as known but deliberately skipped,
// so it is logged apart from genuinely unknown types.
func (d *Dispatcher) RegisterIgnored(eventType string) {
	d.ignored[eventType] = struct{}{}
}

// Dispatch runs the handler registered for eventType. The second return
// value reports whether a handler ran.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, body []byte) (Result, bool, error) {
	if handler, ok := d.handlers[eventType]; ok {
		res, err := handler(ctx, body)
		return res, true, err
	}

	if _, ok := d.ignored[eventType]; ok {
		d.logger.Infof(providers.TypeWebhook, "%s event %q intentionally ignored", d.provider, eventType)
		return Result{}, false, nil
	}

	d.logger.Infof(providers.TypeWebhook, "Unhandled %s event type %q", d.provider, eventType)
	return Result{}, false, nil
}
