package webhooks

import (
	"context"
	"fmt"
	"time"

	"fitsink/internal/models"
	"fitsink/internal/providers"

	json "github.com/goccy/go-json"
)

// StripeEvent is the envelope Stripe wraps every event object in. The
// inner object is kept raw and decoded per event type.
type StripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeCheckoutSession struct {
	ClientReferenceID string            `json:"client_reference_id"`
	Subscription      string            `json:"subscription"`
	Customer          string            `json:"customer"`
	Metadata          map[string]string `json:"metadata"`
}

type stripeSubscription struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

// StripeEventType extracts the event discriminator without decoding the
// full payload.
func StripeEventType(body []byte) (string, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if envelope.Type == "" {
		return "", fmt.Errorf("%w: no type field", ErrMalformedPayload)
	}
	return envelope.Type, nil
}

func parseStripeEvent(body []byte) (*StripeEvent, error) {
	var event StripeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("%w: no type field", ErrMalformedPayload)
	}
	return &event, nil
}

// NewStripeDispatcher wires the subscription lifecycle events. Invoice
// events carry nothing this system stores, so they are acknowledged and
// skipped. The subscription's period end is not fetched from the Stripe
// API on checkout; it arrives with the customer.subscription.updated
// event that follows every checkout.
func NewStripeDispatcher(sink Sink, logger providers.Logger) *Dispatcher {
	d := NewDispatcher("stripe", logger)

	checkoutHandler := func(ctx context.Context, body []byte) (Result, error) {
		event, err := parseStripeEvent(body)
		if err != nil {
			return Result{}, err
		}
		var session stripeCheckoutSession
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if session.ClientReferenceID == "" {
			return Result{}, fmt.Errorf("%w: checkout session has no client reference", ErrMalformedPayload)
		}

		plan := models.PlanMonthly
		if session.Metadata["plan"] == string(models.PlanFreeFinder) {
			plan = models.PlanFreeFinder
		}

		rec := &models.SubscriptionRecord{
			UserID:           session.ClientReferenceID,
			StripeSubID:      session.Subscription,
			StripeCustomerID: session.Customer,
			Status:           models.SubscriptionActive,
			Plan:             plan,
		}
		if err := sink.UpsertSubscription(ctx, rec); err != nil {
			return Result{}, err
		}
		logger.Infof(providers.TypeWebhook, "Subscription created for user %s (plan %s)", rec.UserID, plan)
		return Result{Written: 1}, nil
	}

	subscriptionHandler := func(canceled bool) HandlerFunc {
		return func(ctx context.Context, body []byte) (Result, error) {
			event, err := parseStripeEvent(body)
			if err != nil {
				return Result{}, err
			}
			var sub stripeSubscription
			if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
				return Result{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
			}
			if sub.Customer == "" {
				return Result{}, fmt.Errorf("%w: subscription has no customer", ErrMalformedPayload)
			}

			status := models.SubscriptionCanceled
			if !canceled && sub.Status == "active" {
				status = models.SubscriptionActive
			}

			var periodEnd *time.Time
			if sub.CurrentPeriodEnd > 0 {
				t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
				periodEnd = &t
			}

			if err := sink.MarkSubscriptionStatus(ctx, sub.Customer, status, periodEnd); err != nil {
				return Result{}, err
			}
			logger.Infof(providers.TypeWebhook, "Subscription %s for customer %s marked %s", sub.ID, sub.Customer, status)
			return Result{Written: 1}, nil
		}
	}

	d.Register("checkout.session.completed", checkoutHandler)
	d.Register("customer.subscription.updated", subscriptionHandler(false))
	d.Register("customer.subscription.deleted", subscriptionHandler(true))
	d.RegisterIgnored("invoice.paid")
	d.RegisterIgnored("invoice.payment_failed")

	return d
}
