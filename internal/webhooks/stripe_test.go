package webhooks

import (
	"context"
	"testing"
	"time"

	"fitsink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripeEventType(t *testing.T) {
	eventType, err := StripeEventType([]byte(`{"type":"checkout.session.completed"}`))
	require.NoError(t, err)
	assert.Equal(t, "checkout.session.completed", eventType)

	_, err = StripeEventType([]byte(`{"id":"evt_1"}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestStripeDispatcher_CheckoutCompleted(t *testing.T) {
	sink := &mockSink{}
	d := NewStripeDispatcher(sink, &mockLogger{})

	body := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"client_reference_id": "user-42",
			"subscription": "sub_123",
			"customer": "cus_123",
			"metadata": {"plan": "MONTHLY"}
		}}
	}`)

	res, handled, err := d.Dispatch(context.Background(), "checkout.session.completed", body)

	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 1, res.Written)
	require.Len(t, sink.subscriptions, 1)
	sub := sink.subscriptions[0]
	assert.Equal(t, "user-42", sub.UserID)
	assert.Equal(t, "sub_123", sub.StripeSubID)
	assert.Equal(t, "cus_123", sub.StripeCustomerID)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Equal(t, models.PlanMonthly, sub.Plan)
}

func TestStripeDispatcher_CheckoutFreeFinderPlan(t *testing.T) {
	sink := &mockSink{}
	d := NewStripeDispatcher(sink, &mockLogger{})

	body := []byte(`{
		"type": "checkout.session.completed",
		"data": {"object": {
			"client_reference_id": "user-42",
			"customer": "cus_123",
			"metadata": {"plan": "FREE_FINDER"}
		}}
	}`)

	_, _, err := d.Dispatch(context.Background(), "checkout.session.completed", body)

	require.NoError(t, err)
	require.Len(t, sink.subscriptions, 1)
	assert.Equal(t, models.PlanFreeFinder, sink.subscriptions[0].Plan)
}

func TestStripeDispatcher_CheckoutWithoutReference(t *testing.T) {
	sink := &mockSink{}
	d := NewStripeDispatcher(sink, &mockLogger{})

	body := []byte(`{"type":"checkout.session.completed","data":{"object":{"customer":"cus_123"}}}`)

	_, _, err := d.Dispatch(context.Background(), "checkout.session.completed", body)

	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.Empty(t, sink.subscriptions)
}

func TestStripeDispatcher_SubscriptionUpdated(t *testing.T) {
	sink := &mockSink{}
	d := NewStripeDispatcher(sink, &mockLogger{})

	body := []byte(`{
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_123",
			"customer": "cus_123",
			"status": "active",
			"current_period_end": 1772407800
		}}
	}`)

	res, handled, err := d.Dispatch(context.Background(), "customer.subscription.updated", body)

	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 1, res.Written)
	require.Len(t, sink.statusCalls, 1)
	call := sink.statusCalls[0]
	assert.Equal(t, "cus_123", call.customerID)
	assert.Equal(t, models.SubscriptionActive, call.status)
	require.NotNil(t, call.periodEnd)
	assert.Equal(t, time.Unix(1772407800, 0).UTC(), *call.periodEnd)
}

func TestStripeDispatcher_SubscriptionUpdatedNonActive(t *testing.T) {
	sink := &mockSink{}
	d := NewStripeDispatcher(sink, &mockLogger{})

	body := []byte(`{
		"type": "customer.subscription.updated",
		"data": {"object": {"id": "sub_123", "customer": "cus_123", "status": "past_due"}}
	}`)

	_, _, err := d.Dispatch(context.Background(), "customer.subscription.updated", body)

	require.NoError(t, err)
	require.Len(t, sink.statusCalls, 1)
	assert.Equal(t, models.SubscriptionCanceled, sink.statusCalls[0].status)
	assert.Nil(t, sink.statusCalls[0].periodEnd)
}

func TestStripeDispatcher_SubscriptionDeleted(t *testing.T) {
	sink := &mockSink{}
	d := NewStripeDispatcher(sink, &mockLogger{})

	body := []byte(`{
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_123", "customer": "cus_123", "status": "active"}}
	}`)

	_, _, err := d.Dispatch(context.Background(), "customer.subscription.deleted", body)

	require.NoError(t, err)
	require.Len(t, sink.statusCalls, 1)
	assert.Equal(t, models.SubscriptionCanceled, sink.statusCalls[0].status)
}

func TestStripeDispatcher_InvoiceEventsIgnored(t *testing.T) {
	sink := &mockSink{}
	d := NewStripeDispatcher(sink, &mockLogger{})

	for _, eventType := range []string{"invoice.paid", "invoice.payment_failed"} {
		_, handled, err := d.Dispatch(context.Background(), eventType, []byte(`{"type":"`+eventType+`"}`))
		require.NoError(t, err)
		assert.False(t, handled)
	}
	assert.Empty(t, sink.statusCalls)
	assert.Empty(t, sink.subscriptions)
}

func TestStripeDispatcher_SubscriptionWithoutCustomer(t *testing.T) {
	sink := &mockSink{}
	d := NewStripeDispatcher(sink, &mockLogger{})

	body := []byte(`{"type":"customer.subscription.updated","data":{"object":{"id":"sub_123"}}}`)

	_, _, err := d.Dispatch(context.Background(), "customer.subscription.updated", body)

	assert.ErrorIs(t, err, ErrMalformedPayload)
}
