package payment

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// IntentEvent is the part of a Stripe payment_intent event the service acts on.
type IntentEvent struct {
	Type      string
	IntentID  string
	BookingID string
	Amount    int64
	Status    string
}

// EventIntentSucceeded is the only event type that changes booking state.
const EventIntentSucceeded = "payment_intent.succeeded"

// ParseIntentEvent verifies the Stripe signature and decodes a payment_intent event.
// Events of other object types come back with an empty IntentID.
func ParseIntentEvent(payload []byte, signature, secret string) (*IntentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid stripe signature: %w", err)
	}

	out := &IntentEvent{Type: string(event.Type)}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	if pi.Object != "payment_intent" {
		return out, nil
	}
	out.IntentID = pi.ID
	out.BookingID = pi.Metadata["booking_id"]
	out.Amount = pi.Amount
	out.Status = string(pi.Status)
	return out, nil
}
