package payment

import (
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

const succeededEvent = `{
  "id": "evt_1",
  "object": "event",
  "type": "payment_intent.succeeded",
  "data": {
    "object": {
      "id": "pi_1",
      "object": "payment_intent",
      "amount": 9000,
      "currency": "eur",
      "status": "succeeded",
      "metadata": {"booking_id": "b1"}
    }
  }
}`

func sign(payload string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestParseIntentEvent(t *testing.T) {
	ev, err := ParseIntentEvent([]byte(succeededEvent), sign(succeededEvent), testSecret)
	require.NoError(t, err)
	assert.Equal(t, EventIntentSucceeded, ev.Type)
	assert.Equal(t, "pi_1", ev.IntentID)
	assert.Equal(t, "b1", ev.BookingID)
	assert.Equal(t, int64(9000), ev.Amount)
	assert.Equal(t, "succeeded", ev.Status)
}

func TestParseIntentEventBadSignature(t *testing.T) {
	_, err := ParseIntentEvent([]byte(succeededEvent), "t=1,v1=deadbeef", testSecret)
	assert.Error(t, err)
}

func TestParseIntentEventOtherObject(t *testing.T) {
	payload := `{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`
	ev, err := ParseIntentEvent([]byte(payload), sign(payload), testSecret)
	require.NoError(t, err)
	assert.Equal(t, "charge.refunded", ev.Type)
	assert.Empty(t, ev.IntentID)
}
