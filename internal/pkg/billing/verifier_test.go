package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signPayload builds a Stripe-Signature header for the payload: HMAC-SHA256
// over "<timestamp>.<payload>".
func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

const eventPayload = `{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{"id":"sub_1"}}}`

func TestVerifyAcceptsAnyConfiguredSecret(t *testing.T) {
	secrets := []string{"whsec_live", "whsec_test", "whsec_old"}
	v := NewWebhookVerifier(secrets...)

	for _, secret := range secrets {
		t.Run(secret, func(t *testing.T) {
			event, err := v.Verify([]byte(eventPayload), signPayload([]byte(eventPayload), secret))
			require.NoError(t, err)
			assert.Equal(t, "evt_1", event.ID)
			assert.Equal(t, "customer.subscription.updated", string(event.Type))
		})
	}
}

func TestVerifyRejectsUnconfiguredSecret(t *testing.T) {
	v := NewWebhookVerifier("whsec_live", "whsec_test")

	_, err := v.Verify([]byte(eventPayload), signPayload([]byte(eventPayload), "whsec_rogue"))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsMissingHeader(t *testing.T) {
	v := NewWebhookVerifier("whsec_live")

	_, err := v.Verify([]byte(eventPayload), "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyMalformedBodyBeatsSignatureCheck(t *testing.T) {
	v := NewWebhookVerifier("whsec_live", "whsec_test")
	body := []byte(`{"id": "evt_1"`) // truncated

	// Even a correctly signed malformed body is a payload problem, not a
	// signature problem.
	_, err := v.Verify(body, signPayload(body, "whsec_live"))

	var malformed *MalformedPayloadError
	assert.ErrorAs(t, err, &malformed)
}

func TestVerifyWithoutSecretsIsAConfigurationError(t *testing.T) {
	v := NewWebhookVerifier()
	assert.False(t, v.HasSecrets())

	_, err := v.Verify([]byte(eventPayload), signPayload([]byte(eventPayload), "whsec_live"))
	assert.ErrorIs(t, err, ErrNoWebhookSecrets)
}

func TestNewWebhookVerifierDropsBlankSecrets(t *testing.T) {
	v := NewWebhookVerifier("", "  ", "whsec_live")
	assert.True(t, v.HasSecrets())

	event, err := v.Verify([]byte(eventPayload), signPayload([]byte(eventPayload), "whsec_live"))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
}
