package gateway

import (
	"testing"

	"admitpredict/internal/config"

	"github.com/stretchr/testify/assert"
)

func newTestGateway() *RazorpayGateway {
	return NewRazorpayGateway(&config.RazorpayConfig{
		KeyID:          "rzp_test_key",
		KeySecret:      "test-secret",
		TimeoutSeconds: 5,
	})
}

func TestSign_Deterministic(t *testing.T) {
	sig1 := Sign("order_001", "pay_001", "test-secret")
	sig2 := Sign("order_001", "pay_001", "test-secret")

	assert.Equal(t, sig1, sig2)
	assert.Len(t, sig1, 64) // hex SHA-256
}

func TestSign_SensitiveToEveryInput(t *testing.T) {
	base := Sign("order_001", "pay_001", "test-secret")

	assert.NotEqual(t, base, Sign("order_002", "pay_001", "test-secret"))
	assert.NotEqual(t, base, Sign("order_001", "pay_002", "test-secret"))
	assert.NotEqual(t, base, Sign("order_001", "pay_001", "other-secret"))
}

func TestVerifySignature_AcceptsGenuineSignature(t *testing.T) {
	g := newTestGateway()

	sig := Sign("order_001", "pay_001", "test-secret")

	assert.True(t, g.VerifySignature("order_001", "pay_001", sig))
}

func TestVerifySignature_RejectsTampering(t *testing.T) {
	g := newTestGateway()
	sig := Sign("order_001", "pay_001", "test-secret")

	// signature replayed against a different order or payment
	assert.False(t, g.VerifySignature("order_002", "pay_001", sig))
	assert.False(t, g.VerifySignature("order_001", "pay_002", sig))

	// signature minted with the wrong secret
	forged := Sign("order_001", "pay_001", "guessed-secret")
	assert.False(t, g.VerifySignature("order_001", "pay_001", forged))

	// garbage inputs
	assert.False(t, g.VerifySignature("order_001", "pay_001", ""))
	assert.False(t, g.VerifySignature("order_001", "pay_001", "not-hex"))
}

func TestKeyID(t *testing.T) {
	assert.Equal(t, "rzp_test_key", newTestGateway().KeyID())
}

func TestNewRazorpayGateway_TimeoutConfig(t *testing.T) {
	// unset and negative timeouts fall back to the default; either way
	// the SDK client constructs cleanly
	for _, timeout := range []int64{0, -1, 5, 120} {
		g := NewRazorpayGateway(&config.RazorpayConfig{
			KeyID:          "rzp_test_key",
			KeySecret:      "test-secret",
			TimeoutSeconds: timeout,
		})
		assert.NotNil(t, g)
		assert.Equal(t, "rzp_test_key", g.KeyID())
	}
}
