package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestRazorpayGateway_VerifySignature(t *testing.T) {
	g := NewRazorpayGateway("key_id", "key_secret")

	sig := sign("key_secret", "order_abc", "pay_123")
	assert.True(t, g.VerifySignature("order_abc", "pay_123", sig))
}

func TestRazorpayGateway_VerifySignature_Tampered(t *testing.T) {
	g := NewRazorpayGateway("key_id", "key_secret")

	sig := sign("key_secret", "order_abc", "pay_123")

	//別の支払いIDにすり替え
	assert.False(t, g.VerifySignature("order_abc", "pay_999", sig))
	//別のorder
	assert.False(t, g.VerifySignature("order_xyz", "pay_123", sig))
	//署名自体の改ざん
	assert.False(t, g.VerifySignature("order_abc", "pay_123", sig+"00"))
	assert.False(t, g.VerifySignature("order_abc", "pay_123", ""))
}

func TestRazorpayGateway_VerifySignature_WrongSecret(t *testing.T) {
	g := NewRazorpayGateway("key_id", "key_secret")

	sig := sign("other_secret", "order_abc", "pay_123")
	assert.False(t, g.VerifySignature("order_abc", "pay_123", sig))
}
