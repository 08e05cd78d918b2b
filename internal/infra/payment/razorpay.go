package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	razorpay "github.com/razorpay/razorpay-go"
)

// Razorpayのhosted order APIを叩くアダプタ。
// usecase側はinterface（usecase.PaymentGateway）しか知らない。
type RazorpayGateway struct {
	client    *razorpay.Client
	keySecret string
}

func NewRazorpayGateway(keyID string, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client:    razorpay.NewClient(keyID, keySecret),
		keySecret: keySecret,
	}
}

// リモートに支払いorderを作り、レスポンスをそのまま返す。
// amountは最小通貨単位。
func (g *RazorpayGateway) CreateOrder(amount int64, currency string, receipt string) (map[string]interface{}, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	return g.client.Order.Create(data, nil)
}

// チェックアウト完了時の署名検証。
// signatureは "orderID|paymentID" のHMAC-SHA256（hex）。
func (g *RazorpayGateway) VerifySignature(gatewayOrderID string, paymentID string, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
