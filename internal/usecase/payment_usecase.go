package usecase

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"
)

// 支払いorderの作成と署名検証。実装はRazorpayアダプタ。
type PaymentGateway interface {
	CreateOrder(amount int64, currency string, receipt string) (map[string]interface{}, error)
	PaymentVerifier
}

// OrderUsecaseが支払い確定時に使う部分だけ切り出した約束
type PaymentVerifier interface {
	VerifySignature(gatewayOrderID string, paymentID string, signature string) bool
}

type PaymentUsecase struct {
	gateway  PaymentGateway
	currency string
}

func NewPaymentUsecase(gateway PaymentGateway, currency string) *PaymentUsecase {
	return &PaymentUsecase{gateway: gateway, currency: currency}
}

// 支払いintentの作成。
// amountは主要通貨単位。最小単位へは四捨五入で変換する。
// レスポンスはゲートウェイのものをそのまま返す。
func (u *PaymentUsecase) CreateIntent(ctx context.Context, userID int64, amount float64) (map[string]interface{}, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if amount <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid amount")
	}

	minor := int64(math.Round(amount * 100))
	receipt := fmt.Sprintf("rcpt_%d", time.Now().UnixMilli())

	res, err := u.gateway.CreateOrder(minor, u.currency, receipt)
	if err != nil {
		//ゲートウェイのエラーメッセージはそのまま呼び出し側へ
		return nil, NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return res, nil
}
