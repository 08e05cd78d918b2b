package model

import "time"

// 注文に埋め込む配送先。住所帳とは独立したスナップショット。
type ShippingAddress struct {
	Address    string `gorm:"type:varchar(255);not null" json:"address"`
	City       string `gorm:"type:varchar(100);not null" json:"city"`
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code"`
	Country    string `gorm:"type:varchar(100);not null" json:"country"`
}

// 決済ゲートウェイから返る結果。支払い確認時に一度だけ書く。
type PaymentResult struct {
	TransactionID string `gorm:"type:varchar(255)" json:"transaction_id"`
	Status        string `gorm:"type:varchar(50)" json:"status"`
	UpdateTime    string `gorm:"type:varchar(50)" json:"update_time"`
	PayerEmail    string `gorm:"type:varchar(255)" json:"payer_email"`
}

type Order struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	PaymentMethod   string          `gorm:"type:varchar(50);not null" json:"payment_method"`

	// 金額は最小通貨単位のint64
	ItemsPrice    int64 `gorm:"not null" json:"items_price"`
	TaxPrice      int64 `gorm:"not null" json:"tax_price"`
	ShippingPrice int64 `gorm:"not null" json:"shipping_price"`
	TotalPrice    int64 `gorm:"not null" json:"total_price"`

	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	IsPaid bool       `gorm:"not null;default:false" json:"is_paid"`
	PaidAt *time.Time `json:"paid_at"`

	IsDelivered bool       `gorm:"not null;default:false" json:"is_delivered"`
	DeliveredAt *time.Time `json:"delivered_at"`

	PaymentResult PaymentResult `gorm:"embedded;embeddedPrefix:payment_" json:"payment_result"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
