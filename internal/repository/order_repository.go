package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

// 管理者注文一覧の絞り込み
type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)

	//本人の注文を新しい順で全部返す
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)

	Create(ctx context.Context, order model.Order) (int64, error)
	Delete(ctx context.Context, orderID int64) error

	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	//支払い確定。paymentResultはここで一度だけ書く
	MarkPaid(ctx context.Context, orderID int64, paidAt time.Time, result model.PaymentResult) error

	//配達フラグとタイムスタンプをセットで更新する
	SetDelivered(ctx context.Context, orderID int64, delivered bool, deliveredAt *time.Time) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
