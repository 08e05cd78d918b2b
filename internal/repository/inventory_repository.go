package repository

import (
	"context"

	"app/internal/domain/model"
)

// 在庫の増減。read-modify-writeはせず、ストレージ側のアトミックなUPDATEで行う。
type InventoryRepository interface {
	// qty分だけ減らす。在庫が足りなければ何もせずfalse
	Decrease(ctx context.Context, productID int64, qty int64) (bool, error)

	// qty分だけ戻す（注文削除など）。商品が無ければErrNotFound
	Increase(ctx context.Context, productID int64, qty int64) error

	// 管理者による在庫の直接設定
	SetStock(ctx context.Context, productID int64, stock int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error
}
