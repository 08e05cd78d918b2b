package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/events"
	repo "app/internal/repository"
)

type AdminOrderUsecase struct {
	tx  repo.TransactionManager
	bus events.Bus
}

func NewAdminOrderUsecase(tx repo.TransactionManager, bus events.Bus) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, bus: bus}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

type AdminOrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 全注文一覧。注文主はid/name/emailに解決する。
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []OrderOutput
	var total int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, n, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		total = n

		//同じユーザーを何度も引かない
		owners := map[int64]OrderOwnerOutput{}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			owner, ok := owners[o.UserID]
			if !ok {
				owner, err = resolveOwner(ctx, r, o.UserID)
				if err != nil {
					return err
				}
				owners[o.UserID] = owner
			}

			outs = append(outs, toOrderOutput(o, items, owner))
		}
		return nil
	})

	if err != nil {
		return AdminOrderListOutput{}, err
	}
	return AdminOrderListOutput{
		Items: outs,
		Total: total,
		Page:  f.Page,
		Limit: f.Limit,
	}, nil
}

// 配達完了。遷移表で許される状態からだけ入れる。
func (u *AdminOrderUsecase) Deliver(ctx context.Context, adminUserID int64, orderID int64) (OrderOutput, error) {
	if adminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if !model.CanTransition(o.Status, model.OrderStatusDelivered) {
			return NewHTTPError(http.StatusBadRequest, "invalid status transition")
		}

		now := time.Now()
		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusDelivered); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		//statusとisDeliveredは必ずセットで動かす
		if err := r.Orders().SetDelivered(ctx, orderID, true, &now); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = model.OrderStatusDelivered
		o.IsDelivered = true
		o.DeliveredAt = &now

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		owner, err := resolveOwner(ctx, r, o.UserID)
		if err != nil {
			return err
		}

		out = toOrderOutput(o, items, owner)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	u.bus.Publish(events.OrderEvent{Type: events.TypeUpdate, Order: out})
	return out, nil
}

// ステータス更新。遷移表にないペアは拒否。
// CancelledはここからはNG（本人のキャンセルだけが入れる）。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	if !newStatus.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out OrderOutput
	changed := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		owner, err := resolveOwner(ctx, r, o.UserID)
		if err != nil {
			return err
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			out = toOrderOutput(o, items, owner)
			return nil
		}

		if !model.CanTransition(o.Status, newStatus) {
			return NewHTTPError(http.StatusBadRequest, "invalid status transition")
		}

		beforeStatus := string(o.Status)
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		o.Status = newStatus

		//Deliveredに入るときはフラグとタイムスタンプも一緒に
		if newStatus == model.OrderStatusDelivered {
			now := time.Now()
			if err := r.Orders().SetDelivered(ctx, orderID, true, &now); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			o.IsDelivered = true
			o.DeliveredAt = &now
		}

		// ★監査ログ（UPDATE_ORDER_STATUS）
		beforeJSON := `{"status":"` + beforeStatus + `"}`
		afterJSON := `{"status":"` + string(newStatus) + `"}`
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		changed = true
		out = toOrderOutput(o, items, owner)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	if changed {
		u.bus.Publish(events.OrderEvent{Type: events.TypeUpdate, Order: out})
	}
	return out, nil
}

// 注文削除。明細ぶんの在庫を戻してから消す。すべて1トランザクション。
// 商品がすでに消えている明細は黙ってスキップする。
func (u *AdminOrderUsecase) Delete(ctx context.Context, actorAdminUserID int64, orderID int64) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//在庫戻し
		for _, it := range items {
			err := r.Inventory().Increase(ctx, it.ProductID, it.Quantity)
			if err == repo.ErrNotFound {
				continue
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.OrderItems().DeleteByOrderID(ctx, orderID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Orders().Delete(ctx, orderID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// ★監査ログ（DELETE_ORDER）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionDeleteOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   `{"status":"` + string(o.Status) + `"}`,
			AfterJSON:    `{}`,
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return nil
	})

	if err != nil {
		return err
	}

	//deleteイベントはidだけ
	u.bus.Publish(events.OrderEvent{Type: events.TypeDelete, ID: orderEventID(orderID)})
	return nil
}
