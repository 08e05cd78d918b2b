package usecase

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/events"
	repo "app/internal/repository"
)

type OrderUsecase struct {
	tx       repo.TransactionManager
	bus      events.Bus
	verifier PaymentVerifier
}

func NewOrderUsecase(tx repo.TransactionManager, bus events.Bus, verifier PaymentVerifier) *OrderUsecase {
	return &OrderUsecase{tx: tx, bus: bus, verifier: verifier}
}

type OrderItemInput struct {
	ProductID int64
	Quantity  int64
	// 呼び出し側が見ていた単価。0なら未申告。申告があればカタログと照合する
	UnitPrice int64
}

type CreateOrderInput struct {
	Items           []OrderItemInput
	ShippingAddress model.ShippingAddress
	PaymentMethod   string
	ItemsPrice      int64
	TaxPrice        int64
	ShippingPrice   int64
	TotalPrice      int64
}

type PayOrderInput struct {
	TransactionID string
	Status        string
	UpdateTime    string
	PayerEmail    string

	// Razorpayの署名検証用。空なら検証なしのレガシー経路
	GatewayOrderID string
	Signature      string
}

type OrderOwnerOutput struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type OrderOutput struct {
	ID              int64                 `json:"id"`
	User            OrderOwnerOutput      `json:"user"`
	Items           []OrderItemOutput     `json:"items"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                `json:"payment_method"`
	ItemsPrice      int64                 `json:"items_price"`
	TaxPrice        int64                 `json:"tax_price"`
	ShippingPrice   int64                 `json:"shipping_price"`
	TotalPrice      int64                 `json:"total_price"`
	Status          string                `json:"status"`
	IsPaid          bool                  `json:"is_paid"`
	PaidAt          *time.Time            `json:"paid_at"`
	IsDelivered     bool                  `json:"is_delivered"`
	DeliveredAt     *time.Time            `json:"delivered_at"`
	PaymentResult   model.PaymentResult   `json:"payment_result"`
	CreatedAt       time.Time             `json:"created_at"`
}

// 注文作成。
// 在庫減算・明細作成・注文保存は1トランザクション。
// 単価はカタログからスナップショットし、申告合計と一致しなければ400。
func (u *OrderUsecase) Create(ctx context.Context, userID int64, in CreateOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "order items required")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "payment method required")
	}
	if in.TaxPrice < 0 || in.ShippingPrice < 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid price")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order item")
		}
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orderItems := make([]model.OrderItem, 0, len(in.Items))
		var itemsTotal int64 = 0

		for _, it := range in.Items {
			//商品取得
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest, "invalid product")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, "invalid product")
			}

			//申告単価とカタログ単価のズレは拒否
			if it.UnitPrice != 0 && it.UnitPrice != p.Price {
				return NewHTTPError(http.StatusBadRequest, "price mismatch")
			}

			//在庫減算（足りないなら false）
			ok, err := r.Inventory().Decrease(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "out of stock")
			}

			//スナップショット
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           it.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            it.Quantity,
				CreatedAt:           time.Now(),
			})

			itemsTotal += p.Price * it.Quantity
		}

		//合計はサーバー側で再計算して申告値と照合する
		if in.ItemsPrice != itemsTotal {
			return NewHTTPError(http.StatusBadRequest, "price mismatch")
		}
		if in.TotalPrice != itemsTotal+in.TaxPrice+in.ShippingPrice {
			return NewHTTPError(http.StatusBadRequest, "price mismatch")
		}

		// 注文作成
		now := time.Now()
		order := model.Order{
			UserID:          userID,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
			ItemsPrice:      itemsTotal,
			TaxPrice:        in.TaxPrice,
			ShippingPrice:   in.ShippingPrice,
			TotalPrice:      in.TotalPrice,
			Status:          model.OrderStatusPlaced,
			IsPaid:          false,
			IsDelivered:     false,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order.ID = orderID
		owner, err := resolveOwner(ctx, r, userID)
		if err != nil {
			return err
		}

		out = toOrderOutput(order, orderItems, owner)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	//コミット後にイベントを流す
	u.bus.Publish(events.OrderEvent{Type: events.TypeCreate, Order: out})
	return out, nil
}

// 注文1件取得。他人の注文は「存在しない扱い」にする（管理者は全件可）。
func (u *OrderUsecase) GetOrder(ctx context.Context, userID int64, isAdmin bool, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
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
		if !isAdmin && o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

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
	return out, nil
}

// 支払い確定。署名が付いていればゲートウェイのHMACを検証する。
func (u *OrderUsecase) Pay(ctx context.Context, userID int64, orderID int64, in PayOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if strings.TrimSpace(in.TransactionID) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "transaction id required")
	}

	if in.Signature != "" {
		if u.verifier == nil || !u.verifier.VerifySignature(in.GatewayOrderID, in.TransactionID, in.Signature) {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment signature")
		}
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
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if o.IsPaid {
			return NewHTTPError(http.StatusBadRequest, "already paid")
		}
		if o.Status == model.OrderStatusCancelled {
			return NewHTTPError(http.StatusBadRequest, "order cancelled")
		}

		now := time.Now()
		result := model.PaymentResult{
			TransactionID: in.TransactionID,
			Status:        in.Status,
			UpdateTime:    in.UpdateTime,
			PayerEmail:    in.PayerEmail,
		}
		if err := r.Orders().MarkPaid(ctx, orderID, now, result); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.IsPaid = true
		o.PaidAt = &now
		o.PaymentResult = result

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

// 本人によるキャンセル。Placedのときだけ。
// 在庫は戻さない（戻るのは管理者削除のときだけ）。
func (u *OrderUsecase) Cancel(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
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

		//本人以外は403
		if o.UserID != userID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}
		//Placed以外からはキャンセル不可
		if o.Status != model.OrderStatusPlaced {
			return NewHTTPError(http.StatusBadRequest, "cannot cancel order")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Orders().SetDelivered(ctx, orderID, false, nil); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = model.OrderStatusCancelled
		o.IsDelivered = false
		o.DeliveredAt = nil

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

// 本人の注文一覧（新しい順）
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		owner, err := resolveOwner(ctx, r, userID)
		if err != nil {
			return err
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items, owner))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// 注文主をid/name/emailに解決する
func resolveOwner(ctx context.Context, r repo.TxRepos, userID int64) (OrderOwnerOutput, error) {
	user, err := r.Users().FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		//退会済みなどでユーザーがいなくても注文は見せる
		return OrderOwnerOutput{ID: userID}, nil
	}
	if err != nil {
		return OrderOwnerOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return OrderOwnerOutput{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem, owner OrderOwnerOutput) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		User:            owner,
		Items:           outItems,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		ItemsPrice:      o.ItemsPrice,
		TaxPrice:        o.TaxPrice,
		ShippingPrice:   o.ShippingPrice,
		TotalPrice:      o.TotalPrice,
		Status:          string(o.Status),
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		IsDelivered:     o.IsDelivered,
		DeliveredAt:     o.DeliveredAt,
		PaymentResult:   o.PaymentResult,
		CreatedAt:       o.CreatedAt,
	}
}

func orderEventID(orderID int64) string {
	return strconv.FormatInt(orderID, 10)
}
