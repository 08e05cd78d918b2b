package model

// 注文ステータス。自由な文字列代入はせず、遷移表で縛る。
type OrderStatus string

const (
	OrderStatusPlaced     OrderStatus = "Placed"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// 管理者が使える遷移。DeliveredとCancelledは終端。
// CancelledはここにはなくCancelOrder（本人のみ）だけが入れる。
var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPlaced:     {OrderStatusProcessing: true, OrderStatusShipped: true, OrderStatusDelivered: true},
	OrderStatusProcessing: {OrderStatusShipped: true, OrderStatusDelivered: true},
	OrderStatusShipped:    {OrderStatusDelivered: true},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}
