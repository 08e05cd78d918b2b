package usecase_test

import (
	"context"
	"strings"
	"testing"

	"app/internal/domain/model"
	"app/internal/events"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newAdminOrderTestDeps() (*TxManagerMock, *OrderRepoMock, *OrderItemRepoMock, *InventoryRepoMock, *UserRepoMock, *AuditRepoMock, *BusSpy) {
	tx := new(TxManagerMock)
	ordersRepo := new(OrderRepoMock)
	itemsRepo := new(OrderItemRepoMock)
	invRepo := new(InventoryRepoMock)
	usersRepo := new(UserRepoMock)
	auditRepo := new(AuditRepoMock)

	tx.Repos = &TxReposMock{
		orders:     ordersRepo,
		orderItems: itemsRepo,
		inventory:  invRepo,
		users:      usersRepo,
		auditLogs:  auditRepo,
	}

	return tx, ordersRepo, itemsRepo, invRepo, usersRepo, auditRepo, new(BusSpy)
}

// =====================
// List tests
// =====================

func TestAdminOrderUsecase_List_InvalidPage(t *testing.T) {
	tx, _, _, _, _, _, bus := newAdminOrderTestDeps()
	uc := usecase.NewAdminOrderUsecase(tx, bus)

	out, err := uc.List(context.Background(), repo.AdminOrderListFilter{Page: 0, Limit: 20})
	assert.Equal(t, 0, len(out.Items))
	assertErrContains(t, err, "invalid page")
}

func TestAdminOrderUsecase_List_InvalidLimit(t *testing.T) {
	tx, _, _, _, _, _, bus := newAdminOrderTestDeps()
	uc := usecase.NewAdminOrderUsecase(tx, bus)

	out, err := uc.List(context.Background(), repo.AdminOrderListFilter{Page: 1, Limit: 0})
	assert.Equal(t, 0, len(out.Items))
	assertErrContains(t, err, "invalid limit")
}

func TestAdminOrderUsecase_List_ResolvesOwnerOncePerUser(t *testing.T) {
	ctx := context.Background()
	tx, ordersRepo, itemsRepo, _, usersRepo, _, bus := newAdminOrderTestDeps()

	tx.On("WithinTx", mock.Anything).Return(nil)

	f := repo.AdminOrderListFilter{Page: 1, Limit: 20}
	ordersRepo.On("ListAdmin", mock.Anything, f).Return([]model.Order{
		{ID: 10, UserID: 1, Status: model.OrderStatusPlaced},
		{ID: 11, UserID: 1, Status: model.OrderStatusShipped},
	}, int64(2), nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{}, nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(11)).Return([]model.OrderItem{}, nil)
	usersRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, Name: "Taro"}, nil).Once()

	uc := usecase.NewAdminOrderUsecase(tx, bus)

	out, err := uc.List(ctx, f)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(out.Items))
	assert.Equal(t, "Taro", out.Items[0].User.Name)
	assert.Equal(t, "Taro", out.Items[1].User.Name)

	//同じユーザーは1回しか引かない
	usersRepo.AssertNumberOfCalls(t, "FindByID", 1)
}

func TestAdminOrderUsecase_List_ReturnsPaginationMeta(t *testing.T) {
	ctx := context.Background()
	tx, ordersRepo, itemsRepo, _, usersRepo, _, bus := newAdminOrderTestDeps()

	tx.On("WithinTx", mock.Anything).Return(nil)

	//2ページ目、全体は57件
	f := repo.AdminOrderListFilter{Page: 2, Limit: 10}
	ordersRepo.On("ListAdmin", mock.Anything, f).Return([]model.Order{
		{ID: 30, UserID: 1, Status: model.OrderStatusPlaced},
	}, int64(57), nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(30)).Return([]model.OrderItem{}, nil)
	usersRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1}, nil)

	uc := usecase.NewAdminOrderUsecase(tx, bus)

	out, err := uc.List(ctx, f)
	assert.NoError(t, err)
	assert.Equal(t, int64(57), out.Total)
	assert.Equal(t, 2, out.Page)
	assert.Equal(t, 10, out.Limit)
	assert.Equal(t, 1, len(out.Items))
}

// =====================
// Deliver tests
// =====================

func TestAdminOrderUsecase_Deliver_FromShipped(t *testing.T) {
	ctx := context.Background()
	tx, ordersRepo, itemsRepo, _, usersRepo, _, bus := newAdminOrderTestDeps()

	tx.On("WithinTx", mock.Anything).Return(nil)
	ordersRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID: 5, UserID: 1, Status: model.OrderStatusShipped,
	}, nil)
	ordersRepo.On("UpdateStatus", mock.Anything, int64(5), model.OrderStatusDelivered).Return(nil)
	ordersRepo.On("SetDelivered", mock.Anything, int64(5), true, mock.Anything).Return(nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderItem{}, nil)
	usersRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1}, nil)

	uc := usecase.NewAdminOrderUsecase(tx, bus)

	out, err := uc.Deliver(ctx, 2, 5)
	assert.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusDelivered), out.Status)
	assert.True(t, out.IsDelivered)
	assert.NotNil(t, out.DeliveredAt)

	evs := bus.Published()
	assert.Equal(t, 1, len(evs))
	assert.Equal(t, events.TypeUpdate, evs[0].Type)
}

func TestAdminOrderUsecase_Deliver_CancelledOrderRejected(t *testing.T) {
	ctx := context.Background()
	tx, ordersRepo, _, _, _, _, bus := newAdminOrderTestDeps()

	tx.On("WithinTx", mock.Anything).Return(nil)
	ordersRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID: 5, UserID: 1, Status: model.OrderStatusCancelled,
	}, nil)

	uc := usecase.NewAdminOrderUsecase(tx, bus)

	_, err := uc.Deliver(ctx, 2, 5)
	assertErrContains(t, err, "invalid status transition")

	ordersRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, len(bus.Published()))
}

// =====================
// UpdateStatus tests
// =====================

func TestAdminOrderUsecase_UpdateStatus_InvalidStatus(t *testing.T) {
	tx, _, _, _, _, _, bus := newAdminOrderTestDeps()
	uc := usecase.NewAdminOrderUsecase(tx, bus)

	_, err := uc.UpdateStatus(context.Background(), 2, 5, usecase.AdminUpdateOrderStatusInput{Status: "XXX"})
	assertErrContains(t, err, "invalid status")
	tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_DeliveredIsTerminal(t *testing.T) {
	ctx := context.Background()
	tx, ordersRepo, itemsRepo, _, usersRepo, audit, bus := newAdminOrderTestDeps()

	tx.On("WithinTx", mock.Anything).Return(nil)
	ordersRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID: 5, UserID: 1, Status: model.OrderStatusDelivered, IsDelivered: true,
	}, nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderItem{}, nil)
	usersRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1}, nil)

	uc := usecase.NewAdminOrderUsecase(tx, bus)

	//Deliveredからは戻れない
	_, err := uc.UpdateStatus(ctx, 2, 5, usecase.AdminUpdateOrderStatusInput{Status: "Processing"})
	assertErrContains(t, err, "invalid status transition")

	ordersRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, 0, len(bus.Published()))
}

func TestAdminOrderUsecase_UpdateStatus_SameStatusNoOp(t *testing.T) {
	ctx := context.Background()
	tx, ordersRepo, itemsRepo, _, usersRepo, audit, bus := newAdminOrderTestDeps()

	tx.On("WithinTx", mock.Anything).Return(nil)
	ordersRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID: 5, UserID: 1, Status: model.OrderStatusProcessing,
	}, nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderItem{}, nil)
	usersRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1}, nil)

	uc := usecase.NewAdminOrderUsecase(tx, bus)

	out, err := uc.UpdateStatus(ctx, 2, 5, usecase.AdminUpdateOrderStatusInput{Status: "Processing"})
	assert.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusProcessing), out.Status)

	ordersRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	//変化がなければイベントも出ない
	assert.Equal(t, 0, len(bus.Published()))
}

func TestAdminOrderUsecase_UpdateStatus_PlacedToProcessing(t *testing.T) {
	ctx := context.Background()
	tx, ordersRepo, itemsRepo, _, usersRepo, audit, bus := newAdminOrderTestDeps()

	tx.On("WithinTx", mock.Anything).Return(nil)
	ordersRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID: 5, UserID: 1, Status: model.OrderStatusPlaced,
	}, nil)
	ordersRepo.On("UpdateStatus", mock.Anything, int64(5), model.OrderStatusProcessing).Return(nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderItem{}, nil)
	usersRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1}, nil)

	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateOrderStatus &&
			l.ResourceID == int64(5) &&
			strings.Contains(l.BeforeJSON, "Placed") &&
			strings.Contains(l.AfterJSON, "Processing")
	})).Return(nil)

	uc := usecase.NewAdminOrderUsecase(tx, bus)

	out, err := uc.UpdateStatus(ctx, 2, 5, usecase.AdminUpdateOrderStatusInput{Status: "Processing"})
	assert.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusProcessing), out.Status)
	assert.False(t, out.IsDelivered)

	evs := bus.Published()
	assert.Equal(t, 1, len(evs))
	assert.Equal(t, events.TypeUpdate, evs[0].Type)

	audit.AssertExpectations(t)
	ordersRepo.AssertExpectations(t)
}

func TestAdminOrderUsecase_UpdateStatus_ToDeliveredSetsFlags(t *testing.T) {
	ctx := context.Background()
	tx, ordersRepo, itemsRepo, _, usersRepo, audit, bus := newAdminOrderTestDeps()

	tx.On("WithinTx", mock.Anything).Return(nil)
	ordersRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID: 5, UserID: 1, Status: model.OrderStatusShipped,
	}, nil)
	ordersRepo.On("UpdateStatus", mock.Anything, int64(5), model.OrderStatusDelivered).Return(nil)
	ordersRepo.On("SetDelivered", mock.Anything, int64(5), true, mock.Anything).Return(nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderItem{}, nil)
	usersRepo.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1}, nil)
	audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	uc := usecase.NewAdminOrderUsecase(tx, bus)

	out, err := uc.UpdateStatus(ctx, 2, 5, usecase.AdminUpdateOrderStatusInput{Status: "Delivered"})
	assert.NoError(t, err)
	assert.True(t, out.IsDelivered)
	assert.NotNil(t, out.DeliveredAt)

	ordersRepo.AssertExpectations(t)
}

// =====================
// Delete tests
// =====================

func TestAdminOrderUsecase_Delete_RestoresStock(t *testing.T) {
	ctx := context.Background()
	tx, ordersRepo, itemsRepo, invRepo, _, audit, bus := newAdminOrderTestDeps()

	tx.On("WithinTx", mock.Anything).Return(nil)
	ordersRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID: 5, UserID: 1, Status: model.OrderStatusPlaced,
	}, nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderItem{
		{ProductID: 7, Quantity: 2},
		{ProductID: 8, Quantity: 1},
	}, nil)
	invRepo.On("Increase", mock.Anything, int64(7), int64(2)).Return(nil)
	invRepo.On("Increase", mock.Anything, int64(8), int64(1)).Return(nil)
	itemsRepo.On("DeleteByOrderID", mock.Anything, int64(5)).Return(nil)
	ordersRepo.On("Delete", mock.Anything, int64(5)).Return(nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionDeleteOrder && l.ResourceID == int64(5)
	})).Return(nil)

	uc := usecase.NewAdminOrderUsecase(tx, bus)

	err := uc.Delete(ctx, 2, 5)
	assert.NoError(t, err)

	//deleteイベントはidだけでorder本体を載せない
	evs := bus.Published()
	assert.Equal(t, 1, len(evs))
	assert.Equal(t, events.TypeDelete, evs[0].Type)
	assert.Equal(t, "5", evs[0].ID)
	assert.Nil(t, evs[0].Order)

	invRepo.AssertExpectations(t)
	itemsRepo.AssertExpectations(t)
	ordersRepo.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestAdminOrderUsecase_Delete_SkipsMissingProduct(t *testing.T) {
	ctx := context.Background()
	tx, ordersRepo, itemsRepo, invRepo, _, audit, bus := newAdminOrderTestDeps()

	tx.On("WithinTx", mock.Anything).Return(nil)
	ordersRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID: 5, UserID: 1, Status: model.OrderStatusPlaced,
	}, nil)
	itemsRepo.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderItem{
		{ProductID: 7, Quantity: 2},
		{ProductID: 8, Quantity: 1},
	}, nil)
	//7はもう存在しない商品。黙ってスキップして続行する
	invRepo.On("Increase", mock.Anything, int64(7), int64(2)).Return(repo.ErrNotFound)
	invRepo.On("Increase", mock.Anything, int64(8), int64(1)).Return(nil)
	itemsRepo.On("DeleteByOrderID", mock.Anything, int64(5)).Return(nil)
	ordersRepo.On("Delete", mock.Anything, int64(5)).Return(nil)
	audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	uc := usecase.NewAdminOrderUsecase(tx, bus)

	err := uc.Delete(ctx, 2, 5)
	assert.NoError(t, err)

	invRepo.AssertExpectations(t)
	ordersRepo.AssertExpectations(t)
}

func TestAdminOrderUsecase_Delete_NotFound(t *testing.T) {
	ctx := context.Background()
	tx, ordersRepo, _, _, _, _, bus := newAdminOrderTestDeps()

	tx.On("WithinTx", mock.Anything).Return(nil)
	ordersRepo.On("FindByID", mock.Anything, int64(99)).Return(model.Order{}, repo.ErrNotFound)

	uc := usecase.NewAdminOrderUsecase(tx, bus)

	err := uc.Delete(ctx, 2, 99)
	assertErrContains(t, err, "not found")
	assert.Equal(t, 0, len(bus.Published()))
}
