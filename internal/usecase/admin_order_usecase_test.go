package usecase

import (
	"context"
	"net/http"
	"testing"

	"cupcake/internal/domain/model"
	repo "cupcake/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type adminFixture struct {
	tx     *TxManagerMock
	orders *OrderRepoMock
	items  *OrderItemRepoMock
	audits *AuditLogRepoMock
	users  *UserRepoMock
	stats  *StatsRepoMock
	uc     *AdminOrderUsecase
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		orders: new(OrderRepoMock),
		items:  new(OrderItemRepoMock),
		audits: new(AuditLogRepoMock),
		users:  new(UserRepoMock),
		stats:  new(StatsRepoMock),
	}
	f.tx = &TxManagerMock{Repos: &TxReposMock{orders: f.orders, orderItems: f.items, auditLogs: f.audits}}
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.uc = NewAdminOrderUsecase(f.tx, f.orders, f.items, f.users, f.stats, f.audits, fixedClock{t: testNow})
	return f
}

func (f *adminFixture) orderIn(status model.OrderStatus) {
	f.orders.On("FindByID", mock.Anything, "o1").Return(model.Order{ID: "o1", UserID: "u1", Status: status}, nil)
	f.items.On("ListByOrderID", mock.Anything, "o1").Return([]model.OrderItem{}, nil)
}

func TestAdminUpdateStatus_AllowedTransition(t *testing.T) {
	f := newAdminFixture()
	f.orderIn(model.OrderStatusPending)
	f.orders.On("UpdateStatusFrom", mock.Anything, "o1", model.OrderStatusConfirmed,
		[]model.OrderStatus{model.OrderStatusPending}).Return(true, nil)
	f.audits.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateOrderStatus &&
			l.BeforeJSON == `{"status":"pending"}` &&
			l.AfterJSON == `{"status":"confirmed"}`
	})).Return(nil).Once()

	out, err := f.uc.UpdateStatus(context.Background(), "admin", "o1", AdminUpdateOrderStatusInput{Status: "CONFIRMED"})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", out.Status)
	f.audits.AssertExpectations(t)
}

func TestAdminUpdateStatus_OffTableNeedsForce(t *testing.T) {
	f := newAdminFixture()
	f.orderIn(model.OrderStatusDelivered)

	_, err := f.uc.UpdateStatus(context.Background(), "admin", "o1", AdminUpdateOrderStatusInput{Status: "pending"})
	he := requireKind(t, err, http.StatusConflict, KindTransitionNotAllowed)
	assert.Equal(t, "delivered", he.Details["from"])
	assert.Equal(t, "pending", he.Details["to"])
	f.orders.AssertNotCalled(t, "UpdateStatusFrom", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.audits.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminUpdateStatus_ForcedIsAudited(t *testing.T) {
	f := newAdminFixture()
	f.orderIn(model.OrderStatusDelivered)
	f.orders.On("UpdateStatusFrom", mock.Anything, "o1", model.OrderStatusPending,
		[]model.OrderStatus{model.OrderStatusDelivered}).Return(true, nil)
	f.audits.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionForceOrderStatus && l.AfterJSON == `{"status":"pending","forced":true}`
	})).Return(nil).Once()

	out, err := f.uc.UpdateStatus(context.Background(), "admin", "o1", AdminUpdateOrderStatusInput{Status: "pending", Force: true})
	require.NoError(t, err)
	assert.Equal(t, "pending", out.Status)
	f.audits.AssertExpectations(t)
}

func TestAdminUpdateStatus_SameStatusIsNoop(t *testing.T) {
	f := newAdminFixture()
	f.orderIn(model.OrderStatusReady)

	out, err := f.uc.UpdateStatus(context.Background(), "admin", "o1", AdminUpdateOrderStatusInput{Status: "ready"})
	require.NoError(t, err)
	assert.Equal(t, "ready", out.Status)
	f.audits.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminUpdateStatus_Errors(t *testing.T) {
	f := newAdminFixture()
	_, err := f.uc.UpdateStatus(context.Background(), "admin", "o1", AdminUpdateOrderStatusInput{Status: "shipped"})
	requireKind(t, err, http.StatusBadRequest, KindInvalidRequest)

	f.orders.On("FindByID", mock.Anything, "missing").Return(model.Order{}, repo.ErrNotFound)
	_, err = f.uc.UpdateStatus(context.Background(), "admin", "missing", AdminUpdateOrderStatusInput{Status: "ready"})
	requireKind(t, err, http.StatusNotFound, KindNotFound)

	f.orderIn(model.OrderStatusPreparing)
	f.orders.On("UpdateStatusFrom", mock.Anything, "o1", model.OrderStatusReady, mock.Anything).Return(false, nil)
	_, err = f.uc.UpdateStatus(context.Background(), "admin", "o1", AdminUpdateOrderStatusInput{Status: "ready"})
	requireKind(t, err, http.StatusConflict, KindConflict)
}

func TestAdminOrderAudit(t *testing.T) {
	f := newAdminFixture()
	f.orderIn(model.OrderStatusPending)
	f.audits.On("List", mock.Anything, repo.AuditLogFilter{
		ResourceType: model.AuditResourceOrder, ResourceID: "o1", Limit: 20, Offset: 0,
	}).Return([]model.AuditLog{
		{
			ID: 2, ActorUserID: "admin", Action: model.AuditActionForceOrderStatus,
			BeforeJSON: `{"status":"delivered"}`, AfterJSON: `{"status":"pending","forced":true}`, CreatedAt: testNow,
		},
		{ID: 1, ActorUserID: "admin", Action: model.AuditActionUpdateOrderStatus, AfterJSON: `{"status":"delivered"}`},
	}, nil)

	out, err := f.uc.OrderAudit(context.Background(), "o1", 20, 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "FORCE_ORDER_STATUS", out[0].Action)
	assert.JSONEq(t, `{"status":"delivered"}`, string(out[0].Before))
	assert.JSONEq(t, `{"status":"pending","forced":true}`, string(out[0].After))
	assert.Nil(t, out[1].Before)
}

func TestAdminOrderAudit_Errors(t *testing.T) {
	f := newAdminFixture()
	for _, tc := range []struct {
		limit, offset int
	}{{0, 0}, {101, 0}, {20, -1}} {
		_, err := f.uc.OrderAudit(context.Background(), "o1", tc.limit, tc.offset)
		requireKind(t, err, http.StatusBadRequest, KindInvalidRequest)
	}

	f.orders.On("FindByID", mock.Anything, "missing").Return(model.Order{}, repo.ErrNotFound)
	_, err := f.uc.OrderAudit(context.Background(), "missing", 20, 0)
	requireKind(t, err, http.StatusNotFound, KindNotFound)
	f.audits.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestAdminList(t *testing.T) {
	f := newAdminFixture()
	filter := repo.AdminOrderListFilter{Page: 1, Limit: 20}
	f.orders.On("ListAdmin", mock.Anything, filter).Return([]model.Order{
		{ID: "o1", UserID: "u1", Status: model.OrderStatusPending, Total: decimal.RequireFromString("29.7")},
		{ID: "o2", UserID: "u1", Status: model.OrderStatusReady, Total: decimal.RequireFromString("10")},
		{ID: "o3", UserID: "gone", Status: model.OrderStatusReady, Total: decimal.RequireFromString("10")},
	}, int64(3), nil)
	f.items.On("ListByOrderIDs", mock.Anything, []string{"o1", "o2", "o3"}).Return(map[string][]model.OrderItem{}, nil)
	f.users.On("FindByIDs", mock.Anything, []string{"u1", "gone"}).Return(map[string]model.User{
		"u1": {ID: "u1", Email: "ana@example.com", FirstName: "Ana"},
	}, nil)

	out, err := f.uc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Total)
	require.Len(t, out.Orders, 3)
	assert.Equal(t, "29.70", out.Orders[0].Total)
	require.NotNil(t, out.Orders[0].User)
	assert.Equal(t, "ana@example.com", out.Orders[0].User.Email)
	assert.Nil(t, out.Orders[2].User)
}

func TestAdminList_RejectsBadFilter(t *testing.T) {
	f := newAdminFixture()
	for _, filter := range []repo.AdminOrderListFilter{
		{Page: 0, Limit: 20},
		{Page: 1, Limit: 101},
		{Page: 1, Limit: 20, Status: "lost"},
	} {
		_, err := f.uc.List(context.Background(), filter)
		requireKind(t, err, http.StatusBadRequest, KindInvalidRequest)
	}
}

func TestAdminStats(t *testing.T) {
	f := newAdminFixture()
	f.stats.On("AdminStats", mock.Anything).Return(repo.AdminStats{
		TotalOrders: 4, TotalRevenue: decimal.RequireFromString("118.8"), TotalProducts: 14, TotalUsers: 2,
	}, nil)

	out, err := f.uc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, AdminStatsOutput{TotalOrders: 4, TotalRevenue: "118.80", TotalProducts: 14, TotalUsers: 2}, out)
}
