package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cupcake/internal/domain/model"
	repo "cupcake/internal/repository"
)

type AdminOrderUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	users      repo.UserRepository
	stats      repo.StatsRepository
	auditLogs  repo.AuditLogRepository
	clock      Clock
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	users repo.UserRepository,
	stats repo.StatsRepository,
	auditLogs repo.AuditLogRepository,
	clock Clock,
) *AdminOrderUsecase {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AdminOrderUsecase{
		tx:         tx,
		orders:     orders,
		orderItems: orderItems,
		users:      users,
		stats:      stats,
		auditLogs:  auditLogs,
		clock:      clock,
	}
}

type AdminUpdateOrderStatusInput struct {
	Status string
	// 遷移表にない変更を明示的に許可する
	Force bool
}

type OrderUserOutput struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type AdminOrderOutput struct {
	OrderOutput
	User *OrderUserOutput `json:"user"`
}

type AdminOrderListOutput struct {
	Orders []AdminOrderOutput `json:"orders"`
	Total  int64              `json:"total"`
	Page   int                `json:"page"`
	Limit  int                `json:"limit"`
}

// 注文一覧（ユーザーと明細付き）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return AdminOrderListOutput{}, errDB()
	}

	orderIDs := make([]string, 0, len(orders))
	userIDs := make([]string, 0, len(orders))
	seen := make(map[string]bool)
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		if !seen[o.UserID] {
			seen[o.UserID] = true
			userIDs = append(userIDs, o.UserID)
		}
	}

	items, err := u.orderItems.ListByOrderIDs(ctx, orderIDs)
	if err != nil {
		return AdminOrderListOutput{}, errDB()
	}
	users, err := u.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return AdminOrderListOutput{}, errDB()
	}

	outs := make([]AdminOrderOutput, 0, len(orders))
	for _, o := range orders {
		out := AdminOrderOutput{OrderOutput: toOrderOutput(o, items[o.ID])}
		if usr, ok := users[o.UserID]; ok {
			out.User = &OrderUserOutput{ID: usr.ID, Email: usr.Email, FirstName: usr.FirstName, LastName: usr.LastName}
		}
		outs = append(outs, out)
	}

	return AdminOrderListOutput{Orders: outs, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

type statusAudit struct {
	Status model.OrderStatus `json:"status"`
	Forced bool              `json:"forced,omitempty"`
}

// ステータス更新。遷移表にない変更はforce指定が必要で、監査ログにFORCEとして残る
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID string, orderID string, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(orderID) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !newStatus.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文取得
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return errDB()
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return errDB()
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			out = toOrderOutput(o, items)
			return nil
		}

		forced := !model.CanAdminTransition(o.Status, newStatus)
		if forced && !in.Force {
			return newKindError(http.StatusConflict, KindTransitionNotAllowed,
				fmt.Sprintf("transition from %s to %s requires force", o.Status, newStatus)).
				withDetails("from", string(o.Status), "to", string(newStatus))
		}

		// 読んだ時点のステータスから変わっていなければ更新
		ok, err := r.Orders().UpdateStatusFrom(ctx, orderID, newStatus, o.Status)
		if err != nil {
			return errDB()
		}
		if !ok {
			return NewHTTPError(http.StatusConflict, "order was modified, please reload")
		}

		action := model.AuditActionUpdateOrderStatus
		if forced {
			action = model.AuditActionForceOrderStatus
		}
		before, err := auditSnapshot(statusAudit{Status: o.Status})
		if err != nil {
			return err
		}
		after, err := auditSnapshot(statusAudit{Status: newStatus, Forced: forced})
		if err != nil {
			return err
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       action,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   before,
			AfterJSON:    after,
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return errDB()
		}

		o.Status = newStatus
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

type AuditEntryOutput struct {
	ID          int64           `json:"id"`
	ActorUserID string          `json:"actorUserId"`
	Action      string          `json:"action"`
	Before      json.RawMessage `json:"before"`
	After       json.RawMessage `json:"after"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// 注文ごとの管理操作の履歴（新しい順）。FORCEの変更もここで追える
func (u *AdminOrderUsecase) OrderAudit(ctx context.Context, orderID string, limit, offset int) ([]AuditEntryOutput, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if limit < 1 || limit > 100 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	if _, err := u.orders.FindByID(ctx, orderID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewHTTPError(http.StatusNotFound, "not found")
		}
		return nil, errDB()
	}

	logs, err := u.auditLogs.List(ctx, repo.AuditLogFilter{
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return nil, errDB()
	}

	out := make([]AuditEntryOutput, 0, len(logs))
	for _, l := range logs {
		out = append(out, AuditEntryOutput{
			ID:          l.ID,
			ActorUserID: l.ActorUserID,
			Action:      string(l.Action),
			Before:      rawJSON(l.BeforeJSON),
			After:       rawJSON(l.AfterJSON),
			CreatedAt:   l.CreatedAt,
		})
	}
	return out, nil
}

// 空ならnull
func rawJSON(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}

type AdminStatsOutput struct {
	TotalOrders   int64  `json:"totalOrders"`
	TotalRevenue  string `json:"totalRevenue"`
	TotalProducts int64  `json:"totalProducts"`
	TotalUsers    int64  `json:"totalUsers"`
}

func (u *AdminOrderUsecase) Stats(ctx context.Context) (AdminStatsOutput, error) {
	s, err := u.stats.AdminStats(ctx)
	if err != nil {
		return AdminStatsOutput{}, errDB()
	}
	return AdminStatsOutput{
		TotalOrders:   s.TotalOrders,
		TotalRevenue:  s.TotalRevenue.StringFixed(2),
		TotalProducts: s.TotalProducts,
		TotalUsers:    s.TotalUsers,
	}, nil
}
