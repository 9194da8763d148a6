package handler

import (
	"net/http"
	"strconv"
	"time"

	"cupcake/internal/repository"
	"cupcake/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin 配下（注文・統計・クーポン作成）
type AdminOrderHandler struct {
	orders  *usecase.AdminOrderUsecase
	coupons *usecase.CouponUsecase
}

func NewAdminOrderHandler(orders *usecase.AdminOrderUsecase, coupons *usecase.CouponUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{orders: orders, coupons: coupons}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,notblank"`
	Force  bool   `json:"force"`
}

type CouponCreateRequest struct {
	Code               string     `json:"code" validate:"required,notblank,max=64"`
	DiscountPercentage int        `json:"discountPercentage" validate:"gte=0,lte=100"`
	MaxUsage           *int       `json:"maxUsage" validate:"omitempty,gte=0"`
	IsActive           *bool      `json:"isActive"`
	ExpiresAt          *time.Time `json:"expiresAt"`
}

// mw は認証 + AdminRoleGuard
func (h *AdminOrderHandler) RegisterRoutes(api *echo.Group, mw ...echo.MiddlewareFunc) {
	admin := api.Group("/admin", mw...)

	admin.GET("/stats", h.stats)
	admin.GET("/orders", h.list)
	admin.PUT("/orders/:id/status", h.updateStatus)
	admin.GET("/orders/:id/audit", h.audit)
	admin.POST("/coupons", h.createCoupon)
}

func (h *AdminOrderHandler) stats(c echo.Context) error {
	out, err := h.orders.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid page")
		}
		page = p
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		limit = l
	}

	var fromPtr *time.Time
	if v := c.QueryParam("from"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "invalid from")
		}
		fromPtr = &tm
	}

	var toPtr *time.Time
	if v := c.QueryParam("to"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return badRequest(c, "invalid to")
		}
		toPtr = &tm
	}

	out, err := h.orders.List(c.Request().Context(), repository.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		UserID: c.QueryParam("userId"),
		From:   fromPtr,
		To:     toPtr,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// ステータス変更の履歴（?limit=50&offset=0）
func (h *AdminOrderHandler) audit(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		limit = l
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid offset")
		}
		offset = o
	}

	out, err := h.orders.OrderAudit(c.Request().Context(), c.Param("id"), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	var req OrderStatusUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	// 操作した管理者ID（監査ログ用）
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.orders.UpdateStatus(
		c.Request().Context(),
		adminID,
		c.Param("id"),
		usecase.AdminUpdateOrderStatusInput{Status: req.Status, Force: req.Force},
	)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) createCoupon(c echo.Context) error {
	var req CouponCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.coupons.AdminCreate(c.Request().Context(), adminID, usecase.CreateCouponInput{
		Code:               req.Code,
		DiscountPercentage: req.DiscountPercentage,
		MaxUsage:           req.MaxUsage,
		IsActive:           req.IsActive,
		ExpiresAt:          req.ExpiresAt,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}
