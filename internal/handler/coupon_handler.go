package handler

import (
	"net/http"

	"cupcake/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CouponHandler struct {
	uc *usecase.CouponUsecase
}

func NewCouponHandler(uc *usecase.CouponUsecase) *CouponHandler {
	return &CouponHandler{uc: uc}
}

type CouponValidateRequest struct {
	Code string `json:"code"`
}

// 無効なときも valid:false を返す
type CouponInvalidResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (h *CouponHandler) RegisterRoutes(api *echo.Group, auth ...echo.MiddlewareFunc) {
	g := api.Group("/coupons", auth...)
	g.POST("/validate", h.validate)
}

func (h *CouponHandler) validate(c echo.Context) error {
	var req CouponValidateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Validate(c.Request().Context(), req.Code)
	if err != nil {
		if he, ok := usecase.AsHTTPError(err); ok && he.Kind == usecase.KindInvalidCoupon {
			return c.JSON(he.Status, CouponInvalidResponse{Valid: false, Error: he.Message, Kind: string(he.Kind)})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
