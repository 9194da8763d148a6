package handler

import (
	"net/http"

	"cupcake/internal/usecase"

	"github.com/labstack/echo/v4"
)

// CEP検索と配送可否（公開）
type DeliveryHandler struct {
	uc *usecase.DeliveryUsecase
}

func NewDeliveryHandler(uc *usecase.DeliveryUsecase) *DeliveryHandler {
	return &DeliveryHandler{uc: uc}
}

func (h *DeliveryHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/cep/:cep", h.lookup)
	api.GET("/delivery/check/:cep", h.check)
}

func (h *DeliveryHandler) lookup(c echo.Context) error {
	out, err := h.uc.LookupCEP(c.Request().Context(), c.Param("cep"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DeliveryHandler) check(c echo.Context) error {
	out, err := h.uc.CheckDelivery(c.Request().Context(), c.Param("cep"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
