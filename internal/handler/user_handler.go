package handler

import (
	"net/http"

	"cupcake/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ログイン自体はIdP側。ここは自分の情報を返すだけ
type UserHandler struct {
	uc *usecase.UserUsecase
}

func NewUserHandler(uc *usecase.UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

func (h *UserHandler) RegisterRoutes(api *echo.Group, auth ...echo.MiddlewareFunc) {
	api.GET("/auth/user", h.me, auth...)
}

func (h *UserHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	u, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
