package middleware

import (
	"context"
	"net/http"

	"cupcake/internal/domain/model"
	"cupcake/internal/usecase"

	"github.com/labstack/echo/v4"
)

type UserSyncer interface {
	SyncFromClaims(ctx context.Context, c usecase.IdentityClaims) (model.User, error)
}

// AuthJWTのクレームでusersを作成/更新する。
// roleはDBに保存された値で上書きする。
func EnsureUser(users UserSyncer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(CtxClaimsKey).(usecase.IdentityClaims)
			if !ok || claims.Subject == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			user, err := users.SyncFromClaims(c.Request().Context(), claims)
			if err != nil {
				if he, ok := usecase.AsHTTPError(err); ok {
					return c.JSON(he.Status, errorJSON(he.Message))
				}
				return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}

			c.Set(CtxUserRoleKey, string(user.Role))
			return next(c)
		}
	}
}
