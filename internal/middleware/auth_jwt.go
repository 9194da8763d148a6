package middleware

import (
	"errors"
	"net/http"
	"strings"

	"cupcake/internal/config"
	"cupcake/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey   = "user_id"   // string（IdPのsub）
	CtxUserRoleKey = "user_role" // string
	CtxClaimsKey   = "claims"    // usecase.IdentityClaims
)

// bearerAuth用のJWT検証ミドルウェア。
// トークンは外部IdPが発行したもので、ここでは検証だけ行う。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//JWTをパースして検証する（exp も見る）
			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//subは必須
			sub := claimString(claims, "sub")
			if sub == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//roleは無ければUSER
			role := strings.ToUpper(claimString(claims, "role"))
			if role == "" {
				role = "USER"
			}

			//contextへ保存
			c.Set(CtxUserIDKey, sub)
			c.Set(CtxUserRoleKey, role)
			c.Set(CtxClaimsKey, usecase.IdentityClaims{
				Subject:   sub,
				Email:     claimString(claims, "email"),
				FirstName: claimString(claims, "given_name"),
				LastName:  claimString(claims, "family_name"),
				Role:      role,
			})

			return next(c)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

func claimString(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}
