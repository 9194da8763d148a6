package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cupcake/internal/domain/delivery"
	"cupcake/internal/domain/model"
	"cupcake/internal/middleware"
	repo "cupcake/internal/repository"
	"cupcake/internal/usecase"
	"cupcake/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 認証済み扱いにする（AuthJWTの代わり）
func asUser(userID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxUserIDKey, userID)
			c.Set(middleware.CtxUserRoleKey, "USER")
			return next(c)
		}
	}
}

func newTestEcho() (*echo.Echo, *echo.Group) {
	e := echo.New()
	e.Validator = validator.New()
	return e, e.Group("/api")
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var r ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	return r
}

type stubResolver struct {
	addr model.ResolvedAddress
	err  error
}

func (s stubResolver) Resolve(context.Context, string) (model.ResolvedAddress, error) {
	return s.addr, s.err
}

// コードが空なら引く前に弾かれる
type unusedCoupons struct{ repo.CouponRepository }

func TestWriteError(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	he := &usecase.HTTPError{
		Status:  http.StatusBadRequest,
		Kind:    usecase.KindDeliveryUnavailable,
		Message: "delivery is not available for Recife/PE",
		Details: map[string]string{"city": "Recife", "state": "PE"},
	}
	require.NoError(t, writeError(c, he))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "DeliveryUnavailable", body.Kind)
	assert.Equal(t, "Recife", body.Details["city"])

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, writeError(c, errors.New("pq: password authentication failed")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeError(t, rec).Error)
}

func TestOrderCreate_RejectsBadQuantity(t *testing.T) {
	e, api := newTestEcho()
	uc := usecase.NewOrderUsecase(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, usecase.OrderOptions{})
	NewOrderHandler(uc).RegisterRoutes(api, asUser("u1"))

	for _, qty := range []string{"0", "-2", "1.5", `"2"`, "null", "1e3", "103633393672525572", "99999999999999999999"} {
		body := `{"deliveryAddress":"Rua A, 58000-000","items":[{"productId":"p1","quantity":` + qty + `}]}`
		rec := doJSON(t, e, http.MethodPost, "/api/orders", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, qty)
		assert.Equal(t, "InvalidItem", decodeError(t, rec).Kind, qty)
	}
}

func TestOrderCreate_MissingPostalCode(t *testing.T) {
	e, api := newTestEcho()
	uc := usecase.NewOrderUsecase(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, usecase.OrderOptions{})
	NewOrderHandler(uc).RegisterRoutes(api, asUser("u1"))

	rec := doJSON(t, e, http.MethodPost, "/api/orders",
		`{"deliveryAddress":"Rua A, sem cep","items":[{"productId":"p1","quantity":1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MissingPostalCode", decodeError(t, rec).Kind)
}

func TestOrderRoutes_RequireAuth(t *testing.T) {
	e, api := newTestEcho()
	uc := usecase.NewOrderUsecase(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, usecase.OrderOptions{})
	NewOrderHandler(uc).RegisterRoutes(api)

	rec := doJSON(t, e, http.MethodGet, "/api/orders", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCouponValidate_EmptyCode(t *testing.T) {
	e, api := newTestEcho()
	NewCouponHandler(usecase.NewCouponUsecase(unusedCoupons{}, nil, nil)).RegisterRoutes(api, asUser("u1"))

	rec := doJSON(t, e, http.MethodPost, "/api/coupons/validate", `{"code":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body CouponInvalidResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Valid)
	assert.Equal(t, model.ErrCouponEmptyCode.Error(), body.Error)
}

func TestDeliveryCheck(t *testing.T) {
	e, api := newTestEcho()
	resolver := stubResolver{addr: model.ResolvedAddress{CEP: "58000000", City: "João Pessoa", State: "PB"}}
	NewDeliveryHandler(usecase.NewDeliveryUsecase(resolver, delivery.NewChecker(), nil)).RegisterRoutes(api)

	rec := doJSON(t, e, http.MethodGet, "/api/delivery/check/58000-000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out usecase.DeliveryCheckOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Available)

	rec = doJSON(t, e, http.MethodGet, "/api/cep/123", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidPostalCode", decodeError(t, rec).Kind)
}

func TestCEPLookup_NotFound(t *testing.T) {
	e, api := newTestEcho()
	resolver := stubResolver{err: repo.ErrPostalCodeNotFound}
	NewDeliveryHandler(usecase.NewDeliveryUsecase(resolver, nil, nil)).RegisterRoutes(api)

	rec := doJSON(t, e, http.MethodGet, "/api/cep/99999999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddressCreate_Validation(t *testing.T) {
	e, api := newTestEcho()
	NewAddressHandler(usecase.NewAddressUsecase(nil, nil)).RegisterRoutes(api, asUser("u1"))

	rec := doJSON(t, e, http.MethodPost, "/api/addresses",
		`{"name":"Casa","cep":"5800","street":"Rua A","number":"1","neighborhood":"Centro","city":"João Pessoa","state":"PB"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cep must have 8 digits", decodeError(t, rec).Error)

	rec = doJSON(t, e, http.MethodPost, "/api/addresses",
		`{"name":"Casa","cep":"58000000","street":" ","number":"1","neighborhood":"Centro","city":"João Pessoa","state":"PB"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "street is required", decodeError(t, rec).Error)
}

func TestCartUpdate_Validation(t *testing.T) {
	e, api := newTestEcho()
	NewCartHandler(usecase.NewCartUsecase(nil, nil)).RegisterRoutes(api, asUser("u1"))

	rec := doJSON(t, e, http.MethodPut, "/api/cart/ci1", `{"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "quantity is invalid", decodeError(t, rec).Error)
}

func TestAdminList_BadQuery(t *testing.T) {
	e, api := newTestEcho()
	NewAdminOrderHandler(usecase.NewAdminOrderUsecase(nil, nil, nil, nil, nil, nil, nil), nil).RegisterRoutes(api, asUser("admin"))

	rec := doJSON(t, e, http.MethodGet, "/api/admin/orders?page=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/admin/orders?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid limit", decodeError(t, rec).Error)
}

func TestAdminUpdateStatus_InvalidStatus(t *testing.T) {
	e, api := newTestEcho()
	NewAdminOrderHandler(usecase.NewAdminOrderUsecase(nil, nil, nil, nil, nil, nil, nil), nil).RegisterRoutes(api, asUser("admin"))

	rec := doJSON(t, e, http.MethodPut, "/api/admin/orders/o1/status", `{"status":"shipped"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid status", decodeError(t, rec).Error)
}

func TestAdminOrderAudit_BadQuery(t *testing.T) {
	e, api := newTestEcho()
	NewAdminOrderHandler(usecase.NewAdminOrderUsecase(nil, nil, nil, nil, nil, nil, nil), nil).RegisterRoutes(api, asUser("admin"))

	rec := doJSON(t, e, http.MethodGet, "/api/admin/orders/o1/audit?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid limit", decodeError(t, rec).Error)

	rec = doJSON(t, e, http.MethodGet, "/api/admin/orders/o1/audit?offset=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid offset", decodeError(t, rec).Error)
}

func TestParseQuantity(t *testing.T) {
	tests := map[string]int64{
		`3`:     3,
		` 12 `:  12,
		`"2"`:   0,
		`2.0`:   0,
		`null`:  0,
		``:      0,
		`-1`:    -1,
		`true`:  0,
		`"abc"`: 0,
	}
	for raw, want := range tests {
		assert.Equal(t, want, parseQuantity(json.RawMessage(raw)), raw)
	}
}
