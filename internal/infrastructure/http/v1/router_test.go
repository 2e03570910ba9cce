package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmops/internal/app"
	appctx "farmops/internal/core/context"
	"farmops/internal/domain/auth"
	v1 "farmops/internal/infrastructure/http/v1"
	"farmops/internal/infrastructure/storage/memory"
	"farmops/pkg/logger"
)

type testAPI struct {
	t      *testing.T
	router http.Handler
	jwt    *auth.JWTService
	token  string
	admin  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := memory.NewStore()
	services := app.NewServices(app.NewMemoryStorage(store), app.Options{})
	jwtSvc := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))

	router := v1.NewRouter(v1.RouterConfig{
		Services:      services,
		Logger:        logger.Nop(),
		JWTValidator:  jwtSvc,
		Idempotency:   store.Idempotency,
		StorageDriver: "memory",
	})

	operator, _, err := jwtSvc.GenerateAccessToken("u-operator", "Operator", []string{"operator"})
	require.NoError(t, err)
	admin, _, err := jwtSvc.GenerateAccessToken("u-admin", "Admin", []string{appctx.RoleAdmin})
	require.NoError(t, err)

	return &testAPI{t: t, router: router, jwt: jwtSvc, token: operator, admin: admin}
}

func (a *testAPI) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testAPI) createProduct(packaged int64) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/products", a.token, map[string]any{
		"type":             " Whole Chicken ",
		"packagedQuantity": packaged,
		"weight":           "2.5",
		"baseUnitPrice":    "10.00",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode(a.t, w)["id"].(string)
}

func (a *testAPI) createOrder(productID string, quantity int64) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do(http.MethodPost, "/api/v1/orders", a.token, map[string]any{
		"customerName": "Green Grocer",
		"productId":    productID,
		"quantity":     quantity,
	})
}

func TestHealth_NoAuthRequired(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/health/info", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "memory", decode(t, w)["storage"])
}

func TestAPI_RequiresBearerToken(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/v1/orders", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])

	w = api.do(http.MethodGet, "/api/v1/orders", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProduct_CreateNormalizesType(t *testing.T) {
	api := newTestAPI(t)
	productID := api.createProduct(10)

	w := api.do(http.MethodGet, "/api/v1/products/"+productID, api.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "whole chicken", body["type"])
	assert.Equal(t, "2.5", body["weight"])

	w = api.do(http.MethodGet, "/api/v1/products/not-an-id", api.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrder_CapacityIsEnforced(t *testing.T) {
	api := newTestAPI(t)
	productID := api.createProduct(10)

	w := api.createOrder(productID, 6)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "managed", created["mode"])
	assert.Equal(t, "whole chicken", created["productType"])

	w = api.createOrder(productID, 5)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	rejected := decode(t, w)
	assert.Equal(t, "CAPACITY_EXCEEDED", rejected["code"])
	assert.EqualValues(t, 4, rejected["details"].(map[string]any)["available"])

	w = api.do(http.MethodGet, "/api/v1/products/"+productID+"/availability", api.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	avail := decode(t, w)
	assert.EqualValues(t, 10, avail["packagedQuantity"])
	assert.EqualValues(t, 6, avail["reservedQuantity"])
	assert.EqualValues(t, 4, avail["availableQuantity"])
}

func TestOrder_ValidationErrors(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/orders", api.token, map[string]any{
		"customerName": "Green Grocer",
		"quantity":     3,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])

	w = api.do(http.MethodPost, "/api/v1/orders", api.token, map[string]any{
		"customerName": "Green Grocer",
		"productType":  "eggs",
		"quantity":     0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodGet, "/api/v1/orders?status=shipped", api.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrder_DeleteRequiresAdmin(t *testing.T) {
	api := newTestAPI(t)
	productID := api.createProduct(10)

	w := api.createOrder(productID, 2)
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decode(t, w)["id"].(string)

	w = api.do(http.MethodDelete, "/api/v1/orders/"+orderID, api.token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, w)["code"])

	w = api.do(http.MethodDelete, "/api/v1/orders/"+orderID, api.admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodGet, "/api/v1/orders/"+orderID, api.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelivery_LifecycleDrivesOrderStatus(t *testing.T) {
	api := newTestAPI(t)
	productID := api.createProduct(10)

	w := api.createOrder(productID, 4)
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decode(t, w)["id"].(string)

	w = api.do(http.MethodPost, "/api/v1/deliveries", api.token, map[string]any{
		"orderId":           orderID,
		"deliveryDate":      "2026-03-01",
		"quantityDelivered": 5,
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "OVER_DELIVERY", decode(t, w)["code"])

	w = api.do(http.MethodPost, "/api/v1/deliveries", api.token, map[string]any{
		"orderId":           orderID,
		"deliveryDate":      "2026-03-01",
		"quantityDelivered": 3,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	deliveryID := decode(t, w)["id"].(string)

	w = api.do(http.MethodGet, "/api/v1/orders/"+orderID, api.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	o := decode(t, w)
	assert.Equal(t, "confirmed", o["status"])
	assert.EqualValues(t, 3, o["deliveredQuantity"])
	assert.EqualValues(t, 1, o["outstandingQuantity"])

	w = api.do(http.MethodPut, "/api/v1/deliveries/"+deliveryID, api.token, map[string]any{
		"quantityDelivered": 4,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/orders/"+orderID, api.token, nil)
	assert.Equal(t, "fulfilled", decode(t, w)["status"])

	w = api.do(http.MethodGet, "/api/v1/products/"+productID, api.token, nil)
	assert.EqualValues(t, 6, decode(t, w)["packagedQuantity"])

	w = api.do(http.MethodGet, "/api/v1/products/"+productID+"/movements", api.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["totalCount"])

	w = api.do(http.MethodGet, "/api/v1/deliveries?orderId="+orderID, api.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["totalCount"])

	w = api.do(http.MethodDelete, "/api/v1/deliveries/"+deliveryID, api.admin, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodGet, "/api/v1/orders/"+orderID, api.token, nil)
	assert.Equal(t, "pending", decode(t, w)["status"])

	w = api.do(http.MethodGet, "/api/v1/products/"+productID, api.token, nil)
	assert.EqualValues(t, 10, decode(t, w)["packagedQuantity"])
}

func TestIdempotency_ReplaysAndRejectsMismatch(t *testing.T) {
	api := newTestAPI(t)
	productID := api.createProduct(10)

	body := map[string]any{"customerName": "Green Grocer", "productId": productID, "quantity": 2}

	first := api.do(http.MethodPost, "/api/v1/orders", api.token, body, "X-Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, first.Code)

	replay := api.do(http.MethodPost, "/api/v1/orders", api.token, body, "X-Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())

	body["quantity"] = 3
	mismatch := api.do(http.MethodPost, "/api/v1/orders", api.token, body, "X-Idempotency-Key", "k-1")
	require.Equal(t, http.StatusConflict, mismatch.Code)
	assert.Equal(t, "IDEMPOTENCY_CONFLICT", decode(t, mismatch)["code"])

	w := api.do(http.MethodGet, "/api/v1/products/"+productID+"/availability", api.token, nil)
	assert.EqualValues(t, 2, decode(t, w)["reservedQuantity"])
}

func TestIdempotency_ConflictsAreRetriedRejectionsReplayed(t *testing.T) {
	api := newTestAPI(t)
	productID := api.createProduct(10)

	created := api.createOrder(productID, 2)
	require.Equal(t, http.StatusCreated, created.Code)
	orderID := decode(t, created)["id"].(string)

	stale := map[string]any{"quantity": 3, "version": 99}
	first := api.do(http.MethodPut, "/api/v1/orders/"+orderID, api.token, stale, "X-Idempotency-Key", "k-put")
	require.Equal(t, http.StatusConflict, first.Code)
	assert.Equal(t, "CONCURRENCY_CONFLICT", decode(t, first)["code"])

	retry := api.do(http.MethodPut, "/api/v1/orders/"+orderID, api.token, stale, "X-Idempotency-Key", "k-put")
	require.Equal(t, http.StatusConflict, retry.Code)
	assert.Empty(t, retry.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, "CONCURRENCY_CONFLICT", decode(t, retry)["code"])

	tooMany := map[string]any{"customerName": "Green Grocer", "productId": productID, "quantity": 20}
	rejected := api.do(http.MethodPost, "/api/v1/orders", api.token, tooMany, "X-Idempotency-Key", "k-cap")
	require.Equal(t, http.StatusUnprocessableEntity, rejected.Code)

	replayed := api.do(http.MethodPost, "/api/v1/orders", api.token, tooMany, "X-Idempotency-Key", "k-cap")
	require.Equal(t, http.StatusUnprocessableEntity, replayed.Code)
	assert.Equal(t, "true", replayed.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, "CAPACITY_EXCEEDED", decode(t, replayed)["code"])
}

func TestReconciliation_AdminOnly(t *testing.T) {
	api := newTestAPI(t)
	api.createProduct(3)

	w := api.do(http.MethodPost, "/api/v1/reconciliation/run", api.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPost, "/api/v1/reconciliation/run", api.admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["products"])
}
