package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/internal/testdb"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Message string                 `json:"message"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newAPIClient(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("GCS_BUCKET", "")
	return &apiClient{t: t, router: setupRouter(config.GetLogger())}
}

func (a *apiClient) do(method, url, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.serve(req)
}

func (a *apiClient) serve(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func nested(t *testing.T, m map[string]interface{}, keys ...string) interface{} {
	t.Helper()
	var cur interface{} = m
	for _, k := range keys {
		obj, ok := cur.(map[string]interface{})
		require.Truef(t, ok, "%s is not an object", k)
		cur = obj[k]
	}
	return cur
}

func TestHealthAndUnknownRoute(t *testing.T) {
	testdb.Open(t)
	api := newAPIClient(t)

	w, _ := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.Header.Set("x-correlation-id", "cid-42")
	w, env := api.serve(req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "cid-42", w.Header().Get("x-correlation-id"))
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestReadinessGate_WithoutDatabase(t *testing.T) {
	previous := config.GetDB()
	config.SetDB(nil)
	t.Cleanup(func() { config.SetDB(previous) })
	api := newAPIClient(t)

	w, _ := api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "a", "password": "b"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w, _ = api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLoginAndMe(t *testing.T) {
	testdb.Open(t)
	owner := testdb.CreateUser(t, models.UserRoleOwner)
	api := newAPIClient(t)

	w, env := api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": owner.Username,
		"password": testdb.Password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := env.Data["token"].(string)
	require.NotEmpty(t, token)
	assert.NotContains(t, w.Body.String(), "password\":")

	w, env = api.do(http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, owner.ID, env.Data["id"])

	w, env = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": owner.Username, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	w, env = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": owner.Username})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "required", env.Error.Details["password"])

	w, _ = api.do(http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTransactionFlow(t *testing.T) {
	testdb.Open(t)
	f := testdb.Seed(t)
	api := newAPIClient(t)
	owner := testdb.Token(t, f.Owner)
	shopURL := "/api/v1/shops/" + f.Shop.ID

	w, env := api.do(http.MethodPost, shopURL+"/transactions", owner, map[string]interface{}{
		"category":            "mobile",
		"type":                "deposit",
		"provider_id":         f.MobileProvider.ID,
		"amount":              "1,000",
		"commission":          12.5,
		"reference":           "MP240501",
		"customer_identifier": "0712345678",
		"transaction_date":    "2024-05-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)
	assert.Equal(t, "Transaction recorded", env.Message)
	assert.EqualValues(t, 1000, nested(t, env.Data, "balance_updates", "cash_balance", "current"))
	assert.EqualValues(t, -1000, nested(t, env.Data, "balance_updates", "float_balance", "current"))
	txnId, _ := nested(t, env.Data, "transaction", "id").(string)
	require.NotEmpty(t, txnId)

	w, env = api.do(http.MethodGet, "/api/v1/transactions/"+txnId, testdb.Token(t, f.Cashier), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "M-Pesa", env.Data["provider_name"])
	assert.EqualValues(t, 12.5, env.Data["commission"])

	w, env = api.do(http.MethodPut, "/api/v1/transactions/"+txnId, owner, map[string]interface{}{"amount": 1200})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, -200, nested(t, env.Data, "balance_updates", "float_balance", "change"))

	w, env = api.do(http.MethodGet, shopURL+"/balances", owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1200, nested(t, env.Data, "totals", "total_cash"))
	assert.EqualValues(t, -1200, nested(t, env.Data, "totals", "total_mobile_float"))
	assert.EqualValues(t, 0, nested(t, env.Data, "totals", "grand_total"))
	lines, _ := env.Data["float_balances"].([]interface{})
	require.Len(t, lines, 1)
	assert.Equal(t, "M-Pesa", lines[0].(map[string]interface{})["provider_name"])

	w, env = api.do(http.MethodGet, shopURL+"/balances/reconcile", testdb.Token(t, f.Cashier), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, env.Data["drifts"])
	w, _ = api.do(http.MethodPost, shopURL+"/balances/rebuild", testdb.Token(t, f.Cashier), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = api.do(http.MethodDelete, "/api/v1/transactions/"+txnId, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, nested(t, env.Data, "balance_updates", "cash_balance", "current"))
}

func TestErrorResponses(t *testing.T) {
	testdb.Open(t)
	f := testdb.Seed(t)
	api := newAPIClient(t)
	owner := testdb.Token(t, f.Owner)

	w, env := api.do(http.MethodPost, "/api/v1/shops/"+f.Shop.ID+"/transactions", owner, map[string]interface{}{
		"category": "mobile",
		"type":     "deposit",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, "required", env.Error.Details["provider_id"])

	w, env = api.do(http.MethodPost, "/api/v1/shops/"+f.Shop.ID+"/float-movements/withdraw", owner, map[string]interface{}{
		"provider_id":      f.MobileProvider.ID,
		"super_agent_id":   f.SuperAgent.ID,
		"category":         "mobile",
		"amount":           10,
		"reference":        "SA-9",
		"is_new_capital":   true,
		"transaction_date": "2024-05-01",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "top_up", env.Error.Details["is_new_capital"])

	w, env = api.do(http.MethodGet, "/api/v1/shops/"+f.Shop.ID, testdb.Token(t, f.Outsider), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	w, env = api.do(http.MethodGet, "/api/v1/shops/does-not-exist/balances", owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, _ = api.do(http.MethodGet, "/api/v1/shops/"+f.Shop.ID+"/balances?category=crypto", owner, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = api.do(http.MethodGet, "/api/v1/transactions/types", owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFloatMovementAndCashRoutes(t *testing.T) {
	testdb.Open(t)
	f := testdb.Seed(t)
	api := newAPIClient(t)
	owner := testdb.Token(t, f.Owner)
	shopURL := "/api/v1/shops/" + f.Shop.ID

	w, env := api.do(http.MethodPost, shopURL+"/float-movements/top-up", owner, map[string]interface{}{
		"provider_id":      f.BankProvider.ID,
		"super_agent_id":   f.SuperAgent.ID,
		"category":         "bank",
		"amount":           500,
		"reference":        "SA-1",
		"transaction_date": "2024-05-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Float topped up", env.Message)
	movementId, _ := nested(t, env.Data, "float_movement", "id").(string)

	w, env = api.do(http.MethodGet, "/api/v1/float-movements/"+movementId, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CRDB", env.Data["provider_name"])
	assert.Equal(t, "City Super Agent", env.Data["super_agent_name"])

	w, env = api.do(http.MethodPut, "/api/v1/float-movements/"+movementId, owner, map[string]interface{}{"receipt_image_url": "receipt.jpg"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "url", env.Error.Details["receipt_image_url"])

	w, env = api.do(http.MethodPut, shopURL+"/balances/cash", owner, map[string]interface{}{"opening_balance": 2000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1500, nested(t, env.Data, "cash", "balance"))

	w, env = api.do(http.MethodPost, shopURL+"/balances/cash/adjust", owner, map[string]interface{}{
		"type":   "subtract",
		"amount": 100,
		"reason": "count",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 1400, nested(t, env.Data, "cash_balance", "current"))

	w, env = api.do(http.MethodGet, shopURL+"/balances/cash", testdb.Token(t, f.Cashier), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1400, env.Data["balance"])
	assert.EqualValues(t, 2000, env.Data["opening_balance"])

	w, _ = api.do(http.MethodDelete, "/api/v1/float-movements/"+movementId, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = api.do(http.MethodGet, shopURL+"/balances/cash", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1900, env.Data["balance"])
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartReceipt(t *testing.T, url, token string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "receipt.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestReceiptUpload(t *testing.T) {
	testdb.Open(t)
	f := testdb.Seed(t)
	api := newAPIClient(t)
	owner := testdb.Token(t, f.Owner)
	url := "/api/v1/shops/" + f.Shop.ID + "/receipts"

	w, _ := api.serve(multipartReceipt(t, url, owner, pngBytes(t, 10, 10)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	t.Setenv("GCS_BUCKET", "receipts-test")
	w, env := api.serve(multipartReceipt(t, url, owner, []byte("%PDF-1.4 not an image")))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "image", env.Error.Details["file"])

	t.Setenv("MAX_RECEIPT_SIZE_BYTES", "16")
	w, env = api.serve(multipartReceipt(t, url, owner, pngBytes(t, 10, 10)))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "max", env.Error.Details["file"])

	w, _ = api.serve(multipartReceipt(t, url, testdb.Token(t, f.Outsider), pngBytes(t, 10, 10)))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReceiptThumbnail(t *testing.T) {
	thumb, err := receiptThumbnail(pngBytes(t, 800, 400))
	require.NoError(t, err)
	img, format, err := image.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	_, err = receiptThumbnail([]byte("\x89PNG\r\n\x1a\ngarbage"))
	assert.Error(t, err)

	assert.Equal(t, "receipts/shop-1/thumbnails/abc.jpg", thumbnailObjectKey("receipts/shop-1/abc.png"))
}

func TestShopAdministrationRoutes(t *testing.T) {
	testdb.Open(t)
	f := testdb.Seed(t)
	api := newAPIClient(t)
	owner := testdb.Token(t, f.Owner)
	shopURL := "/api/v1/shops/" + f.Shop.ID

	w, env := api.do(http.MethodPut, shopURL, owner, map[string]interface{}{"location": "Harbour Rd"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Harbour Rd", env.Data["location"])
	assert.Equal(t, "Corner Shop", env.Data["name"])

	w, env = api.do(http.MethodPost, shopURL+"/cashiers/"+f.Cashier.ID+"/toggle-status", owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, env.Data["is_active"])
	assert.Equal(t, "Cashier deactivated", env.Message)
	w, _ = api.do(http.MethodGet, shopURL, testdb.Token(t, f.Cashier), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = api.do(http.MethodPut, "/api/v1/super-agents/"+f.SuperAgent.ID, owner, map[string]interface{}{"reference": "SA-77"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "SA-77", env.Data["reference"])
	w, env = api.do(http.MethodGet, "/api/v1/super-agents/"+f.SuperAgent.ID, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SA-77", env.Data["reference"])
	w, _ = api.do(http.MethodDelete, "/api/v1/super-agents/"+f.SuperAgent.ID, owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = api.do(http.MethodPost, shopURL+"/transactions", owner, map[string]interface{}{
		"category":            "bank",
		"type":                "bank_deposit",
		"provider_id":         f.BankProvider.ID,
		"amount":              75,
		"reference":           "BNK-1",
		"customer_identifier": "ACC-001",
		"transaction_date":    "2024-05-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	txnId, _ := nested(t, env.Data, "transaction", "id").(string)

	w, env = api.do(http.MethodDelete, "/api/v1/providers/"+f.BankProvider.ID, owner, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	w, env = api.do(http.MethodPut, "/api/v1/transactions/"+txnId, owner, map[string]interface{}{"receipt_image_url": "not a url"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "url", env.Error.Details["receipt_image_url"])
	w, _ = api.do(http.MethodPut, "/api/v1/transactions/"+txnId, owner, map[string]interface{}{"receipt_image_url": "https://cdn.example.com/r.jpg"})
	assert.Equal(t, http.StatusOK, w.Code)
}
