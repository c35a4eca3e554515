package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"crm-integrator/internal/config"
	"crm-integrator/internal/crm"
	"crm-integrator/internal/order"
	"crm-integrator/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const retailCompanyID = 13

type countingCRM struct {
	calls   []string
	handler func(method string, params map[string]any) (json.RawMessage, error)
}

func (s *countingCRM) Call(_ context.Context, method string, params any) (json.RawMessage, error) {
	s.calls = append(s.calls, method)
	p, _ := params.(map[string]any)
	if s.handler == nil {
		return json.RawMessage(`null`), nil
	}
	return s.handler(method, p)
}

func newRouter(stub *countingCRM) *gin.Engine {
	gin.SetMode(gin.TestMode)
	pipeline := order.NewPipeline(crm.NewResolver(stub, retailCompanyID), crm.NewFanOut(stub), nil)
	return server.NewRouter(&config.Config{SessionSecret: "test-secret"}, pipeline)
}

func orderRequest(t *testing.T, path string, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func validFields() map[string]string {
	return map[string]string{
		"firstName":          "Иван",
		"lastName":           "Петров",
		"email":              "ivan@example.kz",
		"vehicles[0][plate]": "A111AA",
		"vehicles[1][plate]": "B222BB",
		"vehicles[2][plate]": "C333CC",
	}
}

type orderResponse struct {
	OK             bool    `json:"ok"`
	Deals          []int64 `json:"deals"`
	ContactID      int64   `json:"contactId"`
	CompanyID      int64   `json:"companyId"`
	FailedVehicles []int   `json:"failedVehicles"`
	Message        string  `json:"message"`
	Error          string  `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) orderResponse {
	t.Helper()
	var resp orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSubmitOrderUnknownProduct(t *testing.T) {
	stub := &countingCRM{}
	r := newRouter(stub)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, orderRequest(t, "/api/orders/casco", validFields()))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, stub.calls)
}

func TestSubmitOrderValidationError(t *testing.T) {
	stub := &countingCRM{}
	r := newRouter(stub)

	fields := validFields()
	delete(fields, "email")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, orderRequest(t, "/api/orders/greencard", fields))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
	assert.Empty(t, stub.calls, "validation failure must not reach the CRM")
}

func TestSubmitOrderResolutionFailure(t *testing.T) {
	stub := &countingCRM{handler: func(string, map[string]any) (json.RawMessage, error) {
		return nil, errors.New("portal down")
	}}
	r := newRouter(stub)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, orderRequest(t, "/api/orders/greencard", validFields()))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
	assert.NotContains(t, stub.calls, "deal.add")
}

func TestSubmitOrderPartialSuccess(t *testing.T) {
	var dealCalls int
	stub := &countingCRM{handler: func(method string, _ map[string]any) (json.RawMessage, error) {
		switch method {
		case "contact.list":
			return json.RawMessage(`[]`), nil
		case "contact.add":
			return json.RawMessage(`5`), nil
		case "contact.update":
			return json.RawMessage(`true`), nil
		case "deal.add":
			dealCalls++
			switch dealCalls {
			case 1:
				return json.RawMessage(`100`), nil
			case 2:
				return nil, errors.New("portal hiccup")
			default:
				return json.RawMessage(`102`), nil
			}
		}
		return nil, errors.New("unexpected method " + method)
	}}
	r := newRouter(stub)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, orderRequest(t, "/api/orders/greencard", validFields()))

	// частичный успех — это всё ещё 200
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.True(t, resp.OK)
	assert.Equal(t, []int64{100, 102}, resp.Deals)
	assert.Equal(t, []int{1}, resp.FailedVehicles)
	assert.Equal(t, int64(5), resp.ContactID)
	assert.Equal(t, int64(retailCompanyID), resp.CompanyID)
	assert.Contains(t, resp.Message, "частично")
}

func TestAdminEndpointsRequireAuth(t *testing.T) {
	r := newRouter(&countingCRM{})

	for _, path := range []string{"/admin/submissions", "/admin/submissions/some-id"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body["error"], path)
	}
}
