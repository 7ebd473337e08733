package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validatedRequest struct {
	Currency string `json:"currency_code" binding:"required,currency"`
	Amount   string `json:"amount" binding:"required,amount=Currency"`
	Date     string `json:"date,omitempty" binding:"omitempty,date"`
}

func newValidationRouter() *gin.Engine {
	router := newTestRouter(nil)
	router.POST("/validate", func(c *gin.Context) {
		var req validatedRequest
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestCustomValidators(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		name    string
		req     validatedRequest
		field   string
		message string
	}{
		{"valid", validatedRequest{Currency: "NGN", Amount: "100.50", Date: "2024-02-29"}, "", ""},
		{"integer amount", validatedRequest{Currency: "USD", Amount: "7"}, "", ""},
		{"lowercase currency", validatedRequest{Currency: "ngn", Amount: "1"}, "currency_code", "Unsupported currency code"},
		{"unknown currency", validatedRequest{Currency: "XYZ", Amount: "1"}, "currency_code", "Unsupported currency code"},
		{"zero amount", validatedRequest{Currency: "NGN", Amount: "0.00"}, "amount", "Invalid amount (use a positive decimal like '100.50')"},
		{"negative amount", validatedRequest{Currency: "NGN", Amount: "-5"}, "amount", "Invalid amount (use a positive decimal like '100.50')"},
		{"exponent", validatedRequest{Currency: "NGN", Amount: "1e3"}, "amount", "Invalid amount (use a positive decimal like '100.50')"},
		{"too many decimals", validatedRequest{Currency: "NGN", Amount: "1.123456789"}, "amount", "Invalid amount (use a positive decimal like '100.50')"},
		{"sub-kobo amount", validatedRequest{Currency: "NGN", Amount: "0.00001"}, "amount", "Invalid amount (use a positive decimal like '100.50')"},
		{"half kobo", validatedRequest{Currency: "NGN", Amount: "1.005"}, "amount", "Invalid amount (use a positive decimal like '100.50')"},
		{"trailing zeros", validatedRequest{Currency: "NGN", Amount: "1.5000"}, "", ""},
		{"fractional yen", validatedRequest{Currency: "JPY", Amount: "1.5"}, "amount", "Invalid amount (use a positive decimal like '100.50')"},
		{"whole yen", validatedRequest{Currency: "JPY", Amount: "1500.00"}, "", ""},
		{"padded currency", validatedRequest{Currency: " NGN", Amount: "1"}, "currency_code", "Unsupported currency code"},
		{"bad date", validatedRequest{Currency: "NGN", Amount: "1", Date: "2024/01/01"}, "date", "Invalid date (use YYYY-MM-DD)"},
		{"missing amount", validatedRequest{Currency: "NGN"}, "amount", "This field is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/validate", tt.req)

			if tt.field == "" {
				assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
				return
			}
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode(t, w)
			require.Len(t, resp.Error.Fields, 1)
			assert.Equal(t, tt.field, resp.Error.Fields[0].Field)
			assert.Equal(t, tt.message, resp.Error.Fields[0].Message)
		})
	}
}

// Без поля валюты число знаков ограничено максимумом по поддерживаемым валютам.
func TestValidateAmount_WithoutCurrencyField(t *testing.T) {
	type amountOnly struct {
		Amount string `json:"amount" binding:"required,amount"`
	}

	router := newTestRouter(nil)
	router.POST("/amount", func(c *gin.Context) {
		var req amountOnly
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, doJSON(router, http.MethodPost, "/amount", amountOnly{Amount: "10.25"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(router, http.MethodPost, "/amount", amountOnly{Amount: "10.255"}).Code)
}

func TestBindJSON_MalformedBody(t *testing.T) {
	w := doJSON(newValidationRouter(), http.MethodPost, "/validate", `{"amount":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decode(t, w).Success)
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query   string
		page    int
		perPage int
		offset  int
	}{
		{"", 1, defaultPerPage, 0},
		{"page=3&per_page=10", 3, 10, 20},
		{"page=0&per_page=0", 1, defaultPerPage, 0},
		{"page=abc&per_page=1000", 1, defaultPerPage, 0},
		{"per_page=100", 1, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)

			params := ParsePagination(c)

			assert.Equal(t, tt.page, params.Page)
			assert.Equal(t, tt.perPage, params.PerPage)
			assert.Equal(t, tt.offset, params.Offset())
		})
	}
}

func TestBuildMeta(t *testing.T) {
	params := PaginationParams{Page: 2, PerPage: 10}

	meta := BuildMeta(params, 25)
	assert.Equal(t, 25, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)

	meta = BuildMeta(params, 20)
	assert.Equal(t, 2, meta.TotalPages)

	meta = BuildMeta(params, 0)
	assert.Equal(t, 0, meta.TotalPages)

	// Общее количество неизвестно
	meta = BuildMeta(params, -1)
	assert.Equal(t, 2, meta.Page)
	assert.Zero(t, meta.Total)
	assert.Zero(t, meta.TotalPages)
}
