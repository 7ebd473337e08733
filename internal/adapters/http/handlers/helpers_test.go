package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/walletledger/internal/adapters/http/common"
	"github.com/Haleralex/walletledger/internal/adapters/http/middleware"
)

// caller - кто делает запрос; nil - auth выключен.
type caller struct {
	userID string
	role   string
}

func asUser(id string) *caller { return &caller{userID: id, role: middleware.RoleUser} }

func asAdmin() *caller {
	return &caller{userID: "00000000-0000-0000-0000-00000000a0a0", role: middleware.RoleAdmin}
}

func newTestRouter(who *caller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	router := gin.New()
	router.Use(func(c *gin.Context) {
		common.SetRequestID(c, "test-request-123")
		if who != nil {
			c.Set(middleware.AuthUserIDKey, who.userID)
			c.Set(middleware.AuthUserRoleKey, who.role)
		}
		c.Next()
	})
	return router
}

func doJSON(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// apiResponse - ответ с произвольной data для проверок.
type apiResponse struct {
	Success   bool             `json:"success"`
	Data      json.RawMessage  `json:"data"`
	Error     *common.APIError `json:"error"`
	Meta      *common.APIMeta  `json:"meta"`
	RequestID string           `json:"request_id"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	resp := decode(t, w)
	require.True(t, resp.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, out))
}
