package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
)

func depositRequest() ports.DepositRequest {
	return ports.DepositRequest{
		Reference: "dep_123",
		Email:     "ada@example.com",
		Amount:    valueobjects.MustNewMoney("250.50", valueobjects.NGN),
		Metadata:  map[string]interface{}{"transaction_id": "tx-1"},
	}
}

func TestPaystackClient_InitializeDeposit_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(25050), body["amount"])
		assert.Equal(t, "NGN", body["currency"])
		assert.Equal(t, "dep_123", body["reference"])
		assert.Equal(t, "https://app.example.com/deposits/done", body["callback_url"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"dep_123"}}`)
	}))
	defer server.Close()

	client := NewPaystackClient(Config{BaseURL: server.URL + "/", SecretKey: "sk_test", CallbackURL: "https://app.example.com/deposits/done"})

	session, err := client.InitializeDeposit(context.Background(), depositRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", session.AuthorizationURL)
	assert.Equal(t, "abc", session.AccessCode)
	assert.True(t, json.Valid(session.Raw))
}

func TestPaystackClient_InitializeDeposit_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantPayload string
	}{
		{
			name:        "provider rejects request",
			status:      http.StatusBadRequest,
			body:        `{"status":false,"message":"Invalid key"}`,
			wantStatus:  http.StatusBadRequest,
			wantPayload: `{"status":false,"message":"Invalid key"}`,
		},
		{
			name:        "status false with 200",
			status:      http.StatusOK,
			body:        `{"status":false,"message":"Duplicate Transaction Reference"}`,
			wantStatus:  http.StatusOK,
			wantPayload: `{"status":false,"message":"Duplicate Transaction Reference"}`,
		},
		{
			name:        "server error with html body",
			status:      http.StatusBadGateway,
			body:        `<html>bad gateway</html>`,
			wantStatus:  http.StatusBadGateway,
			wantPayload: `<html>bad gateway</html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewPaystackClient(Config{BaseURL: server.URL, SecretKey: "sk_test"})

			session, err := client.InitializeDeposit(context.Background(), depositRequest())
			require.Error(t, err)
			assert.Nil(t, session)

			var gwErr *ports.GatewayError
			require.True(t, errors.As(err, &gwErr))
			assert.Equal(t, tt.wantStatus, gwErr.StatusCode)
			assert.Equal(t, tt.wantPayload, string(gwErr.Payload))
		})
	}
}

func TestPaystackClient_InitializeDeposit_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewPaystackClient(Config{BaseURL: url, SecretKey: "sk_test"})

	_, err := client.InitializeDeposit(context.Background(), depositRequest())
	var gwErr *ports.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Zero(t, gwErr.StatusCode)
	assert.Empty(t, gwErr.Payload)
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)
	signature := Sign("sk_test", body)

	assert.True(t, VerifySignature("sk_test", body, signature))
	assert.False(t, VerifySignature("sk_other", body, signature))
	assert.False(t, VerifySignature("sk_test", []byte(`{"event":"charge.failed"}`), signature))
	assert.False(t, VerifySignature("sk_test", body, ""))
	assert.False(t, VerifySignature("", body, signature))
}

func TestParseWebhook(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantErr        bool
		wantEventID    string
		wantSuccessful bool
	}{
		{
			name:           "successful charge",
			body:           `{"event":"charge.success","data":{"id":302961,"reference":"dep_123","status":"success"}}`,
			wantEventID:    "charge.success:302961",
			wantSuccessful: true,
		},
		{
			name:        "failed charge",
			body:        `{"event":"charge.failed","data":{"id":302962,"reference":"dep_123","status":"failed"}}`,
			wantEventID: "charge.failed:302962",
		},
		{
			name:        "no provider id",
			body:        `{"event":"charge.success","data":{"reference":"dep_9","status":"abandoned"}}`,
			wantEventID: "charge.success:dep_9",
		},
		{name: "missing reference", body: `{"event":"charge.success","data":{"id":1}}`, wantErr: true},
		{name: "not json", body: `event=charge.success`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := ParseWebhook([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEventID, event.EventID)
			assert.Equal(t, tt.wantSuccessful, event.Successful)
			assert.JSONEq(t, tt.body, string(event.Payload))
		})
	}
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.InitializeDeposit(context.Background(), depositRequest())

	var gwErr *ports.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusServiceUnavailable, gwErr.StatusCode)
	assert.True(t, json.Valid(gwErr.Payload))
}
