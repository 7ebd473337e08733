// Package gateway - адаптер платёжного шлюза (Paystack-совместимый API).
//
// InitializeDeposit открывает checkout-сессию: POST /transaction/initialize.
// Любой неуспешный ответ возвращается как *ports.GatewayError с телом
// ответа без изменений - use case сохранит его в metadata транзакции.
// Webhook'и подписываются HMAC-SHA512 от тела запроса секретным ключом.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Haleralex/walletledger/internal/application/ports"
)

// Compile-time checks
var (
	_ ports.PaymentGateway = (*PaystackClient)(nil)
	_ ports.PaymentGateway = Disabled{}
)

// Provider - имя провайдера в gateway_callbacks.
const Provider = "paystack"

// SignatureHeader - заголовок с подписью webhook'а.
const SignatureHeader = "X-Paystack-Signature"

// maxResponseBytes ограничивает чтение ответа шлюза.
const maxResponseBytes = 1 << 20

// Config - параметры клиента.
type Config struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	Timeout     time.Duration
}

// PaystackClient реализует ports.PaymentGateway.
type PaystackClient struct {
	cfg    Config
	client *http.Client
}

// NewPaystackClient создаёт клиента с otel-инструментированным транспортом.
func NewPaystackClient(cfg Config) *PaystackClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &PaystackClient{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type initializeRequest struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"` // в минорных единицах (kobo)
	Currency    string                 `json:"currency"`
	Reference   string                 `json:"reference"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// InitializeDeposit открывает checkout-сессию у шлюза.
func (c *PaystackClient) InitializeDeposit(ctx context.Context, req ports.DepositRequest) (*ports.DepositSession, error) {
	body, err := json.Marshal(initializeRequest{
		Email:       req.Email,
		Amount:      req.Amount.MinorUnits(),
		Currency:    req.Amount.Currency().Code(),
		Reference:   req.Reference,
		CallbackURL: c.cfg.CallbackURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &ports.GatewayError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &ports.GatewayError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ports.GatewayError{
			StatusCode: resp.StatusCode,
			Payload:    raw,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var parsed initializeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ports.GatewayError{StatusCode: resp.StatusCode, Payload: raw, Err: fmt.Errorf("invalid response: %w", err)}
	}
	if !parsed.Status || parsed.Data.AuthorizationURL == "" {
		return nil, &ports.GatewayError{StatusCode: resp.StatusCode, Payload: raw, Err: errors.New(parsed.Message)}
	}

	return &ports.DepositSession{
		AuthorizationURL: parsed.Data.AuthorizationURL,
		AccessCode:       parsed.Data.AccessCode,
		Raw:              raw,
	}, nil
}

// VerifySignature проверяет подпись webhook'а.
func (c *PaystackClient) VerifySignature(body []byte, signature string) bool {
	return VerifySignature(c.cfg.SecretKey, body, signature)
}

// VerifySignature сравнивает hex(HMAC-SHA512(secret, body)) с подписью.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, body)), []byte(strings.ToLower(signature)))
}

// Sign возвращает подпись для тела (используется в тестах и локальной отладке).
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// WebhookEvent - разобранный webhook шлюза.
type WebhookEvent struct {
	EventID    string
	Reference  string
	Event      string
	Successful bool
	Payload    json.RawMessage
}

type webhookBody struct {
	Event string `json:"event"`
	Data  struct {
		ID        json.Number `json:"id"`
		Reference string      `json:"reference"`
		Status    string      `json:"status"`
	} `json:"data"`
}

// ParseWebhook разбирает тело webhook'а.
// Успехом считается только charge.success со статусом success.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var parsed webhookBody
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("invalid webhook body: %w", err)
	}
	if parsed.Event == "" || parsed.Data.Reference == "" {
		return nil, errors.New("webhook body lacks event or reference")
	}

	eventID := parsed.Data.ID.String()
	if eventID == "" {
		eventID = parsed.Event + ":" + parsed.Data.Reference
	} else {
		eventID = parsed.Event + ":" + eventID
	}

	return &WebhookEvent{
		EventID:    eventID,
		Reference:  parsed.Data.Reference,
		Event:      parsed.Event,
		Successful: parsed.Event == "charge.success" && parsed.Data.Status == "success",
		Payload:    json.RawMessage(body),
	}, nil
}

// Disabled - шлюз не настроен: каждый вызов возвращает GatewayError.
type Disabled struct{}

// InitializeDeposit всегда возвращает ошибку.
func (Disabled) InitializeDeposit(context.Context, ports.DepositRequest) (*ports.DepositSession, error) {
	return nil, &ports.GatewayError{
		StatusCode: http.StatusServiceUnavailable,
		Payload:    json.RawMessage(`{"status":false,"message":"payment gateway is not configured"}`),
		Err:        errors.New("payment gateway is not configured"),
	}
}
