package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Caller — транспорт к CRM; в тестах подменяется заглушкой.
type Caller interface {
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
}

type Config struct {
	WebhookURL  string
	CallDelay   time.Duration // обязательная пауза перед каждым вызовом
	CallTimeout time.Duration
	RetryBase   time.Duration
	MaxAttempts int
}

// Client — единственная точка выхода на CRM. Не хранит состояния между
// вызовами, один экземпляр переиспользуется всеми запросами.
type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
	}
}

type rpcResponse struct {
	Result           json.RawMessage `json:"result"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// Call делает POST <webhook>/<method>.json и возвращает поле result.
// Перед каждой попыткой выдерживается обязательная пауза (портал рвёт
// слишком частые соединения), между попытками — линейно растущая задержка.
// После последней попытки ошибка отдаётся наверх без изменений.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if c.cfg.WebhookURL == "" {
		return nil, ErrNotConfigured
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(c.cfg.RetryBase * time.Duration(attempt-1))
		}
		time.Sleep(c.cfg.CallDelay)

		result, err := c.do(ctx, method, params)
		if err == nil {
			return result, nil
		}
		lastErr = err
		log.Printf("bitrix: %s attempt %d/%d failed: %v", method, attempt, c.cfg.MaxAttempts, err)
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("bitrix: %s: marshal params: %w", method, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	url := strings.TrimRight(c.cfg.WebhookURL, "/") + "/" + method + ".json"
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remote := &RemoteError{Method: method, Status: resp.StatusCode}
		// тело может содержать структурную ошибку CRM
		var parsed rpcResponse
		if json.Unmarshal(raw, &parsed) == nil {
			remote.Code = parsed.Error
			remote.Description = parsed.ErrorDescription
		}
		return nil, remote
	}

	var parsed rpcResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &TransportError{Method: method, Err: fmt.Errorf("malformed response body: %w", err)}
	}
	if parsed.Error != "" {
		return nil, &RemoteError{
			Method:      method,
			Status:      resp.StatusCode,
			Code:        parsed.Error,
			Description: parsed.ErrorDescription,
		}
	}

	return parsed.Result, nil
}
