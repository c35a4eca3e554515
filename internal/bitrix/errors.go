package bitrix

import (
	"errors"
	"fmt"
)

// эндпоинт не сконфигурирован — фатально, без ретраев
var ErrNotConfigured = errors.New("bitrix: webhook url is not configured")

// TransportError — сетевая ошибка или таймаут, подлежит ретраю.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bitrix: %s: transport: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError — CRM вернула ошибку (поле error в ответе или не-2xx статус).
type RemoteError struct {
	Method      string
	Status      int
	Code        string
	Description string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("bitrix: %s: %s (%s)", e.Method, e.Code, e.Description)
	}
	return fmt.Sprintf("bitrix: %s: http status %d", e.Method, e.Status)
}
