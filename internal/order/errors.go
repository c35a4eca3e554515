package order

import "fmt"

// ValidationError — локальная ошибка входных данных, к CRM обращений не было.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ResolutionError — не удалось получить id контакта/компании, ни одна
// сделка не создавалась.
type ResolutionError struct {
	Stage string // "contact" | "company"
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("order: resolve %s: %v", e.Stage, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
