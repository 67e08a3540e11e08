package services

import "errors"

// Терминальные ошибки сервисного слоя. Контроллеры сопоставляют их с
// HTTP статусами и не передают наружу ничего сверх этого набора.
var (
	ErrInvalidDestination = errors.New("[service]: invalid destination url")
	ErrInvalidExpiry      = errors.New("[service]: invalid expiry")
	ErrInvalidAlias       = errors.New("[service]: invalid alias")
	ErrAliasTaken         = errors.New("[service]: alias already taken")
	// ErrAllocationExhausted переполнение бюджета ретраев генерации кода.
	// Транзиентная ошибка: пространство кодов не исчерпано, клиент может
	// повторить запрос целиком.
	ErrAllocationExhausted = errors.New("[service]: allocation retries exhausted")
	ErrRecordNotFound      = errors.New("[service]: record not found")
	ErrUnknown             = errors.New("[service]: unknown error")
)
