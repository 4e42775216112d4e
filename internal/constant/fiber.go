package constant

const (
	ContextKeyRequestID = "requestid"
	ContextKeyUser      = "user"

	RequestIDHeader = "X-IETool-Request-ID"

	IdempotencyHeader    = "X-IETool-Idempotency"
	IdempotencyKeyHeader = "X-IETool-Idempotency-Key"

	IdempotencyKeyLengthLimit = 128
	IdempotencyMutexPrefix    = "mutex:idempotency-request:"
)
