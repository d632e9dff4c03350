package assetsvc

import (
	"errors"
	"net/http"
	"time"
)

var (
	ErrStatusCodeNotOk = errors.New("http.status != 200")
)

type ClientCfg struct {
	HttpClient http.Client
	Endpoint   string
	Apikey     string
	Timeout    time.Duration

	// RetryStart and RetryLimit shape the exponential backoff between
	// attempts. Retries are safe because every attempt carries the same
	// idempotency key.
	RetryStart  time.Duration
	RetryLimit  time.Duration
	MaxAttempts int
}
