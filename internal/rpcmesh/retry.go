package rpcmesh

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Wunenes/Core-Banking-System-Services/internal/obs"
)

const (
	// maxAttempts bounds how many times a single call is tried. Only
	// authentication failures consume extra attempts.
	maxAttempts = 3

	defaultCallTimeout = 10 * time.Second
)

// Operation performs one attempt of an RPC and returns the trailing metadata
// it observed so failures can be translated.
type Operation func(ctx context.Context) (metadata.MD, error)

// Caller invokes unary RPCs with a per-attempt deadline, a bounded retry
// loop for authentication failures, and trailer-driven error translation
// for everything else.
type Caller struct {
	broker  *CredentialBroker
	timeout time.Duration
	logger  *zap.Logger
}

func NewCaller(broker *CredentialBroker, timeout time.Duration, logger *zap.Logger) *Caller {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Caller{broker: broker, timeout: timeout, logger: logger}
}

// Invoke runs op until it succeeds, fails with a non-auth error, or exhausts
// its attempts. An Unauthenticated status triggers a credential refresh and a
// retry; the refresh is skipped when another caller already replaced the
// token this attempt was sent with. Any other failure is translated once and
// returned.
func (c *Caller) Invoke(ctx context.Context, method string, op Operation, hints Hints) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		observed := c.broker.Current()

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		md, err := op(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}

		if status.Code(err) != codes.Unauthenticated {
			return TranslateError(method, err, md, hints)
		}

		lastErr = err
		obs.RPCRetries.WithLabelValues(method).Inc()
		c.logger.Warn("call rejected as unauthenticated, refreshing credential",
			zap.String("method", method),
			zap.Int("attempt", attempt))

		if rerr := c.broker.RefreshIfStale(ctx, observed); rerr != nil {
			return &AuthExhaustedError{Method: method, Attempts: attempt, Err: rerr}
		}
	}
	return &AuthExhaustedError{Method: method, Attempts: maxAttempts, Err: lastErr}
}
