package rpcmesh

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Wunenes/Core-Banking-System-Services/internal/obs"
)

const (
	// expiryBuffer is subtracted from a token's exp claim so a token is
	// treated as stale before the issuer would reject it.
	expiryBuffer = time.Minute

	// refreshInterval is how often the background loop inspects the
	// cached token.
	refreshInterval = time.Minute

	// proactiveWindow is the remaining validity below which the background
	// loop refreshes ahead of demand.
	proactiveWindow = 3 * expiryBuffer

	// defaultTokenTTL is assumed when a token carries no exp claim.
	defaultTokenTTL = 5 * time.Minute
)

// ErrInvalidCredential means the cached token is not structurally a JWT and
// decorating a call with it would only produce a guaranteed rejection.
var ErrInvalidCredential = errors.New("rpcmesh: credential is not a well-formed token")

// TokenSource fetches a fresh bearer token from the issuer.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// CredentialBroker caches one bearer token for a client connection and keeps
// it fresh. It implements grpc's PerRPCCredentials so every call on the
// connection is decorated with the current token.
//
// Refreshes are serialized under the broker's lock: when several in-flight
// calls hit an authentication failure at once, the first one refreshes and
// the rest observe the replacement instead of stampeding the issuer.
type CredentialBroker struct {
	source TokenSource
	logger *zap.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewCredentialBroker(source TokenSource, logger *zap.Logger) *CredentialBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialBroker{source: source, logger: logger}
}

// Start runs the proactive refresh loop until ctx is cancelled.
func (b *CredentialBroker) Start(ctx context.Context) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.mu.Lock()
			stale := b.token == "" || time.Until(b.expiresAt) < proactiveWindow
			if stale {
				if err := b.refreshLocked(ctx, "proactive"); err != nil {
					b.logger.Warn("proactive credential refresh failed", zap.Error(err))
				}
			}
			b.mu.Unlock()
		}
	}
}

// Current returns the cached token without refreshing. It may be empty
// before the first fetch.
func (b *CredentialBroker) Current() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

// ForceRefresh unconditionally replaces the cached token.
func (b *CredentialBroker) ForceRefresh(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshLocked(ctx, "forced")
}

// RefreshIfStale refreshes only if the cached token is still the one the
// caller observed failing. When another caller already swapped the token in,
// this is a no-op and the caller should simply retry with the replacement.
func (b *CredentialBroker) RefreshIfStale(ctx context.Context, observed string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.token != "" && b.token != observed {
		return nil
	}
	return b.refreshLocked(ctx, "reactive")
}

func (b *CredentialBroker) refreshLocked(ctx context.Context, trigger string) error {
	token, err := b.source.Token(ctx)
	if err != nil {
		obs.CredentialRefreshes.WithLabelValues(trigger, "error").Inc()
		return err
	}
	b.token = token
	b.expiresAt = tokenExpiry(token, time.Now())
	obs.CredentialRefreshes.WithLabelValues(trigger, "ok").Inc()
	b.logger.Debug("credential refreshed",
		zap.String("trigger", trigger),
		zap.Time("expires_at", b.expiresAt))
	return nil
}

// GetRequestMetadata implements credentials.PerRPCCredentials. It fetches a
// token on first use and when the cached one has passed its buffered expiry.
func (b *CredentialBroker) GetRequestMetadata(ctx context.Context, _ ...string) (map[string]string, error) {
	b.mu.Lock()
	if b.token == "" || time.Now().After(b.expiresAt) {
		if err := b.refreshLocked(ctx, "demand"); err != nil {
			b.mu.Unlock()
			return nil, err
		}
	}
	token := b.token
	b.mu.Unlock()

	if strings.Count(token, ".") != 2 {
		return nil, ErrInvalidCredential
	}
	return map[string]string{"authorization": "Bearer " + token}, nil
}

func (b *CredentialBroker) RequireTransportSecurity() bool { return false }

// tokenExpiry reads the exp claim without verifying the signature; the
// broker only needs the timestamp, the server verifies authenticity. The
// buffer makes the broker consider a token stale slightly early.
func tokenExpiry(token string, now time.Time) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time.Add(-expiryBuffer)
		}
	}
	return now.Add(defaultTokenTTL - expiryBuffer)
}
