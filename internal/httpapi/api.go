// Package httpapi is the public HTTP gateway. It terminates client auth,
// issues service tokens, and forwards requests to the account and
// transaction services over the mesh.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
	"github.com/Wunenes/Core-Banking-System-Services/internal/auth"
	"github.com/Wunenes/Core-Banking-System-Services/internal/grpcapi"
	"github.com/Wunenes/Core-Banking-System-Services/internal/obs"
	"github.com/Wunenes/Core-Banking-System-Services/internal/transaction"
)

// AccountClient is what the gateway needs from the account service.
type AccountClient interface {
	CreateAccount(ctx context.Context, userID string, typ account.Type, currency account.Currency, initialDeposit, interestRateBps int64) (account.Account, error)
	GetAccount(ctx context.Context, number string) (account.Account, error)
	GetAccountsByUser(ctx context.Context, userID string) ([]account.Account, error)
	FreezeAction(ctx context.Context, action, number, reason string) (account.FreezeResult, error)
	CloseAccount(ctx context.Context, number, receivingNumber string) (account.CloseResult, error)
}

// TransactionClient is what the gateway needs from the transaction service.
type TransactionClient interface {
	Deposit(ctx context.Context, toAccount string, amount int64, currency account.Currency, description string) (transaction.Transaction, error)
	InternalTransfer(ctx context.Context, fromAccount, toAccount string, amount int64, currency account.Currency, description, initiatedBy string) (transaction.Transaction, error)
	Withdraw(ctx context.Context, fromAccount string, amount int64, currency account.Currency, description string) (transaction.Transaction, error)
	GetTransaction(ctx context.Context, reference string) (transaction.Transaction, error)
	ListTransactions(ctx context.Context, req grpcapi.ListTransactionsRequest) ([]transaction.Transaction, error)
}

// ReadyProbe reports whether the gateway's upstreams are reachable.
type ReadyProbe struct {
	Check func(ctx context.Context) error
}

func (rp ReadyProbe) check(ctx context.Context) error {
	if rp.Check == nil {
		return nil
	}
	return rp.Check(ctx)
}

// API is the HTTP layer.
type API struct {
	mux          *http.ServeMux
	accounts     AccountClient
	transactions TransactionClient
	clients      *auth.ClientRegistry
	readyProbe   ReadyProbe
	logger       *zap.Logger
	version      string
}

func New(accounts AccountClient, transactions TransactionClient, clients *auth.ClientRegistry, rp ReadyProbe, logger *zap.Logger, version string) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &API{
		mux:          http.NewServeMux(),
		accounts:     accounts,
		transactions: transactions,
		clients:      clients,
		readyProbe:   rp,
		logger:       logger,
		version:      version,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// token endpoint for service clients
	a.mux.HandleFunc("/v1/oauth/token", a.handleToken)

	// accounts
	a.mux.HandleFunc("/v1/accounts", a.handleAccountsCollection)
	a.mux.HandleFunc("/v1/accounts/", a.handleAccountResource)
	a.mux.HandleFunc("/v1/users/", a.handleUserAccounts)

	// transactions
	a.mux.HandleFunc("/v1/transfers", a.handleTransfers)
	a.mux.HandleFunc("/v1/deposits", a.handleDeposits)
	a.mux.HandleFunc("/v1/withdrawals", a.handleWithdrawals)
	a.mux.HandleFunc("/v1/transactions", a.handleTransactionsCollection)
	a.mux.HandleFunc("/v1/transactions/", a.handleTransactionResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the instrumented, authenticated handler chain.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.withAuth(a.mux))
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "corebank-gateway",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "corebank-gateway",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
