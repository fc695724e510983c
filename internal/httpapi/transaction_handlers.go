package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
	"github.com/Wunenes/Core-Banking-System-Services/internal/grpcapi"
)

type transferRequest struct {
	FromAccount string `json:"from_account"`
	ToAccount   string `json:"to_account"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type depositRequest struct {
	ToAccount   string `json:"to_account"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type withdrawalRequest struct {
	FromAccount string `json:"from_account"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

func (a *API) handleTransfers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	from := strings.TrimSpace(req.FromAccount)
	to := strings.TrimSpace(req.ToAccount)
	if from == "" || to == "" {
		writeError(w, r, http.StatusBadRequest, "from_account and to_account are required")
		return
	}
	if req.Amount <= 0 {
		writeError(w, r, http.StatusBadRequest, "amount must be > 0")
		return
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		writeError(w, r, http.StatusBadRequest, "currency is required")
		return
	}

	initiatedBy, _ := callerFromRequest(r)
	tx, err := a.transactions.InternalTransfer(r.Context(), from, to, req.Amount,
		account.Currency(currency), req.Description, initiatedBy)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (a *API) handleDeposits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req depositRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	to := strings.TrimSpace(req.ToAccount)
	if to == "" {
		writeError(w, r, http.StatusBadRequest, "to_account is required")
		return
	}
	if req.Amount <= 0 {
		writeError(w, r, http.StatusBadRequest, "amount must be > 0")
		return
	}

	tx, err := a.transactions.Deposit(r.Context(), to, req.Amount,
		account.Currency(strings.ToUpper(strings.TrimSpace(req.Currency))), req.Description)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (a *API) handleWithdrawals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req withdrawalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	from := strings.TrimSpace(req.FromAccount)
	if from == "" {
		writeError(w, r, http.StatusBadRequest, "from_account is required")
		return
	}
	if req.Amount <= 0 {
		writeError(w, r, http.StatusBadRequest, "amount must be > 0")
		return
	}

	tx, err := a.transactions.Withdraw(r.Context(), from, req.Amount,
		account.Currency(strings.ToUpper(strings.TrimSpace(req.Currency))), req.Description)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (a *API) handleTransactionsCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	q := r.URL.Query()
	req := grpcapi.ListTransactionsRequest{
		FromAccount: strings.TrimSpace(q.Get("from_account")),
		ToAccount:   strings.TrimSpace(q.Get("to_account")),
	}
	for param, dst := range map[string]*time.Time{"from": &req.From, "to": &req.To} {
		if raw := strings.TrimSpace(q.Get(param)); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, param+" must be RFC3339")
				return
			}
			*dst = ts
		}
	}
	if req.FromAccount == "" && req.ToAccount == "" && req.From.IsZero() && req.To.IsZero() {
		writeError(w, r, http.StatusBadRequest, "one of from_account, to_account or a time range is required")
		return
	}

	txs, err := a.transactions.ListTransactions(r.Context(), req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txs,
		"as_of":        time.Now().UTC(),
	})
}

func (a *API) handleTransactionResource(w http.ResponseWriter, r *http.Request) {
	reference := strings.TrimPrefix(r.URL.Path, "/v1/transactions/")
	if reference == "" || strings.Contains(reference, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	tx, err := a.transactions.GetTransaction(r.Context(), reference)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}
