package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
	"github.com/Wunenes/Core-Banking-System-Services/internal/rpcmesh"
	"github.com/Wunenes/Core-Banking-System-Services/internal/transaction"
)

type createAccountRequest struct {
	UserID          string `json:"user_id"`
	AccountType     string `json:"account_type"`
	Currency        string `json:"currency"`
	InitialDeposit  int64  `json:"initial_deposit"`
	InterestRateBps int64  `json:"interest_rate_bps"`
}

type freezeRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

type closeRequest struct {
	ReceivingAccountNumber string `json:"receiving_account_number"`
}

func (a *API) handleAccountsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createAccount(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost)
	}
}

func (a *API) handleAccountResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/accounts/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if number, ok := strings.CutSuffix(path, "/freeze"); ok {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.freezeAccount(w, r, number)
		return
	}
	if number, ok := strings.CutSuffix(path, "/close"); ok {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.closeAccount(w, r, number)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getAccount(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

func (a *API) handleUserAccounts(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	userID, ok := strings.CutSuffix(path, "/accounts")
	if !ok || userID == "" || strings.Contains(userID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	accounts, err := a.accounts.GetAccountsByUser(r.Context(), userID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (a *API) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}
	if strings.TrimSpace(req.Currency) == "" {
		writeError(w, r, http.StatusBadRequest, "currency is required")
		return
	}

	acc, err := a.accounts.CreateAccount(r.Context(),
		strings.TrimSpace(req.UserID),
		account.Type(strings.ToUpper(req.AccountType)),
		account.Currency(strings.ToUpper(req.Currency)),
		req.InitialDeposit, req.InterestRateBps)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/accounts/"+acc.Number)
	writeJSON(w, http.StatusCreated, acc)
}

func (a *API) getAccount(w http.ResponseWriter, r *http.Request, number string) {
	acc, err := a.accounts.GetAccount(r.Context(), number)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) freezeAccount(w http.ResponseWriter, r *http.Request, number string) {
	var req freezeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	action := strings.ToLower(strings.TrimSpace(req.Action))
	if action != "freeze" && action != "unfreeze" {
		writeError(w, r, http.StatusBadRequest, "action must be freeze or unfreeze")
		return
	}

	res, err := a.accounts.FreezeAction(r.Context(), action, number, req.Reason)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) closeAccount(w http.ResponseWriter, r *http.Request, number string) {
	var req closeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := a.accounts.CloseAccount(r.Context(), number, strings.TrimSpace(req.ReceivingAccountNumber))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- helpers shared by all handlers ---

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleDomainError maps typed domain and mesh errors onto HTTP statuses.
func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var accNotFound *account.NotFoundError
	var txNotFound *transaction.NotFoundError
	var ineligible *account.IneligibleAccountError
	var insufficient *account.InsufficientFundsError
	var exhausted *rpcmesh.AuthExhaustedError
	var remote *rpcmesh.RemoteFailureError

	switch {
	case errors.Is(err, account.ErrInvalidAmount),
		errors.Is(err, account.ErrInvalidCurrency),
		errors.Is(err, account.ErrInvalidType),
		errors.Is(err, transaction.ErrInvalidAmount):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &accNotFound), errors.As(err, &txNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.As(err, &ineligible), errors.As(err, &insufficient):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.As(err, &exhausted), errors.As(err, &remote):
		writeError(w, r, http.StatusBadGateway, "upstream service unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
