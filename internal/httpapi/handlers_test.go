package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
	"github.com/Wunenes/Core-Banking-System-Services/internal/auth"
	"github.com/Wunenes/Core-Banking-System-Services/internal/grpcapi"
	"github.com/Wunenes/Core-Banking-System-Services/internal/transaction"
)

type fakeAccounts struct {
	accounts map[string]account.Account
}

func (f *fakeAccounts) CreateAccount(_ context.Context, userID string, typ account.Type, currency account.Currency, initialDeposit, interestRateBps int64) (account.Account, error) {
	if !typ.Valid() {
		return account.Account{}, account.ErrInvalidType
	}
	acc := account.Account{
		Number:           "0004123451",
		UserID:           userID,
		Type:             typ,
		Currency:         currency,
		Status:           account.StatusActive,
		CurrentBalance:   initialDeposit,
		AvailableBalance: initialDeposit,
		InterestRateBps:  interestRateBps,
	}
	f.accounts[acc.Number] = acc
	return acc, nil
}

func (f *fakeAccounts) GetAccount(_ context.Context, number string) (account.Account, error) {
	acc, ok := f.accounts[number]
	if !ok {
		return account.Account{}, &account.NotFoundError{AccountNumber: number}
	}
	return acc, nil
}

func (f *fakeAccounts) GetAccountsByUser(_ context.Context, userID string) ([]account.Account, error) {
	var res []account.Account
	for _, acc := range f.accounts {
		if acc.UserID == userID {
			res = append(res, acc)
		}
	}
	if len(res) == 0 {
		return nil, &account.NotFoundError{UserID: userID}
	}
	return res, nil
}

func (f *fakeAccounts) FreezeAction(_ context.Context, action, number, reason string) (account.FreezeResult, error) {
	if _, ok := f.accounts[number]; !ok {
		return account.FreezeResult{}, &account.NotFoundError{AccountNumber: number}
	}
	return account.FreezeResult{Action: action, AccountNumber: number, Reason: reason, Timestamp: time.Now().UTC()}, nil
}

func (f *fakeAccounts) CloseAccount(_ context.Context, number, receiving string) (account.CloseResult, error) {
	if _, ok := f.accounts[number]; !ok {
		return account.CloseResult{}, &account.NotFoundError{AccountNumber: number}
	}
	return account.CloseResult{AccountNumber: number, ClosedAt: time.Now().UTC()}, nil
}

type fakeTransactions struct {
	txs map[string]transaction.Transaction
}

func (f *fakeTransactions) Deposit(_ context.Context, toAccount string, amount int64, currency account.Currency, description string) (transaction.Transaction, error) {
	tx := transaction.Transaction{Reference: "DAAAAAAAA-12", ToAccount: toAccount, Amount: amount, Currency: currency, Status: transaction.StatusCompleted, Type: transaction.TypeDeposit}
	f.txs[tx.Reference] = tx
	return tx, nil
}

func (f *fakeTransactions) InternalTransfer(_ context.Context, fromAccount, toAccount string, amount int64, currency account.Currency, description, initiatedBy string) (transaction.Transaction, error) {
	if amount > 1000 {
		return transaction.Transaction{}, &account.InsufficientFundsError{AccountNumber: fromAccount, Balance: 1000, Requested: amount}
	}
	tx := transaction.Transaction{Reference: "IAAAAAAAA-13", FromAccount: fromAccount, ToAccount: toAccount, Amount: amount, Currency: currency, Status: transaction.StatusCompleted, Type: transaction.TypeInternal, InitiatedBy: initiatedBy}
	f.txs[tx.Reference] = tx
	return tx, nil
}

func (f *fakeTransactions) Withdraw(_ context.Context, fromAccount string, amount int64, currency account.Currency, description string) (transaction.Transaction, error) {
	tx := transaction.Transaction{Reference: "WAAAAAAAA-14", FromAccount: fromAccount, Amount: amount, Currency: currency, Status: transaction.StatusCompleted, Type: transaction.TypeWithdrawal}
	f.txs[tx.Reference] = tx
	return tx, nil
}

func (f *fakeTransactions) GetTransaction(_ context.Context, reference string) (transaction.Transaction, error) {
	tx, ok := f.txs[reference]
	if !ok {
		return transaction.Transaction{}, &transaction.NotFoundError{Reference: reference}
	}
	return tx, nil
}

func (f *fakeTransactions) ListTransactions(_ context.Context, req grpcapi.ListTransactionsRequest) ([]transaction.Transaction, error) {
	var res []transaction.Transaction
	for _, tx := range f.txs {
		if req.FromAccount != "" && tx.FromAccount != req.FromAccount {
			continue
		}
		if req.ToAccount != "" && tx.ToAccount != req.ToAccount {
			continue
		}
		res = append(res, tx)
	}
	return res, nil
}

func newTestAPI(t *testing.T) (*API, http.Handler) {
	t.Helper()
	auth.ResetSecretForTests()
	t.Setenv("COREBANK_AUTH_SECRET", "gateway-test-secret")
	t.Cleanup(auth.ResetSecretForTests)

	clients := auth.NewClientRegistry([]auth.Client{
		{ID: "ops-console", Secret: "s3cret", Scopes: []string{auth.ScopeAdmin}},
		{ID: "teller", Secret: "t3ller", Scopes: []string{auth.ScopeAccountRead, auth.ScopeAccountWrite, auth.ScopeTransaction}},
	})
	api := New(
		&fakeAccounts{accounts: map[string]account.Account{}},
		&fakeTransactions{txs: map[string]transaction.Transaction{}},
		clients, ReadyProbe{}, nil, "test")
	return api, api.Handler()
}

func bearerToken(t *testing.T, scopes ...string) string {
	t.Helper()
	token, err := auth.GenerateToken("test-caller", scopes, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return "Bearer " + token
}

func TestHealthAndInfoArePublic(t *testing.T) {
	_, handler := newTestAPI(t)

	for _, path := range []string{"/healthz", "/readyz", "/v1/info"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s -> %d, want 200", path, rec.Code)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	_, handler := newTestAPI(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/accounts/0004123451", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/0004123451", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401 for invalid token", rec.Code)
	}
}

func TestScopeEnforcement(t *testing.T) {
	_, handler := newTestAPI(t)

	// transaction scope cannot hit admin actions.
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts/0004123451/freeze",
		strings.NewReader(`{"action":"freeze","reason":"x"}`))
	req.Header.Set("Authorization", bearerToken(t, auth.ScopeTransaction))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d, want 403", rec.Code)
	}
}

func TestCreateAndGetAccount(t *testing.T) {
	_, handler := newTestAPI(t)
	token := bearerToken(t, auth.ScopeAccountRead, auth.ScopeAccountWrite)

	body := `{"user_id":"u-1","account_type":"checking","currency":"kes","initial_deposit":500}`
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts", strings.NewReader(body))
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var acc account.Account
	if err := json.Unmarshal(rec.Body.Bytes(), &acc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if acc.Type != account.TypeChecking || acc.Currency != account.KES {
		t.Fatalf("account=%+v, want normalized type/currency", acc)
	}
	if loc := rec.Header().Get("Location"); loc != "/v1/accounts/"+acc.Number {
		t.Fatalf("location=%q", loc)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/accounts/"+acc.Number, nil)
	req.Header.Set("Authorization", token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/accounts/0009999990", nil)
	req.Header.Set("Authorization", token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", rec.Code)
	}
}

func TestTransferConflictOnInsufficientFunds(t *testing.T) {
	_, handler := newTestAPI(t)
	token := bearerToken(t, auth.ScopeTransaction)

	body := `{"from_account":"0004123451","to_account":"0004567892","amount":5000,"currency":"KES"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/transfers", strings.NewReader(body))
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d, want 409", rec.Code)
	}

	body = `{"from_account":"0004123451","to_account":"0004567892","amount":500,"currency":"KES"}`
	req = httptest.NewRequest(http.MethodPost, "/v1/transfers", strings.NewReader(body))
	req.Header.Set("Authorization", token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestListTransactionsValidation(t *testing.T) {
	_, handler := newTestAPI(t)
	token := bearerToken(t, auth.ScopeTransaction)

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions", nil)
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400 without filters", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/transactions?from_account=0004123451", nil)
	req.Header.Set("Authorization", token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
}

func TestTokenEndpoint(t *testing.T) {
	_, handler := newTestAPI(t)

	form := "grant_type=client_credentials"
	req := httptest.NewRequest(http.MethodPost, "/v1/oauth/token", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("teller", "t3ller")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.TokenType != "Bearer" || payload.AccessToken == "" || payload.ExpiresIn != 300 {
		t.Fatalf("payload=%+v", payload)
	}
	claims, err := auth.ParseAndValidate(payload.AccessToken)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if !claims.HasScope(auth.ScopeTransaction) {
		t.Fatalf("scopes=%v", claims.Scopes)
	}

	// Wrong secret is rejected.
	req = httptest.NewRequest(http.MethodPost, "/v1/oauth/token", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("teller", "wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", rec.Code)
	}
}
