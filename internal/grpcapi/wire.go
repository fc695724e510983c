// Package grpcapi exposes the account and transaction services over gRPC.
// The wire format is the mesh JSON codec; service descriptors are declared
// by hand instead of generated.
package grpcapi

import (
	"time"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
	"github.com/Wunenes/Core-Banking-System-Services/internal/transaction"
)

// Service names on the internal mesh.
const (
	AccountService     = "corebank.v1.AccountService"
	TransactionService = "corebank.v1.TransactionService"
)

// MethodName builds the full method path used by clients and interceptors.
func MethodName(service, method string) string {
	return "/" + service + "/" + method
}

type CreateAccountRequest struct {
	UserID          string           `json:"user_id"`
	Type            account.Type     `json:"account_type"`
	Currency        account.Currency `json:"currency"`
	InitialDeposit  int64            `json:"initial_deposit"`
	InterestRateBps int64            `json:"interest_rate_bps"`
}

type GetAccountRequest struct {
	AccountNumber string `json:"account_number"`
}

type GetAccountsByUserRequest struct {
	UserID string `json:"user_id"`
}

type AccountResponse struct {
	Account account.Account `json:"account"`
}

type AccountsResponse struct {
	Accounts []account.Account `json:"accounts"`
}

type CreditRequest struct {
	AccountNumber string           `json:"account_number"`
	Amount        int64            `json:"amount"`
	Currency      account.Currency `json:"currency"`
}

type CreditResponse struct {
	AccountNumber    string `json:"account_number"`
	AvailableBalance int64  `json:"available_balance"`
}

type DebitRequest struct {
	AccountNumber string           `json:"account_number"`
	Amount        int64            `json:"amount"`
	Currency      account.Currency `json:"currency"`
}

type DebitResponse struct {
	AccountNumber  string `json:"account_number"`
	CurrentBalance int64  `json:"current_balance"`
}

type FreezeRequest struct {
	AccountNumber string `json:"account_number"`
	Action        string `json:"action"`
	Reason        string `json:"reason"`
}

type FreezeResponse struct {
	Result account.FreezeResult `json:"result"`
}

type CloseAccountRequest struct {
	AccountNumber          string `json:"account_number"`
	ReceivingAccountNumber string `json:"receiving_account_number"`
}

type CloseAccountResponse struct {
	Result account.CloseResult `json:"result"`
}

type DepositRequest struct {
	ToAccount   string           `json:"to_account"`
	Amount      int64            `json:"amount"`
	Currency    account.Currency `json:"currency"`
	Description string           `json:"description,omitempty"`
}

type TransferRequest struct {
	FromAccount string           `json:"from_account"`
	ToAccount   string           `json:"to_account"`
	Amount      int64            `json:"amount"`
	Currency    account.Currency `json:"currency"`
	Description string           `json:"description,omitempty"`
	InitiatedBy string           `json:"initiated_by,omitempty"`
}

type WithdrawRequest struct {
	FromAccount string           `json:"from_account"`
	Amount      int64            `json:"amount"`
	Currency    account.Currency `json:"currency"`
	Description string           `json:"description,omitempty"`
}

type GetTransactionRequest struct {
	Reference string `json:"transaction_reference"`
}

type ListTransactionsRequest struct {
	FromAccount string    `json:"from_account,omitempty"`
	ToAccount   string    `json:"to_account,omitempty"`
	From        time.Time `json:"from,omitempty"`
	To          time.Time `json:"to,omitempty"`
}

type TransactionResponse struct {
	Transaction transaction.Transaction `json:"transaction"`
}

type TransactionsResponse struct {
	Transactions []transaction.Transaction `json:"transactions"`
}
