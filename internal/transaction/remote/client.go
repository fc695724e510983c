// Package remote is the gRPC client for the transaction service, used by
// the gateway.
package remote

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
	"github.com/Wunenes/Core-Banking-System-Services/internal/grpcapi"
	"github.com/Wunenes/Core-Banking-System-Services/internal/rpcmesh"
	"github.com/Wunenes/Core-Banking-System-Services/internal/transaction"
)

// Client talks to a remote transaction service.
type Client struct {
	conn   *grpc.ClientConn
	caller *rpcmesh.Caller
}

// Dial connects to the transaction service at target.
func Dial(target string, broker *rpcmesh.CredentialBroker, timeout time.Duration, logger *zap.Logger, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(broker),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpcmesh.CodecName)),
	}, opts...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, caller: rpcmesh.NewCaller(broker, timeout, logger)}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) invoke(ctx context.Context, method string, req, resp any, hints rpcmesh.Hints) error {
	full := grpcapi.MethodName(grpcapi.TransactionService, method)
	return c.caller.Invoke(ctx, method, func(ctx context.Context) (metadata.MD, error) {
		var trailer metadata.MD
		err := c.conn.Invoke(ctx, full, req, resp, grpc.Trailer(&trailer))
		return trailer, err
	}, hints)
}

func (c *Client) Deposit(ctx context.Context, toAccount string, amount int64, currency account.Currency, description string) (transaction.Transaction, error) {
	req := &grpcapi.DepositRequest{ToAccount: toAccount, Amount: amount, Currency: currency, Description: description}
	var resp grpcapi.TransactionResponse
	if err := c.invoke(ctx, "Deposit", req, &resp, rpcmesh.Hints{AccountNumber: toAccount}); err != nil {
		return transaction.Transaction{}, err
	}
	return resp.Transaction, nil
}

func (c *Client) InternalTransfer(ctx context.Context, fromAccount, toAccount string, amount int64, currency account.Currency, description, initiatedBy string) (transaction.Transaction, error) {
	req := &grpcapi.TransferRequest{
		FromAccount: fromAccount,
		ToAccount:   toAccount,
		Amount:      amount,
		Currency:    currency,
		Description: description,
		InitiatedBy: initiatedBy,
	}
	var resp grpcapi.TransactionResponse
	if err := c.invoke(ctx, "InternalTransfer", req, &resp, rpcmesh.Hints{AccountNumber: fromAccount}); err != nil {
		return transaction.Transaction{}, err
	}
	return resp.Transaction, nil
}

func (c *Client) Withdraw(ctx context.Context, fromAccount string, amount int64, currency account.Currency, description string) (transaction.Transaction, error) {
	req := &grpcapi.WithdrawRequest{FromAccount: fromAccount, Amount: amount, Currency: currency, Description: description}
	var resp grpcapi.TransactionResponse
	if err := c.invoke(ctx, "Withdraw", req, &resp, rpcmesh.Hints{AccountNumber: fromAccount}); err != nil {
		return transaction.Transaction{}, err
	}
	return resp.Transaction, nil
}

func (c *Client) GetTransaction(ctx context.Context, reference string) (transaction.Transaction, error) {
	req := &grpcapi.GetTransactionRequest{Reference: reference}
	var resp grpcapi.TransactionResponse
	if err := c.invoke(ctx, "GetTransaction", req, &resp, rpcmesh.Hints{Reference: reference}); err != nil {
		return transaction.Transaction{}, err
	}
	return resp.Transaction, nil
}

func (c *Client) ListTransactions(ctx context.Context, req grpcapi.ListTransactionsRequest) ([]transaction.Transaction, error) {
	var resp grpcapi.TransactionsResponse
	if err := c.invoke(ctx, "ListTransactions", &req, &resp, rpcmesh.Hints{}); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}
