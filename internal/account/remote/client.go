// Package remote is the gRPC client for the account service. Calls go
// through the mesh caller, so credentials, retries and error translation
// behave the same for every consumer.
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
)

// Client talks to a remote account service.
type Client struct {
	conn   *grpc.ClientConn
	caller *rpcmesh.Caller
}

// Dial connects to the account service at target. The broker decorates every
// call with the current bearer token.
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
	full := grpcapi.MethodName(grpcapi.AccountService, method)
	return c.caller.Invoke(ctx, method, func(ctx context.Context) (metadata.MD, error) {
		var trailer metadata.MD
		err := c.conn.Invoke(ctx, full, req, resp, grpc.Trailer(&trailer))
		return trailer, err
	}, hints)
}

func (c *Client) CreateAccount(ctx context.Context, userID string, typ account.Type, currency account.Currency, initialDeposit, interestRateBps int64) (account.Account, error) {
	req := &grpcapi.CreateAccountRequest{
		UserID:          userID,
		Type:            typ,
		Currency:        currency,
		InitialDeposit:  initialDeposit,
		InterestRateBps: interestRateBps,
	}
	var resp grpcapi.AccountResponse
	if err := c.invoke(ctx, "CreateAccount", req, &resp, rpcmesh.Hints{}); err != nil {
		return account.Account{}, err
	}
	return resp.Account, nil
}

func (c *Client) GetAccount(ctx context.Context, number string) (account.Account, error) {
	req := &grpcapi.GetAccountRequest{AccountNumber: number}
	var resp grpcapi.AccountResponse
	if err := c.invoke(ctx, "GetAccount", req, &resp, rpcmesh.Hints{AccountNumber: number}); err != nil {
		return account.Account{}, err
	}
	return resp.Account, nil
}

func (c *Client) GetAccountsByUser(ctx context.Context, userID string) ([]account.Account, error) {
	req := &grpcapi.GetAccountsByUserRequest{UserID: userID}
	var resp grpcapi.AccountsResponse
	if err := c.invoke(ctx, "GetAccountsByUser", req, &resp, rpcmesh.Hints{}); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

func (c *Client) Credit(ctx context.Context, number string, amount int64, currency account.Currency) (int64, error) {
	req := &grpcapi.CreditRequest{AccountNumber: number, Amount: amount, Currency: currency}
	var resp grpcapi.CreditResponse
	if err := c.invoke(ctx, "Credit", req, &resp, rpcmesh.Hints{AccountNumber: number}); err != nil {
		return 0, err
	}
	return resp.AvailableBalance, nil
}

func (c *Client) Debit(ctx context.Context, number string, amount int64, currency account.Currency) (int64, error) {
	req := &grpcapi.DebitRequest{AccountNumber: number, Amount: amount, Currency: currency}
	var resp grpcapi.DebitResponse
	if err := c.invoke(ctx, "Debit", req, &resp, rpcmesh.Hints{AccountNumber: number}); err != nil {
		return 0, err
	}
	return resp.CurrentBalance, nil
}

func (c *Client) FreezeAction(ctx context.Context, action, number, reason string) (account.FreezeResult, error) {
	req := &grpcapi.FreezeRequest{AccountNumber: number, Action: action, Reason: reason}
	var resp grpcapi.FreezeResponse
	if err := c.invoke(ctx, "FreezeAction", req, &resp, rpcmesh.Hints{AccountNumber: number}); err != nil {
		return account.FreezeResult{}, err
	}
	return resp.Result, nil
}

func (c *Client) CloseAccount(ctx context.Context, number, receivingNumber string) (account.CloseResult, error) {
	req := &grpcapi.CloseAccountRequest{AccountNumber: number, ReceivingAccountNumber: receivingNumber}
	var resp grpcapi.CloseAccountResponse
	if err := c.invoke(ctx, "CloseAccount", req, &resp, rpcmesh.Hints{AccountNumber: number}); err != nil {
		return account.CloseResult{}, err
	}
	return resp.Result, nil
}
