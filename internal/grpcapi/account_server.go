package grpcapi

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
)

// AccountServer serves the account ledger over gRPC.
type AccountServer struct {
	ledger *account.Ledger
	logger *zap.Logger
}

func NewAccountServer(ledger *account.Ledger, logger *zap.Logger) *AccountServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountServer{ledger: ledger, logger: logger}
}

// Register attaches the service to the gRPC server.
func (s *AccountServer) Register(g *grpc.Server) {
	g.RegisterService(&accountServiceDesc, s)
}

func (s *AccountServer) CreateAccount(ctx context.Context, req *CreateAccountRequest) (*AccountResponse, error) {
	acc, err := s.ledger.CreateAccount(ctx, req.UserID, req.Type, req.Currency, req.InitialDeposit, req.InterestRateBps)
	if err != nil {
		return nil, domainStatus(ctx, err)
	}
	return &AccountResponse{Account: acc}, nil
}

func (s *AccountServer) GetAccount(ctx context.Context, req *GetAccountRequest) (*AccountResponse, error) {
	acc, err := s.ledger.GetAccount(ctx, req.AccountNumber)
	if err != nil {
		return nil, domainStatus(ctx, err)
	}
	return &AccountResponse{Account: acc}, nil
}

func (s *AccountServer) GetAccountsByUser(ctx context.Context, req *GetAccountsByUserRequest) (*AccountsResponse, error) {
	accounts, err := s.ledger.GetAccountsByUser(ctx, req.UserID)
	if err != nil {
		return nil, domainStatus(ctx, err)
	}
	return &AccountsResponse{Accounts: accounts}, nil
}

func (s *AccountServer) Credit(ctx context.Context, req *CreditRequest) (*CreditResponse, error) {
	balance, err := s.ledger.Credit(ctx, req.AccountNumber, req.Amount, req.Currency)
	if err != nil {
		return nil, domainStatus(ctx, err)
	}
	return &CreditResponse{AccountNumber: req.AccountNumber, AvailableBalance: balance}, nil
}

func (s *AccountServer) Debit(ctx context.Context, req *DebitRequest) (*DebitResponse, error) {
	balance, err := s.ledger.Debit(ctx, req.AccountNumber, req.Amount, req.Currency)
	if err != nil {
		return nil, domainStatus(ctx, err)
	}
	return &DebitResponse{AccountNumber: req.AccountNumber, CurrentBalance: balance}, nil
}

func (s *AccountServer) FreezeAction(ctx context.Context, req *FreezeRequest) (*FreezeResponse, error) {
	res, err := s.ledger.FreezeAction(ctx, req.Action, req.AccountNumber, req.Reason)
	if err != nil {
		return nil, domainStatus(ctx, err)
	}
	return &FreezeResponse{Result: res}, nil
}

func (s *AccountServer) CloseAccount(ctx context.Context, req *CloseAccountRequest) (*CloseAccountResponse, error) {
	res, err := s.ledger.CloseAccount(ctx, req.AccountNumber, req.ReceivingAccountNumber)
	if err != nil {
		return nil, domainStatus(ctx, err)
	}
	return &CloseAccountResponse{Result: res}, nil
}

var accountServiceDesc = grpc.ServiceDesc{
	ServiceName: AccountService,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateAccount", Handler: unaryHandler(AccountService, "CreateAccount", (*AccountServer).CreateAccount)},
		{MethodName: "GetAccount", Handler: unaryHandler(AccountService, "GetAccount", (*AccountServer).GetAccount)},
		{MethodName: "GetAccountsByUser", Handler: unaryHandler(AccountService, "GetAccountsByUser", (*AccountServer).GetAccountsByUser)},
		{MethodName: "Credit", Handler: unaryHandler(AccountService, "Credit", (*AccountServer).Credit)},
		{MethodName: "Debit", Handler: unaryHandler(AccountService, "Debit", (*AccountServer).Debit)},
		{MethodName: "FreezeAction", Handler: unaryHandler(AccountService, "FreezeAction", (*AccountServer).FreezeAction)},
		{MethodName: "CloseAccount", Handler: unaryHandler(AccountService, "CloseAccount", (*AccountServer).CloseAccount)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "corebank/v1/account_service",
}
