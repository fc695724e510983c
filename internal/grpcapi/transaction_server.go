package grpcapi

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Wunenes/Core-Banking-System-Services/internal/transaction"
)

// TransactionServer serves the transaction orchestrator over gRPC.
type TransactionServer struct {
	orch   *transaction.Orchestrator
	logger *zap.Logger
}

func NewTransactionServer(orch *transaction.Orchestrator, logger *zap.Logger) *TransactionServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionServer{orch: orch, logger: logger}
}

// Register attaches the service to the gRPC server.
func (s *TransactionServer) Register(g *grpc.Server) {
	g.RegisterService(&transactionServiceDesc, s)
}

func (s *TransactionServer) Deposit(ctx context.Context, req *DepositRequest) (*TransactionResponse, error) {
	tx, err := s.orch.Deposit(ctx, req.ToAccount, req.Amount, req.Currency, req.Description)
	if err != nil {
		return nil, domainStatus(ctx, err)
	}
	return &TransactionResponse{Transaction: tx}, nil
}

func (s *TransactionServer) InternalTransfer(ctx context.Context, req *TransferRequest) (*TransactionResponse, error) {
	tx, err := s.orch.InternalTransfer(ctx, req.FromAccount, req.ToAccount, req.Amount, req.Currency, req.Description, req.InitiatedBy)
	if err != nil {
		return nil, domainStatus(ctx, err)
	}
	return &TransactionResponse{Transaction: tx}, nil
}

func (s *TransactionServer) Withdraw(ctx context.Context, req *WithdrawRequest) (*TransactionResponse, error) {
	tx, err := s.orch.Withdrawal(ctx, req.FromAccount, req.Amount, req.Currency, req.Description)
	if err != nil {
		return nil, domainStatus(ctx, err)
	}
	return &TransactionResponse{Transaction: tx}, nil
}

func (s *TransactionServer) GetTransaction(ctx context.Context, req *GetTransactionRequest) (*TransactionResponse, error) {
	tx, err := s.orch.GetByReference(ctx, req.Reference)
	if err != nil {
		return nil, domainStatus(ctx, err)
	}
	return &TransactionResponse{Transaction: tx}, nil
}

func (s *TransactionServer) ListTransactions(ctx context.Context, req *ListTransactionsRequest) (*TransactionsResponse, error) {
	var (
		txs []transaction.Transaction
		err error
	)
	switch {
	case req.FromAccount != "":
		txs, err = s.orch.ListByFromAccount(ctx, req.FromAccount)
	case req.ToAccount != "":
		txs, err = s.orch.ListByToAccount(ctx, req.ToAccount)
	case !req.From.IsZero() || !req.To.IsZero():
		txs, err = s.orch.ListByTime(ctx, req.From, req.To)
	default:
		return nil, status.Error(codes.InvalidArgument, "one of from_account, to_account or a time range is required")
	}
	if err != nil {
		return nil, domainStatus(ctx, err)
	}
	return &TransactionsResponse{Transactions: txs}, nil
}

var transactionServiceDesc = grpc.ServiceDesc{
	ServiceName: TransactionService,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Deposit", Handler: unaryHandler(TransactionService, "Deposit", (*TransactionServer).Deposit)},
		{MethodName: "InternalTransfer", Handler: unaryHandler(TransactionService, "InternalTransfer", (*TransactionServer).InternalTransfer)},
		{MethodName: "Withdraw", Handler: unaryHandler(TransactionService, "Withdraw", (*TransactionServer).Withdraw)},
		{MethodName: "GetTransaction", Handler: unaryHandler(TransactionService, "GetTransaction", (*TransactionServer).GetTransaction)},
		{MethodName: "ListTransactions", Handler: unaryHandler(TransactionService, "ListTransactions", (*TransactionServer).ListTransactions)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "corebank/v1/transaction_service",
}
