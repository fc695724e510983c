package grpcapi

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Wunenes/Core-Banking-System-Services/internal/auth"
)

// methodScopes maps each full method to the scope a caller must carry.
var methodScopes = map[string]string{
	MethodName(AccountService, "CreateAccount"):     auth.ScopeAccountWrite,
	MethodName(AccountService, "GetAccount"):        auth.ScopeAccountRead,
	MethodName(AccountService, "GetAccountsByUser"): auth.ScopeAccountRead,
	MethodName(AccountService, "Credit"):            auth.ScopeAccountWrite,
	MethodName(AccountService, "Debit"):             auth.ScopeAccountWrite,
	MethodName(AccountService, "FreezeAction"):      auth.ScopeAdmin,
	MethodName(AccountService, "CloseAccount"):      auth.ScopeAdmin,

	MethodName(TransactionService, "Deposit"):          auth.ScopeTransaction,
	MethodName(TransactionService, "InternalTransfer"): auth.ScopeTransaction,
	MethodName(TransactionService, "Withdraw"):         auth.ScopeTransaction,
	MethodName(TransactionService, "GetTransaction"):   auth.ScopeTransaction,
	MethodName(TransactionService, "ListTransactions"): auth.ScopeTransaction,
}

// UnaryAuthInterceptor validates the bearer token on every call and checks
// the method's required scope before handing off.
func UnaryAuthInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		token, err := bearerFromContext(ctx)
		if err != nil {
			return nil, err
		}
		claims, err := auth.ParseAndValidate(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		if scope, ok := methodScopes[info.FullMethod]; ok && !claims.HasScope(scope) {
			logger.Warn("scope denied",
				zap.String("method", info.FullMethod),
				zap.String("subject", claims.Subject),
				zap.String("required_scope", scope))
			return nil, status.Error(codes.PermissionDenied, "missing required scope")
		}
		ctx = auth.ContextWithCaller(ctx, claims.Subject, claims.Scopes)
		return handler(ctx, req)
	}
}

func bearerFromContext(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return "", status.Error(codes.Unauthenticated, "missing authorization")
	}
	parts := strings.SplitN(vals[0], " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", status.Error(codes.Unauthenticated, "malformed authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
