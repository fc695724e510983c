package grpcapi

import (
	"context"
	"errors"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Wunenes/Core-Banking-System-Services/internal/account"
	"github.com/Wunenes/Core-Banking-System-Services/internal/rpcmesh"
	"github.com/Wunenes/Core-Banking-System-Services/internal/transaction"
)

// domainStatus converts a domain error into a gRPC status and attaches the
// trailer metadata the client side needs to rebuild the typed error.
// Unrecognized errors come back as Internal with no detail leaked.
func domainStatus(ctx context.Context, err error) error {
	var notFound *account.NotFoundError
	var ineligible *account.IneligibleAccountError
	var insufficient *account.InsufficientFundsError
	var txNotFound *transaction.NotFoundError

	switch {
	case errors.As(err, &notFound):
		grpc.SetTrailer(ctx, metadata.Pairs(
			rpcmesh.MDErrorType, rpcmesh.ErrTypeAccountNotFound,
			rpcmesh.MDAccountNumber, notFound.AccountNumber,
		))
		return status.Error(codes.NotFound, err.Error())

	case errors.As(err, &ineligible):
		grpc.SetTrailer(ctx, metadata.Pairs(
			rpcmesh.MDErrorType, rpcmesh.ErrTypeIneligibleAccount,
			rpcmesh.MDAccountNumber, ineligible.AccountNumber,
			rpcmesh.MDAccountStatus, string(ineligible.Status),
			rpcmesh.MDAttemptedOperation, ineligible.Operation,
		))
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.As(err, &insufficient):
		grpc.SetTrailer(ctx, metadata.Pairs(
			rpcmesh.MDErrorType, rpcmesh.ErrTypeInsufficientBalance,
			rpcmesh.MDAccountNumber, insufficient.AccountNumber,
			rpcmesh.MDBalance, strconv.FormatInt(insufficient.Balance, 10),
			rpcmesh.MDAttemptedOperation, strconv.FormatInt(insufficient.Requested, 10),
		))
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.As(err, &txNotFound):
		grpc.SetTrailer(ctx, metadata.Pairs(
			rpcmesh.MDErrorType, rpcmesh.ErrTypeTransactionNotFound,
			rpcmesh.MDTransactionReference, txNotFound.Reference,
		))
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, account.ErrInvalidAmount),
		errors.Is(err, account.ErrInvalidCurrency),
		errors.Is(err, account.ErrInvalidType),
		errors.Is(err, transaction.ErrInvalidAmount):
		return status.Error(codes.InvalidArgument, err.Error())
	}

	return status.Error(codes.Internal, "internal error")
}
