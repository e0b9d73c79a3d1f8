package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/verdantapp/backend/internal/ai"
	"github.com/verdantapp/backend/internal/ledger"
	"github.com/verdantapp/backend/internal/store"
)

// rpcError maps domain failures to Connect error codes: validation and
// oversized input are the caller's fault, assistant failures are upstream
// unavailability, everything else is internal.
func rpcError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return err
	}
	if ledger.IsValidation(err) || errors.Is(err, ai.ErrOversizedInput) {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	var svcErr *ai.ServiceError
	if errors.As(err, &svcErr) {
		return connect.NewError(connect.CodeUnavailable, err)
	}
	if errors.Is(err, store.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

func invalidArgument(message string) error {
	return connect.NewError(connect.CodeInvalidArgument, errors.New(message))
}
