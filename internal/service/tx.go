package service

import (
	"context"
	"errors"

	"ticket-reservation/internal/database"
	"ticket-reservation/internal/result"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// errRollback signals that fn produced a failed Result and the transaction
// must be discarded; the Result already carries the error codes.
var errRollback = errors.New("rollback requested")

// withinTxResult runs one top-level use case inside a single transaction.
// The transaction commits only when fn returns a successful Result; a failed
// Result rolls back with its error codes intact, and an unexpected fault
// (storage error, panic) rolls back and becomes a generic internal-error
// Result.
func withinTxResult[T any](ctx context.Context, txm database.TxManager, log *zap.Logger, fn func(tx pgx.Tx) result.Result[T]) result.Result[T] {
	var res result.Result[T]
	err := txm.WithinTx(ctx, func(tx pgx.Tx) error {
		res = fn(tx)
		if !res.IsSuccess() {
			return errRollback
		}
		return nil
	})
	if err != nil && !errors.Is(err, errRollback) {
		log.Error("use case failed, transaction rolled back", zap.Error(err))
		return result.Internal[T](result.Custom("INTERNAL_ERROR", err.Error()))
	}
	return res
}
