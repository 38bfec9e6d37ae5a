// internal/app/system/txn/txn.go
//
// Package txn runs multi-document writes in a Mongo transaction when the
// deployment supports one and falls back to sequential writes when it does
// not (a standalone mongod in development).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction on client. If the server rejects
// transactions, fn is run again without one and the fallback is logged with
// op so the gap is visible. fn must therefore be safe to re-run after a
// rejected start, which holds because a rejected transaction commits nothing.
func Run(ctx context.Context, client *mongo.Client, op string, fn func(ctx context.Context) error) error {
	if client == nil {
		return fn(ctx)
	}
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fallback(ctx, op, err, fn)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return fallback(ctx, op, err, fn)
	}
	return err
}

func fallback(ctx context.Context, op string, cause error, fn func(ctx context.Context) error) error {
	zap.L().Warn("transactions unavailable; running writes sequentially",
		zap.String("op", op), zap.Error(cause))
	return fn(ctx)
}

// notSupportedCodes are server codes meaning "no transactions here":
// 20 IllegalOperation, 51 (legacy), 263 OperationNotSupportedInTransaction.
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// IsNotSupported reports whether err means the deployment cannot run
// transactions (standalone server, or a driver/session mismatch).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && notSupportedCodes[ce.Code] {
		return true
	}
	msg := strings.ToLower(err.Error())
	pairs := [][2]string{
		{"transaction", "replica set"},
		{"session", "not supported"},
		{"transaction", "session"},
		{"illegal", "operation"},
	}
	for _, p := range pairs {
		if strings.Contains(msg, p[0]) && strings.Contains(msg, p[1]) {
			return true
		}
	}
	return false
}
