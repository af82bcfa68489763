package interfaces

import "context"

// TransactionRunner executes fn atomically. The mongo implementation wraps
// fn in a session transaction so the referral update and benefit insert of
// the contract transition commit or abort together.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
