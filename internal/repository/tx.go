package repository

import "context"

// TxRunner executes fn as one logical transaction against the store. Writes
// issued through the ctx passed to fn commit or abort together.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
