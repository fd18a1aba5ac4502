package mongo

import (
	"context"
	"fmt"

	"github.com/agromarket/auction-service/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
)

type txRunner struct {
	client *mongo.Client
}

// NewTxRunner wraps the client's session support. Repository writes issued
// through the session context commit or abort as one unit.
func NewTxRunner(client *mongo.Client) repository.TxRunner {
	return &txRunner{client: client}
}

func (r *txRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
