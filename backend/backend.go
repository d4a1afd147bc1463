package backend

import (
	"context"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// Backend reads accounts from a JSON-RPC node. It never submits transactions.
type Backend struct {
	logger    *zap.Logger
	rpcClient *rpc.Client
	ctx       context.Context
}

func NewBackend(ctx context.Context, endpoint string, logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{
		logger:    logger,
		rpcClient: rpc.New(endpoint),
		ctx:       ctx,
	}
}
