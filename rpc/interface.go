package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mobazha/finalized-watcher/structs"
)

type ISubstrateRPC interface {
	FinalizedHead(ctx context.Context) (common.Hash, error)
	Block(ctx context.Context, hash common.Hash) (*structs.SignedBlock, error)
	Header(ctx context.Context, hash common.Hash) (*structs.Header, error)
	Storage(ctx context.Context, key []byte, at common.Hash) ([]byte, error)
	Close()
}
