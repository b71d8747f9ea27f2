package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mobazha/finalized-watcher/structs"
)

const (
	methodGetFinalizedHead = "chain_getFinalizedHead"
	methodGetBlock         = "chain_getBlock"
	methodGetHeader        = "chain_getHeader"
	methodGetStorage       = "state_getStorage"
)

var (
	ErrDial            = errors.New("failed to connect to node")
	ErrBlockNotFound   = errors.New("block not found")
	ErrHeaderNotFound  = errors.New("header not found")
	ErrStorageNotFound = errors.New("storage value not found")
)

// SubstrateRPC talks to a Substrate node over a single JSON-RPC connection.
// Calls are not retried.
type SubstrateRPC struct {
	client *gethrpc.Client
}

// NewSubstrateRPC dials the node. For ws:// and wss:// endpoints the
// connection is established before this returns.
func NewSubstrateRPC(ctx context.Context, api string) (*SubstrateRPC, error) {
	client, err := gethrpc.DialContext(ctx, api)
	if err != nil {
		return nil, errors.Wrapf(ErrDial, "%s: %v", api, err)
	}

	return &SubstrateRPC{client: client}, nil
}

func (rpc *SubstrateRPC) FinalizedHead(ctx context.Context) (common.Hash, error) {
	var hash *common.Hash
	if err := rpc.client.CallContext(ctx, &hash, methodGetFinalizedHead); err != nil {
		return common.Hash{}, errors.WithMessage(err, methodGetFinalizedHead)
	}
	if hash == nil {
		return common.Hash{}, errors.WithMessage(ErrBlockNotFound, methodGetFinalizedHead)
	}

	logrus.Debugf("finalized head: %s", hash.Hex())
	return *hash, nil
}

func (rpc *SubstrateRPC) Block(ctx context.Context, hash common.Hash) (*structs.SignedBlock, error) {
	var block *structs.SignedBlock
	if err := rpc.client.CallContext(ctx, &block, methodGetBlock, hash); err != nil {
		return nil, errors.WithMessagef(err, "%s(%s)", methodGetBlock, hash.Hex())
	}
	if block == nil {
		return nil, errors.WithMessagef(ErrBlockNotFound, "%s(%s)", methodGetBlock, hash.Hex())
	}

	logrus.Debugf("block %s, parent: %s, extrinsics: %d", hash.Hex(), block.ParentHash().Hex(), len(block.Block.Extrinsics))
	return block, nil
}

func (rpc *SubstrateRPC) Header(ctx context.Context, hash common.Hash) (*structs.Header, error) {
	var header *structs.Header
	if err := rpc.client.CallContext(ctx, &header, methodGetHeader, hash); err != nil {
		return nil, errors.WithMessagef(err, "%s(%s)", methodGetHeader, hash.Hex())
	}
	if header == nil {
		return nil, errors.WithMessagef(ErrHeaderNotFound, "%s(%s)", methodGetHeader, hash.Hex())
	}

	logrus.Debugf("header %s, number: %d (present: %t)", hash.Hex(), header.NumberU64(), header.HasNumber())
	return header, nil
}

func (rpc *SubstrateRPC) Storage(ctx context.Context, key []byte, at common.Hash) ([]byte, error) {
	var value *hexutil.Bytes
	if err := rpc.client.CallContext(ctx, &value, methodGetStorage, hexutil.Bytes(key), at); err != nil {
		return nil, errors.WithMessagef(err, "%s(%s, %s)", methodGetStorage, hexutil.Encode(key), at.Hex())
	}
	if value == nil {
		return nil, errors.WithMessagef(ErrStorageNotFound, "%s(%s, %s)", methodGetStorage, hexutil.Encode(key), at.Hex())
	}

	logrus.Debugf("storage %s at %s: %s", hexutil.Encode(key), at.Hex(), value.String())
	return *value, nil
}

func (rpc *SubstrateRPC) Close() {
	rpc.client.Close()
}
