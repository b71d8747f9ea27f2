package rpc_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobazha/finalized-watcher/rpc"
	"github.com/mobazha/finalized-watcher/rpc/rpctest"
)

func newClient(t *testing.T, chain *rpctest.Chain) *rpc.SubstrateRPC {
	t.Helper()

	node := rpctest.NewNode(t, chain)
	client, err := rpc.NewSubstrateRPC(context.Background(), node.URL)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func TestFinalizedHead(t *testing.T) {
	chain := rpctest.NewChain()
	head := chain.Grow(1000, 1001)
	chain.Finalize(head)

	client := newClient(t, chain)

	hash, err := client.FinalizedHead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, head, hash)
}

func TestFinalizedHeadMissing(t *testing.T) {
	client := newClient(t, rpctest.NewChain())

	_, err := client.FinalizedHead(context.Background())
	assert.True(t, errors.Is(err, rpc.ErrBlockNotFound))
}

func TestBlockHasNoNumber(t *testing.T) {
	chain := rpctest.NewChain()
	head := chain.Grow(1000, 1001)

	client := newClient(t, chain)

	block, err := client.Block(context.Background(), head)
	require.NoError(t, err)
	assert.Equal(t, rpctest.HashOf(1000), block.ParentHash())
	assert.False(t, block.Block.Header.HasNumber())
	assert.Len(t, block.Block.Extrinsics, 1)
}

func TestBlockNotFound(t *testing.T) {
	client := newClient(t, rpctest.NewChain())

	_, err := client.Block(context.Background(), common.HexToHash("0x01"))
	assert.True(t, errors.Is(err, rpc.ErrBlockNotFound))
}

func TestHeader(t *testing.T) {
	chain := rpctest.NewChain()
	chain.Grow(1000, 1001)

	client := newClient(t, chain)

	header, err := client.Header(context.Background(), rpctest.HashOf(1000))
	require.NoError(t, err)
	require.True(t, header.HasNumber())
	assert.Equal(t, uint64(1000), header.NumberU64())
	assert.Equal(t, rpctest.HashOf(999), header.ParentHash)
}

func TestHeaderNotFound(t *testing.T) {
	client := newClient(t, rpctest.NewChain())

	_, err := client.Header(context.Background(), common.HexToHash("0x02"))
	assert.True(t, errors.Is(err, rpc.ErrHeaderNotFound))
}

func TestStorage(t *testing.T) {
	chain := rpctest.NewChain()
	head := chain.Grow(1001, 1001)

	client := newClient(t, chain)

	raw, err := client.Storage(context.Background(), rpc.SystemNumberKey, head)
	require.NoError(t, err)

	number, err := rpc.DecodeFixedUint(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(1001), number)
}

func TestStorageNotFound(t *testing.T) {
	chain := rpctest.NewChain()
	head := chain.Grow(5, 5)
	chain.DeleteStorage(head, rpc.SystemNumberKey)

	client := newClient(t, chain)

	_, err := client.Storage(context.Background(), rpc.SystemNumberKey, head)
	assert.True(t, errors.Is(err, rpc.ErrStorageNotFound))
}

func TestRPCFault(t *testing.T) {
	chain := rpctest.NewChain()
	chain.Finalize(chain.Grow(1, 1))
	chain.Fail("chain_getFinalizedHead", errors.New("node is syncing"))

	client := newClient(t, chain)

	_, err := client.FinalizedHead(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node is syncing")
}

func TestDialUnreachable(t *testing.T) {
	node := rpctest.NewNode(t, rpctest.NewChain())
	url := node.URL
	node.Close()

	_, err := rpc.NewSubstrateRPC(context.Background(), url)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rpc.ErrDial))
}
