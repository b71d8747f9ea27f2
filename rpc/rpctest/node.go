// Package rpctest runs an in-process node that answers the chain_ and state_
// JSON-RPC methods over a WebSocket, the way a Xode node does.
package rpctest

import (
	"encoding/binary"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/mobazha/finalized-watcher/rpc"
	"github.com/mobazha/finalized-watcher/structs"
)

// HashOf is the hash the test chain gives to block number.
func HashOf(number uint64) common.Hash {
	b := make([]byte, 12)
	copy(b, "xode")
	binary.BigEndian.PutUint64(b[4:], number+1)
	return common.BytesToHash(b)
}

// Chain is the state served by a Node. It is safe to mutate while a Node
// is serving it.
type Chain struct {
	mu        sync.RWMutex
	headers   map[common.Hash]*structs.Header
	blocks    map[common.Hash]*structs.SignedBlock
	storage   map[common.Hash]map[string]hexutil.Bytes
	failures  map[string]error
	finalized common.Hash
	calls     []string
}

func NewChain() *Chain {
	return &Chain{
		headers:  make(map[common.Hash]*structs.Header),
		blocks:   make(map[common.Hash]*structs.SignedBlock),
		storage:  make(map[common.Hash]map[string]hexutil.Bytes),
		failures: make(map[string]error),
	}
}

// AddBlock adds block number with parent HashOf(number-1), or the zero hash
// for genesis. chain_getHeader serves it with a number, chain_getBlock
// serves it without one, and System::Number at the block is set to number.
func (c *Chain) AddBlock(number uint64) common.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := HashOf(number)
	var parent common.Hash
	if number > 0 {
		parent = HashOf(number - 1)
	}

	n := hexutil.Uint64(number)
	c.headers[hash] = &structs.Header{
		ParentHash: parent,
		Number:     &n,
	}
	c.blocks[hash] = &structs.SignedBlock{
		Block: structs.Block{
			Header:     structs.Header{ParentHash: parent},
			Extrinsics: []hexutil.Bytes{{0x04, 0x00}},
		},
	}
	c.setStorageLocked(hash, rpc.SystemNumberKey, rpc.EncodeFixedUint32(uint32(number)))

	return hash
}

// Grow adds blocks from..to inclusive and returns the hash of the last one.
func (c *Chain) Grow(from, to uint64) common.Hash {
	var last common.Hash
	for n := from; n <= to; n++ {
		last = c.AddBlock(n)
	}
	return last
}

func (c *Chain) Finalize(hash common.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finalized = hash
}

func (c *Chain) FinalizeNumber(number uint64) {
	c.Finalize(HashOf(number))
}

func (c *Chain) SetStorage(at common.Hash, key, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStorageLocked(at, key, value)
}

func (c *Chain) setStorageLocked(at common.Hash, key, value []byte) {
	if c.storage[at] == nil {
		c.storage[at] = make(map[string]hexutil.Bytes)
	}
	c.storage[at][hexutil.Encode(key)] = value
}

func (c *Chain) DeleteStorage(at common.Hash, key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.storage[at], hexutil.Encode(key))
}

// StripHeaderNumber makes chain_getHeader serve hash without a number.
func (c *Chain) StripHeaderNumber(hash common.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.headers[hash]; ok {
		h.Number = nil
	}
}

func (c *Chain) DeleteHeader(hash common.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.headers, hash)
}

// Fail makes every call of the JSON-RPC method return err. A nil err
// clears the failure.
func (c *Chain) Fail(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, method)
		return
	}
	c.failures[method] = err
}

// Calls returns the JSON-RPC methods served so far, in order.
func (c *Chain) Calls() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.calls...)
}

func (c *Chain) record(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, method)
	return c.failures[method]
}

type chainAPI struct {
	chain *Chain
}

func (api *chainAPI) GetFinalizedHead() (*common.Hash, error) {
	if err := api.chain.record("chain_getFinalizedHead"); err != nil {
		return nil, err
	}
	api.chain.mu.RLock()
	defer api.chain.mu.RUnlock()
	if api.chain.finalized == (common.Hash{}) {
		return nil, nil
	}
	hash := api.chain.finalized
	return &hash, nil
}

func (api *chainAPI) GetBlock(hash common.Hash) (*structs.SignedBlock, error) {
	if err := api.chain.record("chain_getBlock"); err != nil {
		return nil, err
	}
	api.chain.mu.RLock()
	defer api.chain.mu.RUnlock()
	return api.chain.blocks[hash], nil
}

func (api *chainAPI) GetHeader(hash common.Hash) (*structs.Header, error) {
	if err := api.chain.record("chain_getHeader"); err != nil {
		return nil, err
	}
	api.chain.mu.RLock()
	defer api.chain.mu.RUnlock()
	h, ok := api.chain.headers[hash]
	if !ok {
		return nil, nil
	}
	header := *h
	return &header, nil
}

type stateAPI struct {
	chain *Chain
}

func (api *stateAPI) GetStorage(key hexutil.Bytes, at common.Hash) (*hexutil.Bytes, error) {
	if err := api.chain.record("state_getStorage"); err != nil {
		return nil, err
	}
	api.chain.mu.RLock()
	defer api.chain.mu.RUnlock()
	value, ok := api.chain.storage[at][key.String()]
	if !ok {
		return nil, nil
	}
	return &value, nil
}

// Node serves a Chain on a local WebSocket endpoint.
type Node struct {
	URL string

	server    *gethrpc.Server
	http      *httptest.Server
	closeOnce sync.Once
}

// NewNode starts a node for chain. It is closed when the test ends.
func NewNode(t testing.TB, chain *Chain) *Node {
	t.Helper()

	server := gethrpc.NewServer()
	if err := server.RegisterName("chain", &chainAPI{chain: chain}); err != nil {
		t.Fatalf("failed to register chain api: %v", err)
	}
	if err := server.RegisterName("state", &stateAPI{chain: chain}); err != nil {
		t.Fatalf("failed to register state api: %v", err)
	}

	httpServer := httptest.NewServer(server.WebsocketHandler([]string{"*"}))
	node := &Node{
		URL:    "ws://" + strings.TrimPrefix(httpServer.URL, "http://"),
		server: server,
		http:   httpServer,
	}
	t.Cleanup(node.Close)

	return node
}

func (n *Node) Close() {
	n.closeOnce.Do(func() {
		n.http.CloseClientConnections()
		n.http.Close()
		n.server.Stop()
	})
}
