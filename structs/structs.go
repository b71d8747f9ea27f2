package structs

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Header is a Substrate block header as returned by chain_getHeader.
//
// Number is a pointer because the header embedded in chain_getBlock on
// Xode uses a custom header type that does not include a block number.
type Header struct {
	ParentHash     common.Hash     `json:"parentHash"`
	Number         *hexutil.Uint64 `json:"number,omitempty"`
	StateRoot      common.Hash     `json:"stateRoot"`
	ExtrinsicsRoot common.Hash     `json:"extrinsicsRoot"`
	Digest         Digest          `json:"digest"`
}

type Digest struct {
	Logs []hexutil.Bytes `json:"logs"`
}

// HasNumber reports whether the node sent a number field for this header.
func (h *Header) HasNumber() bool {
	return h != nil && h.Number != nil
}

// NumberU64 returns the header number, or 0 if the header carries none.
func (h *Header) NumberU64() uint64 {
	if !h.HasNumber() {
		return 0
	}
	return uint64(*h.Number)
}

type Block struct {
	Header     Header          `json:"header"`
	Extrinsics []hexutil.Bytes `json:"extrinsics"`
}

type SignedBlock struct {
	Block          Block           `json:"block"`
	Justifications json.RawMessage `json:"justifications"`
}

func (b *SignedBlock) ParentHash() common.Hash {
	return b.Block.Header.ParentHash
}

// Method names one way of deriving the finalized block number.
type Method string

const (
	MethodHeaderWalk Method = "header_walk"
	MethodStateQuery Method = "state_query"
)

func (m Method) Label() string {
	switch m {
	case MethodHeaderWalk:
		return "header walk"
	case MethodStateQuery:
		return "state query"
	default:
		return string(m)
	}
}

// FinalizedBlock is the finalized head as seen by a single retrieval method.
// ParentHash is only set by the header walk.
type FinalizedBlock struct {
	Method     Method
	Hash       common.Hash
	ParentHash common.Hash
	Number     uint64
}

func NewFinalizedBlock(method Method, hash common.Hash, number uint64) *FinalizedBlock {
	return &FinalizedBlock{
		Method: method,
		Hash:   hash,
		Number: number,
	}
}

// NumberReport holds the results of one retrieval round in the order the
// methods ran.
type NumberReport struct {
	results *orderedmap.OrderedMap[Method, *FinalizedBlock]
}

func NewNumberReport() *NumberReport {
	return &NumberReport{
		results: orderedmap.New[Method, *FinalizedBlock](),
	}
}

func (r *NumberReport) Add(block *FinalizedBlock) {
	r.results.Set(block.Method, block)
}

func (r *NumberReport) Get(method Method) (*FinalizedBlock, bool) {
	return r.results.Get(method)
}

func (r *NumberReport) Len() int {
	return r.results.Len()
}

// Blocks returns the results in retrieval order.
func (r *NumberReport) Blocks() []*FinalizedBlock {
	blocks := make([]*FinalizedBlock, 0, r.results.Len())
	for pair := r.results.Oldest(); pair != nil; pair = pair.Next() {
		blocks = append(blocks, pair.Value)
	}
	return blocks
}

// Number returns the number of the first method that ran.
func (r *NumberReport) Number() uint64 {
	pair := r.results.Oldest()
	if pair == nil {
		return 0
	}
	return pair.Value.Number
}

// Consistent reports whether every method agreed on the block number.
func (r *NumberReport) Consistent() bool {
	first := r.results.Oldest()
	if first == nil {
		return true
	}
	for pair := first.Next(); pair != nil; pair = pair.Next() {
		if pair.Value.Number != first.Value.Number {
			return false
		}
	}
	return true
}
