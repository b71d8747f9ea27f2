package finalized_watcher

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mobazha/finalized-watcher/plugin"
	"github.com/mobazha/finalized-watcher/rpc"
	"github.com/mobazha/finalized-watcher/structs"
)

var (
	ErrHeaderWithoutNumber = errors.New("parent header has no number")
	ErrNumberMismatch      = errors.New("header walk and state query disagree on the finalized block number")
)

type WatcherConfig struct {
	IntervalForPollingNewBlock time.Duration
}

var defaultConfig = WatcherConfig{
	IntervalForPollingNewBlock: 6 * time.Second,
}

func decideConfig(configs ...WatcherConfig) WatcherConfig {
	if len(configs) == 0 {
		return defaultConfig
	}

	config := configs[0]
	if config.IntervalForPollingNewBlock <= 0 {
		config.IntervalForPollingNewBlock = defaultConfig.IntervalForPollingNewBlock
	}

	return config
}

// FinalizedWatcher reads the finalized block number of a Substrate chain
// whose block header does not carry a number.
type FinalizedWatcher struct {
	rpc rpc.ISubstrateRPC

	Ctx  context.Context
	lock sync.RWMutex

	NewReportChan chan *structs.NumberReport
	ReportPlugins []plugin.IReportPlugin

	latestNumber uint64
	hasLatest    bool

	config WatcherConfig
	wg     sync.WaitGroup
}

// NewWsBasedWatcher dials api and returns a watcher owning the connection.
func NewWsBasedWatcher(ctx context.Context, api string, configs ...WatcherConfig) (*FinalizedWatcher, error) {
	rpc, err := rpc.NewSubstrateRPC(ctx, api)
	if err != nil {
		return nil, err
	}

	return NewWatcher(ctx, rpc, configs...), nil
}

func NewWatcher(ctx context.Context, rpc rpc.ISubstrateRPC, configs ...WatcherConfig) *FinalizedWatcher {
	return &FinalizedWatcher{
		Ctx:           ctx,
		rpc:           rpc,
		NewReportChan: make(chan *structs.NumberReport, 32),
		config:        decideConfig(configs...),
	}
}

func (watcher *FinalizedWatcher) RegisterReportPlugin(plugin plugin.IReportPlugin) {
	watcher.ReportPlugins = append(watcher.ReportPlugins, plugin)
}

// HeaderWalk derives the finalized number from the parent of the finalized
// block: the block's own header has no number, the parent header does.
func (watcher *FinalizedWatcher) HeaderWalk(ctx context.Context) (*structs.FinalizedBlock, error) {
	hash, err := watcher.rpc.FinalizedHead(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "header walk")
	}

	block, err := watcher.rpc.Block(ctx, hash)
	if err != nil {
		return nil, errors.WithMessage(err, "header walk")
	}

	parentHash := block.ParentHash()
	result := structs.NewFinalizedBlock(structs.MethodHeaderWalk, hash, 0)
	result.ParentHash = parentHash

	// genesis has no parent
	if parentHash == (common.Hash{}) {
		logrus.Debugf("finalized head %s is genesis", hash.Hex())
		return result, nil
	}

	parent, err := watcher.rpc.Header(ctx, parentHash)
	if err != nil {
		return nil, errors.WithMessage(err, "header walk")
	}
	if !parent.HasNumber() {
		return nil, errors.Wrapf(ErrHeaderWithoutNumber, "header walk: parent %s", parentHash.Hex())
	}

	result.Number = parent.NumberU64() + 1
	return result, nil
}

// StateQuery reads System::Number at the finalized head.
func (watcher *FinalizedWatcher) StateQuery(ctx context.Context) (*structs.FinalizedBlock, error) {
	hash, err := watcher.rpc.FinalizedHead(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "state query")
	}

	raw, err := watcher.rpc.Storage(ctx, rpc.SystemNumberKey, hash)
	if err != nil {
		return nil, errors.WithMessage(err, "state query")
	}

	number, err := rpc.DecodeFixedUint(raw)
	if err != nil {
		return nil, errors.WithMessagef(err, "state query: System::Number at %s", hash.Hex())
	}

	return structs.NewFinalizedBlock(structs.MethodStateQuery, hash, number), nil
}

// Retrieve runs the header walk, then the state query. Either failing
// fails the whole round.
func (watcher *FinalizedWatcher) Retrieve(ctx context.Context) (*structs.NumberReport, error) {
	report := structs.NewNumberReport()

	walked, err := watcher.HeaderWalk(ctx)
	if err != nil {
		return nil, err
	}
	report.Add(walked)

	queried, err := watcher.StateQuery(ctx)
	if err != nil {
		return nil, err
	}
	report.Add(queried)

	if !report.Consistent() {
		logrus.Warnf("finalized number mismatch, header walk: %d (%s), state query: %d (%s)",
			walked.Number, walked.Hash.Hex(), queried.Number, queried.Hash.Hex())
	}

	return report, nil
}

// RunTillExit polls the finalized number until Ctx is done and hands every
// advancing report to the registered plugins. An RPC error stops the loop.
func (watcher *FinalizedWatcher) RunTillExit() error {
	watcher.wg.Add(1)
	go func() {
		defer watcher.wg.Done()

		for report := range watcher.NewReportChan {
			for i := 0; i < len(watcher.ReportPlugins); i++ {
				watcher.ReportPlugins[i].AcceptReport(report)
			}
		}
	}()
	defer closeWatcher(watcher)

	for {
		report, err := watcher.Retrieve(watcher.Ctx)
		if err != nil {
			if watcher.Ctx.Err() != nil {
				logrus.Info("watcher context down, exiting...")
				return nil
			}
			return err
		}

		if watcher.advance(report.Number()) {
			logrus.Debugln("new finalized block:", report.Number())
			watcher.NewReportChan <- report
		} else {
			logrus.Debugf("no new finalized block, sleep for %s", watcher.config.IntervalForPollingNewBlock)
		}

		select {
		case <-watcher.Ctx.Done():
			logrus.Info("watcher context down, exiting...")
			return nil
		case <-time.After(watcher.config.IntervalForPollingNewBlock):
		}
	}
}

func closeWatcher(w *FinalizedWatcher) {
	close(w.NewReportChan)
	w.wg.Wait()
}

func (watcher *FinalizedWatcher) advance(number uint64) bool {
	watcher.lock.Lock()
	defer watcher.lock.Unlock()

	if watcher.hasLatest && number <= watcher.latestNumber {
		return false
	}

	watcher.latestNumber = number
	watcher.hasLatest = true
	return true
}

// LatestNumber is the highest finalized number seen by RunTillExit.
func (watcher *FinalizedWatcher) LatestNumber() uint64 {
	watcher.lock.RLock()
	defer watcher.lock.RUnlock()

	return watcher.latestNumber
}

func (watcher *FinalizedWatcher) Close() {
	watcher.rpc.Close()
}
