package metrics

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/mobazha/finalized-watcher/plugin"
	"github.com/mobazha/finalized-watcher/structs"
)

type Metrics struct {
	httpAddress string
	registry    *prometheus.Registry
	httpServer  *http.Server
	listener    net.Listener
	wg          sync.WaitGroup

	finalizedNumber *prometheus.GaugeVec
	mismatches      prometheus.Counter
}

func NewMetrics(address string) *Metrics {
	m := &Metrics{
		httpAddress: address,
		registry:    prometheus.NewRegistry(),
		finalizedNumber: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "finalized_block_number",
			Help: "Latest finalized block number, by retrieval method.",
		}, []string{"method"}),
		mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finalized_number_mismatch_total",
			Help: "Rounds in which the header walk and the state query returned different numbers.",
		}),
	}
	m.registry.MustRegister(m.finalizedNumber, m.mismatches)

	return m
}

// Observe records one retrieval round.
func (m *Metrics) Observe(report *structs.NumberReport) {
	for _, block := range report.Blocks() {
		m.finalizedNumber.WithLabelValues(string(block.Method)).Set(float64(block.Number))
	}
	if !report.Consistent() {
		m.mismatches.Inc()
	}
}

func (m *Metrics) Plugin() plugin.IReportPlugin {
	return plugin.NewReportPlugin(m.Observe)
}

func (m *Metrics) Handler() http.Handler {
	router := httprouter.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	return router
}

// Start listens on the configured address and serves /metrics in the
// background.
func (m *Metrics) Start() error {
	listener, err := net.Listen("tcp", m.httpAddress)
	if err != nil {
		return err
	}
	m.listener = listener
	m.httpServer = &http.Server{Handler: m.Handler()}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("metrics server stopped: %v", err)
		}
	}()

	logrus.Infof("serving metrics on %s", listener.Addr())
	return nil
}

// Addr is the address the server listens on, once started.
func (m *Metrics) Addr() string {
	if m.listener == nil {
		return m.httpAddress
	}
	return m.listener.Addr().String()
}

func (m *Metrics) Stop(ctx context.Context) error {
	if m.httpServer == nil {
		return nil
	}
	err := m.httpServer.Shutdown(ctx)
	m.wg.Wait()
	return err
}
