package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobazha/finalized-watcher/structs"
)

func newReport(walked, queried uint64) *structs.NumberReport {
	report := structs.NewNumberReport()
	report.Add(structs.NewFinalizedBlock(structs.MethodHeaderWalk, common.HexToHash("0x01"), walked))
	report.Add(structs.NewFinalizedBlock(structs.MethodStateQuery, common.HexToHash("0x01"), queried))
	return report
}

func TestObserve(t *testing.T) {
	m := NewMetrics("127.0.0.1:0")

	m.Plugin().AcceptReport(newReport(1001, 1001))
	assert.Equal(t, float64(1001), testutil.ToFloat64(m.finalizedNumber.WithLabelValues("header_walk")))
	assert.Equal(t, float64(1001), testutil.ToFloat64(m.finalizedNumber.WithLabelValues("state_query")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.mismatches))

	m.Observe(newReport(1002, 1003))
	assert.Equal(t, float64(1002), testutil.ToFloat64(m.finalizedNumber.WithLabelValues("header_walk")))
	assert.Equal(t, float64(1003), testutil.ToFloat64(m.finalizedNumber.WithLabelValues("state_query")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.mismatches))
}

func TestHandler(t *testing.T) {
	m := NewMetrics("127.0.0.1:0")
	m.Observe(newReport(1001, 1001))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(data), `finalized_block_number{method="header_walk"} 1001`)
	assert.Contains(t, string(data), "finalized_number_mismatch_total 0")
}

func TestStartStop(t *testing.T) {
	m := NewMetrics("127.0.0.1:0")
	require.NoError(t, m.Start())

	res, err := http.Get("http://" + m.Addr() + "/metrics")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	require.NoError(t, m.Stop(context.Background()))
}
