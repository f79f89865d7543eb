package status

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/txemi/immich-autotag-sub000/core/report"
	"github.com/txemi/immich-autotag-sub000/core/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupServer(t *testing.T) (*Server, *stats.Manager, *report.Report) {
	t.Helper()
	logger := zap.NewNop()
	st, err := stats.NewManager(nil, "run-1")
	require.NoError(t, err)
	rep := report.New("", "test", logger)
	return New(Config{Port: "8080"}, st, rep, nil, logger), st, rep
}

func TestStatusEndpoint(t *testing.T) {
	srv, st, _ := setupServer(t)
	st.Inc(stats.CounterProcessed, 7)
	st.Inc(stats.CounterConflicts, 2)

	resp, err := srv.app.Test(httptest.NewRequest("GET", "/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	counters := body["counters"].(map[string]any)
	assert.Equal(t, float64(7), counters[stats.CounterProcessed])
	assert.Equal(t, float64(2), counters[stats.CounterConflicts])
}

func TestReportEndpoint(t *testing.T) {
	srv, _, rep := setupServer(t)
	for i := 0; i < 5; i++ {
		rep.Append(report.Entry{Kind: report.KindTagAdded, AssetID: "a1", TagName: "autotag/unclassified"})
	}

	resp, err := srv.app.Test(httptest.NewRequest("GET", "/report?limit=3", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Total   int            `json:"total"`
		Entries []report.Entry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 5, body.Total)
	assert.Len(t, body.Entries, 3)
}
