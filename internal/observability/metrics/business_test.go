package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func histogramOf(t *testing.T, h interface{ Write(*dto.Metric) error }) *dto.Histogram {
	t.Helper()
	var m dto.Metric
	require.NoError(t, h.Write(&m))
	return m.GetHistogram()
}

func TestRecordPass(t *testing.T) {
	tests := []struct {
		name   string
		result string
	}{
		{"success", ResultSuccess},
		{"fetch failed", ResultFetchFailed},
		{"empty observation", ResultEmpty},
		{"other error", ResultError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(PassesTotal.WithLabelValues(tt.result))

			RecordPass(tt.result, 3*time.Second)

			assert.Equal(t, before+1, testutil.ToFloat64(PassesTotal.WithLabelValues(tt.result)))
		})
	}
}

func TestRecordPass_ObservesDuration(t *testing.T) {
	before := histogramOf(t, PassDuration)

	RecordPass(ResultSuccess, 90*time.Second)

	after := histogramOf(t, PassDuration)
	assert.Equal(t, before.GetSampleCount()+1, after.GetSampleCount())
	assert.InDelta(t, before.GetSampleSum()+90, after.GetSampleSum(), 0.001)
}

func TestRecordPass_SuccessSetsTimestamp(t *testing.T) {
	RecordPass(ResultSuccess, time.Second)
	assert.Greater(t, testutil.ToFloat64(LastSuccessfulPass), float64(0))
}

func TestRecordCrawl(t *testing.T) {
	pages := testutil.ToFloat64(PagesFetchedTotal)
	dropped := testutil.ToFloat64(EntriesDroppedTotal)

	RecordCrawl(3, 250, 7)

	assert.Equal(t, pages+3, testutil.ToFloat64(PagesFetchedTotal))
	assert.Equal(t, float64(250), testutil.ToFloat64(EntriesObserved))
	assert.Equal(t, dropped+7, testutil.ToFloat64(EntriesDroppedTotal))
}

func TestRecordCrawlTruncated(t *testing.T) {
	before := testutil.ToFloat64(CrawlsTruncatedTotal.WithLabelValues("max_pages"))

	RecordCrawlTruncated("max_pages")

	assert.Equal(t, before+1, testutil.ToFloat64(CrawlsTruncatedTotal.WithLabelValues("max_pages")))
}

func TestRecordReconcile(t *testing.T) {
	appeared := testutil.ToFloat64(ChangesTotal.WithLabelValues("appeared"))
	changed := testutil.ToFloat64(ChangesTotal.WithLabelValues("changed"))
	evicted := testutil.ToFloat64(EvictedTotal)

	RecordReconcile(2, 0, 5, 1, 120)

	assert.Equal(t, appeared+2, testutil.ToFloat64(ChangesTotal.WithLabelValues("appeared")))
	assert.Equal(t, changed+5, testutil.ToFloat64(ChangesTotal.WithLabelValues("changed")))
	assert.Equal(t, evicted+1, testutil.ToFloat64(EvictedTotal))
	assert.Equal(t, float64(120), testutil.ToFloat64(StoreSize))
}

func TestRecordDBQuery(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordDBQuery("load_snapshot", 5*time.Millisecond)
		UpdateDBConnectionStats(1, 3)
	})
	assert.Equal(t, float64(3), testutil.ToFloat64(DBConnectionsIdle))
}
