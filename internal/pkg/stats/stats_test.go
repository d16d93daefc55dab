package stats

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopBeforeInit(t *testing.T) {
	Reset()

	assert.NotPanics(t, func() {
		WorkersRunningIncr()
		LineFed(10)
		BytesCollectedAdd(10)
		StagesFailedIncr()
	})
	assert.Equal(t, uint64(0), LinesFedGet())
	assert.Empty(t, GetMap())
}

func TestInitTwice(t *testing.T) {
	Reset()
	defer Reset()

	require.NoError(t, Init())
	assert.ErrorIs(t, Init(), ErrStatsAlreadyInitialized)
}

func TestCounters(t *testing.T) {
	Reset()
	defer Reset()
	require.NoError(t, Init())

	WorkersRunningIncr()
	WorkersRunningIncr()
	WorkersRunningDecr()
	LineFed(6)
	LineFed(4)
	LinesDroppedIncr()
	BytesCollectedAdd(42)
	ChannelsAllocatedAdd(4)
	StagesStartedIncr()
	StagesFailedIncr()

	assert.Equal(t, uint64(1), WorkersRunningGet())
	assert.Equal(t, uint64(1), WorkersFinishedGet())
	assert.Equal(t, uint64(2), LinesFedGet())
	assert.Equal(t, uint64(10), BytesFedGet())
	assert.Equal(t, uint64(1), LinesDroppedGet())
	assert.Equal(t, uint64(42), BytesCollectedGet())
	assert.Equal(t, uint64(4), ChannelsAllocatedGet())
	assert.Equal(t, uint64(1), StagesStartedGet())
	assert.Equal(t, uint64(1), StagesFailedGet())

	m := GetMap()
	assert.Equal(t, uint64(2), m["Lines fed"])
	assert.Equal(t, "42 B", m["Data collected"])
}

func TestPrometheusHandler(t *testing.T) {
	Reset()
	defer Reset()
	require.NoError(t, Init())

	StagesStartedIncr()

	rec := httptest.NewRecorder()
	PrometheusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "parapipe_stages_started_total")
}
