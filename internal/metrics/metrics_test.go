package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/gravitas-games/freepath/internal/pathfinding"
)

func TestObserveSearch(t *testing.T) {
	before := testutil.ToFloat64(searchTotal.WithLabelValues("test", "found"))
	ObserveSearch("test", true, 7, time.Millisecond)
	ObserveSearch("test", false, 0, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(searchTotal.WithLabelValues("test", "found")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(searchTotal.WithLabelValues("test", "not_found")), 1.0)
}

func TestAddFinderStats(t *testing.T) {
	before := testutil.ToFloat64(finderWork.WithLabelValues("pop"))
	AddFinderStats(pathfinding.Stats{Pops: 5, Pushes: 9})
	assert.Equal(t, before+5, testutil.ToFloat64(finderWork.WithLabelValues("pop")))
}

func TestSetAgents(t *testing.T) {
	SetAgents("idle", 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(agentsActive.WithLabelValues("idle")))
}
