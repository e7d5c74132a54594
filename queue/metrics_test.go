package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := NewMetrics("test", reg)
	require.NoError(t, err)
	require.NotNil(t, m)

	_, err = NewMetrics("test", reg)
	assert.Error(t, err, "registering the same collectors twice should fail")

	unregistered, err := NewMetrics("other", nil)
	require.NoError(t, err)
	assert.NotNil(t, unregistered)
}

func TestTaskQueue_Metrics(t *testing.T) {
	m, err := NewMetrics("test", prometheus.NewRegistry())
	require.NoError(t, err)

	q := New(WithMaxConcurrency(2), WithMetrics(m))
	require.NoError(t, q.Add("ok1", sleepUnit(0, 1)))
	require.NoError(t, q.Add("ok2", sleepUnit(0, 2)))
	require.NoError(t, q.Add("bad", func(ctx context.Context) (any, error) {
		return nil, errors.New("nope")
	}))
	require.NoError(t, q.Add("gone", sleepUnit(0, 4)))
	q.Cancel("gone")

	q.Start()
	waitDone(t, q)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.TasksSubmitted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TasksFinished.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksFinished.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksFinished.WithLabelValues("cancelled")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TasksRunning))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueuesFinished))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TaskDuration))
}
