package daemon

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/releasekit/internal/config"
	"git.home.luguber.info/inful/releasekit/internal/pipeline"
)

func testDaemon(run RunFunc) *Daemon {
	cfg := config.Default()
	cfg.Daemon.Interval = time.Hour // schedule never fires in tests
	return New(cfg, run, nil)
}

func TestSchedulerRunsTask(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)

	fired := make(chan struct{}, 1)
	_, err = s.Schedule("tick", 10*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	ctx := context.Background()
	s.Start(ctx)
	defer func() { require.NoError(t, s.Stop(ctx)) }()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled task never ran")
	}
}

func TestTriggerCoalescesWhilePending(t *testing.T) {
	d := testDaemon(nil)
	d.Trigger()
	d.Trigger()
	d.Trigger()

	assert.Len(t, d.trigger, 1)
}

func TestExecuteRunRecordsStatus(t *testing.T) {
	var runs int32
	d := testDaemon(func(context.Context) (*pipeline.RunResult, error) {
		atomic.AddInt32(&runs, 1)
		return &pipeline.RunResult{RunID: "run-1", ExitCode: 0}, nil
	})

	d.executeRun(context.Background())

	status := d.Status()
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
	assert.Equal(t, "run-1", status.RunID)
	assert.Equal(t, 0, status.ExitCode)
	assert.Equal(t, 1, status.Runs)
	assert.False(t, status.Running)
	assert.Empty(t, status.Error)
}

func TestExecuteRunRecordsFailure(t *testing.T) {
	d := testDaemon(func(context.Context) (*pipeline.RunResult, error) {
		return nil, errors.New("config gone")
	})

	d.executeRun(context.Background())

	status := d.Status()
	assert.Equal(t, 1, status.ExitCode)
	assert.Contains(t, status.Error, "config gone")
}

func TestFollowUpRunsExactlyOnce(t *testing.T) {
	var runs int32
	d := testDaemon(nil)
	d.run = func(context.Context) (*pipeline.RunResult, error) {
		if atomic.AddInt32(&runs, 1) == 1 {
			// A trigger arriving mid-run queues one follow-up, not a stack.
			d.Trigger()
			d.executeRun(context.Background()) // re-entrant call coalesces
			d.Trigger()
		}
		return &pipeline.RunResult{ExitCode: 0}, nil
	}

	d.executeRun(context.Background())

	assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
	assert.Equal(t, 2, d.Status().Runs)
	assert.False(t, d.Status().Running)
}
