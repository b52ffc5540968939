package service_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/service"
	"github.com/bwirakes/temu-v2/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) Sweep(context.Context) (int, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestHousekeepingSweepsPeriodically(t *testing.T) {
	sw := &countingSweeper{}
	hk := service.NewHousekeepingService(sw, slogx.Discard(), 10*time.Millisecond)
	hk.Start()

	require.Eventually(t, func() bool { return sw.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	hk.Stop()
	after := sw.calls.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, after, sw.calls.Load(), "no sweeps after Stop")
}

func TestHousekeepingSurvivesErrors(t *testing.T) {
	sw := &countingSweeper{err: errDBDown}
	hk := service.NewHousekeepingService(sw, slogx.Discard(), 5*time.Millisecond)
	hk.Start()
	defer hk.Stop()

	require.Eventually(t, func() bool { return sw.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestHousekeepingDefaultInterval(t *testing.T) {
	hk := service.NewHousekeepingService(&countingSweeper{}, slogx.Discard(), 0)
	require.Equal(t, time.Minute, hk.Interval)
}
