package aie

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/aiesim/pipe"
)

// A Report describes an array in which every running tile is blocked.
type Report struct {
	Array   string
	Time    time.Time
	Running int
	Blocked int
	State   string
}

// watchdog counts channel activity through hooks and reports once per stall.
type watchdog struct {
	interval time.Duration
	handler  func(Report)

	moves   atomic.Uint64
	blocked atomic.Int64

	stopOnce sync.Once
	stopped  chan struct{}
}

func newWatchdog(interval time.Duration, handler func(Report)) *watchdog {
	return &watchdog{
		interval: interval,
		handler:  handler,
		stopped:  make(chan struct{}),
	}
}

// Func implements the sim.Hook interface. Only the waits of tiles count as
// blocked; host goroutines waiting on shim channels do not.
func (w *watchdog) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case pipe.HookPosChannelWrite, pipe.HookPosChannelRead:
		w.moves.Add(1)
	case pipe.HookPosChannelBlock:
		if _, ok := ctx.Detail.(*Tile); ok {
			w.blocked.Add(1)
		}
	case pipe.HookPosChannelUnblock:
		if _, ok := ctx.Detail.(*Tile); ok {
			w.blocked.Add(-1)
		}
	}
}

func (w *watchdog) stop() {
	w.stopOnce.Do(func() {
		close(w.stopped)
	})
}

func (w *watchdog) watch(a *Array) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	lastMoves := w.moves.Load()
	reported := false

	for {
		select {
		case <-w.stopped:
			return
		case <-ticker.C:
		}

		moves := w.moves.Load()
		running := int(a.running.Load())
		blocked := int(w.blocked.Load())

		stalled := moves == lastMoves && running > 0 && blocked >= running
		lastMoves = moves

		if !stalled {
			reported = false
			continue
		}

		if reported {
			continue
		}
		reported = true

		w.report(a, running, blocked)
	}
}

func (w *watchdog) report(a *Array, running, blocked int) {
	state := strings.Builder{}
	a.Dump(&state)

	r := Report{
		Array:   a.name,
		Time:    time.Now(),
		Running: running,
		Blocked: blocked,
		State:   state.String(),
	}

	slog.Warn("All running tiles are blocked",
		"Array", r.Array,
		"Running", r.Running,
		"Blocked", r.Blocked,
	)

	if w.handler != nil {
		w.handler(r)
	}
}
