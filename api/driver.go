// Package api defines the host driver that feeds data into and collects data
// from the shim ports of an array.
package api

import (
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/sarchlab/aiesim/aie"
	"github.com/sarchlab/aiesim/pipe"
)

// ErrUnfinishedTask is returned by Run when all the tiles have returned while
// some data is still waiting to be fed in or collected.
var ErrUnfinishedTask = errors.New("unfinished driver task")

// IdleBackoff is how long the driver sleeps after a tick without progress.
const IdleBackoff = 50 * time.Microsecond

// A Driver moves data between the host and the array from the calling
// goroutine.
type Driver struct {
	array *aie.Array

	feedInTasks  []*feedInTask
	collectTasks []*collectTask
}

// NewDriver creates a driver for an array.
func NewDriver(a *aie.Array) *Driver {
	return &Driver{array: a}
}

// Array returns the driven array.
func (d *Driver) Array() *aie.Array {
	return d.array
}

type feedInTask struct {
	port  aie.ShimPort
	ch    *pipe.Channel
	send  func(i int) bool
	size  int
	round int
}

func (t *feedInTask) isFinished() bool {
	return t.round >= t.size
}

type collectTask struct {
	port  aie.ShimPort
	recv  func(i int) bool
	size  int
	round int
}

func (t *collectTask) isFinished() bool {
	return t.round >= t.size
}

// FeedIn registers data to be written, in order, to a shim port used as a
// connection source.
func FeedIn[T any](d *Driver, port aie.ShimPort, data []T) error {
	w, err := aie.ShimOut[T](d.array, port, pipe.NonBlocking)
	if err != nil {
		return errors.WithMessage(err, "feed in")
	}

	task := &feedInTask{
		port: port,
		ch:   w.Channel(),
		send: func(i int) bool { return w.Write(data[i]) },
		size: len(data),
	}

	d.feedInTasks = append(d.feedInTasks, task)

	return nil
}

// Collect registers dst to be filled, in order, with the data that arrives at
// a shim port used as a connection destination.
func Collect[T any](d *Driver, port aie.ShimPort, dst []T) error {
	r, err := aie.ShimIn[T](d.array, port, pipe.NonBlocking)
	if err != nil {
		return errors.WithMessage(err, "collect")
	}

	task := &collectTask{
		port: port,
		recv: func(i int) bool {
			v, ok := r.Read()
			if ok {
				dst[i] = v
			}

			return ok
		},
		size: len(dst),
	}

	d.collectTasks = append(d.collectTasks, task)

	return nil
}

// Tick moves as much data as the channels accept without blocking.
func (d *Driver) Tick() (madeProgress bool) {
	madeProgress = d.doFeedIn() || madeProgress
	madeProgress = d.doCollect() || madeProgress

	return madeProgress
}

func (d *Driver) doFeedIn() bool {
	madeProgress := false

	for _, task := range d.feedInTasks {
		madeProgress = d.doOneFeedInTask(task) || madeProgress
	}

	d.removeFinishedFeedInTasks()

	return madeProgress
}

func (d *Driver) doOneFeedInTask(task *feedInTask) bool {
	madeProgress := false

	for !task.isFinished() {
		if !task.send(task.round) {
			break
		}

		aie.Trace("Driver", "Behavior", "FeedIn",
			"Port", task.port.String(), "Round", task.round)

		task.round++
		madeProgress = true
	}

	return madeProgress
}

func (d *Driver) removeFinishedFeedInTasks() {
	for i := len(d.feedInTasks) - 1; i >= 0; i-- {
		if d.feedInTasks[i].isFinished() {
			d.feedInTasks = append(
				d.feedInTasks[:i], d.feedInTasks[i+1:]...)
		}
	}
}

func (d *Driver) doCollect() bool {
	madeProgress := false

	for _, task := range d.collectTasks {
		madeProgress = d.doOneCollectTask(task) || madeProgress
	}

	d.removeFinishedCollectTasks()

	return madeProgress
}

func (d *Driver) doOneCollectTask(task *collectTask) bool {
	madeProgress := false

	for !task.isFinished() {
		if !task.recv(task.round) {
			break
		}

		aie.Trace("Driver", "Behavior", "Collect",
			"Port", task.port.String(), "Round", task.round)

		task.round++
		madeProgress = true
	}

	return madeProgress
}

func (d *Driver) removeFinishedCollectTasks() {
	for i := len(d.collectTasks) - 1; i >= 0; i-- {
		if d.collectTasks[i].isFinished() {
			d.collectTasks = append(
				d.collectTasks[:i], d.collectTasks[i+1:]...)
		}
	}
}

func (d *Driver) hasTasks() bool {
	return len(d.feedInTasks) > 0 || len(d.collectTasks) > 0
}

// Run starts the array, runs all the registered tasks to completion, and
// waits for the tiles. The driver backs off briefly whenever no data can move.
func (d *Driver) Run() error {
	d.array.Run()

	var unfinished error
	for d.hasTasks() {
		// Read before ticking so that the output of a tile that just
		// returned is still collected by this tick.
		tilesDone := d.array.NumRunning() == 0

		if d.Tick() {
			continue
		}

		if tilesDone {
			unfinished = d.unfinishedTaskError()
			break
		}

		time.Sleep(IdleBackoff)
	}

	err := d.array.Wait()

	slog.Debug("Driver finished",
		"Array", d.array.Name(),
		"Unfinished", unfinished != nil,
		"Failed", err != nil,
	)

	return stderrors.Join(err, unfinished)
}

func (d *Driver) unfinishedTaskError() error {
	errs := make([]error, 0, len(d.feedInTasks)+len(d.collectTasks))

	for _, t := range d.feedInTasks {
		errs = append(errs, errors.Wrapf(ErrUnfinishedTask,
			"feed in %s: %d/%d sent, %d buffered in %s",
			t.port, t.round, t.size, t.ch.Len(), t.ch.Name()))
	}

	for _, t := range d.collectTasks {
		errs = append(errs, errors.Wrapf(ErrUnfinishedTask,
			"collect %s: %d/%d received",
			t.port, t.round, t.size))
	}

	return stderrors.Join(errs...)
}
