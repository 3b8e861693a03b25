// Package pipe provides the channels that carry data between tiles.
//
// A Channel models a hardware stream pipe: a FIFO with a fixed depth of 4
// elements, each element being 384 bits wide. Writers block while the pipe is
// full and readers block while it is empty. The non-blocking variants report
// that they would block instead of suspending the caller.
package pipe

import (
	"sync"

	"github.com/sarchlab/akita/v4/sim"
)

const (
	// Capacity is the number of elements a channel can hold, matching the
	// 4 registers along the hardware data path.
	Capacity = 4

	// ElementBits is the physical width of one channel element.
	ElementBits = 384
)

// HookPosChannelWrite marks when an element is enqueued.
var HookPosChannelWrite = &sim.HookPos{Name: "Channel Write"}

// HookPosChannelRead marks when an element is dequeued.
var HookPosChannelRead = &sim.HookPos{Name: "Channel Read"}

// HookPosChannelBlock marks when a caller starts waiting on the channel.
var HookPosChannelBlock = &sim.HookPos{Name: "Channel Block"}

// HookPosChannelUnblock marks when a waiting caller resumes.
var HookPosChannelUnblock = &sim.HookPos{Name: "Channel Unblock"}

// A Channel is a bounded FIFO shared by exactly one producer and one
// consumer.
type Channel struct {
	*sim.HookableBase

	lock     sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	id    string
	label string
	buf   sim.Buffer
}

// New creates a channel with the hardware capacity. The name must follow the
// akita naming convention (e.g., "Cascade[3]") and is also used as the label.
func New(name string) *Channel {
	return NewLabeled(name, name)
}

// NewLabeled creates a channel whose akita name is id and whose Name is the
// free-form label.
func NewLabeled(id, label string) *Channel {
	c := &Channel{
		HookableBase: sim.NewHookableBase(),
		id:           id,
		label:        label,
		buf:          sim.NewBuffer(id+".Buf", Capacity),
	}
	c.notEmpty = sync.NewCond(&c.lock)
	c.notFull = sync.NewCond(&c.lock)

	return c
}

// Name returns the label of the channel.
func (c *Channel) Name() string {
	return c.label
}

// ID returns the akita name of the channel.
func (c *Channel) ID() string {
	return c.id
}

// Cap returns the number of elements the channel can hold.
func (c *Channel) Cap() int {
	return c.buf.Capacity()
}

// Len returns the number of elements waiting in the channel.
func (c *Channel) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.buf.Size()
}

// Write enqueues an element, waiting while the channel is full.
func (c *Channel) Write(v any) {
	c.WriteAs(v, nil)
}

// WriteAs is Write with the caller passed as the Detail of the block and
// unblock hooks.
func (c *Channel) WriteAs(v, caller any) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.buf.CanPush() {
		c.invokeHook(HookPosChannelBlock, v, caller)
		for !c.buf.CanPush() {
			c.notFull.Wait()
		}
		c.invokeHook(HookPosChannelUnblock, v, caller)
	}

	c.push(v)
}

// TryWrite enqueues an element if there is room. It returns false if the
// write would block.
func (c *Channel) TryWrite(v any) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.buf.CanPush() {
		return false
	}

	c.push(v)

	return true
}

// Read dequeues the oldest element, waiting while the channel is empty.
func (c *Channel) Read() any {
	return c.ReadAs(nil)
}

// ReadAs is Read with the caller passed as the Detail of the block and
// unblock hooks.
func (c *Channel) ReadAs(caller any) any {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.buf.Size() == 0 {
		c.invokeHook(HookPosChannelBlock, nil, caller)
		for c.buf.Size() == 0 {
			c.notEmpty.Wait()
		}
		c.invokeHook(HookPosChannelUnblock, nil, caller)
	}

	return c.pop()
}

// TryRead dequeues the oldest element if there is one. It returns false if
// the read would block.
func (c *Channel) TryRead() (any, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.buf.Size() == 0 {
		return nil, false
	}

	return c.pop(), true
}

func (c *Channel) push(v any) {
	c.buf.Push(v)
	c.invokeHook(HookPosChannelWrite, v, nil)
	c.notEmpty.Signal()
}

func (c *Channel) pop() any {
	v := c.buf.Pop()
	c.invokeHook(HookPosChannelRead, v, nil)
	c.notFull.Signal()

	return v
}

func (c *Channel) invokeHook(pos *sim.HookPos, item, detail any) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
