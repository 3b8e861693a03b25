package pipe

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
)

// Mode selects how an accessor behaves when the channel cannot serve it
// immediately.
type Mode int

const (
	// Blocking accessors suspend the caller until the operation completes.
	Blocking Mode = iota

	// NonBlocking accessors return at once and report that they would block.
	NonBlocking
)

func (m Mode) String() string {
	switch m {
	case Blocking:
		return "Blocking"
	case NonBlocking:
		return "NonBlocking"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ErrPayloadTooWide is returned when a payload type does not fit in a channel
// element.
var ErrPayloadTooWide = errors.New("payload wider than a channel element")

// PayloadBits returns the in-memory width of T in bits.
func PayloadBits[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero)) * 8
}

// CheckPayload verifies that T fits in a channel element.
func CheckPayload[T any]() error {
	bits := PayloadBits[T]()
	if bits > ElementBits {
		return errors.Wrapf(ErrPayloadTooWide,
			"%s is %d bits, elements are %d bits",
			reflect.TypeFor[T](), bits, ElementBits)
	}

	return nil
}

func checkAccess[T any](ch *Channel, mode Mode) error {
	if ch == nil {
		return errors.New("no channel to access")
	}

	if mode != Blocking && mode != NonBlocking {
		return errors.Errorf("invalid access mode %s", mode)
	}

	return CheckPayload[T]()
}

// A Reader is a typed read view over a channel.
type Reader[T any] struct {
	ch     *Channel
	mode   Mode
	caller any
}

// NewReader creates a reader that views the elements of ch as T.
func NewReader[T any](ch *Channel, mode Mode) (Reader[T], error) {
	if err := checkAccess[T](ch, mode); err != nil {
		return Reader[T]{}, err
	}

	return Reader[T]{ch: ch, mode: mode}, nil
}

// Channel returns the viewed channel.
func (r Reader[T]) Channel() *Channel {
	return r.ch
}

// Mode returns the access mode of the reader.
func (r Reader[T]) Mode() Mode {
	return r.mode
}

// WithCaller returns a reader that reports caller as the Detail of the
// channel block and unblock hooks.
func (r Reader[T]) WithCaller(caller any) Reader[T] {
	r.caller = caller
	return r
}

// Read returns the oldest element. A blocking reader always returns true. A
// non-blocking reader returns false if the channel is empty.
func (r Reader[T]) Read() (T, bool) {
	if r.mode == NonBlocking {
		v, ok := r.ch.TryRead()
		if !ok {
			var zero T
			return zero, false
		}

		return r.view(v), true
	}

	return r.view(r.ch.ReadAs(r.caller)), true
}

func (r Reader[T]) view(v any) T {
	if v == nil {
		var zero T
		return zero
	}

	t, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("%s: element of type %T read as %s",
			r.ch.Name(), v, reflect.TypeFor[T]()))
	}

	return t
}

// A Writer is a typed write view over a channel.
type Writer[T any] struct {
	ch     *Channel
	mode   Mode
	caller any
}

// NewWriter creates a writer that puts T elements into ch.
func NewWriter[T any](ch *Channel, mode Mode) (Writer[T], error) {
	if err := checkAccess[T](ch, mode); err != nil {
		return Writer[T]{}, err
	}

	return Writer[T]{ch: ch, mode: mode}, nil
}

// Channel returns the viewed channel.
func (w Writer[T]) Channel() *Channel {
	return w.ch
}

// Mode returns the access mode of the writer.
func (w Writer[T]) Mode() Mode {
	return w.mode
}

// WithCaller returns a writer that reports caller as the Detail of the
// channel block and unblock hooks.
func (w Writer[T]) WithCaller(caller any) Writer[T] {
	w.caller = caller
	return w
}

// Write enqueues v. A blocking writer always returns true. A non-blocking
// writer returns false if the channel is full.
func (w Writer[T]) Write(v T) bool {
	if w.mode == NonBlocking {
		return w.ch.TryWrite(v)
	}

	w.ch.WriteAs(v, w.caller)

	return true
}
