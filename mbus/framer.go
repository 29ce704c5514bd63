package mbus

import (
	"time"

	"github.com/temoto/dlms-meter/helpers/atomic_clock"
	"github.com/temoto/dlms-meter/fault"
)

const DefaultIdleTimeout = 1 * time.Second

type FramerState uint8

const (
	FramerAwaitingStart FramerState = iota
	FramerAccumulating
)

func (s FramerState) String() string {
	switch s {
	case FramerAwaitingStart:
		return "awaiting-start"
	case FramerAccumulating:
		return "accumulating"
	}
	return "invalid"
}

type (
	FrameFunc func(raw []byte)
	ErrorFunc func(error)
)

// Framer finds link frame boundaries in a byte stream.
// Purely byte driven, never blocks; Feed whatever the transport returned.
// Noise before a start marker is dropped silently. A frame whose stop marker
// is not where L says is reported and the buffer is rescanned from the next
// byte, so a partial frame interrupted by a new one loses only itself.
// Not safe for concurrent use.
type Framer struct {
	IdleTimeout time.Duration

	buf    [MaxFrameLength]byte
	n      int
	need   int
	replay []byte
	last   atomic_clock.Clock
	now    func() int64

	onFrame FrameFunc
	onError ErrorFunc

	Noise uint64 // bytes discarded while awaiting start
}

func NewFramer(idle time.Duration, onFrame FrameFunc, onError ErrorFunc) *Framer {
	if idle == 0 {
		idle = DefaultIdleTimeout
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &Framer{
		IdleTimeout: idle,
		now:         atomic_clock.Source,
		onFrame:     onFrame,
		onError:     onError,
	}
}

func (self *Framer) State() FramerState {
	if self.n == 0 {
		return FramerAwaitingStart
	}
	return FramerAccumulating
}

// Buffered returns number of bytes of the frame in progress.
func (self *Framer) Buffered() int { return self.n }

func (self *Framer) Reset() {
	self.n = 0
	self.need = 0
	self.replay = self.replay[:0]
}

func (self *Framer) Feed(p []byte) {
	if len(p) == 0 {
		return
	}
	now := self.now()
	if self.n > 0 && self.last.Idle(now, self.IdleTimeout) {
		self.onError(fault.Framingf("idle timeout=%v dropped partial frame bytes=%d", self.IdleTimeout, self.n))
		self.Reset()
	}
	self.last.Set(now)
	for _, b := range p {
		self.replay = append(self.replay[:0], b)
		for len(self.replay) > 0 {
			x := self.replay[0]
			self.replay = self.replay[1:]
			self.push(x)
		}
	}
}

func (self *Framer) push(b byte) {
	if self.n == 0 {
		if b != StartByte {
			self.Noise++
			return
		}
	}
	self.buf[self.n] = b
	self.n++

	switch {
	case self.n < headerLen:
		return

	case self.n == headerLen:
		l1, l2 := self.buf[1], self.buf[2]
		switch {
		case self.buf[3] != StartByte:
			self.resync(fault.Framingf("frame header=%x second start=%02x", self.buf[:headerLen], self.buf[3]))
		case l1 != l2:
			self.resync(fault.Framingf("frame header=%x L1=%d L2=%d mismatch", self.buf[:headerLen], l1, l2))
		case int(l1) < MinL:
			self.resync(fault.Framingf("frame header=%x L=%d < min=%d", self.buf[:headerLen], l1, MinL))
		default:
			self.need = int(l1) + Overhead
		}
		return

	case self.n < self.need:
		return
	}

	if self.buf[self.n-1] != StopByte {
		self.resync(fault.Framingf("frame L=%d stop=%02x expected=%02x", self.buf[1], self.buf[self.n-1], StopByte))
		return
	}
	raw := self.buf[:self.n]
	self.n = 0
	self.need = 0
	self.onFrame(raw)
}

// Drops buf[0] and feeds the rest again ahead of pending input.
func (self *Framer) resync(err error) {
	self.onError(err)
	tail := make([]byte, 0, self.n-1+len(self.replay))
	tail = append(tail, self.buf[1:self.n]...)
	tail = append(tail, self.replay...)
	self.n = 0
	self.need = 0
	self.replay = tail
}
