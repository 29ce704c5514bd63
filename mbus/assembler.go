package mbus

import (
	"github.com/temoto/dlms-meter/fault"
)

// Assembler joins frame fragments into one telegram APDU.
// Segments must arrive in sequence starting from 0, the one with
// CIFinal set completes the telegram.
type Assembler struct {
	buf    []byte
	next   int
	active bool

	onError ErrorFunc
}

func NewAssembler(onError ErrorFunc) *Assembler {
	if onError == nil {
		onError = func(error) {}
	}
	return &Assembler{
		buf:     make([]byte, 0, 2*MaxFragment),
		onError: onError,
	}
}

func (self *Assembler) Reset() {
	self.buf = self.buf[:0]
	self.next = 0
	self.active = false
}

func (self *Assembler) Active() bool { return self.active }

// Add returns complete APDU when f is the final segment.
// Returned slice is valid until next Add or Reset.
// Error means f was rejected; a new sequence 0 while assembling abandons the
// old telegram through onError and keeps going with f.
func (self *Assembler) Add(f Frame) ([]byte, error) {
	seq := f.Seq()
	if seq == 0 {
		if self.active {
			self.onError(fault.Framingf("telegram abandoned at seq=%d bytes=%d, new telegram started", self.next, len(self.buf)))
		}
		self.Reset()
		self.active = true
	} else if !self.active {
		return nil, fault.Framingf("segment seq=%d without start", seq)
	} else if seq != self.next {
		expect := self.next
		self.Reset()
		return nil, fault.Framingf("segment seq=%d expected=%d", seq, expect)
	}

	self.buf = append(self.buf, f.Fragment()...)
	self.next = seq + 1
	if f.Final() {
		apdu := self.buf
		self.active = false
		self.next = 0
		self.buf = self.buf[:0]
		return apdu, nil
	}
	if self.next > MaxSeq {
		self.Reset()
		return nil, fault.Framingf("segment seq=%d not final, max=%d", seq, MaxSeq)
	}
	return nil, nil
}
