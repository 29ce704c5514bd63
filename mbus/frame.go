// Package mbus implements the M-Bus long frame link layer used by smart meters
// to push DLMS telegrams over a wired serial line:
//
//	68 L L 68 | C A CI STSAP DTSAP | fragment | CS 16
//
// One telegram is split into up to 16 frames (segments) numbered in CI.
package mbus

import (
	"fmt"

	"github.com/temoto/dlms-meter/crc"
	"github.com/temoto/dlms-meter/fault"
)

const (
	StartByte byte = 0x68
	StopByte  byte = 0x16

	headerLen  = 4 // 68 L L 68
	trailerLen = 2 // CS 16
	Overhead   = headerLen + trailerLen

	// C A CI STSAP DTSAP
	TransportLen = 5

	MinL           = TransportLen
	MaxL           = 0xff
	MaxFrameLength = MaxL + Overhead
	// Largest fragment the meters send, L=0xfa.
	MaxFragment = 0xfa - TransportLen

	CIFinal   byte = 0x10
	CISeqMask byte = 0x0f
	MaxSeq         = int(CISeqMask)

	DefaultControl byte = 0x53
	DefaultAddress byte = 0xff
	DefaultSTSAP   byte = 0x01
	DefaultDTSAP   byte = 0x67
)

type InvalidChecksum struct {
	Received byte
	Actual   byte
}

func (self InvalidChecksum) Error() string {
	return fmt.Sprintf("invalid checksum received=%02x actual=%02x", self.Received, self.Actual)
}
func (InvalidChecksum) FaultKind() fault.Kind { return fault.KindChecksum }

// Frame is a validated link frame. It references the bytes given to Validate.
type Frame struct {
	b []byte
}

// Validate checks start/stop markers, declared length and checksum.
// raw is not copied.
func Validate(raw []byte) (Frame, error) {
	if len(raw) < Overhead+MinL {
		return Frame{}, fault.Framingf("frame length=%d < min=%d", len(raw), Overhead+MinL)
	}
	if raw[0] != StartByte || raw[3] != StartByte {
		return Frame{}, fault.Framingf("frame start=%02x,%02x expected=%02x", raw[0], raw[3], StartByte)
	}
	l1, l2 := raw[1], raw[2]
	if l1 != l2 {
		return Frame{}, fault.Framingf("frame L1=%d L2=%d mismatch", l1, l2)
	}
	if int(l1) < MinL {
		return Frame{}, fault.Framingf("frame L=%d < min=%d", l1, MinL)
	}
	if int(l1)+Overhead != len(raw) {
		return Frame{}, fault.Framingf("frame L=%d claims length=%d actual=%d", l1, int(l1)+Overhead, len(raw))
	}
	stop := raw[len(raw)-1]
	if stop != StopByte {
		return Frame{}, fault.Framingf("frame stop=%02x expected=%02x", stop, StopByte)
	}
	chkIn := raw[len(raw)-2]
	chkLocal := crc.Sum8(0, raw[headerLen:len(raw)-trailerLen])
	if chkIn != chkLocal {
		return Frame{}, InvalidChecksum{Received: chkIn, Actual: chkLocal}
	}
	return Frame{b: raw}, nil
}

func (self Frame) Bytes() []byte  { return self.b }
func (self Frame) L() int         { return int(self.b[1]) }
func (self Frame) Control() byte  { return self.b[4] }
func (self Frame) Address() byte  { return self.b[5] }
func (self Frame) CI() byte       { return self.b[6] }
func (self Frame) Seq() int       { return int(self.b[6] & CISeqMask) }
func (self Frame) Final() bool    { return self.b[6]&CIFinal != 0 }
func (self Frame) Header() []byte { return self.b[headerLen : headerLen+TransportLen] }

// Fragment is the APDU slice carried by this frame.
func (self Frame) Fragment() []byte {
	return self.b[headerLen+TransportLen : len(self.b)-trailerLen]
}

func (self Frame) String() string {
	return fmt.Sprintf("mbus L=%d C=%02x A=%02x seq=%d final=%t fragment=%d",
		self.L(), self.Control(), self.Address(), self.Seq(), self.Final(), len(self.Fragment()))
}

// Encode splits apdu into link frames. Meters do this on their side,
// we need it for tests and the replay tooling.
func Encode(apdu []byte) ([]byte, error) {
	segments := (len(apdu) + MaxFragment - 1) / MaxFragment
	if segments == 0 {
		segments = 1
	}
	if segments > MaxSeq+1 {
		return nil, fault.Framingf("apdu length=%d needs segments=%d > max=%d", len(apdu), segments, MaxSeq+1)
	}
	out := make([]byte, 0, len(apdu)+segments*(Overhead+TransportLen))
	for seq := 0; seq < segments; seq++ {
		lo := seq * MaxFragment
		hi := lo + MaxFragment
		if hi > len(apdu) {
			hi = len(apdu)
		}
		ci := byte(seq)
		if seq == segments-1 {
			ci |= CIFinal
		}
		l := byte(TransportLen + hi - lo)
		start := len(out)
		out = append(out, StartByte, l, l, StartByte,
			DefaultControl, DefaultAddress, ci, DefaultSTSAP, DefaultDTSAP)
		out = append(out, apdu[lo:hi]...)
		out = append(out, crc.Sum8(0, out[start+headerLen:]), StopByte)
	}
	return out, nil
}
