// Package meter runs the receive pipeline: link framing, telegram assembly,
// decryption, object decoding and publication to sinks bound per field.
package meter

import (
	"context"
	"io"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/dlms-meter/cosem"
	"github.com/temoto/dlms-meter/fault"
	"github.com/temoto/dlms-meter/log2"
	"github.com/temoto/dlms-meter/mbus"
)

// Original meter firmware receive buffer.
const ReadBufferSize = 1024

type Config struct {
	Key                   cosem.SecretKey
	RequireAuthentication bool
	IdleTimeout           time.Duration
	RawMode               RawMode
}

// Meter is single threaded: Feed, ProcessFrame and ProcessTelegram
// must be called from one goroutine. Sinks run synchronously in the same pass.
type Meter struct {
	Stat    *Stat
	Raw     RawSink
	OnState func(State)

	log       *log2.Log
	config    Config
	publisher *Publisher
	framer    *mbus.Framer
	assembler *mbus.Assembler
	decrypter *cosem.Decrypter
	decoder   *cosem.Decoder
	state     State
	noise     uint64
	now       func() time.Time
}

func New(config Config, publisher *Publisher, log *log2.Log) (*Meter, error) {
	decrypter, err := cosem.NewDecrypter(config.Key, config.RequireAuthentication)
	if err != nil {
		return nil, errors.Annotate(err, "meter")
	}
	if publisher == nil {
		publisher = NewPublisher()
	}
	stat, _ := NewStat(nil)
	self := &Meter{
		Stat:      stat,
		log:       log,
		config:    config,
		publisher: publisher,
		decrypter: decrypter,
		decoder:   cosem.NewDecoder(0),
		now:       time.Now,
	}
	self.framer = mbus.NewFramer(config.IdleTimeout, self.onFrame, self.onFramerError)
	self.assembler = mbus.NewAssembler(self.onAssemblerError)
	return self, nil
}

func (self *Meter) Publisher() *Publisher { return self.publisher }
func (self *Meter) State() State          { return self.state }

// Feed accepts bytes as they come from transport. Never blocks on input,
// complete telegrams are decoded and published before return.
func (self *Meter) Feed(p []byte) {
	if len(p) == 0 {
		return
	}
	self.Stat.Bytes.Add(float64(len(p)))
	self.framer.Feed(p)
	if noise := self.framer.Noise; noise != self.noise {
		self.Stat.Noise.Add(float64(noise - self.noise))
		self.noise = noise
	}
	if self.framer.State() == mbus.FramerAccumulating && self.state == StateAwaitingStart {
		self.setState(StateAccumulating)
	}
}

// Run feeds from r until ctx is done, EOF or read fails.
// Reader should return periodically, e.g. serial port with read timeout;
// errors with Timeout() true are not failures.
func (self *Meter) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, ReadBufferSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := r.Read(buf)
		if n > 0 {
			self.Feed(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if t, ok := err.(interface{ Timeout() bool }); ok && t.Timeout() {
			continue
		}
		if err != nil {
			return errors.Annotate(err, "meter read")
		}
	}
}

func (self *Meter) onFrame(raw []byte) {
	self.setState(StateAccumulating)
	_ = self.ProcessFrame(raw)
}

func (self *Meter) onFramerError(err error) {
	self.setState(StateAccumulating)
	self.discard(err)
}

func (self *Meter) onAssemblerError(err error) {
	self.Stat.Error(fault.Classify(err))
	self.log.Debugf("meter %v", err)
}

// ProcessFrame validates one link frame and decodes the telegram
// when it was the final segment.
func (self *Meter) ProcessFrame(raw []byte) error {
	self.log.Hex("frame", raw)
	f, err := mbus.Validate(raw)
	if err != nil {
		return self.discard(err)
	}
	self.Stat.Frames.Inc()
	self.setState(StateValidated)
	apdu, err := self.assembler.Add(f)
	if err != nil {
		return self.discard(err)
	}
	if apdu == nil {
		self.log.Debugf("meter %s waiting for next segment", f.String())
		self.setState(StateAwaitingStart)
		return nil
	}
	_, err = self.ProcessTelegram(apdu)
	return err
}

// ProcessTelegram decrypts, decodes and publishes one APDU.
// Either every bound field is published or none.
// Returned readings include only bound fields.
func (self *Meter) ProcessTelegram(apdu []byte) ([]Reading, error) {
	received := self.now()
	if self.state != StateValidated {
		self.setState(StateValidated)
	}
	if self.Raw != nil && self.config.RawMode == RawTelegram {
		self.Raw.UpdateRaw(RawTelegram, apdu)
	}

	h, err := cosem.ParseHeader(apdu)
	if err != nil {
		return nil, self.discard(err)
	}
	plain, err := self.decrypter.Open(&h)
	if err != nil {
		return nil, self.discard(err)
	}
	self.setState(StateDecrypted)
	self.log.Debugf("meter telegram %s plaintext=%d", h.String(), len(plain))
	self.log.Hex("plaintext", plain)
	if self.Raw != nil && self.config.RawMode == RawPlaintext {
		self.Raw.UpdateRaw(RawPlaintext, plain)
	}

	self.setState(StateDecoding)
	self.decoder.Want = self.publisher.Bound()
	n, err := self.decoder.Decode(plain)
	if err != nil {
		return nil, self.discard(err)
	}
	for _, code := range n.Unknown {
		self.Stat.Error(fault.KindUnknownObject)
		self.log.Debugf("meter skip %v", errors.Annotatef(fault.ErrUnknownObject, "obis=%s", code))
	}

	readings := make([]Reading, len(n.Objects))
	for i := range n.Objects {
		readings[i] = newReading(&n.Objects[i], &h, received)
	}
	published := self.publisher.Publish(readings)
	self.Stat.Telegrams.Inc()
	self.Stat.Readings.Add(float64(published))
	self.Stat.LastCounter.Set(float64(h.Counter))
	self.Stat.LastTelegram.Set(float64(received.UnixNano()) / 1e9)
	self.setState(StatePublished)
	self.setState(StateAwaitingStart)
	return readings, nil
}

func (self *Meter) discard(err error) error {
	kind := fault.Classify(err)
	self.Stat.Error(kind)
	switch kind {
	case fault.KindFraming:
		self.log.Debugf("meter discard %v", err)
	default:
		self.log.Errorf("meter discard kind=%s %v", kind, err)
	}
	self.setState(StateDiscarded)
	self.setState(StateAwaitingStart)
	return err
}

func (self *Meter) setState(s State) {
	if s == self.state {
		return
	}
	self.state = s
	if self.OnState != nil {
		self.OnState(s)
	}
}
