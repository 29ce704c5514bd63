package meter

import (
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/dlms-meter/cosem"
	"github.com/temoto/dlms-meter/log2"
)

// Sink receives readings of the fields it is bound to.
// Update must not block for long, it runs in the decode pass.
type Sink interface {
	Update(Reading)
}

type SinkFunc func(Reading)

func (f SinkFunc) Update(r Reading) { f(r) }

// RawSink gets the telegram APDU or decrypted plaintext, depending on RawMode.
type RawSink interface {
	UpdateRaw(mode RawMode, b []byte)
}

type RawMode uint8

const (
	RawOff RawMode = iota
	RawTelegram
	RawPlaintext
)

func ParseRawMode(s string) (RawMode, error) {
	switch s {
	case "", "telegram":
		return RawTelegram, nil
	case "plaintext":
		return RawPlaintext, nil
	case "off":
		return RawOff, nil
	}
	return RawOff, errors.NotValidf("raw mode=%s", s)
}

func (m RawMode) String() string {
	switch m {
	case RawOff:
		return "off"
	case RawTelegram:
		return "telegram"
	case RawPlaintext:
		return "plaintext"
	}
	return "invalid"
}

// Publisher holds at most one sink per field.
type Publisher struct {
	mu    sync.RWMutex
	sinks [cosem.FieldCount]Sink
	bound cosem.FieldSet
}

func NewPublisher() *Publisher { return &Publisher{} }

func (self *Publisher) Bind(f cosem.Field, s Sink) error {
	if !f.Valid() {
		return errors.NotValidf("field=%d", f)
	}
	if s == nil {
		return errors.NotValidf("field=%s nil sink", f)
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.bound.Has(f) {
		return errors.AlreadyExistsf("field=%s sink", f)
	}
	self.sinks[f] = s
	self.bound = self.bound.With(f)
	return nil
}

func (self *Publisher) Unbind(f cosem.Field) {
	if !f.Valid() {
		return
	}
	self.mu.Lock()
	self.sinks[f] = nil
	self.bound = self.bound.Without(f)
	self.mu.Unlock()
}

func (self *Publisher) Bound() cosem.FieldSet {
	self.mu.RLock()
	defer self.mu.RUnlock()
	return self.bound
}

// Publish delivers in slice order, readings of unbound fields are skipped.
func (self *Publisher) Publish(rs []Reading) int {
	self.mu.RLock()
	defer self.mu.RUnlock()
	n := 0
	for _, r := range rs {
		if !r.Field.Valid() {
			continue
		}
		if s := self.sinks[r.Field]; s != nil {
			s.Update(r)
			n++
		}
	}
	return n
}

// LogSink writes readings to log at info level.
type LogSink struct {
	Log *log2.Log
}

func (self LogSink) Update(r Reading) {
	self.Log.Infof("reading %s", r.String())
}
