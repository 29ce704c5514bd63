// Package tele is the publication side API: queued protobuf messages,
// MQTT topic layout and the Teler contract implemented by internal/tele.
package tele

import (
	"context"
	"fmt"
	"strconv"

	"github.com/temoto/dlms-meter/cosem"
	"github.com/temoto/dlms-meter/log2"
	"github.com/temoto/dlms-meter/meter"
	tele_config "github.com/temoto/dlms-meter/tele/config"
)

//go:generate protoc --go_out=./ tele.proto

// Payloads on the status topic, retained.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

func TopicField(prefix, field string) string { return fmt.Sprintf("%s/%s", prefix, field) }
func TopicStatus(prefix string) string       { return fmt.Sprintf("%s/status", prefix) }

// Teler is a meter sink that publishes in background.
// Update and UpdateRaw block at most for disk write.
type Teler interface {
	meter.Sink
	meter.RawSink
	Init(context.Context, *log2.Log, tele_config.Config) error
	Close()
}

type Noop struct{}

var _ Teler = Noop{} // compile-time interface test

func (Noop) Init(context.Context, *log2.Log, tele_config.Config) error { return nil }
func (Noop) Close()                                                    {}
func (Noop) Update(meter.Reading)                                      {}
func (Noop) UpdateRaw(meter.RawMode, []byte)                           {}

// NewReading converts for the queue.
func NewReading(r meter.Reading) *Reading {
	pb := &Reading{
		Field:       r.Field.String(),
		Number:      r.Number,
		Text:        r.Text,
		Unit:        r.Unit.String(),
		SystemTitle: append([]byte(nil), r.SystemTitle[:]...),
		Counter:     r.Counter,
		Received:    r.Received.UnixNano(),
	}
	if !r.Time.IsZero() {
		pb.Time = r.Time.UnixNano()
	}
	return pb
}

// Value is the text published on the field topic.
func (m *Reading) Value() string {
	if f, ok := cosem.FieldByName(m.Field); ok && f.Kind() == cosem.KindNumber {
		return strconv.FormatFloat(m.Number, 'f', -1, 64)
	}
	return m.Text
}
