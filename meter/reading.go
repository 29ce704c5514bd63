package meter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/temoto/dlms-meter/cosem"
)

// Reading is one published field value, handed to sinks by value.
type Reading struct {
	Field  cosem.Field
	Number float64
	Text   string
	Unit   cosem.Unit
	// Set for timestamp field.
	Time time.Time

	SystemTitle [cosem.SystemTitleLength]byte
	Counter     uint32
	Received    time.Time
}

func (r Reading) IsText() bool { return r.Field.Kind() == cosem.KindText }

// Value is text for text fields and shortest decimal for numbers.
func (r Reading) Value() string {
	if r.IsText() {
		return r.Text
	}
	return strconv.FormatFloat(r.Number, 'f', -1, 64)
}

func (r Reading) String() string {
	return fmt.Sprintf("%s=%s%s", r.Field, r.Value(), r.Unit)
}

func newReading(o *cosem.Object, h *cosem.Header, received time.Time) Reading {
	return Reading{
		Field:       o.Field,
		Number:      o.Number,
		Text:        o.Text,
		Unit:        o.Unit,
		Time:        o.Time,
		SystemTitle: h.SystemTitle,
		Counter:     h.Counter,
		Received:    received,
	}
}
