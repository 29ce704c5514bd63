// Package cosem opens DLMS general-glo-ciphering APDUs and decodes the
// data-notification inside into OBIS tagged measurement objects.
package cosem

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/dlms-meter/fault"
)

// Object is one decoded measurement from a data-notification.
type Object struct {
	Code     Obis
	Field    Field
	Tag      Tag
	Exponent int8
	Unit     Unit
	Number   float64
	Text     string
	// Timestamp only.
	Time time.Time
}

func (o Object) String() string {
	if o.Field.Kind() == KindText {
		return fmt.Sprintf("%s %s=%q", o.Code, o.Field, o.Text)
	}
	return fmt.Sprintf("%s %s=%s%s", o.Code, o.Field, strconv.FormatFloat(o.Number, 'f', -1, 64), o.Unit)
}

// Notification is the decoded plaintext of one telegram.
type Notification struct {
	InvokeID    uint32
	HasDateTime bool
	DateTime    DateTime
	Objects     []Object
	// Codes not in the field table, skipped.
	Unknown []Obis
}

// Decoder turns data-notification plaintext into objects.
// Buffers are reused between calls, not safe for concurrent use.
type Decoder struct {
	// Fields outside of Want are walked over but not converted.
	Want FieldSet

	elements []Element
}

func NewDecoder(want FieldSet) *Decoder {
	return &Decoder{
		Want:     want,
		elements: make([]Element, 0, 64),
	}
}

// Decode does not modify plain. Returned objects are owned by the caller.
//
//	0F invoke-id(4) datetime-length(0|12) [datetime] data
func (self *Decoder) Decode(plain []byte) (Notification, error) {
	n := Notification{}
	const fixed = 1 + 4 + 1
	if len(plain) < fixed {
		return n, fault.Truncationf("plaintext length=%d < %d", len(plain), fixed)
	}
	if plain[0] != TagDataNotification {
		return n, fault.Malformedf("apdu tag=%02x expected data-notification=%02x", plain[0], TagDataNotification)
	}
	n.InvokeID = binary.BigEndian.Uint32(plain[1:])
	pos := fixed
	switch dtlen := int(plain[5]); dtlen {
	case 0:
	case DateTimeLength:
		if len(plain)-pos < dtlen {
			return n, fault.Truncationf("notification date-time length=%d remaining=%d", dtlen, len(plain)-pos)
		}
		dt, err := ParseDateTime(plain[pos : pos+dtlen])
		if err != nil {
			return n, errors.Annotate(err, "notification date-time")
		}
		n.DateTime = dt
		n.HasDateTime = true
		pos += dtlen
	default:
		return n, fault.Malformedf("notification date-time length=%d", dtlen)
	}

	var err error
	self.elements, err = Walk(plain[pos:], self.elements[:0])
	if err != nil {
		return n, err
	}
	if err = self.collect(&n, self.elements); err != nil {
		return n, err
	}
	if n.HasDateTime && self.Want.Has(FieldTimestamp) && n.Find(FieldTimestamp) == nil {
		spec := FieldTimestamp.Spec()
		ts := Object{
			Code:  Obis{0, 0, spec.C, spec.D, 0, 0xff},
			Field: FieldTimestamp,
			Tag:   TagOctetString,
			Text:  n.DateTime.String(),
			Time:  n.DateTime.Time(),
		}
		n.Objects = append([]Object{ts}, n.Objects...)
	}
	return n, nil
}

func (n *Notification) Find(f Field) *Object {
	for i := range n.Objects {
		if n.Objects[i].Field == f {
			return &n.Objects[i]
		}
	}
	return nil
}

// collect pairs OBIS octet-strings with the following value element
// and an optional {scaler, unit} structure.
func (self *Decoder) collect(n *Notification, els []Element) error {
	for i := 0; i < len(els); {
		e := els[i]
		switch {
		case e.Tag == TagOctetString && len(e.Value) == len(Obis{}) && i+1 < len(els) && els[i+1].Tag.Container():
			// compound value, e.g. profile capture objects: skipped whole,
			// nested codes and date-times must not surface as readings
			code, _ := ObisFromBytes(e.Value)
			i = skipSubtree(els, i+1)
			if LookupObis(code) == nil {
				n.Unknown = append(n.Unknown, code)
			}

		case e.Tag == TagOctetString && len(e.Value) == len(Obis{}) && i+1 < len(els):
			code, _ := ObisFromBytes(e.Value)
			value := els[i+1]
			i += 2
			exponent, unit, hasScaler := scalerUnit(els[i:])
			if hasScaler {
				i += 3
			}
			spec := LookupObis(code)
			if spec == nil {
				n.Unknown = append(n.Unknown, code)
				continue
			}
			if !self.Want.Has(spec.Field) {
				continue
			}
			if !hasScaler {
				exponent, unit = spec.Exponent, spec.Unit
			}
			o, err := convert(spec, code, value, exponent, unit)
			if err != nil {
				return err
			}
			n.Objects = append(n.Objects, o)

		case e.Tag == TagOctetString && len(e.Value) == DateTimeLength, e.Tag == TagDateTime:
			// standalone date-time, the frame timestamp
			i++
			spec := FieldTimestamp.Spec()
			if !self.Want.Has(spec.Field) {
				continue
			}
			o, err := convert(spec, Obis{0, 0, spec.C, spec.D, 0, 0xff}, e, 0, UnitNone)
			if err != nil {
				return err
			}
			n.Objects = append(n.Objects, o)

		default:
			i++
		}
	}
	return nil
}

// skipSubtree returns index of the first element after container els[c] and its children.
func skipSubtree(els []Element, c int) int {
	depth := els[c].Depth
	i := c + 1
	for i < len(els) && els[i].Depth > depth {
		i++
	}
	return i
}

func scalerUnit(els []Element) (int8, Unit, bool) {
	if len(els) < 3 {
		return 0, 0, false
	}
	if els[0].Tag != TagStructure || els[0].Count != 2 || els[1].Tag != TagInteger || els[2].Tag != TagEnum {
		return 0, 0, false
	}
	return int8(els[1].Value[0]), Unit(els[2].Value[0]), true
}

func convert(spec *FieldSpec, code Obis, e Element, exponent int8, unit Unit) (Object, error) {
	o := Object{
		Code:     code,
		Field:    spec.Field,
		Tag:      e.Tag,
		Exponent: exponent,
		Unit:     unit,
	}
	if spec.Field == FieldTimestamp {
		dt, err := elementDateTime(spec, e)
		if err != nil {
			return o, err
		}
		o.Text = dt.String()
		o.Time = dt.Time()
		return o, nil
	}
	if spec.Kind == KindText {
		text, err := elementText(spec, e)
		if err != nil {
			return o, err
		}
		o.Text = text
		return o, nil
	}
	raw, err := elementNumber(e)
	if err != nil {
		return o, fault.Malformedf("%s %s: %v", spec.Name, code, err)
	}
	o.Number = Scale(raw, exponent)
	return o, nil
}

// Scale returns raw * 10^exponent. Negative exponents divide,
// so 123456e-2 is exactly 1234.56.
func Scale(raw float64, exponent int8) float64 {
	if exponent < 0 {
		return raw / math.Pow10(-int(exponent))
	}
	return raw * math.Pow10(int(exponent))
}

func elementNumber(e Element) (float64, error) {
	v := e.Value
	switch e.Tag {
	case TagInteger:
		return float64(int8(v[0])), nil
	case TagUnsigned, TagEnum, TagBoolean:
		return float64(v[0]), nil
	case TagLong:
		return float64(int16(binary.BigEndian.Uint16(v))), nil
	case TagLongUnsigned:
		return float64(binary.BigEndian.Uint16(v)), nil
	case TagDoubleLong:
		return float64(int32(binary.BigEndian.Uint32(v))), nil
	case TagDoubleLongUint:
		return float64(binary.BigEndian.Uint32(v)), nil
	case TagLong64:
		return float64(int64(binary.BigEndian.Uint64(v))), nil
	case TagLong64Unsigned:
		return float64(binary.BigEndian.Uint64(v)), nil
	case TagFloat32:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(v))), nil
	case TagFloat64:
		return math.Float64frombits(binary.BigEndian.Uint64(v)), nil
	}
	return 0, errors.Errorf("value type %s is not numeric", e.Tag)
}

func elementDateTime(spec *FieldSpec, e Element) (DateTime, error) {
	switch {
	case e.Tag == TagDateTime, e.Tag == TagOctetString && len(e.Value) == DateTimeLength:
		return ParseDateTime(e.Value)
	}
	return DateTime{}, fault.Malformedf("%s value type %s length=%d", spec.Name, e.Tag, len(e.Value))
}

func elementText(spec *FieldSpec, e Element) (string, error) {
	switch e.Tag {
	case TagOctetString, TagVisibleString, TagUTF8String:
		// meters pad fixed width strings with NUL; sinks need valid UTF-8
		return strings.ToValidUTF8(strings.TrimRight(string(e.Value), "\x00"), "\uFFFD"), nil
	}
	return "", fault.Malformedf("%s value type %s is not text", spec.Name, e.Tag)
}
