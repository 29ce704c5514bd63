package testutil

import "encoding/binary"

// Payload builds a data-notification plaintext element by element.
type Payload struct {
	elements [][]byte
	datetime []byte
}

// 2025-03-14 12:34:56, deviation and hundredths unspecified
var DateTime = []byte{0x07, 0xe9, 0x03, 0x0e, 0x05, 0x0c, 0x22, 0x38, 0xff, 0x80, 0x00, 0x00}

func NewPayload() *Payload { return &Payload{datetime: DateTime} }

// WithDateTime sets the notification header date-time, nil omits it.
func (p *Payload) WithDateTime(dt []byte) *Payload {
	p.datetime = dt
	return p
}

func (p *Payload) Raw(b ...byte) *Payload {
	p.elements = append(p.elements, b)
	return p
}

func (p *Payload) Obis(a, b, c, d, e, f byte) *Payload {
	return p.Raw(0x09, 0x06, a, b, c, d, e, f)
}

func (p *Payload) Octets(b []byte) *Payload {
	return p.Raw(append([]byte{0x09, byte(len(b))}, b...)...)
}

func (p *Payload) Visible(s string) *Payload {
	return p.Raw(append([]byte{0x0a, byte(len(s))}, s...)...)
}

func (p *Payload) U16(v uint16) *Payload {
	b := []byte{0x12, 0, 0}
	binary.BigEndian.PutUint16(b[1:], v)
	return p.Raw(b...)
}

func (p *Payload) U32(v uint32) *Payload {
	b := []byte{0x06, 0, 0, 0, 0}
	binary.BigEndian.PutUint32(b[1:], v)
	return p.Raw(b...)
}

func (p *Payload) ScalerUnit(scaler int8, unit byte) *Payload {
	return p.Raw(0x02, 0x02, 0x0f, byte(scaler), 0x16, unit)
}

// Numeric appends obis, u32 value and scaler-unit structure.
func (p *Payload) Numeric(code [6]byte, v uint32, scaler int8, unit byte) *Payload {
	return p.Obis(code[0], code[1], code[2], code[3], code[4], code[5]).U32(v).ScalerUnit(scaler, unit)
}

// Bytes returns 0F invoke-id datetime structure(elements...).
func (p *Payload) Bytes() []byte {
	out := []byte{0x0f, 0x00, 0x00, 0x00, 0x01, byte(len(p.datetime))}
	out = append(out, p.datetime...)
	out = append(out, 0x02, byte(len(p.elements)))
	for _, e := range p.elements {
		out = append(out, e...)
	}
	return out
}
