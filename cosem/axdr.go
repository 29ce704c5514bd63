package cosem

import (
	"fmt"

	"github.com/temoto/dlms-meter/fault"
)

// Tag is the A-XDR data type tag.
type Tag byte

const (
	TagNull            Tag = 0x00
	TagArray           Tag = 0x01
	TagStructure       Tag = 0x02
	TagBoolean         Tag = 0x03
	TagBitString       Tag = 0x04
	TagDoubleLong      Tag = 0x05
	TagDoubleLongUint  Tag = 0x06
	TagOctetString     Tag = 0x09
	TagVisibleString   Tag = 0x0a
	TagUTF8String      Tag = 0x0c
	TagBCD             Tag = 0x0d
	TagInteger         Tag = 0x0f
	TagLong            Tag = 0x10
	TagUnsigned        Tag = 0x11
	TagLongUnsigned    Tag = 0x12
	TagCompactArray    Tag = 0x13
	TagLong64          Tag = 0x14
	TagLong64Unsigned  Tag = 0x15
	TagEnum            Tag = 0x16
	TagFloat32         Tag = 0x17
	TagFloat64         Tag = 0x18
	TagDateTime        Tag = 0x19
	TagDate            Tag = 0x1a
	TagTime            Tag = 0x1b
)

const (
	TagDataNotification byte = 0x0f

	DateTimeLength = 12
	dateLength     = 5
	timeLength     = 4
)

const (
	MaxDepth    = 8
	MaxElements = 512
)

// fixed value size, -1 for length prefixed, -2 for containers, -3 unknown
func (t Tag) size() int {
	switch t {
	case TagNull:
		return 0
	case TagBoolean, TagBCD, TagInteger, TagUnsigned, TagEnum:
		return 1
	case TagLong, TagLongUnsigned:
		return 2
	case TagDoubleLong, TagDoubleLongUint, TagFloat32:
		return 4
	case TagLong64, TagLong64Unsigned, TagFloat64:
		return 8
	case TagDateTime:
		return DateTimeLength
	case TagDate:
		return dateLength
	case TagTime:
		return timeLength
	case TagBitString, TagOctetString, TagVisibleString, TagUTF8String:
		return -1
	case TagArray, TagStructure:
		return -2
	}
	return -3
}

func (t Tag) Container() bool { return t == TagArray || t == TagStructure }

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagArray:
		return "array"
	case TagStructure:
		return "structure"
	case TagBoolean:
		return "boolean"
	case TagBitString:
		return "bit-string"
	case TagDoubleLong:
		return "double-long"
	case TagDoubleLongUint:
		return "double-long-unsigned"
	case TagOctetString:
		return "octet-string"
	case TagVisibleString:
		return "visible-string"
	case TagUTF8String:
		return "utf8-string"
	case TagBCD:
		return "bcd"
	case TagInteger:
		return "integer"
	case TagLong:
		return "long"
	case TagUnsigned:
		return "unsigned"
	case TagLongUnsigned:
		return "long-unsigned"
	case TagCompactArray:
		return "compact-array"
	case TagLong64:
		return "long64"
	case TagLong64Unsigned:
		return "long64-unsigned"
	case TagEnum:
		return "enum"
	case TagFloat32:
		return "float32"
	case TagFloat64:
		return "float64"
	case TagDateTime:
		return "date-time"
	case TagDate:
		return "date"
	case TagTime:
		return "time"
	}
	return fmt.Sprintf("tag(%02x)", byte(t))
}

// Element is one flattened A-XDR item. Containers carry Count and no Value.
// Value references the walked buffer.
type Element struct {
	Tag    Tag
	Depth  int
	Offset int
	Count  int
	Value  []byte
	Bits   int // bit-string length
}

func (e Element) String() string {
	if e.Tag.Container() {
		return fmt.Sprintf("%s[%d]", e.Tag, e.Count)
	}
	return fmt.Sprintf("%s(%x)", e.Tag, e.Value)
}

// Walk flattens A-XDR data into dst in document order.
// Iterative, nesting limited by MaxDepth, element count by MaxElements.
// Every read is bounds checked against b.
func Walk(b []byte, dst []Element) ([]Element, error) {
	var remain [MaxDepth]int
	depth := 0
	pos := 0
	walked := 0
	for {
		for depth > 0 && remain[depth-1] == 0 {
			depth--
		}
		if pos == len(b) {
			if depth != 0 {
				return dst, fault.Truncationf("data ended at offset=%d inside %d open containers, next needs %d elements", pos, depth, remain[depth-1])
			}
			return dst, nil
		}
		if walked >= MaxElements {
			return dst, fault.Malformedf("elements > max=%d", MaxElements)
		}
		walked++
		if depth > 0 {
			remain[depth-1]--
		}

		e := Element{Tag: Tag(b[pos]), Depth: depth, Offset: pos}
		pos++
		switch size := e.Tag.size(); size {
		case -3:
			return dst, fault.Malformedf("tag=%02x offset=%d not supported", byte(e.Tag), e.Offset)

		case -2:
			n, k, err := berLength(b[pos:])
			if err != nil {
				return dst, err
			}
			pos += k
			// each element takes at least one byte
			if n > len(b)-pos {
				return dst, fault.Truncationf("%s count=%d offset=%d exceeds remaining=%d", e.Tag, n, e.Offset, len(b)-pos)
			}
			e.Count = n
			dst = append(dst, e)
			if n > 0 {
				if depth == MaxDepth {
					return dst, fault.Malformedf("nesting depth > max=%d offset=%d", MaxDepth, e.Offset)
				}
				remain[depth] = n
				depth++
			}
			continue

		case -1:
			n, k, err := berLength(b[pos:])
			if err != nil {
				return dst, err
			}
			pos += k
			if e.Tag == TagBitString {
				e.Bits = n
				n = (n + 7) / 8
			}
			size = n
			fallthrough

		default:
			if size > len(b)-pos {
				return dst, fault.Truncationf("%s length=%d offset=%d exceeds remaining=%d", e.Tag, size, e.Offset, len(b)-pos)
			}
			e.Value = b[pos : pos+size]
			pos += size
		}
		dst = append(dst, e)
	}
}
