package cosem

import "fmt"

// Obis is the six group object identifier A-B:C.D.E*F.
type Obis [6]byte

func (o Obis) A() byte { return o[0] }
func (o Obis) C() byte { return o[2] }
func (o Obis) D() byte { return o[3] }

// B (channel), E and F vary between vendors and are not part of the key.
func (o Obis) key() uint32 { return obisKey(o[0], o[2], o[3]) }

func obisKey(a, c, d byte) uint32 { return uint32(a)<<16 | uint32(c)<<8 | uint32(d) }

func (o Obis) String() string {
	return fmt.Sprintf("%d-%d:%d.%d.%d*%d", o[0], o[1], o[2], o[3], o[4], o[5])
}

func ObisFromBytes(b []byte) (Obis, bool) {
	var o Obis
	if len(b) != len(o) {
		return o, false
	}
	copy(o[:], b)
	return o, true
}
