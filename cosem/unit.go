package cosem

import "strconv"

// Unit is the DLMS physical unit enum.
type Unit uint8

const (
	UnitWatt       Unit = 27
	UnitVoltAmpere Unit = 28
	UnitVar        Unit = 29
	UnitWattHour   Unit = 30
	UnitVAHour     Unit = 31
	UnitVarHour    Unit = 32
	UnitAmpere     Unit = 33
	UnitVolt       Unit = 35
	UnitHertz      Unit = 44
	UnitNone       Unit = 255
)

func (u Unit) String() string {
	switch u {
	case UnitWatt:
		return "W"
	case UnitVoltAmpere:
		return "VA"
	case UnitVar:
		return "var"
	case UnitWattHour:
		return "Wh"
	case UnitVAHour:
		return "VAh"
	case UnitVarHour:
		return "varh"
	case UnitAmpere:
		return "A"
	case UnitVolt:
		return "V"
	case UnitHertz:
		return "Hz"
	case UnitNone, 0:
		return ""
	}
	return "unit(" + strconv.Itoa(int(u)) + ")"
}
