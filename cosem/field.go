package cosem

import (
	"sort"
	"strings"
)

// Field is one measurement the decoder knows how to publish.
type Field uint8

const (
	FieldTimestamp Field = iota
	FieldMeterNumber
	FieldDeviceName
	FieldVoltageL1
	FieldVoltageL2
	FieldVoltageL3
	FieldCurrentL1
	FieldCurrentL2
	FieldCurrentL3
	FieldActivePowerPlus
	FieldActivePowerMinus
	FieldPowerFactor
	FieldActiveEnergyPlus
	FieldActiveEnergyMinus
	FieldReactiveEnergyPlus
	FieldReactiveEnergyMinus
	FieldCount
)

type ValueKind uint8

const (
	KindNumber ValueKind = iota
	KindText
)

type FieldSpec struct {
	Field    Field
	Name     string
	A, C, D  byte
	Kind     ValueKind
	Exponent int8
	Unit     Unit
}

// Lookup is by A.C.D, see Obis.key.
var fieldTable = [FieldCount]FieldSpec{
	{FieldTimestamp, "timestamp", 0, 1, 0, KindText, 0, UnitNone},
	{FieldMeterNumber, "meter_number", 0, 96, 1, KindText, 0, UnitNone},
	{FieldDeviceName, "device_name", 0, 42, 0, KindText, 0, UnitNone},
	{FieldVoltageL1, "voltage_l1", 1, 32, 7, KindNumber, -1, UnitVolt},
	{FieldVoltageL2, "voltage_l2", 1, 52, 7, KindNumber, -1, UnitVolt},
	{FieldVoltageL3, "voltage_l3", 1, 72, 7, KindNumber, -1, UnitVolt},
	{FieldCurrentL1, "current_l1", 1, 31, 7, KindNumber, -2, UnitAmpere},
	{FieldCurrentL2, "current_l2", 1, 51, 7, KindNumber, -2, UnitAmpere},
	{FieldCurrentL3, "current_l3", 1, 71, 7, KindNumber, -2, UnitAmpere},
	{FieldActivePowerPlus, "active_power_plus", 1, 1, 7, KindNumber, 0, UnitWatt},
	{FieldActivePowerMinus, "active_power_minus", 1, 2, 7, KindNumber, 0, UnitWatt},
	{FieldPowerFactor, "power_factor", 1, 13, 7, KindNumber, -3, UnitNone},
	{FieldActiveEnergyPlus, "active_energy_plus", 1, 1, 8, KindNumber, 0, UnitWattHour},
	{FieldActiveEnergyMinus, "active_energy_minus", 1, 2, 8, KindNumber, 0, UnitWattHour},
	{FieldReactiveEnergyPlus, "reactive_energy_plus", 1, 3, 8, KindNumber, 0, UnitVarHour},
	{FieldReactiveEnergyMinus, "reactive_energy_minus", 1, 4, 8, KindNumber, 0, UnitVarHour},
}

var (
	fieldByObis = make(map[uint32]*FieldSpec, FieldCount)
	fieldByName = make(map[string]Field, FieldCount)
)

func init() {
	for i := range fieldTable {
		spec := &fieldTable[i]
		if spec.Field != Field(i) {
			panic("code error fieldTable order")
		}
		fieldByObis[obisKey(spec.A, spec.C, spec.D)] = spec
		fieldByName[spec.Name] = spec.Field
	}
}

// LookupObis returns nil for codes not in the table.
func LookupObis(o Obis) *FieldSpec { return fieldByObis[o.key()] }

func FieldByName(name string) (Field, bool) {
	f, ok := fieldByName[strings.ToLower(name)]
	return f, ok
}

func FieldNames() []string {
	ss := make([]string, 0, FieldCount)
	for _, spec := range fieldTable {
		ss = append(ss, spec.Name)
	}
	sort.Strings(ss)
	return ss
}

func (f Field) Valid() bool     { return f < FieldCount }
func (f Field) Spec() *FieldSpec { return &fieldTable[f] }
func (f Field) Kind() ValueKind  { return fieldTable[f].Kind }

func (f Field) String() string {
	if !f.Valid() {
		return "invalid"
	}
	return fieldTable[f].Name
}

// FieldSet is a bitmap of fields.
type FieldSet uint32

const AllFields FieldSet = 1<<FieldCount - 1

func NewFieldSet(fs ...Field) FieldSet {
	var s FieldSet
	for _, f := range fs {
		s = s.With(f)
	}
	return s
}

func (s FieldSet) Has(f Field) bool       { return s&(1<<f) != 0 }
func (s FieldSet) With(f Field) FieldSet  { return s | 1<<f }
func (s FieldSet) Without(f Field) FieldSet { return s &^ (1 << f) }
func (s FieldSet) Empty() bool            { return s == 0 }

func (s FieldSet) Fields() []Field {
	fs := make([]Field, 0, FieldCount)
	for f := Field(0); f < FieldCount; f++ {
		if s.Has(f) {
			fs = append(fs, f)
		}
	}
	return fs
}
