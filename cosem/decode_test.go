package cosem

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/dlms-meter/fault"
	"github.com/temoto/dlms-meter/helpers"
	"github.com/temoto/dlms-meter/internal/testutil"
)

var (
	obisVoltageL1    = [6]byte{1, 0, 32, 7, 0, 255}
	obisCurrentL1    = [6]byte{1, 0, 31, 7, 0, 255}
	obisEnergyPlus   = [6]byte{1, 0, 1, 8, 0, 255}
	obisVendorSecret = [6]byte{1, 0, 99, 7, 0, 255}
)

func objectValues(n Notification) map[string]interface{} {
	m := make(map[string]interface{}, len(n.Objects))
	for _, o := range n.Objects {
		if o.Field.Kind() == KindText {
			m[o.Field.String()] = o.Text
		} else {
			m[o.Field.String()] = o.Number
		}
	}
	return m
}

func TestDecodeGolden(t *testing.T) {
	t.Parallel()
	var expect map[string]interface{}
	testutil.LoadJSON(t, testutil.GoldenExpect, &expect)

	n, err := NewDecoder(AllFields).Decode(testutil.LoadHex(t, testutil.GoldenPlain))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), n.InvokeID)
	assert.True(t, n.HasDateTime)
	assert.Empty(t, n.Unknown)
	assert.Equal(t, expect, objectValues(n))

	order := make([]Field, len(n.Objects))
	for i, o := range n.Objects {
		order[i] = o.Field
	}
	assert.Equal(t, []Field{
		FieldTimestamp, FieldDeviceName, FieldMeterNumber,
		FieldVoltageL1, FieldVoltageL2, FieldVoltageL3,
		FieldCurrentL1, FieldCurrentL2, FieldCurrentL3,
		FieldActivePowerPlus, FieldActivePowerMinus, FieldPowerFactor,
		FieldActiveEnergyPlus, FieldActiveEnergyMinus,
		FieldReactiveEnergyPlus, FieldReactiveEnergyMinus,
	}, order)

	energy := n.Find(FieldActiveEnergyPlus)
	require.NotNil(t, energy)
	assert.Equal(t, UnitWattHour, energy.Unit)
	assert.Equal(t, int8(-2), energy.Exponent)
	assert.Equal(t, "1-0:1.8.0*255 active_energy_plus=1234.56Wh", energy.String())
	assert.Equal(t, UnitVarHour, n.Find(FieldReactiveEnergyMinus).Unit)
}

func TestDecodeEnergyScaler(t *testing.T) {
	t.Parallel()
	plain := testutil.NewPayload().Numeric(obisEnergyPlus, 123456, -2, byte(UnitWattHour)).Bytes()
	n, err := NewDecoder(AllFields).Decode(plain)
	require.NoError(t, err)
	o := n.Find(FieldActiveEnergyPlus)
	require.NotNil(t, o)
	assert.Equal(t, 1234.56, o.Number)
	assert.Equal(t, UnitWattHour, o.Unit)
}

func TestDecodeUnknownBetweenKnown(t *testing.T) {
	t.Parallel()
	plain := testutil.NewPayload().
		Numeric(obisVoltageL1, 2316, -1, byte(UnitVolt)).
		Numeric(obisVendorSecret, 42, 0, byte(UnitWatt)).
		Obis(0, 0, 199, 1, 0, 255).Visible("vendor").
		Numeric(obisCurrentL1, 123, -2, byte(UnitAmpere)).
		Bytes()
	n, err := NewDecoder(AllFields).Decode(plain)
	require.NoError(t, err)
	assert.Equal(t, []Obis{obisVendorSecret, {0, 0, 199, 1, 0, 255}}, n.Unknown)
	assert.Equal(t, map[string]interface{}{
		"timestamp":  "2025-03-14T12:34:56Z",
		"voltage_l1": 231.6,
		"current_l1": 1.23,
	}, objectValues(n))
}

func TestDecodeUnknownCompound(t *testing.T) {
	t.Parallel()
	captureObjects := []byte{0x02, 0x04,
		0x09, 0x06, 1, 0, 1, 8, 0, 255, 0x11, 0x05,
		0x09, 0x0c, 0x07, 0xe9, 0x01, 0x01, 0x03, 0x00, 0x00, 0x00, 0xff, 0x80, 0x00, 0x00,
		0x01, 0x01, 0x09, 0x06, 1, 0, 2, 8, 0, 255,
	}
	plain := testutil.NewPayload().
		Obis(0, 0, 99, 1, 0, 255).Raw(captureObjects...).
		// known code with compound value is skipped too
		Obis(1, 0, 31, 7, 0, 255).Raw(0x02, 0x01, 0x12, 0x00, 0x07).
		Numeric(obisVoltageL1, 2301, -1, byte(UnitVolt)).
		Bytes()
	n, err := NewDecoder(AllFields).Decode(plain)
	require.NoError(t, err)
	assert.Equal(t, []Obis{{0, 0, 99, 1, 0, 255}}, n.Unknown)
	assert.Equal(t, map[string]interface{}{
		"timestamp":  "2025-03-14T12:34:56Z",
		"voltage_l1": 230.1,
	}, objectValues(n))
	assert.Len(t, n.Objects, 2)
}

func TestDecodeInvalidUTF8Text(t *testing.T) {
	t.Parallel()
	plain := testutil.NewPayload().WithDateTime(nil).
		Obis(0, 0, 96, 1, 0, 255).Octets([]byte{0x31, 0xff, 0xfe, 0x32, 0x00, 0x00}).
		Bytes()
	n, err := NewDecoder(AllFields).Decode(plain)
	require.NoError(t, err)
	o := n.Find(FieldMeterNumber)
	require.NotNil(t, o)
	assert.True(t, utf8.ValidString(o.Text))
	assert.Equal(t, "1\uFFFD2", o.Text)
}

func TestDecodeDefaultExponent(t *testing.T) {
	t.Parallel()
	plain := testutil.NewPayload().WithDateTime(nil).
		Obis(1, 0, 32, 7, 0, 255).U16(2316).
		Obis(1, 0, 13, 7, 0, 255).U16(950).
		// not a scaler-unit structure, left alone
		Raw(0x02, 0x02, 0x11, 0x01, 0x11, 0x02).
		Obis(1, 0, 1, 7, 0, 255).U32(500).
		Bytes()
	n, err := NewDecoder(AllFields).Decode(plain)
	require.NoError(t, err)
	assert.False(t, n.HasDateTime)
	assert.Equal(t, map[string]interface{}{
		"voltage_l1":        231.6,
		"power_factor":      0.95,
		"active_power_plus": 500.0,
	}, objectValues(n))
	assert.Equal(t, UnitVolt, n.Find(FieldVoltageL1).Unit)
	assert.Equal(t, int8(-1), n.Find(FieldVoltageL1).Exponent)
}

func TestDecodeWant(t *testing.T) {
	t.Parallel()
	d := NewDecoder(NewFieldSet(FieldVoltageL1, FieldMeterNumber))
	n, err := d.Decode(testutil.LoadHex(t, testutil.GoldenPlain))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"voltage_l1":   231.6,
		"meter_number": "100000000001",
	}, objectValues(n))

	d.Want = 0
	n, err = d.Decode(testutil.LoadHex(t, testutil.GoldenPlain))
	require.NoError(t, err)
	assert.Empty(t, n.Objects)
}

func TestDecodeTimestamp(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		plain  []byte
		expect string
	}{
		{"header-only", testutil.NewPayload().Obis(1, 0, 32, 7, 0, 255).U16(2316).Bytes(), "2025-03-14T12:34:56Z"},
		{"header-deviation", testutil.NewPayload().WithDateTime(helpers.MustHex("07e9030e050c2238ffffc400")).Bytes(), "2025-03-14T12:34:56+01:00"},
		{"standalone-element", testutil.NewPayload().WithDateTime(nil).Octets(helpers.MustHex("07e90c1f030d3b3bff800000")).Bytes(), "2025-12-31T13:59:59Z"},
		{"date-time-tag", testutil.NewPayload().WithDateTime(nil).Raw(append([]byte{0x19}, helpers.MustHex("07e90c1f030d3b3bff800000")...)...).Bytes(), "2025-12-31T13:59:59Z"},
		{"obis-clock", testutil.NewPayload().WithDateTime(nil).Obis(0, 0, 1, 0, 0, 255).Octets(helpers.MustHex("07e8021d04000000ff800000")).Bytes(), "2024-02-29T00:00:00Z"},
	}
	helpers.RandUnix().Shuffle(len(cases), func(i int, j int) { cases[i], cases[j] = cases[j], cases[i] })
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			n, err := NewDecoder(AllFields).Decode(c.plain)
			require.NoError(t, err)
			ts := n.Find(FieldTimestamp)
			require.NotNil(t, ts)
			assert.Equal(t, c.expect, ts.Text)
			assert.Equal(t, FieldTimestamp, n.Objects[0].Field)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		plain []byte
		kind  fault.Kind
	}{
		{"empty", nil, fault.KindTruncation},
		{"not-notification", helpers.MustHex("0e00000001000200"), fault.KindMalformed},
		{"datetime-length", helpers.MustHex("0f00000001050200"), fault.KindMalformed},
		{"datetime-cut", helpers.MustHex("0f000000010c07e9"), fault.KindTruncation},
		{"voltage-as-text", testutil.NewPayload().Obis(1, 0, 32, 7, 0, 255).Visible("231").Bytes(), fault.KindMalformed},
		{"meter-number-as-number", testutil.NewPayload().Obis(0, 0, 96, 1, 0, 255).U16(1).Bytes(), fault.KindMalformed},
		{"compact-array", testutil.NewPayload().Raw(0x13, 0x00).Bytes(), fault.KindMalformed},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			_, err := NewDecoder(AllFields).Decode(c.plain)
			assert.Equal(t, c.kind, fault.Classify(err), "err=%v", err)
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	t.Parallel()
	plain := testutil.LoadHex(t, testutil.GoldenPlain)
	d := NewDecoder(AllFields)
	for cut := 1; cut <= len(plain); cut++ {
		n, err := d.Decode(plain[:len(plain)-cut])
		if !assert.Equal(t, fault.KindTruncation, fault.Classify(err), "cut=%d err=%v", cut, err) {
			break
		}
		assert.Empty(t, n.Objects, "cut=%d", cut)
	}
}

func TestDecodeIdempotent(t *testing.T) {
	t.Parallel()
	plain := testutil.LoadHex(t, testutil.GoldenPlain)
	orig := append([]byte(nil), plain...)
	d := NewDecoder(AllFields)
	first, err := d.Decode(plain)
	require.NoError(t, err)
	second, err := d.Decode(plain)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, orig, plain)
}

func TestScale(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1234.56, Scale(123456, -2))
	assert.Equal(t, 231.6, Scale(2316, -1))
	assert.Equal(t, 0.95, Scale(950, -3))
	assert.Equal(t, 5000.0, Scale(5, 3))
	assert.Equal(t, -1.5, Scale(-15, -1))
	assert.Equal(t, 7.0, Scale(7, 0))
}
