package state

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/dlms-meter/cosem"
	fixture "github.com/temoto/dlms-meter/internal/testutil"
	"github.com/temoto/dlms-meter/log2"
	"github.com/temoto/dlms-meter/meter"
	tele_api "github.com/temoto/dlms-meter/tele"
)

type recordTeler struct {
	tele_api.Noop
	readings []meter.Reading
	raw      [][]byte
	closed   bool
}

func (self *recordTeler) Update(r meter.Reading) { self.readings = append(self.readings, r) }
func (self *recordTeler) UpdateRaw(mode meter.RawMode, b []byte) {
	self.raw = append(self.raw, append([]byte(nil), b...))
}
func (self *recordTeler) Close() { self.closed = true }

const testGlobalConfig = `
key = "00 01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e 0f"
field "voltage_l1" { sink = "metrics" }
field "power_factor" { sink = "metrics" }
field "meter_number" { sink = "log" }
field "device_name" { sink = "mqtt" }
field "active_energy_plus" { sink = "mqtt" }
mqtt { enable = true broker = "tcp://127.0.0.1:1883" raw_topic = "meter/raw" raw_mode = "telegram" }
`

func TestGlobalInit(t *testing.T) {
	t.Parallel()
	teler := &recordTeler{}
	_, g := NewTestContext(t, testGlobalConfig, teler)
	assert.Equal(t, cosem.NewFieldSet(
		cosem.FieldVoltageL1, cosem.FieldPowerFactor, cosem.FieldMeterNumber,
		cosem.FieldDeviceName, cosem.FieldActiveEnergyPlus,
	), g.Publisher.Bound())
	assert.Equal(t, "tmp-dlms-meter-db/tele", g.Config.Mqtt.PersistPath)

	g.Meter.Feed(fixture.LoadHex(t, fixture.GoldenSealed))

	require.Len(t, teler.readings, 2)
	assert.Equal(t, "device_name=KFM5000000001", teler.readings[0].String())
	assert.Equal(t, "active_energy_plus=1234.56Wh", teler.readings[1].String())
	require.Len(t, teler.raw, 1)
	assert.Equal(t, byte(cosem.TagGeneralGloCiphering), teler.raw[0][0])

	assert.Equal(t, 1.0, testutil.ToFloat64(g.Meter.Stat.Telegrams))
	assert.Equal(t, 5.0, testutil.ToFloat64(g.Meter.Stat.Readings))
	mfs, err := g.Registry.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, mf := range mfs {
		if mf.GetName() != "dlms_meter_value" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "field" {
					values[l.GetValue()] = m.GetGauge().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"voltage_l1": 231.6, "power_factor": 0.95}, values)

	g.Stop()
	g.Stop()
	assert.True(t, teler.closed)
}

func TestGlobalInitInvalid(t *testing.T) {
	t.Parallel()
	log := log2.NewTest(t, log2.LDebug)
	ctx, g := NewContext(log, &recordTeler{})
	cfg, err := ReadConfig(log, NewMockFullReader(map[string]string{"c": `field "voltage_l1" {}`}), "c")
	require.NoError(t, err)
	err = g.Init(ctx, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config key not found")
	assert.Nil(t, g.Meter)
}
