package state

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/dlms-meter/cosem"
	"github.com/temoto/dlms-meter/hardware/serial"
	"github.com/temoto/dlms-meter/log2"
)

const testKeyConfig = `key = "36 C6 66 39 E4 8A 8C A4 D6 BC 8B 28 2A 79 3B BB"` + "\n"

func TestReadConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(testing.TB, *Config)
		expectErr string
	}
	cases := []Case{
		{"defaults", testKeyConfig, func(t testing.TB, c *Config) {
			assert.True(t, c.RequireAuth())
			assert.Equal(t, time.Second, c.IdleTimeout())
			sc, err := c.SerialConfig()
			require.NoError(t, err)
			assert.Equal(t, serial.ParityEven, sc.Parity)
			bs, err := c.Bindings()
			require.NoError(t, err)
			assert.Empty(t, bs)
		}, ""},

		{"full", testKeyConfig + `
require_authentication = false
idle_timeout_ms = 250
serial { device = "/dev/ttyUSB0" baud = 2400 parity = "none" }
field "voltage_l1" { sink = "metrics" }
field "timestamp" { sink = "mqtt" }
field "meter_number" {}
mqtt { enable = true broker = "tcp://127.0.0.1:1883" topic_prefix = "home/meter" raw_topic = "home/meter/raw" raw_mode = "plaintext" }
metrics { listen = ":9100" }`,
			func(t testing.TB, c *Config) {
				assert.False(t, c.RequireAuth())
				assert.Equal(t, 250*time.Millisecond, c.IdleTimeout())
				assert.Equal(t, "/dev/ttyUSB0", c.Serial.Device)
				assert.Equal(t, 2400, c.Serial.Baud)
				assert.Equal(t, "home/meter", c.Mqtt.TopicPrefix)
				assert.Equal(t, ":9100", c.Metrics.Listen)
				bs, err := c.Bindings()
				require.NoError(t, err)
				assert.Equal(t, map[cosem.Field]string{
					cosem.FieldVoltageL1:   SinkMetrics,
					cosem.FieldTimestamp:   SinkMqtt,
					cosem.FieldMeterNumber: SinkLog,
				}, bs)
				assert.NoError(t, c.Validate())
			}, ""},

		{"include-optional", `
include "key" {}
include "non-exist" { optional = true }`,
			func(t testing.TB, c *Config) {
				assert.NoError(t, c.Validate())
			}, ""},

		{"include-fields-accumulate", testKeyConfig + `
field "voltage_l1" { sink = "log" }
include "fields" {}`,
			func(t testing.TB, c *Config) {
				bs, err := c.Bindings()
				require.NoError(t, err)
				assert.Equal(t, map[cosem.Field]string{
					cosem.FieldVoltageL1: SinkMetrics,
					cosem.FieldVoltageL2: SinkLog,
				}, bs)
			}, ""},

		{"error-include-required", `include "non-exist" {}`, nil, "config required name=non-exist"},
		{"error-syntax", `hello`, nil, "key 'hello' expected start of object"},
		{"error-include-loop", `include "include-loop" {}`, nil, "config include loop: from=include-loop include=include-loop"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			log := log2.NewTest(t, log2.LDebug)
			fs := NewMockFullReader(map[string]string{
				"test-inline":  c.input,
				"key":          testKeyConfig,
				"fields":       `field "voltage_l1" { sink = "metrics" } field "voltage_l2" {}`,
				"include-loop": `include "include-loop" {}`,
			})
			cfg, err := ReadConfig(log, fs, "test-inline")
			if c.expectErr == "" {
				if err != nil {
					t.Fatalf("error expected=nil actual='%v'", errors.ErrorStack(err))
				}
				if c.check != nil {
					c.check(t, cfg)
				}
			} else {
				require.Error(t, err)
				if !strings.Contains(err.Error(), c.expectErr) {
					t.Fatalf("error expected='%s' actual='%v'", c.expectErr, err)
				}
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	const secret = "36C66639E48A8CA4D6BC8B282A793BBB"
	cases := []struct {
		name   string
		input  string
		expect []string
	}{
		{"ok", `key = "` + secret + `"`, nil},
		{"key-missing", ``, []string{"config key not found"}},
		{"key-short", `key = "36C66639E48A8CA4D6BC8B282A793B"`, []string{"key"}},
		{"key-garbage", `key = "36C66639E48A8CA4D6BC8B282A793BZZ"`, []string{"key"}},
		{"unknown-field", `key = "` + secret + `"
field "voltage_l4" {}`, []string{"field=voltage_l4", "voltage_l3"}},
		{"unknown-sink", `key = "` + secret + `"
field "voltage_l1" { sink = "influx" }`, []string{"sink=influx"}},
		{"mqtt-sink-disabled", `key = "` + secret + `"
field "voltage_l1" { sink = "mqtt" }`, []string{"sink=mqtt with mqtt disabled"}},
		{"raw-topic-no-broker", `key = "` + secret + `"
mqtt { raw_topic = "x" }`, []string{"raw_topic without broker"}},
		{"raw-mode", `key = "` + secret + `"
mqtt { enable = true broker = "tcp://h:1883" raw_mode = "frames" }`, []string{"raw mode=frames"}},
		{"serial-parity", `key = "` + secret + `"
serial { parity = "space" }`, []string{"serial parity=space"}},
		{"idle", `key = "` + secret + `"
idle_timeout_ms = -1`, []string{"idle_timeout_ms=-1"}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			log := log2.NewTest(t, log2.LDebug)
			cfg, err := ReadConfig(log, NewMockFullReader(map[string]string{"test-inline": c.input}), "test-inline")
			require.NoError(t, err)
			err = cfg.Validate()
			if c.expect == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, s := range c.expect {
				assert.Contains(t, err.Error(), s)
			}
			// the key never leaks into errors, even partially
			assert.NotContains(t, strings.ToUpper(err.Error()), "36C66639")
		})
	}
}

func TestDumpHidesKey(t *testing.T) {
	t.Parallel()
	var lines []string
	log := log2.NewFunc(func(format string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}, log2.LDebug)
	log.SetFlags(0)
	cfg, err := ReadConfig(log, NewMockFullReader(map[string]string{"test-inline": testKeyConfig + `field "voltage_l1" {}`}), "test-inline")
	require.NoError(t, err)
	cfg.Dump(log)
	all := strings.Join(lines, "\n")
	assert.Contains(t, all, "config key: configured")
	assert.Contains(t, all, "config fields: voltage_l1=log")
	assert.NotContains(t, all, "36 C6")
	assert.NotContains(t, strings.ToUpper(all), "36C6")
}
