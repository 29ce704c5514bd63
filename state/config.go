package state

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/dlms-meter/cosem"
	"github.com/temoto/dlms-meter/hardware/serial"
	"github.com/temoto/dlms-meter/helpers"
	"github.com/temoto/dlms-meter/log2"
	"github.com/temoto/dlms-meter/mbus"
	"github.com/temoto/dlms-meter/meter"
	tele_config "github.com/temoto/dlms-meter/tele/config"
)

const (
	SinkLog     = "log"
	SinkMqtt    = "mqtt"
	SinkMetrics = "metrics"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`
	XXX_Field   []FieldConfig  `hcl:"field"`

	// 32 hex digits, spaces and colons allowed
	Key                   string `hcl:"key"`
	RequireAuthentication *bool  `hcl:"require_authentication"`
	IdleTimeoutMs         int    `hcl:"idle_timeout_ms"`
	LogDebug              bool   `hcl:"log_debug"`
	LogVerbose            bool   `hcl:"log_verbose"`

	Serial struct {
		Device        string `hcl:"device"`
		Baud          int    `hcl:"baud"`
		Parity        string `hcl:"parity"`
		ReadTimeoutMs int    `hcl:"read_timeout_ms"`
	} `hcl:"serial"`
	// field "voltage_l1" { sink = "mqtt" }, later sources override earlier
	Fields []FieldConfig

	Mqtt    tele_config.Config `hcl:"mqtt"`
	Metrics struct {
		Listen string `hcl:"listen"`
	} `hcl:"metrics"`
	Persist struct {
		Root string `hcl:"root"`
	} `hcl:"persist"`
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

type FieldConfig struct {
	Name string `hcl:"name,key"`
	Sink string `hcl:"sink"`
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		log.Fatalf("config duplicate source=%s", source.Name)
	} else {
		log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	}
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		// content is not logged, it may contain the key
		err = errors.Annotatef(err, "config unmarshal source=%s", source.Name)
		*errs = append(*errs, err)
		return
	}

	var fields []FieldConfig
	fields, c.XXX_Field = c.XXX_Field, nil
	c.Fields = append(c.Fields, fields...)

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}

func (c *Config) RequireAuth() bool {
	return c.RequireAuthentication == nil || *c.RequireAuthentication
}

func (c *Config) IdleTimeout() time.Duration {
	return helpers.IntMillisecondDefault(c.IdleTimeoutMs, mbus.DefaultIdleTimeout)
}

func (c *Config) SecretKey() (cosem.SecretKey, error) {
	if c.Key == "" {
		return cosem.SecretKey{}, errors.NotFoundf("config key")
	}
	return cosem.ParseKey(c.Key)
}

func (c *Config) SerialConfig() (serial.Config, error) {
	parity, err := serial.ParseParity(c.Serial.Parity)
	return serial.Config{
		Device:      c.Serial.Device,
		Baud:        c.Serial.Baud,
		Parity:      parity,
		ReadTimeout: time.Duration(c.Serial.ReadTimeoutMs) * time.Millisecond,
	}, err
}

// Bindings resolves field blocks, the last one for a field wins.
func (c *Config) Bindings() (map[cosem.Field]string, error) {
	bs := make(map[cosem.Field]string, len(c.Fields))
	errs := make([]error, 0)
	for _, fc := range c.Fields {
		f, ok := cosem.FieldByName(fc.Name)
		if !ok {
			errs = append(errs, errors.NotValidf("field=%s, known: %s", fc.Name, strings.Join(cosem.FieldNames(), " ")))
			continue
		}
		switch fc.Sink {
		case SinkLog, SinkMqtt, SinkMetrics:
			bs[f] = fc.Sink
		case "":
			bs[f] = SinkLog
		default:
			errs = append(errs, errors.NotValidf("field=%s sink=%s", fc.Name, fc.Sink))
		}
	}
	return bs, helpers.FoldErrors(errs)
}

// Validate collects every problem. Errors never contain the key.
func (c *Config) Validate() error {
	errs := make([]error, 0)
	if _, err := c.SecretKey(); err != nil {
		errs = append(errs, err)
	}
	if c.IdleTimeoutMs < 0 {
		errs = append(errs, errors.NotValidf("idle_timeout_ms=%d", c.IdleTimeoutMs))
	}
	if _, err := c.SerialConfig(); err != nil {
		errs = append(errs, err)
	}
	bindings, err := c.Bindings()
	if err != nil {
		errs = append(errs, err)
	}
	for f, sink := range bindings {
		if sink == SinkMqtt && !c.Mqtt.Enabled {
			errs = append(errs, errors.NotValidf("field=%s sink=mqtt with mqtt disabled", f))
		}
	}
	if _, err := meter.ParseRawMode(c.Mqtt.RawMode); err != nil {
		errs = append(errs, err)
	}
	if c.Mqtt.RawTopic != "" && c.Mqtt.Broker == "" {
		errs = append(errs, errors.NotValidf("mqtt raw_topic without broker"))
	}
	if c.Mqtt.Enabled && c.Mqtt.Broker == "" {
		errs = append(errs, errors.NotValidf("mqtt enabled without broker"))
	}
	return helpers.FoldErrors(errs)
}

// Dump logs effective settings at info level, key presence only.
func (c *Config) Dump(log *log2.Log) {
	key := "missing"
	if _, err := c.SecretKey(); err == nil {
		key = "configured"
	} else if c.Key != "" {
		key = "invalid"
	}
	log.Infof("config key: %s", key)
	log.Infof("config require_authentication: %t", c.RequireAuth())
	log.Infof("config idle_timeout: %v", c.IdleTimeout())
	if sc, err := c.SerialConfig(); err == nil && sc.Device != "" {
		log.Infof("config serial: %s", sc.String())
	}
	bindings, _ := c.Bindings()
	names := make([]string, 0, len(bindings))
	for f, sink := range bindings {
		names = append(names, f.String()+"="+sink)
	}
	sort.Strings(names)
	log.Infof("config fields: %s", strings.Join(names, " "))
	if c.Mqtt.Enabled {
		log.Infof("config mqtt broker: %s topic_prefix: %s", c.Mqtt.Broker, c.Mqtt.TopicPrefixOrDefault())
		if c.Mqtt.RawTopic != "" {
			log.Infof("config mqtt raw_topic: %s mode: %s", c.Mqtt.RawTopic, c.Mqtt.RawMode)
		}
	}
	if c.Metrics.Listen != "" {
		log.Infof("config metrics listen: %s", c.Metrics.Listen)
	}
}
