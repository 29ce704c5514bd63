package state

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/temoto/alive/v2"
	"github.com/temoto/dlms-meter/internal/tele"
	"github.com/temoto/dlms-meter/log2"
	"github.com/temoto/dlms-meter/meter"
	tele_api "github.com/temoto/dlms-meter/tele"
)

type Global struct {
	Alive     *alive.Alive
	Config    *Config
	Log       *log2.Log
	Meter     *meter.Meter
	Publisher *meter.Publisher
	Registry  *prometheus.Registry
	Tele      tele_api.Teler
}

const ContextKey = "run/state-global"

// NewContext with nil teler builds MQTT publisher in Init when config enables it.
func NewContext(log *log2.Log, teler tele_api.Teler) (context.Context, *Global) {
	if log == nil {
		panic("code error NewContext() log=nil")
	}
	g := &Global{
		Alive:     alive.NewAlive(),
		Log:       log,
		Publisher: meter.NewPublisher(),
		Registry:  prometheus.NewRegistry(),
		Tele:      teler,
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, log2.ContextKey, log)
	ctx = context.WithValue(ctx, ContextKey, g)
	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg
	switch {
	case cfg.LogVerbose:
		g.Log.SetLevel(log2.LVerbose)
	case cfg.LogDebug:
		g.Log.SetLevel(log2.LDebug)
	}
	if err := cfg.Validate(); err != nil {
		return errors.Annotate(err, "config")
	}
	cfg.Dump(g.Log)

	key, _ := cfg.SecretKey()
	rawMode, _ := meter.ParseRawMode(cfg.Mqtt.RawMode)
	if cfg.Mqtt.RawTopic == "" {
		rawMode = meter.RawOff
	}

	if g.Config.Persist.Root == "" {
		g.Config.Persist.Root = "./tmp-dlms-meter-db"
	}
	if g.Config.Mqtt.PersistPath == "" {
		g.Config.Mqtt.PersistPath = filepath.Join(g.Config.Persist.Root, "tele")
	}
	if g.Tele == nil {
		stat, err := tele_api.NewStat(g.Registry)
		if err != nil {
			return errors.Annotate(err, "tele stat")
		}
		g.Tele = tele.New(stat)
	}
	if err := g.Tele.Init(ctx, g.Log.Clone(log2.LInfo), g.Config.Mqtt); err != nil {
		return errors.Annotate(err, "tele init")
	}

	metrics, err := meter.NewMetricsSink(g.Registry)
	if err != nil {
		return errors.Annotate(err, "metrics sink")
	}
	metrics.Log = g.Log
	sinks := map[string]meter.Sink{
		SinkLog:     meter.LogSink{Log: g.Log},
		SinkMqtt:    g.Tele,
		SinkMetrics: metrics,
	}
	bindings, _ := cfg.Bindings()
	for f, name := range bindings {
		if err := g.Publisher.Bind(f, sinks[name]); err != nil {
			return errors.Annotatef(err, "bind field=%s", f)
		}
	}

	g.Meter, err = meter.New(meter.Config{
		Key:                   key,
		RequireAuthentication: cfg.RequireAuth(),
		IdleTimeout:           cfg.IdleTimeout(),
		RawMode:               rawMode,
	}, g.Publisher, g.Log)
	if err != nil {
		return errors.Annotate(err, "meter")
	}
	if g.Meter.Stat, err = meter.NewStat(g.Registry); err != nil {
		return errors.Annotate(err, "meter stat")
	}
	if rawMode != meter.RawOff {
		g.Meter.Raw = g.Tele
	}
	return nil
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	err := g.Init(ctx, cfg)
	if err != nil {
		g.Log.Fatal(errors.ErrorStack(err))
	}
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Log.Errorf("%s", errors.ErrorStack(err))
	}
}

// Stop is idempotent, flushes publisher queue to disk.
func (g *Global) Stop() {
	if g.Alive.IsRunning() {
		g.Alive.Stop()
	}
	if g.Tele != nil {
		g.Tele.Close()
		g.Tele = tele_api.Noop{}
	}
}
