package meter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/temoto/dlms-meter/fault"
)

const metricNamespace = "dlms_meter"

// Stat counts pipeline outcomes. Error counter is labeled by fault kind.
type Stat struct {
	Bytes     prometheus.Counter
	Noise     prometheus.Counter
	Frames    prometheus.Counter
	Telegrams prometheus.Counter
	Readings  prometheus.Counter
	Errors    *prometheus.CounterVec

	LastCounter  prometheus.Gauge
	LastTelegram prometheus.Gauge
}

// NewStat registers in reg unless it is nil.
func NewStat(reg prometheus.Registerer) (*Stat, error) {
	s := &Stat{
		Bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace, Name: "received_bytes_total",
			Help: "Bytes read from transport.",
		}),
		Noise: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace, Name: "noise_bytes_total",
			Help: "Bytes discarded while waiting for frame start.",
		}),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace, Name: "frames_total",
			Help: "Link frames passed validation.",
		}),
		Telegrams: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace, Name: "telegrams_total",
			Help: "Telegrams decrypted and decoded.",
		}),
		Readings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace, Name: "readings_total",
			Help: "Readings delivered to sinks.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace, Name: "errors_total",
			Help: "Discarded frames and skipped objects by kind.",
		}, []string{"kind"}),
		LastCounter: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricNamespace, Name: "invocation_counter",
			Help: "Invocation counter of last decrypted telegram.",
		}),
		LastTelegram: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricNamespace, Name: "last_telegram_timestamp_seconds",
			Help: "Receive time of last decoded telegram.",
		}),
	}
	// zero series for every kind are visible before first failure
	for k := fault.KindFraming; k <= fault.KindOther; k++ {
		s.Errors.WithLabelValues(k.String())
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{s.Bytes, s.Noise, s.Frames, s.Telegrams, s.Readings, s.Errors, s.LastCounter, s.LastTelegram} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (self *Stat) Error(kind fault.Kind) {
	self.Errors.WithLabelValues(kind.String()).Inc()
}
