package meter

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/temoto/dlms-meter/cosem"
	"github.com/temoto/dlms-meter/log2"
)

// MetricsSink exports numeric readings as gauges, text readings as info series.
// Label errors are logged, never panic in decode pass.
type MetricsSink struct {
	Log *log2.Log

	values    *prometheus.GaugeVec
	info      *prometheus.GaugeVec
	timestamp prometheus.Gauge

	mu       sync.Mutex
	lastText [cosem.FieldCount]string
}

func NewMetricsSink(reg prometheus.Registerer) (*MetricsSink, error) {
	s := &MetricsSink{
		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricNamespace, Name: "value",
			Help: "Last numeric reading in engineering units.",
		}, []string{"field", "unit"}),
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricNamespace, Name: "info",
			Help: "Last text reading, value in label.",
		}, []string{"field", "value"}),
		timestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricNamespace, Name: "meter_timestamp_seconds",
			Help: "Meter clock from last telegram.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{s.values, s.info, s.timestamp} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (self *MetricsSink) Update(r Reading) {
	switch {
	case r.Field == cosem.FieldTimestamp:
		if !r.Time.IsZero() {
			self.timestamp.Set(float64(r.Time.UnixNano()) / 1e9)
		}
	case r.IsText():
		g, err := self.info.GetMetricWithLabelValues(r.Field.String(), r.Text)
		if err != nil {
			self.Log.Errorf("metrics field=%s text=%q: %v", r.Field, r.Text, err)
			return
		}
		self.mu.Lock()
		old := self.lastText[r.Field]
		self.lastText[r.Field] = r.Text
		self.mu.Unlock()
		if old != r.Text {
			self.info.DeleteLabelValues(r.Field.String(), old)
		}
		g.Set(1)
	default:
		g, err := self.values.GetMetricWithLabelValues(r.Field.String(), r.Unit.String())
		if err != nil {
			self.Log.Errorf("metrics field=%s: %v", r.Field, err)
			return
		}
		g.Set(r.Number)
	}
}
