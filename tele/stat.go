package tele

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Stat counts queue outcomes: result=sent|retry|dropped.
type Stat struct {
	Messages *prometheus.CounterVec
	Queued   prometheus.Counter
}

func NewStat(reg prometheus.Registerer) (*Stat, error) {
	s := &Stat{
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dlms_meter", Subsystem: "mqtt", Name: "messages_total",
			Help: "Queued messages handled by the publisher.",
		}, []string{"result"}),
		Queued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dlms_meter", Subsystem: "mqtt", Name: "queued_total",
			Help: "Messages pushed to persistent queue.",
		}),
	}
	for _, r := range []string{"sent", "retry", "dropped"} {
		s.Messages.WithLabelValues(r)
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{s.Messages, s.Queued} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}
