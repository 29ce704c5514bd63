package tele

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/juju/errors"
	"github.com/temoto/spq"
	"github.com/temoto/dlms-meter/helpers"
	"github.com/temoto/dlms-meter/log2"
	"github.com/temoto/dlms-meter/meter"
	tele_api "github.com/temoto/dlms-meter/tele"
	tele_config "github.com/temoto/dlms-meter/tele/config"
)

const DefaultNetworkTimeout = 30 * time.Second

// Tele contract:
// - Init() fails only with invalid config, network issues ignored
// - Update/UpdateRaw block at most for disk write,
//   network may be slow or absent, messages will be delivered in background
// - messages not delivered before Close() stay in persistent queue for next start
// - readings delivered at least once
type tele struct { //nolint:maligned
	config    tele_config.Config
	log       *log2.Log
	transport Transporter
	q         *spq.Queue
	stat      *tele_api.Stat
	backoff   helpers.Backoff
	rawMode   meter.RawMode
	stopCh    chan struct{}
	doneCh    chan struct{}

	topicPrefix string
}

// New with nil stat counts into unregistered collectors.
func New(stat *tele_api.Stat) tele_api.Teler {
	return NewWithTransporter(nil, stat)
}
func NewWithTransporter(trans Transporter, stat *tele_api.Stat) tele_api.Teler {
	if stat == nil {
		stat, _ = tele_api.NewStat(nil)
	}
	return &tele{transport: trans, stat: stat}
}

func (self *tele) Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config) error {
	self.config = teleConfig
	self.log = log
	if self.config.LogDebug {
		self.log.SetLevel(log2.LDebug)
	}
	if !self.config.Enabled {
		return nil
	}

	var err error
	if self.rawMode, err = meter.ParseRawMode(self.config.RawMode); err != nil {
		return errors.Annotate(err, "tele")
	}
	self.topicPrefix = self.config.TopicPrefixOrDefault()
	if self.backoff.Max == 0 {
		self.backoff = helpers.Backoff{Min: time.Second, Max: DefaultNetworkTimeout, K: 2}
	}

	// test code sets .transport
	if self.transport == nil { // production path
		self.transport = &transportMqtt{}
	}
	if err := self.transport.Init(ctx, log, teleConfig); err != nil {
		return errors.Annotate(err, "tele transport")
	}

	if self.config.PersistPath == "" {
		panic("code error must set self.config.PersistPath")
	}
	self.q, err = spq.Open(self.config.PersistPath)
	if err != nil {
		return errors.Annotate(err, "tele queue")
	}

	self.stopCh = make(chan struct{})
	self.doneCh = make(chan struct{})
	go self.qworker()
	return nil
}

func (self *tele) Close() {
	if self.q == nil {
		return
	}
	close(self.stopCh)
	_ = self.q.Close()
	<-self.doneCh
	self.transport.Close()
}

func (self *tele) Update(r meter.Reading) {
	if self.q == nil {
		return
	}
	if err := self.qpushTagProto(qReading, tele_api.NewReading(r)); err != nil {
		self.log.Error(errors.Annotatef(err, "tele push field=%s", r.Field))
	}
}

func (self *tele) UpdateRaw(mode meter.RawMode, b []byte) {
	if self.q == nil || self.config.RawTopic == "" || mode != self.rawMode {
		return
	}
	raw := &tele_api.Raw{
		Mode:     mode.String(),
		Payload:  b,
		Received: time.Now().UnixNano(),
	}
	if err := self.qpushTagProto(qRaw, raw); err != nil {
		self.log.Error(errors.Annotatef(err, "tele push raw mode=%s", mode))
	}
}

// denote value type in persistent queue bytes form
const (
	qReading byte = 1
	qRaw     byte = 2
)

func (self *tele) qworker() {
	defer close(self.doneCh)
	for {
		box, err := self.q.Peek()
		switch err {
		case nil:
			// success path
			b := box.Bytes()
			var del bool
			del, err = self.qhandle(b)
			if err != nil {
				self.log.Errorf("tele qhandle b=%x err=%v", b, err)
			}
			if del {
				if err = self.q.Delete(box); err != nil {
					self.log.Errorf("tele qhandle Delete b=%x err=%v", b, err)
				}
				self.backoff.Reset()
				continue
			}
			self.stat.Messages.WithLabelValues("retry").Inc()
			if err = self.q.DeletePush(box); err != nil {
				self.log.Errorf("tele qhandle DeletePush b=%x err=%v", b, err)
			}
			delay := self.backoff.DelayAfter(false)
			self.log.Debugf("tele publish retry failures=%d delay=%v", self.backoff.Failures(), delay)
			if !self.sleep(delay) {
				return
			}

		case spq.ErrClosed:
			select {
			case <-self.stopCh: // success path
			default:
				self.log.Errorf("CRITICAL tele spq closed unexpectedly")
			}
			return

		default:
			self.log.Errorf("CRITICAL tele spq err=%v", err)
			if !self.sleep(self.backoff.Max) {
				return
			}
		}
	}
}

func (self *tele) sleep(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-time.After(d):
		return true
	case <-self.stopCh:
		return false
	}
}

// qhandle returns true when the item must leave the queue.
func (self *tele) qhandle(b []byte) (bool, error) {
	if len(b) == 0 {
		self.stat.Messages.WithLabelValues("dropped").Inc()
		return true, errors.Errorf("tele spq peek=empty")
	}

	switch b[0] {
	case qReading:
		var r tele_api.Reading
		if err := proto.Unmarshal(b[1:], &r); err != nil {
			self.stat.Messages.WithLabelValues("dropped").Inc()
			return true, err
		}
		return self.qsend(tele_api.TopicField(self.topicPrefix, r.Field), self.config.Retain, []byte(r.Value())), nil

	case qRaw:
		var r tele_api.Raw
		if err := proto.Unmarshal(b[1:], &r); err != nil {
			self.stat.Messages.WithLabelValues("dropped").Inc()
			return true, err
		}
		return self.qsend(self.config.RawTopic, false, []byte(hex.EncodeToString(r.Payload))), nil

	default:
		self.stat.Messages.WithLabelValues("dropped").Inc()
		return true, errors.Errorf("unknown kind=%d", b[0])
	}
}

func (self *tele) qsend(topic string, retain bool, payload []byte) bool {
	ok := self.transport.Publish(topic, retain, payload)
	if ok {
		self.stat.Messages.WithLabelValues("sent").Inc()
	}
	return ok
}

func (self *tele) qpushTagProto(tag byte, pb proto.Message) error {
	buf := proto.NewBuffer(make([]byte, 0, 256))
	if err := buf.EncodeVarint(uint64(tag)); err != nil {
		return err
	}
	if err := buf.Marshal(pb); err != nil {
		return err
	}
	if err := self.q.Push(buf.Bytes()); err != nil {
		return err
	}
	self.stat.Queued.Inc()
	return nil
}
