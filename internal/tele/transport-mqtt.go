package tele

import (
	"context"
	"net/url"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/dlms-meter/helpers"
	"github.com/temoto/dlms-meter/log2"
	tele_api "github.com/temoto/dlms-meter/tele"
	tele_config "github.com/temoto/dlms-meter/tele/config"
)

type transportMqtt struct {
	log            *log2.Log
	m              mqtt.Client
	mopt           *mqtt.ClientOptions
	networkTimeout time.Duration
	topicStatus    string
}

func (self *transportMqtt) Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config) error {
	self.log = log
	mqtt.ERROR = log
	mqtt.CRITICAL = log
	mqtt.WARN = log
	if teleConfig.LogDebug {
		mqtt.DEBUG = log
	}

	if _, err := url.ParseRequestURI(teleConfig.Broker); err != nil {
		return errors.Annotatef(err, "mqtt broker=%s", teleConfig.Broker)
	}

	self.topicStatus = tele_api.TopicStatus(teleConfig.TopicPrefixOrDefault())
	keepAlive := helpers.IntSecondDefault(teleConfig.KeepaliveSec, 60*time.Second)
	self.networkTimeout = helpers.IntSecondDefault(teleConfig.NetworkTimeoutSec, DefaultNetworkTimeout)
	if self.networkTimeout < time.Second {
		self.networkTimeout = time.Second
	}
	self.mopt = mqtt.NewClientOptions().
		AddBroker(teleConfig.Broker).
		SetBinaryWill(self.topicStatus, []byte(tele_api.StatusOffline), 1, true).
		SetClientID(teleConfig.ClientIDOrDefault()).
		SetUsername(teleConfig.Username).
		SetPassword(teleConfig.Password).
		SetKeepAlive(keepAlive).
		SetPingTimeout(self.networkTimeout).
		SetWriteTimeout(self.networkTimeout).
		SetOrderMatters(false).
		SetCleanSession(true).
		SetConnectRetryInterval(self.networkTimeout / 2).
		SetConnectRetry(true).
		SetAutoReconnect(true).
		SetOnConnectHandler(self.onConnectHandler).
		SetConnectionLostHandler(self.connectLostHandler)
	if teleConfig.StorePath != "" {
		self.mopt.SetStore(mqtt.NewFileStore(teleConfig.StorePath))
	}
	self.m = mqtt.NewClient(self.mopt)
	// with connect retry, token completes only after first success
	if token := self.m.Connect(); token.Error() != nil {
		self.log.Errorf("mqtt connect: %v", token.Error())
	}
	return nil
}

func (self *transportMqtt) Close() {
	if self.m == nil {
		return
	}
	if self.m.IsConnected() {
		self.m.Publish(self.topicStatus, 1, true, []byte(tele_api.StatusOffline)).WaitTimeout(self.networkTimeout)
	}
	self.m.Disconnect(uint(self.networkTimeout / time.Millisecond))
	self.log.Infof("mqtt disconnect")
}

func (self *transportMqtt) Publish(topic string, retain bool, payload []byte) bool {
	token := self.m.Publish(topic, 1, retain, payload)
	if !token.WaitTimeout(self.networkTimeout) {
		self.log.Debugf("mqtt publish topic=%s timeout=%v", topic, self.networkTimeout)
		return false
	}
	if err := token.Error(); err != nil {
		self.log.Debugf("mqtt publish topic=%s err=%v", topic, err)
		return false
	}
	return true
}

func (self *transportMqtt) connectLostHandler(c mqtt.Client, err error) {
	self.log.Infof("mqtt connection lost: %v", err)
}

func (self *transportMqtt) onConnectHandler(c mqtt.Client) {
	self.log.Infof("mqtt connect")
	c.Publish(self.topicStatus, 1, true, []byte(tele_api.StatusOnline))
}
