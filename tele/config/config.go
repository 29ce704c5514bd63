package tele_config

// Config is the `mqtt { ... }` block.
type Config struct {
	Enabled           bool   `hcl:"enable"`
	Broker            string `hcl:"broker"`
	ClientID          string `hcl:"client_id"`
	Username          string `hcl:"username"`
	Password          string `hcl:"password"`
	TopicPrefix       string `hcl:"topic_prefix"`
	RawTopic          string `hcl:"raw_topic"`
	RawMode           string `hcl:"raw_mode"`
	PersistPath       string `hcl:"persist_path"`
	StorePath         string `hcl:"store_path"`
	KeepaliveSec      int    `hcl:"keepalive_sec"`
	NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
	Retain            bool   `hcl:"retain"`
	LogDebug          bool   `hcl:"log_debug"`
}

const (
	DefaultClientID    = "dlms-meter"
	DefaultTopicPrefix = "dlms-meter"
)

func (c *Config) ClientIDOrDefault() string {
	if c.ClientID == "" {
		return DefaultClientID
	}
	return c.ClientID
}

func (c *Config) TopicPrefixOrDefault() string {
	if c.TopicPrefix == "" {
		return DefaultTopicPrefix
	}
	return c.TopicPrefix
}
