package tele

import (
	"context"

	"github.com/temoto/dlms-meter/log2"
	tele_config "github.com/temoto/dlms-meter/tele/config"
)

// Tele transport contract:
// - Init fails only with invalid config, ignores network errors
// - Publish delivers within network timeout or fails; false means retry later
// - application may start without network available
type Transporter interface {
	Init(ctx context.Context, log *log2.Log, teleConfig tele_config.Config) error
	Publish(topic string, retain bool, payload []byte) bool
	Close()
}
