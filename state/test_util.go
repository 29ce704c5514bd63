package state

import (
	"context"
	"testing"

	"github.com/temoto/dlms-meter/log2"
	tele_api "github.com/temoto/dlms-meter/tele"
)

// NewTestContext reads inline config; MQTT publication is replaced with teler or Noop.
func NewTestContext(t testing.TB, confString string, teler tele_api.Teler) (context.Context, *Global) {
	fs := NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	log := log2.NewTest(t, log2.LDebug)
	log.SetFlags(log2.LTestFlags)
	if teler == nil {
		teler = tele_api.Noop{}
	}
	ctx, g := NewContext(log, teler)
	g.MustInit(ctx, MustReadConfig(log, fs, "test-inline"))
	return ctx, g
}
