package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/dlms-meter/cosem"
	"github.com/temoto/dlms-meter/fault"
	"github.com/temoto/dlms-meter/helpers"
	"github.com/temoto/dlms-meter/helpers/cli"
	"github.com/temoto/dlms-meter/log2"
	"github.com/temoto/dlms-meter/mbus"
	"github.com/temoto/dlms-meter/meter"
	"github.com/temoto/dlms-meter/state"
)

func decodeMain(ctx context.Context, config *state.Config, args []string) error {
	g := state.GetGlobal(ctx)
	key, err := config.SecretKey()
	if err != nil {
		return errors.Annotate(err, "decode")
	}
	d, err := newDecodeCmd(meter.Config{
		Key:                   key,
		RequireAuthentication: config.RequireAuth(),
		IdleTimeout:           config.IdleTimeout(),
	}, os.Stdout, g.Log)
	if err != nil {
		return err
	}
	return cli.MainLoop("dlms-meter decode", d.exec, cli.NoComplete)
}

// decodeCmd prints every field, regardless of config bindings.
// Lines starting with 68 are link frames, others are APDU.
type decodeCmd struct {
	m *meter.Meter
	w io.Writer
}

func newDecodeCmd(mc meter.Config, w io.Writer, log *log2.Log) (*decodeCmd, error) {
	d := &decodeCmd{w: w}
	p := meter.NewPublisher()
	out := meter.SinkFunc(func(r meter.Reading) { fmt.Fprintln(d.w, r.String()) })
	for f := cosem.Field(0); f < cosem.FieldCount; f++ {
		if err := p.Bind(f, out); err != nil {
			return nil, errors.Annotate(err, "decode bind")
		}
	}
	m, err := meter.New(mc, p, log)
	if err != nil {
		return nil, err
	}
	m.OnState = func(s meter.State) {
		if s == meter.StateDiscarded {
			fmt.Fprintf(d.w, "state %s\n", s)
		}
	}
	d.m = m
	return d, nil
}

func (self *decodeCmd) exec(line string) {
	b, err := helpers.ParseHex(line)
	if err != nil {
		fmt.Fprintf(self.w, "error: hex: %v\n", err)
		return
	}
	if len(b) == 0 {
		return
	}
	if b[0] == mbus.StartByte {
		self.m.Feed(b)
		return
	}
	if _, err := self.m.ProcessTelegram(b); err != nil {
		fmt.Fprintf(self.w, "error: %s %v\n", fault.Classify(err), err)
	}
}
