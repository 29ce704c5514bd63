package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/dlms-meter/cmd/dlms-meter/subcmd"
	"github.com/temoto/dlms-meter/log2"
	"github.com/temoto/dlms-meter/state"
)

var log = log2.NewStderr(log2.LInfo)

var modules = []subcmd.Mod{
	{Name: "run", Usage: "read serial line, publish readings", Main: runMain},
	{Name: "decode", Usage: "decode hex frames or telegrams from terminal or stdin", Main: decodeMain},
	{Name: "encode", Usage: "[-counter N] [-security hex] [-system-title hex] plaintext-hex", Main: encodeMain},
}

func main() {
	flagset := flag.NewFlagSet("dlms-meter", flag.ExitOnError)
	flagConfig := flagset.String("config", "dlms-meter.hcl", "")
	flagset.Usage = func() {
		fmt.Fprintf(flagset.Output(), "Usage: %s [-config file] command [args]\n\nCommands:\n", flagset.Name())
		for _, m := range modules {
			fmt.Fprintf(flagset.Output(), "  %-8s %s\n", m.Name, m.Usage)
		}
		fmt.Fprintln(flagset.Output())
		flagset.PrintDefaults()
	}
	_ = flagset.Parse(os.Args[1:])

	mod, err := subcmd.Parse(flagset.Arg(0), modules)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flagset.Usage()
		os.Exit(2)
	}

	if subcmd.SdNotify("start") {
		// under systemd assume journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	config := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	ctx, _ := state.NewContext(log, nil)
	if err := mod.Main(ctx, config, flagset.Args()[1:]); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}
