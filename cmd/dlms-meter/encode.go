package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/juju/errors"
	"github.com/temoto/dlms-meter/cosem"
	"github.com/temoto/dlms-meter/helpers"
	"github.com/temoto/dlms-meter/mbus"
	"github.com/temoto/dlms-meter/state"
)

const defaultSystemTitle = "4b464d675000 0b4b"

func encodeMain(ctx context.Context, config *state.Config, args []string) error {
	flagset := flag.NewFlagSet("encode", flag.ContinueOnError)
	counter := flagset.Uint("counter", 1, "invocation counter")
	security := flagset.String("security", "30", "security control byte, hex")
	title := flagset.String("system-title", defaultSystemTitle, "8 bytes, hex")
	if err := flagset.Parse(args); err != nil {
		return err
	}
	if flagset.NArg() != 1 {
		return errors.BadRequestf("encode: expected one plaintext hex argument")
	}
	sc, err := strconv.ParseUint(*security, 16, 8)
	if err != nil {
		return errors.NotValidf("security=%s", *security)
	}
	key, err := config.SecretKey()
	if err != nil {
		return errors.Annotate(err, "encode")
	}
	s, err := encodeFrames(key, *title, byte(sc), uint32(*counter), flagset.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, s)
	return nil
}

// encodeFrames seals plaintext and splits the APDU into link frames, hex.
func encodeFrames(key cosem.SecretKey, titleHex string, security byte, counter uint32, plainHex string) (string, error) {
	var title [cosem.SystemTitleLength]byte
	tb, err := helpers.ParseHex(titleHex)
	if err != nil || len(tb) != len(title) {
		return "", errors.NotValidf("system-title=%s", titleHex)
	}
	copy(title[:], tb)
	plain, err := helpers.ParseHex(plainHex)
	if err != nil {
		return "", errors.Annotate(err, "plaintext")
	}
	apdu, err := cosem.Seal(key, title, security, counter, plain)
	if err != nil {
		return "", errors.Annotate(err, "seal")
	}
	frames, err := mbus.Encode(apdu)
	if err != nil {
		return "", errors.Annotate(err, "frame")
	}
	return hex.EncodeToString(frames), nil
}
