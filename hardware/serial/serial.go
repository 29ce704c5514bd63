// Package serial reads the meter's wired M-Bus line through a local UART.
package serial

import (
	"fmt"
	"strings"
	"time"

	"github.com/juju/errors"
)

const (
	DefaultBaud        = 2400
	DefaultReadTimeout = 100 * time.Millisecond
)

type Parity byte

const (
	ParityEven Parity = iota
	ParityNone
	ParityOdd
)

func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(s) {
	case "", "even", "e":
		return ParityEven, nil
	case "none", "n":
		return ParityNone, nil
	case "odd", "o":
		return ParityOdd, nil
	}
	return ParityEven, errors.NotValidf("serial parity=%s", s)
}

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	}
	return "invalid"
}

type Config struct {
	Device      string
	Baud        int
	Parity      Parity
	ReadTimeout time.Duration
}

func (c *Config) baud() int {
	if c.Baud == 0 {
		return DefaultBaud
	}
	return c.Baud
}

func (c *Config) readTimeout() time.Duration {
	if c.ReadTimeout <= 0 {
		return DefaultReadTimeout
	}
	return c.ReadTimeout
}

func (c *Config) String() string {
	return fmt.Sprintf("%s %d 8%s1", c.Device, c.baud(), strings.ToUpper(c.Parity.String()[:1]))
}

type ErrTimeoutT string

func (e ErrTimeoutT) Error() string { return string(e) }
func (ErrTimeoutT) Timeout() bool   { return true }

const ErrTimeout = ErrTimeoutT("serial read timeout")
