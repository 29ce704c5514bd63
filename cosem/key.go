package cosem

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/juju/errors"
)

const KeyLength = 16

const keyRedacted = "SecretKey(redacted)"

// SecretKey is the AES-128 global unicast encryption key.
// It prints as redacted in every fmt verb.
type SecretKey struct {
	b   [KeyLength]byte
	set bool
}

func NewSecretKey(b []byte) (SecretKey, error) {
	var k SecretKey
	if len(b) != KeyLength {
		return k, errors.NotValidf("key length=%d expected=%d", len(b), KeyLength)
	}
	copy(k.b[:], b)
	k.set = true
	return k, nil
}

// ParseKey accepts 32 hex chars, optional spaces or colons between bytes.
// Errors never contain the input.
func ParseKey(s string) (SecretKey, error) {
	s = strings.NewReplacer(" ", "", ":", "", "\t", "", "\n", "").Replace(s)
	if len(s) != KeyLength*2 {
		return SecretKey{}, errors.NotValidf("key hex length=%d expected=%d", len(s), KeyLength*2)
	}
	var buf [KeyLength]byte
	if _, err := hex.Decode(buf[:], []byte(s)); err != nil {
		return SecretKey{}, errors.NotValidf("key hex encoding")
	}
	return NewSecretKey(buf[:])
}

func MustParseKey(s string) SecretKey {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

func (k SecretKey) IsZero() bool { return !k.set }

func (k SecretKey) String() string   { return keyRedacted }
func (k SecretKey) GoString() string { return keyRedacted }
func (k SecretKey) Format(f fmt.State, verb rune) {
	_, _ = io.WriteString(f, keyRedacted)
}
