package helpers

import (
	"encoding/hex"
	"strings"
)

var hexSeparators = strings.NewReplacer(" ", "", ":", "", "\t", "", "\n", "", "\r", "")

// ParseHex accepts bytes separated by spaces, colons or newlines,
// as meter tools and manuals print them.
func ParseHex(s string) ([]byte, error) {
	return hex.DecodeString(hexSeparators.Replace(s))
}

func MustHex(s string) []byte {
	b, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return b
}

// FormatHex groups 4 bytes per word for frame dumps: "68050568 53".
func FormatHex(b []byte) string {
	h := hex.EncodeToString(b)
	var sb strings.Builder
	sb.Grow(len(h) + len(h)/8)
	for i := 0; i < len(h); i += 8 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		hi := i + 8
		if hi > len(h) {
			hi = len(h)
		}
		sb.WriteString(h[i:hi])
	}
	return sb.String()
}
