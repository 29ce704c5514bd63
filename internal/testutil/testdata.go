// Package testutil loads fixtures from the repo testdata directory
// and builds DLMS payload bytes for tests.
package testutil

import (
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
)

// LoadJSON loads a JSON fixture from testdata relative to the repo root.
func LoadJSON(t testing.TB, rel string, v interface{}) {
	t.Helper()
	data := readTestdata(t, rel)
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", rel, err)
	}
}

// LoadHex returns decoded bytes of a hex fixture, whitespace ignored.
func LoadHex(t testing.TB, rel string) []byte {
	t.Helper()
	s := strings.Join(strings.Fields(string(readTestdata(t, rel))), "")
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex %s: %v", rel, err)
	}
	return b
}

func readTestdata(t testing.TB, rel string) []byte {
	t.Helper()
	candidates := []string{
		filepath.Join("testdata", rel),
		filepath.Join("..", "testdata", rel),
		filepath.Join("..", "..", "testdata", rel),
	}
	for _, path := range candidates {
		if data, err := ioutil.ReadFile(path); err == nil {
			return data
		}
	}
	t.Fatalf("unable to locate testdata file %s", rel)
	return nil
}

const (
	GoldenKey      = "kaifa/golden.key"
	GoldenSealed   = "kaifa/golden_sc30.hex"
	GoldenPlain    = "kaifa/golden_sc30.plain.hex"
	GoldenUnsealed = "kaifa/golden_sc20.hex"
	GoldenExpect   = "kaifa/golden.json"
)
