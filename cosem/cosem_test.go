package cosem

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/temoto/dlms-meter/internal/testutil"
	"github.com/temoto/dlms-meter/mbus"
)

var goldenSystemTitle = [SystemTitleLength]byte{'K', 'F', 'M', 0x67, 0x50, 0x00, 0x0b, 0x4b}

func goldenKey(t testing.TB) SecretKey {
	t.Helper()
	k, err := NewSecretKey(testutil.LoadHex(t, testutil.GoldenKey))
	require.NoError(t, err)
	return k
}

// goldenAPDU joins link frame fragments of a testdata stream.
func goldenAPDU(t testing.TB, rel string) []byte {
	t.Helper()
	stream := testutil.LoadHex(t, rel)
	a := mbus.NewAssembler(nil)
	for len(stream) > 0 {
		l := int(stream[1]) + mbus.Overhead
		f, err := mbus.Validate(stream[:l])
		require.NoError(t, err)
		apdu, err := a.Add(f)
		require.NoError(t, err)
		if apdu != nil {
			return append([]byte(nil), apdu...)
		}
		stream = stream[l:]
	}
	t.Fatalf("%s: no final segment", rel)
	return nil
}

func testDecrypt(t testing.TB, apdu []byte, requireAuth bool) ([]byte, error) {
	t.Helper()
	h, err := ParseHeader(apdu)
	if err != nil {
		return nil, err
	}
	d, err := NewDecrypter(goldenKey(t), requireAuth)
	require.NoError(t, err)
	return d.Open(&h)
}
