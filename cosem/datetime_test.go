package cosem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/dlms-meter/helpers"
)

func TestDateTime(t *testing.T) {
	t.Parallel()
	type Case struct {
		name   string
		input  string
		expect string
		unix   int64
	}
	cases := []Case{
		{"unspecified-deviation", "07e9030e050c2238ff800000", "2025-03-14T12:34:56Z", 1741955696},
		{"utc", "07e9030e050c223800000000", "2025-03-14T12:34:56Z", 1741955696},
		{"cet", "07e9030e050c2238ffffc400", "2025-03-14T12:34:56+01:00", 1741952096},
		{"west", "07e9030e050c223800007800", "2025-03-14T12:34:56-02:00", 1741962896},
	}
	helpers.RandUnix().Shuffle(len(cases), func(i int, j int) { cases[i], cases[j] = cases[j], cases[i] })
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			dt, err := ParseDateTime(helpers.MustHex(c.input))
			require.NoError(t, err)
			assert.Equal(t, c.expect, dt.String())
			assert.Equal(t, c.unix, dt.Time().Unix())
		})
	}
}

func TestDateTimeHundredths(t *testing.T) {
	t.Parallel()
	dt, err := ParseDateTime(helpers.MustHex("07e9030e050c223832800000"))
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, time.Duration(dt.Time().Nanosecond()))
	assert.Equal(t, "2025-03-14T12:34:56Z", dt.String())

	_, err = ParseDateTime(helpers.MustHex("07e9030e"))
	assert.Error(t, err)
}
