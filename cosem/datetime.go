package cosem

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/temoto/dlms-meter/fault"
)

const DeviationUnspecified int16 = -0x8000

// DateTime is the 12 byte COSEM date-time:
// year(2) month day weekday hour minute second hundredths deviation(2) status.
type DateTime struct {
	Year       uint16
	Month      uint8
	Day        uint8
	Weekday    uint8
	Hour       uint8
	Minute     uint8
	Second     uint8
	Hundredths uint8
	// Minutes, local time = UTC - Deviation.
	Deviation int16
	Status    uint8
}

func ParseDateTime(b []byte) (DateTime, error) {
	if len(b) != DateTimeLength {
		return DateTime{}, fault.Malformedf("date-time length=%d expected=%d", len(b), DateTimeLength)
	}
	return DateTime{
		Year:       binary.BigEndian.Uint16(b[0:]),
		Month:      b[2],
		Day:        b[3],
		Weekday:    b[4],
		Hour:       b[5],
		Minute:     b[6],
		Second:     b[7],
		Hundredths: b[8],
		Deviation:  int16(binary.BigEndian.Uint16(b[9:])),
		Status:     b[11],
	}, nil
}

func (d DateTime) HasDeviation() bool { return d.Deviation != DeviationUnspecified }

// Time ignores unspecified (0xff) hundredths; meters report clock without deviation as UTC.
func (d DateTime) Time() time.Time {
	loc := time.UTC
	if d.HasDeviation() {
		loc = time.FixedZone("", -int(d.Deviation)*60)
	}
	ns := 0
	if d.Hundredths < 100 {
		ns = int(d.Hundredths) * int(10*time.Millisecond)
	}
	return time.Date(int(d.Year), time.Month(d.Month), int(d.Day), int(d.Hour), int(d.Minute), int(d.Second), ns, loc)
}

// String is YYYY-MM-DDThh:mm:ssZ without deviation, RFC 3339 with offset otherwise.
func (d DateTime) String() string {
	if !d.HasDeviation() {
		return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
	}
	return d.Time().Format(time.RFC3339)
}
