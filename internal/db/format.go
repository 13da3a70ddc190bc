package db

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// NullDisplayValue is the string shown for NULL values.
const NullDisplayValue = "[NULL]"

// UnsupportedDisplayValue replaces rows whose wire format cannot be rendered.
const UnsupportedDisplayValue = "Error: Type unimplemented"

// DateTimeLayout renders date and timestamp values.
const DateTimeLayout = "2006-01-02 15:04:05.000000"

// zeroDateTime is how MySQL's zero date is rendered.
const zeroDateTime = "0000-00-00 00:00:00.000000"

// FormatBytes renders bytes as text when they are valid UTF-8 and as
// space-separated lowercase hex otherwise.
func FormatBytes(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return FormatHex(b)
}

// FormatHex renders each byte as two lowercase hex digits separated by a space.
func FormatHex(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(b) * 3)
	enc := make([]byte, 2)
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		hex.Encode(enc, []byte{c})
		sb.Write(enc)
	}
	return sb.String()
}

// FormatDateTime renders t with microsecond precision.
// The zero time renders as MySQL's zero date.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return zeroDateTime
	}
	return t.Format(DateTimeLayout)
}

// FormatTimeInterval converts a MySQL TIME value ("[-]HHH:MM:SS[.ffffff]")
// into the signed "±DD:HH:MM:SS.ffffff" form. ok is false when s is not a
// TIME value.
func FormatTimeInterval(s string) (string, bool) {
	sign := "+"
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	clock, frac, _ := strings.Cut(s, ".")
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return "", false
	}

	var hms [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return "", false
		}
		hms[i] = n
	}

	micros := 0
	if frac != "" {
		if len(frac) > 6 {
			frac = frac[:6]
		}
		frac += strings.Repeat("0", 6-len(frac))
		n, err := strconv.Atoi(frac)
		if err != nil {
			return "", false
		}
		micros = n
	}

	hours := hms[0]
	return fmt.Sprintf("%s%02d:%02d:%02d:%02d.%06d",
		sign, hours/24, hours%24, hms[1], hms[2], micros), true
}

// formatFloat renders a float in plain decimal notation with the shortest
// representation that round-trips.
func formatFloat(f float64, bitSize int) string {
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}
