package db

import (
	"testing"
	"time"
)

func TestFormatMySQLValue(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123456000, time.UTC)

	tests := []struct {
		name     string
		val      any
		typeName string
		want     string
	}{
		{"null", nil, "VARCHAR", "[NULL]"},
		{"text bytes", []byte("hello"), "VARCHAR", "hello"},
		{"binary bytes", []byte{0x00, 0xff, 0x0a}, "BLOB", "00 ff 0a"},
		{"invalid utf8", []byte{0xc3, 0x28}, "VARBINARY", "c3 28"},
		{"empty bytes", []byte{}, "BLOB", ""},
		{"int64", int64(-42), "BIGINT", "-42"},
		{"uint64", uint64(18446744073709551615), "BIGINT", "18446744073709551615"},
		{"float64", 3.5, "DOUBLE", "3.5"},
		{"large float stays decimal", 1e21, "DOUBLE", "1000000000000000000000"},
		{"float32", float32(0.25), "FLOAT", "0.25"},
		{"datetime", ts, "DATETIME", "2024-03-09 14:05:07.123456"},
		{"date", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "DATE", "2024-01-02 00:00:00.000000"},
		{"zero date", time.Time{}, "DATETIME", "0000-00-00 00:00:00.000000"},
		{"time interval", []byte("26:03:04"), "TIME", "+01:02:03:04.000000"},
		{"negative time", []byte("-838:59:59.5"), "TIME", "-34:22:59:59.500000"},
		{"time that is not a clock", []byte("n/a"), "TIME", "n/a"},
		{"decimal text", []byte("12.3400"), "DECIMAL", "12.3400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMySQLValue(tt.val, tt.typeName); got != tt.want {
				t.Errorf("FormatMySQLValue(%v, %q) = %q, want %q", tt.val, tt.typeName, got, tt.want)
			}
		})
	}
}

func TestFormatTimeInterval(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"00:00:00", "+00:00:00:00.000000", true},
		{"12:30:45.000001", "+00:12:30:45.000001", true},
		{"48:00:00", "+02:00:00:00.000000", true},
		{"-01:00:00", "-00:01:00:00.000000", true},
		{"1:2", "", false},
		{"aa:bb:cc", "", false},
	}

	for _, tt := range tests {
		got, ok := FormatTimeInterval(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("FormatTimeInterval(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFormatHex(t *testing.T) {
	if got := FormatHex([]byte{0xde, 0xad, 0xbe, 0xef}); got != "de ad be ef" {
		t.Errorf("FormatHex() = %q", got)
	}
	if got := FormatHex(nil); got != "" {
		t.Errorf("FormatHex(nil) = %q, want empty", got)
	}
}
