package models

import "testing"

func TestConnectionConfig_Host(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"mysql://u:p@localhost/db", "localhost"},
		{"postgres://app@db.internal:5432/dw?sslmode=disable", "db.internal:5432"},
		{"mysql://u:p@10.0.0.1:3306", "10.0.0.1:3306"},
		{"postgres://localhost/db", ""},
		{"host=localhost user=app", ""},
		{"", ""},
	}

	for _, tt := range tests {
		got := ConnectionConfig{URI: tt.uri}.Host()
		if got != tt.want {
			t.Errorf("Host(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestConnectionConfig_Info(t *testing.T) {
	cfg := ConnectionConfig{Name: "local", URI: "mysql://u:p@localhost/db", Driver: DriverMySQL}

	info := cfg.Info(3)
	if info != (ConnectionInfo{ID: 3, Name: "local", Host: "localhost"}) {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestDriverFromURI(t *testing.T) {
	tests := []struct {
		uri    string
		want   DriverKind
		wantOK bool
	}{
		{"mysql://u@h/db", DriverMySQL, true},
		{"MariaDB://u@h/db", DriverMySQL, true},
		{"postgres://u@h/db", DriverPostgres, true},
		{"postgresql://u@h/db", DriverPostgres, true},
		{"oracle://u@h/db", "", false},
		{"user:pass@tcp(localhost:3306)/db", "", false},
	}

	for _, tt := range tests {
		got, ok := DriverFromURI(tt.uri)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("DriverFromURI(%q) = %q, %v; want %q, %v", tt.uri, got, ok, tt.want, tt.wantOK)
		}
	}
}
