package models

import "strings"

// DriverKind identifies the database backend of a connection.
type DriverKind string

const (
	DriverMySQL    DriverKind = "mysql"
	DriverPostgres DriverKind = "postgres"
)

// String returns the kind as stored in the connections file.
func (k DriverKind) String() string {
	return string(k)
}

// DriverFromURI guesses the driver kind from a URI scheme.
func DriverFromURI(uri string) (DriverKind, bool) {
	scheme, _, ok := strings.Cut(uri, "://")
	if !ok {
		return "", false
	}
	switch strings.ToLower(scheme) {
	case "mysql", "mariadb":
		return DriverMySQL, true
	case "postgres", "postgresql":
		return DriverPostgres, true
	}
	return "", false
}
