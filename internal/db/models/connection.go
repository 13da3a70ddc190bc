// Package models defines the data structures shared by the connection
// manager, the database drivers and the storage layers.
package models

import "strings"

// ConnectionConfig is a user-defined connection as it is persisted.
// It never carries a live handle or derived display fields.
type ConnectionConfig struct {
	Name   string     `json:"name"`
	URI    string     `json:"uri"`
	Driver DriverKind `json:"driver"`
}

// Host returns the display host for the connection URI: the text after the
// first '@' up to the next '/'. It returns an empty string when the URI has
// no '@'. This is for display only and must not drive connection logic.
func (c ConnectionConfig) Host() string {
	_, rest, ok := strings.Cut(c.URI, "@")
	if !ok {
		return ""
	}
	host, _, _ := strings.Cut(rest, "/")
	return host
}

// Info builds the display view of the connection at the given position.
func (c ConnectionConfig) Info(id int) ConnectionInfo {
	return ConnectionInfo{
		ID:   id,
		Name: c.Name,
		Host: c.Host(),
	}
}

// ConnectionInfo is what callers see of a configured connection.
// The raw URI is never exposed because it may contain credentials.
type ConnectionInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Host string `json:"host"`
}
