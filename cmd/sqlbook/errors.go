package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/willibrandon/sqlbook/internal/ipc"
)

// formatError renders an error for the terminal. Connection failures
// reported by the server get troubleshooting guidance.
func formatError(err error) string {
	var ipcErr *ipc.Error
	if !errors.As(err, &ipcErr) {
		return err.Error()
	}

	switch ipcErr.Code {
	case ipc.ErrCodeConnectFailed:
		return FormatConnectionError(ipcErr.Message)
	case ipc.ErrCodeIndexOutOfRange:
		return ipcErr.Message + "\n\nList connection ids with: sqlbook conn list"
	case ipc.ErrCodeUnknownDriver:
		return ipcErr.Message + "\n\nSupported drivers: mysql, postgres"
	}
	return ipcErr.Message
}

// FormatConnectionError formats a connection error with actionable guidance
func FormatConnectionError(errMsg string) string {
	if strings.Contains(errMsg, "connection refused") {
		return fmt.Sprintf(
			"Connection refused: the database server is not accepting connections.\n\n"+
				"Troubleshooting steps:\n"+
				"  1. Verify the server is running:\n"+
				"     - macOS:   brew services list\n"+
				"     - Linux:   systemctl status postgresql (or mysql)\n"+
				"  2. Check the server is listening on the port in the URI\n"+
				"  3. Verify firewall settings allow the connection\n"+
				"\nOriginal error: %s", errMsg)
	}

	if strings.Contains(errMsg, "password authentication failed") ||
		strings.Contains(errMsg, "Access denied for user") {
		return fmt.Sprintf(
			"Authentication failed: invalid username or password.\n\n"+
				"Troubleshooting steps:\n"+
				"  1. Verify the user and password in the connection URI\n"+
				"  2. Percent-encode special characters in the password (@ becomes %%40)\n"+
				"  3. Check the user may connect from this host\n"+
				"\nOriginal error: %s", errMsg)
	}

	if (strings.Contains(errMsg, "database") && strings.Contains(errMsg, "does not exist")) ||
		strings.Contains(errMsg, "Unknown database") {
		return fmt.Sprintf(
			"Database does not exist.\n\n"+
				"Troubleshooting steps:\n"+
				"  1. Verify the database name at the end of the URI\n"+
				"  2. Create it: createdb <name> or CREATE DATABASE <name>\n"+
				"\nOriginal error: %s", errMsg)
	}

	if strings.Contains(errMsg, "no such host") || strings.Contains(errMsg, "unknown host") {
		return fmt.Sprintf(
			"Host not found: cannot resolve hostname.\n\n"+
				"Troubleshooting steps:\n"+
				"  1. Verify the hostname in the URI\n"+
				"  2. Try an IP address instead of the hostname\n"+
				"\nOriginal error: %s", errMsg)
	}

	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline exceeded") {
		return fmt.Sprintf(
			"Connection timeout: the database did not respond in time.\n\n"+
				"Troubleshooting steps:\n"+
				"  1. Check network connectivity to the database server\n"+
				"  2. Raise manager.connect_timeout in config.yaml for slow links\n"+
				"\nOriginal error: %s", errMsg)
	}

	if strings.Contains(errMsg, "SSL") || strings.Contains(errMsg, "TLS") || strings.Contains(errMsg, "tls") {
		return fmt.Sprintf(
			"SSL/TLS error: secure connection failed.\n\n"+
				"Troubleshooting steps:\n"+
				"  1. PostgreSQL: try sslmode=disable in the URI for testing\n"+
				"  2. MySQL: try tls=false or tls=skip-verify in the URI for testing\n"+
				"  3. Verify the server certificate is valid\n"+
				"\nOriginal error: %s", errMsg)
	}

	return errMsg
}
