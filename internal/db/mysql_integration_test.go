package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// =============================================================================
// MySQL driver suite - shares a single container across all tests
// =============================================================================

type MySQLDriverSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	container testcontainers.Container
	uri       string
	conn      Conn
}

func TestMySQLDriverSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(MySQLDriverSuite))
}

func (s *MySQLDriverSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8.4",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "test",
			"MYSQL_DATABASE":      "testdb",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").
			WithStartupTimeout(120 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	s.Require().NoError(err, "Failed to start MySQL container")
	s.container = container

	host, err := container.Host(s.ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(s.ctx, "3306")
	s.Require().NoError(err)

	s.uri = fmt.Sprintf("mysql://root:test@%s:%s/testdb", host, port.Port())

	driver := &MySQLDriver{ConnectTimeout: 10 * time.Second}
	conn, err := driver.Connect(s.ctx, s.uri)
	s.Require().NoError(err)
	s.conn = conn
}

func (s *MySQLDriverSuite) TearDownSuite() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *MySQLDriverSuite) TestRendering() {
	table, err := s.conn.Query(s.ctx, `
		SELECT 42 AS i,
		       1.5 AS f,
		       NULL AS missing,
		       'text' AS t,
		       UNHEX('00FF') AS bin,
		       CAST('2024-03-09 14:05:07.123456' AS DATETIME(6)) AS dt,
		       CAST('-26:03:04' AS TIME) AS tm`)
	s.Require().NoError(err)

	s.Require().Len(table.Columns, 7)
	s.Equal("dt", table.Columns[5].Name)
	s.Require().Len(table.Rows, 1)
	s.Equal([]string{
		"42",
		"1.5",
		NullDisplayValue,
		"text",
		"00 ff",
		"2024-03-09 14:05:07.123456",
		"-01:02:03:04.000000",
	}, table.Rows[0].Values)
}

func (s *MySQLDriverSuite) TestStatementWithoutResultSet() {
	table, err := s.conn.Query(s.ctx, "CREATE TABLE IF NOT EXISTS items (id INT)")
	s.Require().NoError(err)
	s.Empty(table.Columns)
	s.Empty(table.Rows)
}

func (s *MySQLDriverSuite) TestQueryError() {
	_, err := s.conn.Query(s.ctx, "SELECT * FROM missing_table")
	s.Require().Error(err)
	s.ErrorIs(err, ErrQueryFailed)
}
