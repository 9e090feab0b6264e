// Package connectiontest backs a connection.SQLConnection with sqlmock. Only test
// files import it.
package connectiontest

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"gopkg.in/DATA-DOG/go-sqlmock.v1"

	"github.com/newrelic/nri-mssql-sqlplan/src/connection"
)

// Host is the host of every mocked connection
const Host = "testhost"

// CreateMockSQL creates a SQLConnection backed by sqlmock
func CreateMockSQL(t *testing.T) (*connection.SQLConnection, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Errorf("Unexpected error while mocking: %s", err.Error())
		t.FailNow()
	}

	return &connection.SQLConnection{
		Connection: sqlx.NewDb(mockDB, "sqlmock"),
		Host:       Host,
	}, mock
}
