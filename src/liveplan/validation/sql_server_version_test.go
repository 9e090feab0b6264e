package validation

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/DATA-DOG/go-sqlmock.v1"

	"github.com/newrelic/nri-mssql-sqlplan/src/connection/connectiontest"
)

var errQueryError = errors.New("query error")

func TestCheckSqlServerVersion(t *testing.T) {
	testCases := []struct {
		name          string
		versionString string
		wantVersion   string
		wantErr       error
	}{
		{"SQL Server 2022", "Microsoft SQL Server 2022 (RTM) - 16.0.1000.6 (X64)", "16.0.1000", nil},
		{"SQL Server 2019", "Microsoft SQL Server 2019 (RTM) - 15.0.2000.5", "15.0.2000", nil},
		{"SQL Server 2017", "Microsoft SQL Server 2017 (RTM) - 14.0.1000.169", "14.0.1000", ErrUnsupportedVersion},
		{"SQL Server 2014", "Microsoft SQL Server 2014 - 12.0.2000.8", "12.0.2000", ErrUnsupportedVersion},
		{"Empty", "", "", ErrVersionNotFound},
		{"No version", "Microsoft SQL Server  - version unknown", "", ErrVersionNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sqlConnection, mock := connectiontest.CreateMockSQL(t)
			defer sqlConnection.Connection.Close()

			mock.ExpectQuery(regexp.QuoteMeta(getSQLServerVersionQuery)).
				WillReturnRows(sqlmock.NewRows([]string{"@@VERSION"}).AddRow(tc.versionString))

			version, err := CheckSQLServerVersion(sqlConnection)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
			} else {
				assert.NoError(t, err)
			}
			if tc.wantVersion != "" {
				assert.Equal(t, tc.wantVersion, version.String())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCheckSqlServerVersion_QueryError(t *testing.T) {
	sqlConnection, mock := connectiontest.CreateMockSQL(t)
	defer sqlConnection.Connection.Close()

	mock.ExpectQuery(regexp.QuoteMeta(getSQLServerVersionQuery)).WillReturnError(errQueryError)

	_, err := CheckSQLServerVersion(sqlConnection)
	assert.True(t, errors.Is(err, errQueryError))
	assert.NoError(t, mock.ExpectationsWereMet())
}
