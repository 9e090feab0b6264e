// Package validation checks that a server can hand out actual execution plans
package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/blang/semver/v4"
	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/newrelic/nri-mssql-sqlplan/src/connection"
)

const (
	versionRegexPattern      = `\b(\d+\.\d+\.\d+)\b`
	getSQLServerVersionQuery = "SELECT @@VERSION"
)

var (
	ErrUnsupportedVersion = errors.New("unsupported SQL Server version")
	ErrVersionNotFound    = errors.New("could not parse version from server version string")
)

var (
	versionRegex = regexp.MustCompile(versionRegexPattern)

	// sys.dm_exec_query_plan_stats arrived with SQL Server 2019
	minimumVersion = semver.MustParse("15.0.0")
)

// CheckSQLServerVersion returns the server version, or an error when it is too old
// to return last actual plans.
func CheckSQLServerVersion(sqlConnection *connection.SQLConnection) (semver.Version, error) {
	rows, err := sqlConnection.Queryx(getSQLServerVersionQuery)
	if err != nil {
		return semver.Version{}, fmt.Errorf("error getting server version: %w", err)
	}
	defer rows.Close()

	var serverVersion string
	if rows.Next() {
		if err := rows.Scan(&serverVersion); err != nil {
			return semver.Version{}, fmt.Errorf("error scanning server version: %w", err)
		}
	}
	log.Debug("Server version: %s", serverVersion)

	versionStr := versionRegex.FindString(serverVersion)
	if versionStr == "" {
		return semver.Version{}, fmt.Errorf("%w: %q", ErrVersionNotFound, serverVersion)
	}

	version, err := semver.ParseTolerant(versionStr)
	if err != nil {
		return semver.Version{}, fmt.Errorf("error parsing version %s: %w", versionStr, err)
	}
	log.Debug("Parsed semantic version: %s", version)

	if version.LT(minimumVersion) {
		return version, fmt.Errorf("%w: %s, live plans need %s or newer", ErrUnsupportedVersion, version, minimumVersion)
	}
	return version, nil
}
