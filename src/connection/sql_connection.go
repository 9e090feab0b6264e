// Package connection opens the SQL Server session live execution plans are read through
package connection

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/jmoiron/sqlx"
	// go-mssqldb registers the mssql driver
	_ "github.com/microsoft/go-mssqldb"
	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/newrelic/nri-mssql-sqlplan/src/args"
)

// AppName identifies plan fetching sessions in sys.dm_exec_sessions, so the plan
// queries can be told apart from the workload being inspected.
const AppName = "nri-mssql-sqlplan"

const appNameParam = "app name"

// SQLConnection is the session plan queries and server checks run on. Host names
// the instance entity plan metrics are reported against.
type SQLConnection struct {
	Connection *sqlx.DB
	Host       string
}

// NewConnection connects with the validated connection arguments
func NewConnection(args *args.ArgumentList) (*SQLConnection, error) {
	db, err := sqlx.Connect("mssql", CreateConnectionURL(args))
	if err != nil {
		return nil, err
	}
	log.Debug("Connected to %s for plan fetching", args.Hostname)
	return &SQLConnection{
		Connection: db,
		Host:       args.Hostname,
	}, nil
}

// Close ends the session, logging a warning if that fails
func (sc SQLConnection) Close() {
	if err := sc.Connection.Close(); err != nil {
		log.Warn("Unable to close SQL Connection: %s", err.Error())
	}
}

// Query loads every row of a query into v, a slice of db tagged structs
func (sc SQLConnection) Query(v interface{}, query string) error {
	log.Debug("Running query: %s", query)
	return sc.Connection.Select(v, query)
}

// Queryx runs a plan query whose columns are only known once rows come back
func (sc SQLConnection) Queryx(query string) (*sqlx.Rows, error) {
	log.Debug("Running plan query: %s", query)
	return sc.Connection.Queryx(query)
}

// CreateConnectionURL builds the sqlserver:// URL from validated arguments.
// Sessions carry AppName unless extra_connection_url_args sets its own.
func CreateConnectionURL(args *args.ArgumentList) string {
	connectionURL := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(args.Username, args.Password),
		Host:   args.Hostname,
	}

	// a port wins, otherwise the named instance is the path
	if args.Port != "" {
		connectionURL.Host = fmt.Sprintf("%s:%s", connectionURL.Host, args.Port)
	} else {
		connectionURL.Path = args.Instance
	}

	query := url.Values{}
	query.Add("dial timeout", args.Timeout)
	query.Add("connection timeout", args.Timeout)

	if args.ExtraConnectionURLArgs != "" {
		extraArgsMap, err := url.ParseQuery(args.ExtraConnectionURLArgs)
		if err == nil {
			for k, v := range extraArgsMap {
				query.Add(k, v[0])
			}
		} else {
			log.Warn("Could not successfully parse ExtraConnectionURLArgs: %s", err.Error())
		}
	}

	if query.Get(appNameParam) == "" {
		query.Set(appNameParam, AppName)
	}

	if args.EnableSSL {
		query.Add("encrypt", "true")
		query.Add("TrustServerCertificate", strconv.FormatBool(args.TrustServerCertificate))
		if !args.TrustServerCertificate {
			query.Add("certificate", args.CertificateLocation)
		}
	}

	connectionURL.RawQuery = query.Encode()
	return connectionURL.String()
}
