// Package instance resolves the SQL Server instance entity live plan metrics are reported on
package instance

import (
	"fmt"

	"github.com/newrelic/infra-integrations-sdk/v3/integration"

	"github.com/newrelic/nri-mssql-sqlplan/src/connection"
	"github.com/newrelic/nri-mssql-sqlplan/src/metrics"
)

// instanceNameQuery gets the instance name
const instanceNameQuery = "select @@SERVERNAME as instance_name"

const entityNamespace = "ms-instance"

// NameRow is a row result in the instanceNameQuery
type NameRow struct {
	Name string `db:"instance_name"`
}

// Name runs a query to get the instance name
func Name(con *connection.SQLConnection) (string, error) {
	instanceRows := make([]*NameRow, 0)
	if err := con.Query(&instanceRows, instanceNameQuery); err != nil {
		return "", err
	}

	if length := len(instanceRows); length != 1 {
		return "", fmt.Errorf("expected 1 row for instance name got %d", length)
	}
	return instanceRows[0].Name, nil
}

// EntityFunc looks the instance name up once and returns a metrics.EntityFunc that
// reports on the instance entity, identified by the connection host.
func EntityFunc(con *connection.SQLConnection) (metrics.EntityFunc, error) {
	name, err := Name(con)
	if err != nil {
		return nil, err
	}

	endpointIDAttr := integration.NewIDAttribute("endpoint", con.Host)
	return func(i *integration.Integration) (*integration.Entity, error) {
		return i.EntityReportedVia(con.Host, name, entityNamespace, endpointIDAttr)
	}, nil
}
