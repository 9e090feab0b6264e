// Package liveplan reads actual execution plans straight from a SQL Server instance
package liveplan

import (
	"fmt"

	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/newrelic/nri-mssql-sqlplan/src/connection"
	"github.com/newrelic/nri-mssql-sqlplan/src/planconfig"
	"github.com/newrelic/nri-mssql-sqlplan/src/retrymechanism"
	"github.com/newrelic/nri-mssql-sqlplan/src/showplan/models"
)

// Fetcher runs plan queries against one connection
type Fetcher struct {
	Connection     *connection.SQLConnection
	RetryMechanism retrymechanism.RetryMechanism
}

// NewFetcher returns a Fetcher that retries failed queries with the default policy
func NewFetcher(sqlConnection *connection.SQLConnection) *Fetcher {
	return &Fetcher{
		Connection:     sqlConnection,
		RetryMechanism: &retrymechanism.RetryMechanismImpl{},
	}
}

// FetchCachedPlans returns the last actual plans of the topN most expensive cached statements
func (f *Fetcher) FetchCachedPlans(topN int) ([]models.PlanDocument, error) {
	return f.fetch("cached_plan", fmt.Sprintf(cachedPlanQueryTemplate, topN))
}

// FetchQueryPlans runs a configured plan query
func (f *Fetcher) FetchQueryPlans(query planconfig.PlanQuery) ([]models.PlanDocument, error) {
	return f.fetch(query.Name, query.Statement())
}

func (f *Fetcher) fetch(name, statement string) ([]models.PlanDocument, error) {
	var documents []models.PlanDocument
	err := f.RetryMechanism.Retry(func() error {
		var err error
		documents, err = f.runPlanQuery(name, statement)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plans for %s: %w", name, err)
	}
	log.Debug("Fetched %d plans for %s", len(documents), name)
	return documents, nil
}

func (f *Fetcher) runPlanQuery(name, statement string) ([]models.PlanDocument, error) {
	rows, err := f.Connection.Queryx(statement)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	documents := make([]models.PlanDocument, 0)
	rowNumber := 0
	for rows.Next() {
		rowNumber++
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}

		plan := columnBytes(row[planColumn])
		if len(plan) == 0 {
			log.Debug("Skipping row %d of %s without a plan", rowNumber, name)
			continue
		}

		source := fmt.Sprintf("%s#%d", name, rowNumber)
		if handle := columnBytes(row[planHandleColumn]); len(handle) > 0 {
			source = fmt.Sprintf("%s:%s", name, handle)
		}
		documents = append(documents, models.PlanDocument{Source: source, Data: plan})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plan rows: %w", err)
	}
	return documents, nil
}

// columnBytes normalizes what the driver hands back for a text or xml column.
func columnBytes(value interface{}) []byte {
	switch v := value.(type) {
	case string:
		return []byte(v)
	case []byte:
		return v
	default:
		return nil
	}
}
