// Package metrics publishes extracted statement timings through the integration SDK
package metrics

import (
	"fmt"
	"strconv"

	"github.com/newrelic/infra-integrations-sdk/v3/data/attribute"
	"github.com/newrelic/infra-integrations-sdk/v3/data/metric"
	"github.com/newrelic/infra-integrations-sdk/v3/integration"
	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/newrelic/nri-mssql-sqlplan/src/showplan/models"
)

const (
	StatementEventType = "MssqlPlanStatementSample"
	SummaryEventType   = "MssqlPlanSummarySample"

	// The logs datastore truncates attribute values above this length anyway.
	TextTruncateLimit = 4094

	// New Relic's Integration SDK imposes a limit of 1000 metrics per ingestion, so sets are published in chunks.
	BatchSize = 100
)

func populateSummary(entity *integration.Entity, source string, report *models.Report) {
	ms := entity.NewMetricSet(SummaryEventType,
		attribute.Attribute{Key: "planSource", Value: source},
		attribute.Attribute{Key: "planBuild", Value: report.Build},
	)
	setMetricOrLog(ms, "plan.totalTimeMs", report.TotalTimeMs, metric.GAUGE)
	setMetricOrLog(ms, "plan.statementCount", len(report.Records), metric.GAUGE)
}

func populateStatement(entity *integration.Entity, source string, queryIndex int, record models.ExecutionRecord) {
	ms := entity.NewMetricSet(StatementEventType,
		attribute.Attribute{Key: "planSource", Value: source},
		attribute.Attribute{Key: "queryIndex", Value: strconv.Itoa(queryIndex)},
	)
	setMetricOrLog(ms, "statementType", record.StatementType, metric.ATTRIBUTE)
	setMetricOrLog(ms, "queryText", truncate(record.QueryText), metric.ATTRIBUTE)
	setMetricOrLog(ms, "plan.elapsedTimeMs", record.ElapsedTimeMs, metric.GAUGE)
	setMetricOrLog(ms, "plan.cpuTimeMs", record.CPUTimeMs, metric.GAUGE)
}

// EntityFunc returns the entity plan metrics are attached to. It is called again
// after every flush since publishing clears the integration's entities.
type EntityFunc func(i *integration.Integration) (*integration.Entity, error)

// LocalEntity reports plan metrics on the host running the integration
func LocalEntity(i *integration.Integration) (*integration.Entity, error) {
	return i.LocalEntity(), nil
}

// PublishReports publishes the metric sets of every report, flushing whenever
// BatchSize sets have accumulated.
func PublishReports(i *integration.Integration, entityFor EntityFunc, reports []models.SourceReport) error {
	entity, err := entityFor(i)
	if err != nil {
		return fmt.Errorf("error creating plan metrics entity: %w", err)
	}

	pending := 0
	flushIfFull := func() error {
		pending++
		if pending < BatchSize {
			return nil
		}
		pending = 0
		if err := publish(i); err != nil {
			return err
		}
		entity, err = entityFor(i)
		return err
	}

	for _, sr := range reports {
		populateSummary(entity, sr.Source, sr.Report)
		if err := flushIfFull(); err != nil {
			return err
		}
		for idx, record := range sr.Report.Records {
			populateStatement(entity, sr.Source, idx+1, record)
			if err := flushIfFull(); err != nil {
				return err
			}
		}
	}

	if pending > 0 {
		return publish(i)
	}
	return nil
}

func publish(i *integration.Integration) error {
	if err := i.Publish(); err != nil {
		return fmt.Errorf("error publishing plan metrics: %w", err)
	}
	i.Clear()
	return nil
}

func setMetricOrLog(ms *metric.Set, key string, value interface{}, sourceType metric.SourceType) {
	if err := ms.SetMetric(key, value, sourceType); err != nil {
		log.Error("failed to set metric for key %s: %v", key, err)
	}
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= TextTruncateLimit {
		return text
	}
	return string(runes[:TextTruncateLimit])
}
