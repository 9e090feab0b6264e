package main

import (
	"fmt"

	"github.com/newrelic/infra-integrations-sdk/v3/log"

	argumentList "github.com/newrelic/nri-mssql-sqlplan/src/args"
	"github.com/newrelic/nri-mssql-sqlplan/src/connection"
	"github.com/newrelic/nri-mssql-sqlplan/src/instance"
	"github.com/newrelic/nri-mssql-sqlplan/src/liveplan"
	"github.com/newrelic/nri-mssql-sqlplan/src/liveplan/validation"
	"github.com/newrelic/nri-mssql-sqlplan/src/metrics"
	"github.com/newrelic/nri-mssql-sqlplan/src/planconfig"
	"github.com/newrelic/nri-mssql-sqlplan/src/report"
	"github.com/newrelic/nri-mssql-sqlplan/src/showplan"
	"github.com/newrelic/nri-mssql-sqlplan/src/showplan/models"
)

// fetcherFunc hands out the live plan fetcher, connecting on first use
type fetcherFunc func() (*liveplan.Fetcher, error)

// liveConnection only connects to SQL Server when a plan source needs it
type liveConnection struct {
	arguments *argumentList.ArgumentList
	sqlConn   *connection.SQLConnection
	fetcher   *liveplan.Fetcher
}

func (lc *liveConnection) Fetcher() (*liveplan.Fetcher, error) {
	if lc.fetcher != nil {
		return lc.fetcher, nil
	}
	if err := lc.arguments.ValidateConnection(); err != nil {
		return nil, err
	}
	con, err := connection.NewConnection(lc.arguments)
	if err != nil {
		return nil, fmt.Errorf("error creating connection to SQL Server: %w", err)
	}
	lc.sqlConn = con
	lc.fetcher = liveplan.NewFetcher(con)
	return lc.fetcher, nil
}

// MetricsEntity reports on the instance entity once connected, and on the local
// entity otherwise.
func (lc *liveConnection) MetricsEntity() metrics.EntityFunc {
	if lc.sqlConn == nil {
		return metrics.LocalEntity
	}
	entityFor, err := instance.EntityFunc(lc.sqlConn)
	if err != nil {
		log.Warn("Unable to resolve instance entity, reporting plan metrics locally: %s", err)
		return metrics.LocalEntity
	}
	return entityFor
}

func (lc *liveConnection) Close() {
	if lc.sqlConn != nil {
		lc.sqlConn.Close()
		lc.sqlConn = nil
	}
}

// planCollector gathers plan documents, counting every source that could not be read
type planCollector struct {
	documents []models.PlanDocument
	failures  int
}

func (pc *planCollector) fail(source string, err error) {
	pc.failures++
	log.Error("%s: %s", source, report.FailureMessage(err))
}

func (pc *planCollector) add(documents ...models.PlanDocument) {
	pc.documents = append(pc.documents, documents...)
}

// collectPlans reads every plan source named by the arguments, in the order plan_file,
// plan_sources_config, live_plans.
func collectPlans(al *argumentList.ArgumentList, getFetcher fetcherFunc) ([]models.PlanDocument, int) {
	pc := &planCollector{}

	if al.PlanFile != "" {
		pc.readFile(al.PlanFile, al.PlanFile)
	}

	if al.PlanSourcesConfig != "" {
		sources, err := planconfig.Load(al.PlanSourcesConfig)
		if err != nil {
			pc.fail(al.PlanSourcesConfig, err)
		} else {
			pc.collectSources(sources, getFetcher)
		}
	}

	if al.LivePlans {
		pc.collectCachedPlans(al.GetPlanCountThreshold(), getFetcher)
	}

	return pc.documents, pc.failures
}

func (pc *planCollector) readFile(name, path string) {
	document, err := showplan.ReadFile(path)
	if err != nil {
		pc.fail(name, err)
		return
	}
	document.Source = name
	pc.add(document)
}

func (pc *planCollector) collectSources(sources *planconfig.Sources, getFetcher fetcherFunc) {
	for _, plan := range sources.Plans {
		pc.readFile(plan.Name, plan.File)
	}

	for _, query := range sources.Queries {
		fetcher, err := getFetcher()
		if err != nil {
			pc.fail(query.Name, err)
			continue
		}
		documents, err := fetcher.FetchQueryPlans(query)
		if err != nil {
			pc.fail(query.Name, err)
			continue
		}
		pc.add(documents...)
	}
}

func (pc *planCollector) collectCachedPlans(topN int, getFetcher fetcherFunc) {
	fetcher, err := getFetcher()
	if err != nil {
		pc.fail("live_plans", err)
		return
	}

	if _, err := validation.CheckSQLServerVersion(fetcher.Connection); err != nil {
		pc.fail("live_plans", err)
		return
	}

	documents, err := fetcher.FetchCachedPlans(topN)
	if err != nil {
		pc.fail("live_plans", err)
		return
	}
	pc.add(documents...)
}

// extractPlans extracts a report from each document. A document that fails is
// logged and left out entirely, so no partial report is ever produced for it.
func extractPlans(documents []models.PlanDocument) ([]models.SourceReport, int) {
	reports := make([]models.SourceReport, 0, len(documents))
	failures := 0
	for _, document := range documents {
		extracted, err := showplan.Extract(document.Data)
		if err != nil {
			failures++
			log.Error("%s: %s", document.Source, report.FailureMessage(err))
			continue
		}
		log.Debug("Extracted %d statements from %s", len(extracted.Records), document.Source)
		reports = append(reports, models.SourceReport{Source: document.Source, Report: extracted})
	}
	return reports, failures
}
