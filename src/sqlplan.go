package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/newrelic/infra-integrations-sdk/v3/integration"
	"github.com/newrelic/infra-integrations-sdk/v3/log"

	argumentList "github.com/newrelic/nri-mssql-sqlplan/src/args"
	"github.com/newrelic/nri-mssql-sqlplan/src/metrics"
	"github.com/newrelic/nri-mssql-sqlplan/src/report"
	"github.com/newrelic/nri-mssql-sqlplan/src/showplan/models"
	"github.com/newrelic/nri-mssql-sqlplan/src/web"
)

const (
	integrationName    = "com.newrelic.nri-mssql-sqlplan"
	integrationVersion = "0.1.0"

	printToStdout = "-"
)

var (
	args argumentList.ArgumentList
)

func main() {
	// Create Integration
	i, err := integration.New(integrationName, integrationVersion, integration.Args(&args))
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	// Setup logging with verbose
	log.SetupLogging(args.Verbose)

	// Validate arguments
	if err := args.Validate(); err != nil {
		log.Error("Configuration error: %s", err)
		os.Exit(1)
	}

	if args.ServeAddress != "" {
		if err := serve(args.ServeAddress); err != nil {
			log.Error("Upload server stopped: %s", err)
			os.Exit(1)
		}
		return
	}

	live := &liveConnection{arguments: &args}
	defer live.Close()

	documents, collectFailures := collectPlans(&args, live.Fetcher)
	reports, extractFailures := extractPlans(documents)

	if len(reports) > 0 {
		if err := writeReports(&args, reports); err != nil {
			log.Error(err.Error())
			live.Close()
			os.Exit(1)
		}
	}

	if args.Metrics && len(reports) > 0 {
		if err := metrics.PublishReports(i, live.MetricsEntity(), reports); err != nil {
			log.Error("Error publishing plan metrics: %s", err)
			live.Close()
			os.Exit(1)
		}
	}

	if failures := collectFailures + extractFailures; failures > 0 {
		log.Error("%d plan(s) could not be processed", failures)
		live.Close()
		os.Exit(1)
	}
}

// writeReports renders the reports and writes them to the output file, or to stdout
// when output_file is "-".
func writeReports(al *argumentList.ArgumentList, reports []models.SourceReport) error {
	content, err := report.Render(al.OutputFormat, reports)
	if err != nil {
		return err
	}

	if al.OutputFile == printToStdout {
		_, err := fmt.Fprint(os.Stdout, string(content))
		return err
	}
	return report.WriteFile(al.OutputFile, content)
}

func serve(address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           web.NewHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("Serving the plan upload page on %s", address)
	return server.ListenAndServe()
}
