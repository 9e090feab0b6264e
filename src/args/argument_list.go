// Package args contains the argument list, defined as a struct, along with a method that validates passed-in args
package args

import (
	"errors"
	"strings"

	sdkArgs "github.com/newrelic/infra-integrations-sdk/v3/args"
	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/newrelic/nri-mssql-sqlplan/src/report"
)

const (
	defaultPlanCountThreshold = 10
	maxPlanCountThreshold     = 50
)

// ArgumentList struct that holds all sqlplan arguments
type ArgumentList struct {
	sdkArgs.DefaultArgumentList
	PlanFile          string `default:"" help:"Path to a .sqlplan or .xml execution plan to report on"`
	PlanSourcesConfig string `default:"" help:"YAML file listing plan files and plan queries to report on"`
	OutputFile        string `default:"execution_times.txt" help:"File the rendered report is written to. Set to - to print it instead"`
	OutputFormat      string `default:"text" help:"Report format, either text or json"`
	ServeAddress      string `default:"" help:"If set, serve the upload page on this address instead of running once"`

	LivePlans          bool `default:"false" help:"If true, cached plans are fetched from the SQL Server described by the connection arguments"`
	PlanCountThreshold int  `default:"10" help:"Maximum number of cached plans fetched when live_plans is enabled"`

	Username               string `default:"" help:"The Microsoft SQL Server connection user name"`
	Password               string `default:"" help:"The Microsoft SQL Server connection password"`
	Instance               string `default:"" help:"The Microsoft SQL Server instance to connect to"`
	Hostname               string `default:"127.0.0.1" help:"The Microsoft SQL Server connection host name"`
	Port                   string `default:"" help:"The Microsoft SQL Server port to connect to. Only needed when instance not specified"`
	EnableSSL              bool   `default:"false" help:"If true will use SSL encryption, false will not use encryption"`
	TrustServerCertificate bool   `default:"false" help:"If true server certificate is not verified for SSL. If false certificate will be verified against supplied certificate"`
	CertificateLocation    string `default:"" help:"Certificate file to verify SSL encryption against"`
	Timeout                string `default:"30" help:"Timeout in seconds for a single SQL Query. Set 0 for no timeout"`
	ExtraConnectionURLArgs string `default:"" help:"Appends additional parameters to connection url. Ex. 'applicationintent=readonly&foo=bar'"`
}

// Validate validates sqlplan arguments
func (al *ArgumentList) Validate() error {
	if al.PlanFile == "" && al.PlanSourcesConfig == "" && !al.LivePlans && al.ServeAddress == "" {
		return errors.New("invalid configuration: must specify plan_file, plan_sources_config, live_plans or serve_address")
	}

	switch strings.ToLower(al.OutputFormat) {
	case "", report.TextFormat:
		al.OutputFormat = report.TextFormat
	case report.JSONFormat:
		al.OutputFormat = report.JSONFormat
	default:
		return errors.New("invalid configuration: output_format must be text or json")
	}

	if al.NeedsConnection() {
		return al.ValidateConnection()
	}
	return nil
}

// NeedsConnection is true when plans have to be read from a server.
func (al ArgumentList) NeedsConnection() bool {
	return al.LivePlans
}

// ValidateConnection checks the connection arguments and defaults the port. It
// runs lazily for plan queries listed in plan_sources_config.
func (al *ArgumentList) ValidateConnection() error {
	if al.Hostname == "" {
		return errors.New("invalid configuration: must specify a hostname")
	}

	if al.Port != "" && al.Instance != "" {
		return errors.New("invalid configuration: specify either port or instance but not both")
	} else if al.Port == "" && al.Instance == "" {
		log.Info("Both port and instance were not specified using default port of 1433")
		al.Port = "1433"
	}

	if al.EnableSSL && (!al.TrustServerCertificate && al.CertificateLocation == "") {
		return errors.New("invalid configuration: must specify a certificate file when using SSL and not trusting server certificate")
	}

	return nil
}

// GetPlanCountThreshold returns the number of live plans to fetch, falling back to
// the default when unset and capping oversized values.
func (al ArgumentList) GetPlanCountThreshold() int {
	switch {
	case al.PlanCountThreshold <= 0:
		return defaultPlanCountThreshold
	case al.PlanCountThreshold > maxPlanCountThreshold:
		log.Warn("Plan count threshold is greater than max supported value, using %d", maxPlanCountThreshold)
		return maxPlanCountThreshold
	default:
		return al.PlanCountThreshold
	}
}
