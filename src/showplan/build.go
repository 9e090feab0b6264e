package showplan

import (
	"fmt"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/newrelic/infra-integrations-sdk/v3/log"
)

// firstTimedBuild is SQL Server 2016 SP1, the first build that writes
// QueryTimeStats into every actual plan.
var firstTimedBuild = semver.MustParse("13.0.4001")

// BuildVersion parses a ShowPlanXML Build attribute such as "16.0.1000.6".
// Only major.minor.build is kept, the revision has no semver equivalent.
func BuildVersion(build string) (semver.Version, error) {
	parts := strings.Split(strings.TrimSpace(build), ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	version, err := semver.ParseTolerant(strings.Join(parts, "."))
	if err != nil {
		return semver.Version{}, fmt.Errorf("invalid plan build %q: %w", build, err)
	}
	return version, nil
}

// HasTimeStats reports whether plans from the given build carry QueryTimeStats.
func HasTimeStats(build string) bool {
	version, err := BuildVersion(build)
	if err != nil {
		log.Debug("Could not parse plan build: %s", err)
		return true
	}
	return version.GTE(firstTimedBuild)
}
