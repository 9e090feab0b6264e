// Package planconfig loads the YAML file that lists which plans to report on
package planconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/newrelic/infra-integrations-sdk/v3/log"
	"gopkg.in/yaml.v2"
)

var (
	ErrNoSources    = errors.New("plan sources config lists no plans and no queries")
	ErrMissingFile  = errors.New("plan source has no file")
	ErrMissingQuery = errors.New("plan query has no query text")
)

// PlanFile is a plan saved on disk
type PlanFile struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// PlanQuery is a query run against the live server. It must return a query_plan column.
type PlanQuery struct {
	Name     string `yaml:"name"`
	Database string `yaml:"database"`
	Query    string `yaml:"query"`
}

// Sources is the parsed plan sources config
type Sources struct {
	Plans   []PlanFile  `yaml:"plans"`
	Queries []PlanQuery `yaml:"queries"`
}

// Load reads and parses a plan sources config file. Relative plan file paths are
// resolved against the directory holding the config.
func Load(path string) (*Sources, error) {
	log.Debug("Loading plan sources from %s", path)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan_sources_config: %w", err)
	}

	s, err := Parse(b)
	if err != nil {
		return nil, err
	}
	for i := range s.Plans {
		if !filepath.IsAbs(s.Plans[i].File) {
			s.Plans[i].File = filepath.Join(filepath.Dir(path), s.Plans[i].File)
		}
	}
	return s, nil
}

// Parse parses a plan sources config and fills in missing names.
func Parse(b []byte) (*Sources, error) {
	var s Sources
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("failed to parse plan_sources_config: %w", err)
	}

	if len(s.Plans) == 0 && len(s.Queries) == 0 {
		return nil, ErrNoSources
	}

	for i := range s.Plans {
		if s.Plans[i].File == "" {
			return nil, fmt.Errorf("%w: entry %d", ErrMissingFile, i+1)
		}
		if s.Plans[i].Name == "" {
			s.Plans[i].Name = filepath.Base(s.Plans[i].File)
		}
	}

	for i := range s.Queries {
		if s.Queries[i].Query == "" {
			return nil, fmt.Errorf("%w: entry %d", ErrMissingQuery, i+1)
		}
		if s.Queries[i].Name == "" {
			s.Queries[i].Name = fmt.Sprintf("query_%d", i+1)
		}
	}

	return &s, nil
}

// Statement returns the query text, switching database first when one is set.
func (q PlanQuery) Statement() string {
	if q.Database == "" {
		return q.Query
	}
	return "USE " + q.Database + "; " + q.Query
}
