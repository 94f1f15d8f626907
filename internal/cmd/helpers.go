package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"

	"github.com/parsecdata/wfrun/internal/config"
	"github.com/parsecdata/wfrun/pkg/dbxapi"
	"github.com/parsecdata/wfrun/pkg/jobspec"
	"github.com/parsecdata/wfrun/pkg/monitor"
	"github.com/parsecdata/wfrun/pkg/runner"
)

// backendClient builds the Jobs API client from the loaded config.
func backendClient() (*dbxapi.RestClient, *config.Config, error) {
	cfg := config.GetConfig()
	if err := cfg.Backend.Validate(); err != nil {
		return nil, nil, exitError(foundry.ExitInvalidArgument, "Backend not configured", err)
	}

	client, err := dbxapi.NewRestClient(dbxapi.Config{
		Host:      cfg.Backend.Host,
		Token:     cfg.Backend.Token,
		Timeout:   cfg.Backend.Timeout,
		RateLimit: cfg.Backend.RateLimit,
		PageSize:  cfg.Backend.PageSize,
	})
	if err != nil {
		return nil, nil, exitError(foundry.ExitInvalidArgument, "Invalid backend configuration", err)
	}
	return client, cfg, nil
}

// newRunner builds the submit-and-wait orchestrator over a backend
// client, with optional overrides for the watch window.
func newRunner(client *dbxapi.RestClient, cfg *config.Config, watch monitor.Options) *runner.Runner {
	if watch.Timeout == 0 {
		watch.Timeout = cfg.Run.Timeout
	}
	if watch.PollInterval == 0 {
		watch.PollInterval = cfg.Run.PollInterval
	}
	return runner.New(client, runner.Config{
		Host:   cfg.Backend.Host,
		Target: cfg.Backend.Target,
		Watch:  watch,
	})
}

// loadCatalog reads the configured job specs. A missing config dir is
// not an error; it just yields an empty catalog.
func loadCatalog(cfg *config.Config) (map[string]*jobspec.Spec, error) {
	if _, err := os.Stat(cfg.ConfigDir); os.IsNotExist(err) {
		return map[string]*jobspec.Spec{}, nil
	}
	specs, err := jobspec.LoadDir(cfg.ConfigDir)
	if err != nil {
		return nil, exitError(foundry.ExitFileReadError, "Failed to load job configs", err)
	}
	return specs, nil
}

// parseParams turns repeated key=value flags into a parameter map.
func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q is not key=value", pair)
		}
		if _, dup := params[key]; dup {
			return nil, fmt.Errorf("parameter %q given more than once", key)
		}
		params[key] = value
	}
	return params, nil
}

// isSpecPath reports whether a --job value names a config file rather
// than a logical job name.
func isSpecPath(value string) bool {
	switch {
	case strings.HasSuffix(value, ".yaml"), strings.HasSuffix(value, ".yml"), strings.HasSuffix(value, ".json"):
		return true
	case strings.ContainsRune(value, os.PathSeparator):
		return true
	}
	return false
}
