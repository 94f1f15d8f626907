package handlers

import (
	"net/http"
	"sort"

	"github.com/parsecdata/wfrun/pkg/jobspec"
)

// JobSummary is one entry of the job catalog response.
type JobSummary struct {
	JobName     string         `json:"job_name"`
	DisplayName string         `json:"display_name"`
	Description string         `json:"description,omitempty"`
	Parameters  []JobParameter `json:"parameters,omitempty"`
}

// JobParameter describes one submittable parameter of a job.
type JobParameter struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Label    string   `json:"label"`
	Default  string   `json:"default,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// JobCatalog serves the configured job specs, sorted by job name.
func JobCatalog(specs map[string]*jobspec.Spec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := make([]string, 0, len(specs))
		for name := range specs {
			names = append(names, name)
		}
		sort.Strings(names)

		jobs := make([]JobSummary, 0, len(names))
		for _, name := range names {
			spec := specs[name]
			entry := JobSummary{
				JobName:     spec.JobName,
				DisplayName: spec.DisplayName,
				Description: spec.Description,
			}
			for i := range spec.Parameters {
				p := &spec.Parameters[i]
				entry.Parameters = append(entry.Parameters, JobParameter{
					Name:     p.Name,
					Type:     string(p.Type),
					Required: p.Required,
					Label:    p.DisplayLabel(),
					Default:  p.Default,
					Options:  p.Options,
				})
			}
			jobs = append(jobs, entry)
		}

		WriteJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
	}
}
