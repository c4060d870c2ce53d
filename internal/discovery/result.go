package discovery

import (
	"github.com/glossa-app/glossa/internal/manifest"
)

// LoadResult is the outcome of loading one surviving package.
type LoadResult struct {
	Metadata *manifest.Metadata
	Err      error
}

// OK reports whether the package loaded.
func (r LoadResult) OK() bool { return r.Err == nil }

// Exclusion records a directory dropped before deduplication.
type Exclusion struct {
	Directory string
	Err       error
}

// Report is the full outcome of a scan.
type Report struct {
	// Results holds one entry per surviving package id, in scan order.
	Results []LoadResult

	// Duplicates are parsed packages that lost deduplication.
	Duplicates []*manifest.Metadata

	// Excluded are directories without a usable descriptor or entry module.
	Excluded []Exclusion

	// Deleted and Upgraded list directories swept by deferred actions.
	Deleted  []string
	Upgraded []string
}

// Loaded returns the metadata of every package that loaded.
func (r *Report) Loaded() []*manifest.Metadata {
	out := make([]*manifest.Metadata, 0, len(r.Results))
	for _, res := range r.Results {
		if res.OK() {
			out = append(out, res.Metadata)
		}
	}
	return out
}

// Failed returns the results that did not load.
func (r *Report) Failed() []LoadResult {
	var out []LoadResult
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}
