// Package registry tracks deployed workers in a local JSON document.
package registry

import "context"

// Record describes one deployed worker. Name is the unique key; APIKey is
// assigned once and never regenerated; PublicURL is refreshed on every
// successful deploy.
type Record struct {
	Name      string `json:"name"`
	APIKey    string `json:"apiKey"`
	PublicURL string `json:"publicUrl"`
}

// Registry is the ordered collection of worker records. It holds at most
// one record per distinct name. The orchestrator owns a single Registry
// value for the duration of a run; there is no package-level state.
type Registry struct {
	Workers []Record `json:"workers"`
}

// New returns an empty registry. The slice is non-nil so the persisted
// form always carries a JSON array.
func New() *Registry {
	return &Registry{Workers: []Record{}}
}

// FindByName scans for the record with the given name. Fleets are tens of
// workers at most, so a linear scan is fine.
func (r *Registry) FindByName(name string) (Record, bool) {
	for _, rec := range r.Workers {
		if rec.Name == name {
			return rec, true
		}
	}
	return Record{}, false
}

// Upsert appends a new record or, when the name already exists, updates
// only its public URL. Name and key are immutable once assigned.
func (r *Registry) Upsert(rec Record) {
	for i := range r.Workers {
		if r.Workers[i].Name == rec.Name {
			r.Workers[i].PublicURL = rec.PublicURL
			return
		}
	}
	r.Workers = append(r.Workers, rec)
}

// Remove drops the record with the given name and reports whether it was
// present.
func (r *Registry) Remove(name string) bool {
	for i := range r.Workers {
		if r.Workers[i].Name == name {
			r.Workers = append(r.Workers[:i], r.Workers[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of tracked workers.
func (r *Registry) Len() int {
	return len(r.Workers)
}

// Store persists a Registry. Load initializes an empty registry when none
// exists yet; Save overwrites the previous state.
type Store interface {
	Load(ctx context.Context) (*Registry, error)
	Save(ctx context.Context, reg *Registry) error
}
