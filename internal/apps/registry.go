// Package apps holds the read-only app-slug -> launch descriptor mapping
// supplied to the bridge at construction.
package apps

import "sync"

// App is an immutable launch descriptor for one configured application.
type App struct {
	Name             string
	Slug             string
	WorkingDirectory string
	Command          string
	Terminal         bool
	Color            string
}

// Registry is a read-only (after construction) slug -> App map. Duplicate
// slugs silently overwrite on registration, matching the data model's stated
// invariant.
type Registry struct {
	mu   sync.RWMutex
	apps map[string]App
}

func NewRegistry() *Registry {
	return &Registry{apps: make(map[string]App)}
}

func (r *Registry) Register(app App) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[app.Slug] = app
}

func (r *Registry) Lookup(slug string) (App, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[slug]
	return app, ok
}

// List returns every registered app, filtered by platformSupportsPTY when an
// app requires a terminal. Order is unspecified.
func (r *Registry) List(platformSupportsPTY bool) []App {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]App, 0, len(r.apps))
	for _, app := range r.apps {
		if app.Terminal && !platformSupportsPTY {
			continue
		}
		out = append(out, app)
	}
	return out
}
