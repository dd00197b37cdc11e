// Package service implements the process-wide name-to-pointer service
// registry: a component anywhere in the tree can publish a handle under a
// name, and any other component can look it up without knowing its path,
// mirroring the original's get_service()/add_service() upward-propagation
// pattern collapsed into a single root-held map.
package service

import (
	"sync"

	"github.com/vplatform/vpsim/pkg/util"
)

// Registry is a concurrency-safe name -> handle map, installed once on the
// root component and shared by the whole tree.
type Registry struct {
	mu    sync.RWMutex
	byName map[string]interface{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]interface{})}
}

// Add publishes handle under name. Re-registering the same name overwrites
// the previous handle and logs at debug level — components are expected to
// register exactly once during build, but tests and hot-reload scenarios
// legitimately replace a service.
func (r *Registry) Add(name string, handle interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		util.WithField("service", name).Debug("service re-registered, replacing previous handle")
	}
	r.byName[name] = handle
}

// Get looks up a previously registered service by name.
func (r *Registry) Get(name string) (interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byName[name]
	if !ok {
		return nil, &util.ModuleNotFoundError{Name: name, Searched: []string{"service registry"}}
	}
	return h, nil
}
