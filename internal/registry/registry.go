// Package registry holds the currently active classifier behind an atomic
// handle. Prediction requests read the handle without locking; the training
// coordinator is the single writer. A request that obtained a handle before
// a publish finishes against that handle, so version and weights are never
// observed torn.
package registry

import (
	"sync/atomic"
	"time"

	"phishguard/internal/ml"
)

// AbsentVersion is reported while no model has been published.
const AbsentVersion = "none"

// Handle pairs a published model with the instant it became active. Handles
// are immutable once published.
type Handle struct {
	Model    *ml.Model
	LoadedAt time.Time
}

// Registry is safe for concurrent use. The zero value starts absent.
type Registry struct {
	handle atomic.Pointer[Handle]
}

// New returns an empty registry (service starts with no model).
func New() *Registry {
	return &Registry{}
}

// Current returns the active handle, or false while absent.
func (r *Registry) Current() (*Handle, bool) {
	h := r.handle.Load()
	return h, h != nil
}

// Publish atomically replaces the active model. Validation of accuracy and
// schema compatibility is the training coordinator's responsibility; the
// registry only swaps the reference.
func (r *Registry) Publish(m *ml.Model) {
	r.handle.Store(&Handle{Model: m, LoadedAt: time.Now().UTC()})
}

// Version returns the active model version, or AbsentVersion.
func (r *Registry) Version() string {
	if h, ok := r.Current(); ok {
		return h.Model.Version
	}
	return AbsentVersion
}
