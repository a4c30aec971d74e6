package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/dictate/logger"
)

// stopTimeout bounds each component's Stop within the caller's deadline.
const stopTimeout = 10 * time.Second

type entry struct {
	c       Component
	started bool
}

// Registry starts components in registration order and stops the started
// ones in reverse, so a component can rely on everything registered before it.
type Registry struct {
	mu      sync.RWMutex
	entries []*entry
	byName  map[string]*entry
	log     *logger.Logger
}

// NewRegistry creates an empty registry that logs through the global logger
// until SetLogger is called.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*entry)}
}

// SetLogger sets the logger used for lifecycle messages.
func (r *Registry) SetLogger(l *logger.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = l
}

func (r *Registry) logger() *logger.Logger {
	if r.log != nil {
		return r.log
	}
	return logger.GetGlobalLogger()
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("component %s already registered", name)
	}
	e := &entry{c: c}
	r.entries = append(r.entries, e)
	r.byName[name] = e
	return nil
}

// StartAll starts every component in order and stops at the first failure.
// Components started before the failure stay started; StopAll stops them.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.logger()
	for _, e := range r.entries {
		name := e.c.Name()
		d := Describe(e.c)
		start := time.Now()
		if err := e.c.Start(ctx); err != nil {
			log.Error("component start failed", logger.MergeWithError(
				logger.Fields(logger.FieldComponent, name), err))
			return fmt.Errorf("start %s: %w", name, err)
		}
		e.started = true

		fields := logger.DurationFields("start", time.Since(start))
		fields[logger.FieldComponent] = name
		if d.Details != "" {
			fields["details"] = d.Details
		}
		log.Info(d.Name+" started", fields)
	}
	return nil
}

// StopAll stops started components in reverse order, each within
// stopTimeout. Every component gets its Stop call; errors are joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.logger()
	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if !e.started {
			continue
		}
		name := e.c.Name()
		stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
		err := e.c.Stop(stopCtx)
		cancel()
		e.started = false

		if err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", name, err))
			log.Error("component stop failed", logger.MergeWithError(
				logger.Fields(logger.FieldComponent, name), err))
			continue
		}
		log.Debug("component stopped", logger.Fields(logger.FieldComponent, name))
	}
	return errors.Join(errs...)
}

// HealthAll returns each component's health in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Health, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.c.Health(ctx)
	}
	return out
}

// Get returns the component registered under name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byName[name]; ok {
		return e.c
	}
	return nil
}

// Started reports whether the named component is running.
func (r *Registry) Started(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	return ok && e.started
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Component, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.c
	}
	return out
}
