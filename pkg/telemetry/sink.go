// Package telemetry collects named key/value entries produced by the control
// loop and ships them off the loop without blocking it.
package telemetry

import (
	"sort"
	"sync"
)

// Sink receives named values. Implementations must not block.
type Sink interface {
	Put(key string, value interface{})
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Put(string, interface{}) {}

type prefixed struct {
	sink   Sink
	prefix string
}

// WithPrefix returns a Sink that prepends prefix + "/" to every key.
func WithPrefix(s Sink, prefix string) Sink {
	return prefixed{sink: s, prefix: prefix + "/"}
}

func (p prefixed) Put(key string, value interface{}) {
	p.sink.Put(p.prefix+key, value)
}

// Recorder keeps the latest value per key in memory.
type Recorder struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{values: make(map[string]interface{})}
}

func (r *Recorder) Put(key string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
}

// Get returns the last value stored under key.
func (r *Recorder) Get(key string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the recorded keys in sorted order.
func (r *Recorder) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of every recorded value.
func (r *Recorder) Snapshot() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]interface{}, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}
