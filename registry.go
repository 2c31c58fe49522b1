package central

import (
	"sync"
	"time"
)

// Registry is the single source of truth for peripheral identity,
// advertisement caching and connection-state bookkeeping. It issues no
// radio commands; the Manager drives it from radio events.
//
// Peripherals are never evicted: discovered devices are retained after
// disconnection and after scanning stops, so callers decide when history
// is cleared by dropping the registry.
type Registry struct {
	mu         sync.RWMutex
	index      map[string]*Peripheral
	discovered []*Peripheral // insertion order
	connected  []*Peripheral // connection order
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]*Peripheral)}
}

// Observe records an advertisement for the peripheral with the given
// identifier. name is the name the stack currently reports, if any; a is
// the decoded advertisement payload and may be nil.
//
// The first observation of an identifier creates the Peripheral, capturing
// the advertised name from a.LocalName if present, else from name. Repeat
// observations refresh manufacturer data and RSSI unconditionally and the
// resolved name when one is reported, but never create a second entry and
// never touch the captured advertised name.
//
// It returns the peripheral and whether this observation created it.
func (r *Registry) Observe(id, name string, a *Advertisement, rssi int, radio Radio) (*Peripheral, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.index[id]; ok {
		p.refresh(name, a, rssi, radio)
		return p, false
	}

	p := &Peripheral{
		id:       id,
		state:    Disconnected,
		rssi:     rssi,
		lastSeen: time.Now(),
		radio:    radio,
	}
	if a != nil {
		if a.LocalName != "" {
			p.advName = a.LocalName
		}
		p.mfg = copyBytes(a.ManufacturerData)
	}
	if p.advName == "" && name != "" {
		p.advName = name
	}
	if name != "" {
		p.resolvedName = name
	}
	r.index[id] = p
	r.discovered = append(r.discovered, p)
	return p, true
}

// MarkConnected transitions the peripheral with the given identifier to
// Connected and appends it to the connected view if not already present.
// It returns nil when the identifier has never been observed: connections
// can only be confirmed for known peripherals.
func (r *Registry) MarkConnected(id string) *Peripheral {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.index[id]
	if !ok {
		return nil
	}
	p.setState(Connected)
	for _, c := range r.connected {
		if c == p {
			return p
		}
	}
	r.connected = append(r.connected, p)
	return p
}

// MarkDisconnected transitions the peripheral with the given identifier to
// Disconnected and removes it from the connected view. Calling it for an
// already-disconnected peripheral is a no-op; it returns nil when the
// identifier has never been observed.
func (r *Registry) MarkDisconnected(id string) *Peripheral {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.index[id]
	if !ok {
		return nil
	}
	p.setState(Disconnected)
	for i, c := range r.connected {
		if c == p {
			r.connected = append(r.connected[:i], r.connected[i+1:]...)
			break
		}
	}
	return p
}

// Lookup returns the peripheral with the given identifier, or nil.
func (r *Registry) Lookup(id string) *Peripheral {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index[id]
}

// Discovered returns a snapshot of every peripheral ever observed, in
// insertion order.
func (r *Registry) Discovered() []*Peripheral {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := make([]*Peripheral, len(r.discovered))
	copy(s, r.discovered)
	return s
}

// Connected returns a snapshot of the currently connected peripherals, in
// connection order. It is always a subset of Discovered.
func (r *Registry) Connected() []*Peripheral {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := make([]*Peripheral, len(r.connected))
	copy(s, r.connected)
	return s
}
