package central

import (
	"sync"
	"time"
)

// namePlaceholder is what Name returns when neither an advertised nor a
// resolved name has been seen.
const namePlaceholder = "(unnamed)"

// Peripheral is a remote BLE device observed by the registry. Exactly one
// Peripheral exists per identifier for the lifetime of the registry.
//
// All mutation goes through Registry.Observe, Registry.MarkConnected and
// Registry.MarkDisconnected; accessors are safe to call from any goroutine.
type Peripheral struct {
	mu sync.RWMutex

	id string

	// advName is captured from the first advertisement that carries a
	// name and never overwritten, so the display name does not flicker
	// between broadcasts.
	advName string

	// resolvedName tracks whatever name the stack currently reports. It
	// may shift after connection, e.g. when the stack refreshes it from a
	// negotiated profile.
	resolvedName string

	// mfg is the manufacturer payload of the most recent advertisement.
	// Unlike names it is refreshed on every observation, since payloads
	// legitimately change between broadcasts (embedded sensor readings).
	mfg []byte

	rssi     int
	lastSeen time.Time

	state ConnState

	// radio is a non-owning reference to the stack that observed this
	// peripheral. The Manager requires it before issuing connect or
	// disconnect commands.
	radio Radio
}

// ID returns the radio-assigned identifier. It is opaque and immutable.
func (p *Peripheral) ID() string { return p.id }

// Name returns the name to present for this peripheral: the sticky
// advertised name if one was ever captured, else the current resolved
// name, else a placeholder. It is computed on every call.
func (p *Peripheral) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.advName != "" {
		return p.advName
	}
	if p.resolvedName != "" {
		return p.resolvedName
	}
	return namePlaceholder
}

// AdvertisedName returns the name captured from the first named
// advertisement, or "" if none carried one.
func (p *Peripheral) AdvertisedName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.advName
}

// ResolvedName returns the name most recently reported by the stack.
func (p *Peripheral) ResolvedName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.resolvedName
}

// ManufacturerData returns a copy of the manufacturer payload from the
// most recent advertisement, or nil.
func (p *Peripheral) ManufacturerData() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.mfg == nil {
		return nil
	}
	b := make([]byte, len(p.mfg))
	copy(b, p.mfg)
	return b
}

// RSSI returns the signal strength of the most recent observation.
func (p *Peripheral) RSSI() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rssi
}

// LastSeen returns the time of the most recent observation.
func (p *Peripheral) LastSeen() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSeen
}

// State returns the current connection state.
func (p *Peripheral) State() ConnState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// liveRadio returns the radio that last observed this peripheral, or nil
// for a handle constructed outside the observation flow.
func (p *Peripheral) liveRadio() Radio {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.radio
}

func (p *Peripheral) setState(s ConnState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// refresh applies a repeat observation. Manufacturer data, RSSI, lastSeen
// and the radio back-reference always track the latest advertisement; the
// resolved name only updates when the stack reports one; the advertised
// name is untouched once a non-empty value has been captured, but a later
// advertisement may supply one that was missing at first sight.
func (p *Peripheral) refresh(name string, a *Advertisement, rssi int, radio Radio) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name != "" {
		p.resolvedName = name
	}
	if p.advName == "" && a != nil && a.LocalName != "" {
		p.advName = a.LocalName
	}
	if a != nil {
		p.mfg = copyBytes(a.ManufacturerData)
	} else {
		p.mfg = nil
	}
	p.rssi = rssi
	p.lastSeen = time.Now()
	if radio != nil {
		p.radio = radio
	}
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
