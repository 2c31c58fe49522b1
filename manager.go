package central

import (
	"sync"

	"github.com/sirupsen/logrus"
)

const defaultNotifyBuffer = 64

// Manager bridges a Radio's asynchronous, unordered events to registry
// mutations and forwards life-cycle notifications to subscribers. It owns
// no peripheral data itself; the Registry does.
//
// Radio events may arrive on any goroutine and in any order relative to
// the commands that triggered them. Subscriber callbacks are delivered on
// a single notification goroutine, so for a given peripheral identifier
// they are observed in the order the events were processed.
type Manager struct {
	radio Radio
	reg   *Registry
	log   logrus.FieldLogger

	mu       sync.Mutex
	scanning bool

	hmu      sync.RWMutex
	handlers managerHandlers

	notifyc   chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// managerHandlers holds the registered subscriber callbacks. Unlike a
// single delegate slot, each event keeps a list so multiple consumers
// (UI, logging, metrics) can attach without overwriting one another.
type managerHandlers struct {
	stateChanged           []func(State)
	peripheralDiscovered   []func(*Peripheral)
	peripheralConnected    []func(*Peripheral)
	peripheralDisconnected []func(*Peripheral, error)
}

// NewManager creates a Manager driving the given radio and attaches
// itself as the radio's event sink.
func NewManager(radio Radio, opts ...Option) (*Manager, error) {
	m := &Manager{
		radio:   radio,
		reg:     NewRegistry(),
		log:     logrus.StandardLogger(),
		notifyc: make(chan func(), defaultNotifyBuffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	radio.Attach(m)
	go m.notifyLoop()
	return m, nil
}

// Close stops the notification goroutine. No subscriber callbacks are
// delivered after Close returns; the registry remains readable.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

// Registry returns the manager's peripheral registry.
func (m *Manager) Registry() *Registry { return m.reg }

// Discovered returns a snapshot of every peripheral observed so far.
func (m *Manager) Discovered() []*Peripheral { return m.reg.Discovered() }

// Connected returns a snapshot of the currently connected peripherals.
func (m *Manager) Connected() []*Peripheral { return m.reg.Connected() }

// StartDiscovery begins scanning for advertisements. It returns
// ErrRadioUnavailable when the radio is not powered on; the caller should
// retry after a StatePoweredOn state change. Calling it while a scan is
// already active is a no-op, not an error.
func (m *Manager) StartDiscovery() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.radio.State(); s != StatePoweredOn {
		m.log.WithField("state", s).Warn("discovery requested while radio not ready")
		return ErrRadioUnavailable
	}
	if m.scanning {
		return nil
	}
	m.radio.StartScan()
	m.scanning = true
	m.log.Debug("scan started")
	return nil
}

// StopDiscovery stops scanning. Safe to call when no scan is active.
func (m *Manager) StopDiscovery() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.radio.StopScan()
	m.scanning = false
	m.log.Debug("scan stopped")
}

// Connect issues a connect command for the peripheral. It does not block:
// the outcome is observed through the PeripheralConnected subscribers, or
// never, if the attempt silently fails in the radio. Connection timeouts
// are the caller's responsibility; cancel an attempt with Disconnect.
//
// It returns ErrPeripheralUnknown when the handle carries no live radio
// reference, i.e. it was not produced by an observation.
func (m *Manager) Connect(p *Peripheral) error {
	if p == nil {
		return ErrPeripheralUnknown
	}
	radio := p.liveRadio()
	if radio == nil {
		return ErrPeripheralUnknown
	}
	p.setState(Connecting)
	radio.Connect(p.id)
	return nil
}

// Disconnect issues a disconnect command for the peripheral, which also
// cancels a pending connect. Fire-and-forget like Connect.
func (m *Manager) Disconnect(p *Peripheral) error {
	if p == nil {
		return ErrPeripheralUnknown
	}
	radio := p.liveRadio()
	if radio == nil {
		return ErrPeripheralUnknown
	}
	radio.CancelConnection(p.id)
	return nil
}

// HandleStateChanged implements EventSink. The state is forwarded to
// subscribers verbatim; when the radio leaves PoweredOn any active scan is
// dead in hardware, so the scanning flag is reset to let a later
// StartDiscovery reissue the command.
func (m *Manager) HandleStateChanged(s State) {
	m.mu.Lock()
	if s != StatePoweredOn {
		m.scanning = false
	}
	m.mu.Unlock()
	m.notify(func(h *managerHandlers) {
		for _, f := range h.stateChanged {
			f(s)
		}
	})
}

// HandleAdvertisement implements EventSink. The first observation of an
// identifier notifies PeripheralDiscovered subscribers; repeat
// observations refresh the registry silently to avoid churn.
func (m *Manager) HandleAdvertisement(id, name string, a *Advertisement, rssi int) {
	p, isNew := m.reg.Observe(id, name, a, rssi, m.radio)
	if !isNew {
		return
	}
	m.notify(func(h *managerHandlers) {
		for _, f := range h.peripheralDiscovered {
			f(p)
		}
	})
}

// HandleConnected implements EventSink. A connected event for an
// identifier the registry never observed indicates a coordination bug in
// the radio layer; it is logged and dropped rather than surfaced.
func (m *Manager) HandleConnected(id string) {
	p := m.reg.MarkConnected(id)
	if p == nil {
		m.log.WithField("id", id).Warn("connected event for untracked peripheral")
		return
	}
	m.notify(func(h *managerHandlers) {
		for _, f := range h.peripheralConnected {
			f(p)
		}
	})
}

// HandleDisconnected implements EventSink. Unlike HandleConnected, a
// disconnected event for an untracked identifier is still forwarded, on a
// detached handle, so subscribers can clean up side state keyed by it.
func (m *Manager) HandleDisconnected(id string, cause error) {
	p := m.reg.MarkDisconnected(id)
	if p == nil {
		m.log.WithField("id", id).Warn("disconnected event for untracked peripheral")
		p = &Peripheral{id: id}
	}
	m.notify(func(h *managerHandlers) {
		for _, f := range h.peripheralDisconnected {
			f(p, cause)
		}
	})
}

// notify queues a subscriber dispatch on the notification goroutine.
func (m *Manager) notify(dispatch func(*managerHandlers)) {
	select {
	case m.notifyc <- func() {
		m.hmu.RLock()
		h := m.handlers
		m.hmu.RUnlock()
		dispatch(&h)
	}:
	case <-m.done:
	}
}

func (m *Manager) notifyLoop() {
	for {
		select {
		case f := <-m.notifyc:
			f()
		case <-m.done:
			return
		}
	}
}

// A handler registers subscriber callbacks on a Manager.
type handler func(*Manager)

// Handle registers the specified subscriber handlers.
func (m *Manager) Handle(hh ...handler) {
	m.hmu.Lock()
	defer m.hmu.Unlock()
	for _, h := range hh {
		h(m)
	}
}

// StateChanged adds a function to be called when the radio availability
// changes.
func StateChanged(f func(State)) handler {
	return func(m *Manager) { m.handlers.stateChanged = append(m.handlers.stateChanged, f) }
}

// PeripheralDiscovered adds a function to be called once per identifier,
// at its first observation.
func PeripheralDiscovered(f func(*Peripheral)) handler {
	return func(m *Manager) { m.handlers.peripheralDiscovered = append(m.handlers.peripheralDiscovered, f) }
}

// PeripheralConnected adds a function to be called when a peripheral
// connection is confirmed.
func PeripheralConnected(f func(*Peripheral)) handler {
	return func(m *Manager) { m.handlers.peripheralConnected = append(m.handlers.peripheralConnected, f) }
}

// PeripheralDisconnected adds a function to be called when a peripheral
// disconnects. cause is nil for a requested disconnect.
func PeripheralDisconnected(f func(*Peripheral, error)) handler {
	return func(m *Manager) { m.handlers.peripheralDisconnected = append(m.handlers.peripheralDisconnected, f) }
}
