// Package sim provides an in-memory central.Radio for tests and demos.
// Events are delivered from the radio's own goroutine, so a Manager wired
// to it sees the same unordered, cross-goroutine callbacks a hardware
// stack produces.
package sim

import (
	"sync"

	"github.com/google/uuid"

	"github.com/XC-/central"
)

// Radio is a simulated BLE stack. The zero value is not usable; construct
// with NewRadio and stop it with Close.
type Radio struct {
	mu       sync.Mutex
	state    central.State
	sink     central.EventSink
	scanning bool
	devices  map[string]*device

	eventc chan func(central.EventSink)
	done   chan struct{}
	once   sync.Once
}

// device is one simulated peripheral.
type device struct {
	id        string
	name      string
	mfg       []byte
	rssi      int
	connected bool
}

// NewRadio returns a simulated radio in the PoweredOff state.
func NewRadio() *Radio {
	r := &Radio{
		state:   central.StatePoweredOff,
		devices: make(map[string]*device),
		eventc:  make(chan func(central.EventSink), 64),
		done:    make(chan struct{}),
	}
	go r.eventLoop()
	return r
}

// Close stops event delivery.
func (r *Radio) Close() error {
	r.once.Do(func() { close(r.done) })
	return nil
}

func (r *Radio) eventLoop() {
	for {
		select {
		case f := <-r.eventc:
			r.mu.Lock()
			sink := r.sink
			r.mu.Unlock()
			if sink != nil {
				f(sink)
			}
		case <-r.done:
			return
		}
	}
}

func (r *Radio) emit(f func(central.EventSink)) {
	select {
	case r.eventc <- f:
	case <-r.done:
	}
}

// Attach implements central.Radio.
func (r *Radio) Attach(sink central.EventSink) {
	r.mu.Lock()
	r.sink = sink
	r.mu.Unlock()
}

// State implements central.Radio.
func (r *Radio) State() central.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SetState changes the simulated availability and reports it to the sink.
func (r *Radio) SetState(s central.State) {
	r.mu.Lock()
	r.state = s
	if s != central.StatePoweredOn {
		r.scanning = false
	}
	r.mu.Unlock()
	r.emit(func(sink central.EventSink) { sink.HandleStateChanged(s) })
}

// PowerOn is shorthand for SetState(StatePoweredOn).
func (r *Radio) PowerOn() { r.SetState(central.StatePoweredOn) }

// AddPeripheral creates a simulated peripheral and returns its minted
// identifier. If a scan is active it advertises immediately.
func (r *Radio) AddPeripheral(name string, mfg []byte) string {
	id := uuid.NewString()
	r.mu.Lock()
	d := &device{id: id, name: name, mfg: mfg, rssi: -50}
	r.devices[id] = d
	scanning := r.scanning
	r.mu.Unlock()
	if scanning {
		r.advertise(d)
	}
	return id
}

// Advertise re-broadcasts the peripheral, optionally with fresh
// manufacturer data, regardless of scan state.
func (r *Radio) Advertise(id string, mfg []byte) {
	r.mu.Lock()
	d, ok := r.devices[id]
	if ok && mfg != nil {
		d.mfg = mfg
	}
	r.mu.Unlock()
	if ok {
		r.advertise(d)
	}
}

func (r *Radio) advertise(d *device) {
	r.mu.Lock()
	adv := &central.Advertisement{LocalName: d.name, ManufacturerData: d.mfg}
	id, rssi := d.id, d.rssi
	r.mu.Unlock()
	r.emit(func(sink central.EventSink) { sink.HandleAdvertisement(id, "", adv, rssi) })
}

// StartScan implements central.Radio: every known peripheral advertises
// once.
func (r *Radio) StartScan() {
	r.mu.Lock()
	r.scanning = true
	devices := make([]*device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, d)
	}
	r.mu.Unlock()
	// Deliver off the caller's goroutine: StartScan is a fire-and-forget
	// command and must not block behind the event queue.
	go func() {
		for _, d := range devices {
			r.advertise(d)
		}
	}()
}

// StopScan implements central.Radio.
func (r *Radio) StopScan() {
	r.mu.Lock()
	r.scanning = false
	r.mu.Unlock()
}

// Connect implements central.Radio. Connecting to an unknown identifier,
// or while the radio is not powered on, silently never completes, like a
// real radio whose target went away.
func (r *Radio) Connect(id string) {
	r.mu.Lock()
	d, ok := r.devices[id]
	powered := r.state == central.StatePoweredOn
	if !ok || !powered {
		r.mu.Unlock()
		return
	}
	d.connected = true
	r.mu.Unlock()
	r.emit(func(sink central.EventSink) { sink.HandleConnected(id) })
}

// CancelConnection implements central.Radio.
func (r *Radio) CancelConnection(id string) {
	r.mu.Lock()
	d, ok := r.devices[id]
	wasConnected := ok && d.connected
	if ok {
		d.connected = false
	}
	r.mu.Unlock()
	if wasConnected {
		r.emit(func(sink central.EventSink) { sink.HandleDisconnected(id, nil) })
	}
}

// DropConnection simulates an unexpected link loss with the given cause.
func (r *Radio) DropConnection(id string, cause error) {
	r.mu.Lock()
	d, ok := r.devices[id]
	if ok {
		d.connected = false
	}
	r.mu.Unlock()
	if ok {
		r.emit(func(sink central.EventSink) { sink.HandleDisconnected(id, cause) })
	}
}
