// Package linux implements the central.Radio capability on top of BlueZ,
// reached over the system D-Bus.
//
// Peripheral identifiers are Bluetooth device addresses as BlueZ reports
// them ("AA:BB:CC:DD:EE:FF"). BlueZ merges advertisement content into
// org.bluez.Device1 properties, so the resolved name is taken from the
// Name property and manufacturer payloads from ManufacturerData; the raw
// EIR packet is not exposed on this path.
package linux

import (
	"fmt"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/XC-/central"
)

const defaultAdapter = "hci0"

const (
	bluezBus = "org.bluez"

	adapter1Interface = "org.bluez.Adapter1"
	device1Interface  = "org.bluez.Device1"

	device1Address   = "Address"
	device1Name      = "Name"
	device1RSSI      = "RSSI"
	device1Connected = "Connected"
	device1MfgData   = "ManufacturerData"
	adapter1Powered  = "Powered"

	signalInterfacesAdded   = "org.freedesktop.DBus.ObjectManager.InterfacesAdded"
	signalPropertiesChanged = "org.freedesktop.DBus.Properties.PropertiesChanged"
)

var (
	matchInterfacesAdded = []dbus.MatchOption{
		dbus.WithMatchInterface("org.freedesktop.DBus.ObjectManager"),
		dbus.WithMatchMember("InterfacesAdded"),
	}
	matchPropertiesChanged = []dbus.MatchOption{
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
	}
)

// Radio drives one BlueZ adapter. Construct with NewRadio, call Enable,
// then hand it to central.NewManager.
type Radio struct {
	id  string
	log logrus.FieldLogger

	bus     *dbus.Conn
	adapter dbus.BusObject

	mu   sync.Mutex
	sink central.EventSink

	sigc chan *dbus.Signal
	done chan struct{}
}

// NewRadio returns a radio for the given adapter id ("hci0"). An empty id
// selects the default adapter.
func NewRadio(id string) *Radio {
	if id == "" {
		id = defaultAdapter
	}
	return &Radio{
		id:   id,
		log:  logrus.StandardLogger(),
		done: make(chan struct{}),
	}
}

// SetLogger replaces the radio's logger. Call before Enable.
func (r *Radio) SetLogger(l logrus.FieldLogger) { r.log = l }

// Enable connects to the system bus, binds the adapter object and starts
// translating BlueZ signals into sink events.
func (r *Radio) Enable() error {
	bus, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("linux: system bus: %w", err)
	}
	r.bus = bus
	r.adapter = bus.Object(bluezBus, dbus.ObjectPath("/org/bluez/"+r.id))

	if _, err := r.adapter.GetProperty(adapter1Interface + "." + adapter1Powered); err != nil {
		if derr, ok := err.(dbus.Error); ok && derr.Name == "org.freedesktop.DBus.Error.UnknownObject" {
			return fmt.Errorf("linux: adapter %s does not exist", r.id)
		}
		return fmt.Errorf("linux: could not reach BlueZ adapter: %w", err)
	}

	if err := bus.AddMatchSignal(matchInterfacesAdded...); err != nil {
		return fmt.Errorf("linux: add match InterfacesAdded: %w", err)
	}
	if err := bus.AddMatchSignal(matchPropertiesChanged...); err != nil {
		return fmt.Errorf("linux: add match PropertiesChanged: %w", err)
	}

	r.sigc = make(chan *dbus.Signal, 32)
	bus.Signal(r.sigc)
	go r.handleSignals()
	return nil
}

// Close stops signal handling and releases the bus matches.
func (r *Radio) Close() error {
	close(r.done)
	if r.bus == nil {
		return nil
	}
	if err := r.bus.RemoveMatchSignal(matchInterfacesAdded...); err != nil {
		return err
	}
	if err := r.bus.RemoveMatchSignal(matchPropertiesChanged...); err != nil {
		return err
	}
	r.bus.RemoveSignal(r.sigc)
	return nil
}

// Attach implements central.Radio.
func (r *Radio) Attach(sink central.EventSink) {
	r.mu.Lock()
	r.sink = sink
	r.mu.Unlock()
}

func (r *Radio) currentSink() central.EventSink {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sink
}

// State implements central.Radio. BlueZ only distinguishes powered on and
// off; an unreachable adapter reads as unsupported.
func (r *Radio) State() central.State {
	if r.bus == nil {
		return central.StateUnknown
	}
	v, err := r.adapter.GetProperty(adapter1Interface + "." + adapter1Powered)
	if err != nil {
		if derr, ok := err.(dbus.Error); ok && derr.Name == "org.freedesktop.DBus.Error.UnknownObject" {
			return central.StateUnsupported
		}
		return central.StateUnknown
	}
	if powered, ok := v.Value().(bool); ok && powered {
		return central.StatePoweredOn
	}
	return central.StatePoweredOff
}

// StartScan implements central.Radio. Fire-and-forget: failures are
// logged, never returned.
func (r *Radio) StartScan() {
	go func() {
		if call := r.adapter.Call(adapter1Interface+".StartDiscovery", 0); call.Err != nil {
			r.log.WithError(call.Err).Warn("StartDiscovery failed")
		}
	}()
}

// StopScan implements central.Radio.
func (r *Radio) StopScan() {
	go func() {
		if call := r.adapter.Call(adapter1Interface+".StopDiscovery", 0); call.Err != nil {
			r.log.WithError(call.Err).Debug("StopDiscovery failed")
		}
	}()
}

// Connect implements central.Radio. The outcome surfaces as a Device1
// Connected property change, not here.
func (r *Radio) Connect(id string) {
	dev := r.bus.Object(bluezBus, r.devicePath(id))
	go func() {
		if call := dev.Call(device1Interface+".Connect", 0); call.Err != nil {
			r.log.WithError(call.Err).WithField("id", id).Warn("Connect failed")
		}
	}()
}

// CancelConnection implements central.Radio.
func (r *Radio) CancelConnection(id string) {
	dev := r.bus.Object(bluezBus, r.devicePath(id))
	go func() {
		if call := dev.Call(device1Interface+".Disconnect", 0); call.Err != nil {
			r.log.WithError(call.Err).WithField("id", id).Warn("Disconnect failed")
		}
	}()
}

// devicePath maps a device address to its BlueZ object path under this
// adapter.
func (r *Radio) devicePath(addr string) dbus.ObjectPath {
	return dbus.ObjectPath("/org/bluez/" + r.id + "/dev_" + strings.ReplaceAll(strings.ToUpper(addr), ":", "_"))
}

// pathAddress recovers the device address from a BlueZ object path, or ""
// when the path is not a device path.
func pathAddress(p dbus.ObjectPath) string {
	s := string(p)
	i := strings.LastIndex(s, "/dev_")
	if i < 0 {
		return ""
	}
	return strings.ReplaceAll(s[i+len("/dev_"):], "_", ":")
}

func (r *Radio) handleSignals() {
	for {
		select {
		case sig, ok := <-r.sigc:
			if !ok {
				return
			}
			switch sig.Name {
			case signalInterfacesAdded:
				r.onInterfacesAdded(sig)
			case signalPropertiesChanged:
				r.onPropertiesChanged(sig)
			}
		case <-r.done:
			return
		}
	}
}

// onInterfacesAdded handles newly seen devices during discovery.
func (r *Radio) onInterfacesAdded(sig *dbus.Signal) {
	sink := r.currentSink()
	if sink == nil || len(sig.Body) < 2 {
		return
	}
	interfaces, ok := sig.Body[1].(map[string]map[string]dbus.Variant)
	if !ok {
		return
	}
	props, ok := interfaces[device1Interface]
	if !ok {
		return
	}
	id, name, adv, rssi := deviceProperties(props)
	if id == "" {
		id = pathAddress(sig.Path)
	}
	if id == "" {
		return
	}
	sink.HandleAdvertisement(id, name, adv, rssi)
}

// onPropertiesChanged handles adapter power changes, repeat advertisements
// (RSSI/ManufacturerData/Name refreshes) and connection state changes.
func (r *Radio) onPropertiesChanged(sig *dbus.Signal) {
	sink := r.currentSink()
	if sink == nil || len(sig.Body) < 2 {
		return
	}
	iface, ok := sig.Body[0].(string)
	if !ok {
		return
	}
	changes, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	switch iface {
	case adapter1Interface:
		if _, ok := changes[adapter1Powered]; ok {
			sink.HandleStateChanged(r.State())
		}
	case device1Interface:
		id := pathAddress(sig.Path)
		if id == "" {
			return
		}
		if connected, ok := changes[device1Connected].Value().(bool); ok {
			if connected {
				sink.HandleConnected(id)
			} else {
				// BlueZ does not report a disconnect reason on this signal.
				sink.HandleDisconnected(id, nil)
			}
			return
		}
		if !anyObservation(changes) {
			return
		}
		_, name, adv, rssi := deviceProperties(changes)
		sink.HandleAdvertisement(id, name, adv, rssi)
	}
}

// anyObservation reports whether a Device1 property change carries
// anything worth re-observing.
func anyObservation(changes map[string]dbus.Variant) bool {
	for _, k := range []string{device1Name, device1RSSI, device1MfgData} {
		if _, ok := changes[k]; ok {
			return true
		}
	}
	return false
}

// deviceProperties lifts Device1 properties into an observation.
func deviceProperties(props map[string]dbus.Variant) (id, name string, adv *central.Advertisement, rssi int) {
	if v, ok := props[device1Address]; ok {
		id, _ = v.Value().(string)
	}
	if v, ok := props[device1Name]; ok {
		name, _ = v.Value().(string)
	}
	if v, ok := props[device1RSSI]; ok {
		if n, ok := v.Value().(int16); ok {
			rssi = int(n)
		}
	}
	adv = &central.Advertisement{ManufacturerData: manufacturerData(props)}
	return id, name, adv, rssi
}

// manufacturerData flattens BlueZ's company-id keyed map back into the
// wire form: little-endian company id followed by the payload. When a
// device advertises payloads for several company ids the lowest id wins,
// so repeat observations stay stable across map iteration order.
func manufacturerData(props map[string]dbus.Variant) []byte {
	v, ok := props[device1MfgData]
	if !ok {
		return nil
	}
	m, ok := v.Value().(map[uint16]dbus.Variant)
	if !ok {
		return nil
	}
	var out []byte
	first := true
	var lowest uint16
	for cid, data := range m {
		b, ok := data.Value().([]byte)
		if !ok {
			continue
		}
		if first || cid < lowest {
			first = false
			lowest = cid
			out = append([]byte{byte(cid), byte(cid >> 8)}, b...)
		}
	}
	return out
}
