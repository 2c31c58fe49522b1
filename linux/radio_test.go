package linux

import (
	"bytes"
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestManufacturerDataLowestCompanyID(t *testing.T) {
	props := map[string]dbus.Variant{
		device1MfgData: dbus.MakeVariant(map[uint16]dbus.Variant{
			0x02E5: dbus.MakeVariant([]byte{0xAA}),
			0x004C: dbus.MakeVariant([]byte{0x01, 0x02}),
			0x0006: dbus.MakeVariant([]byte{0xBB, 0xCC}),
		}),
	}
	// 0x0006 is the lowest id; wire form is little-endian id then payload.
	want := []byte{0x06, 0x00, 0xBB, 0xCC}
	if got := manufacturerData(props); !bytes.Equal(got, want) {
		t.Errorf("manufacturerData = %x, want %x", got, want)
	}
}

func TestManufacturerDataAbsent(t *testing.T) {
	if got := manufacturerData(map[string]dbus.Variant{}); got != nil {
		t.Errorf("manufacturerData = %x, want nil", got)
	}
}

func TestDevicePathRoundTrip(t *testing.T) {
	r := NewRadio("hci0")
	p := r.devicePath("aa:bb:cc:dd:ee:ff")
	if want := dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF"); p != want {
		t.Errorf("devicePath = %q, want %q", p, want)
	}
	if got := pathAddress(p); got != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("pathAddress = %q", got)
	}
	if got := pathAddress("/org/bluez/hci0"); got != "" {
		t.Errorf("pathAddress(adapter path) = %q, want empty", got)
	}
}
