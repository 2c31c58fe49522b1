package central

import "errors"

// ErrMalformedAdvertisement is returned by Unmarshal when an advertising
// payload does not decode as a sequence of length-prefixed EIR fields.
var ErrMalformedAdvertisement = errors.New("central: malformed advertisement")

// advertising data field types consumed on the scan side
const (
	typeFlags            = 0x01 // Flags
	typeSomeUUID16       = 0x02 // Incomplete List of 16-bit Service Class UUIDs
	typeAllUUID16        = 0x03 // Complete List of 16-bit Service Class UUIDs
	typeSomeUUID32       = 0x04 // Incomplete List of 32-bit Service Class UUIDs
	typeAllUUID32        = 0x05 // Complete List of 32-bit Service Class UUIDs
	typeSomeUUID128      = 0x06 // Incomplete List of 128-bit Service Class UUIDs
	typeAllUUID128       = 0x07 // Complete List of 128-bit Service Class UUIDs
	typeShortName        = 0x08 // Shortened Local Name
	typeCompleteName     = 0x09 // Complete Local Name
	typeTxPower          = 0x0A // Tx Power Level
	typeServiceData16    = 0x16 // Service Data - 16-bit UUID
	typeServiceData32    = 0x20 // Service Data - 32-bit UUID
	typeServiceData128   = 0x21 // Service Data - 128-bit UUID
	typeManufacturerData = 0xFF // Manufacturer Specific Data
)

// Advertisement is the decoded content of an advertising packet, as seen
// by a scanning central.
type Advertisement struct {
	LocalName        string
	ManufacturerData []byte
	ServiceData      []byte
	Services         []UUID
	TxPowerLevel     int
	Connectable      bool
}

// Unmarshal decodes a raw EIR advertising payload. Fields with unknown
// types are skipped.
func (a *Advertisement) Unmarshal(b []byte) error {
	for len(b) > 0 {
		l := int(b[0])
		if l == 0 {
			// Zero-length field terminates the significant part.
			return nil
		}
		if len(b) < 1+l {
			return ErrMalformedAdvertisement
		}
		t := b[1]
		d := b[2 : 1+l]
		switch t {
		case typeFlags:
			a.Connectable = len(d) > 0 && (d[0]&0x01 != 0 || d[0]&0x02 != 0)
		case typeSomeUUID16, typeAllUUID16:
			a.Services = uuidList(a.Services, d, 2)
		case typeSomeUUID32, typeAllUUID32:
			a.Services = uuidList(a.Services, d, 4)
		case typeSomeUUID128, typeAllUUID128:
			a.Services = uuidList(a.Services, d, 16)
		case typeShortName:
			// A complete name wins over a shortened one.
			if a.LocalName == "" {
				a.LocalName = string(d)
			}
		case typeCompleteName:
			a.LocalName = string(d)
		case typeTxPower:
			if len(d) > 0 {
				a.TxPowerLevel = int(int8(d[0]))
			}
		case typeServiceData16, typeServiceData32, typeServiceData128:
			a.ServiceData = copyBytes(d)
		case typeManufacturerData:
			a.ManufacturerData = copyBytes(d)
		}
		b = b[1+l:]
	}
	return nil
}

// uuidList appends the w-byte UUIDs packed in d. The wire order is
// little-endian, matching UUID storage, so the bytes are taken as is.
func uuidList(u []UUID, d []byte, w int) []UUID {
	for len(d) >= w {
		u = append(u, UUID{copyBytes(d[:w])})
		d = d[w:]
	}
	return u
}
