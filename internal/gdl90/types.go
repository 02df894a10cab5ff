// Package gdl90 encodes tracked aircraft state as GDL-90 datalink
// messages and fans them out over UDP to any display client that has
// announced itself, the way a panel-mount ADS-B receiver feeds a tablet
// EFB app.
package gdl90

import "time"

// Message IDs, per the GDL-90 data interface specification.
const (
	idHeartbeat          = 0x00
	idInitialization     = 0x02
	idUplinkDataOut      = 0x07
	idHeightAboveTerrain = 0x09
	idOwnshipReport      = 0x0a
	idOwnshipGeoAlt      = 0x0b
	idTrafficReport      = 0x14
	idBasicReport        = 0x1e
	idLongReport         = 0x1f
	idForeflightID       = 0x65
)

// AddressType identifies how a traffic report's address should be
// interpreted by the receiving display.
type AddressType uint8

const (
	AddressICAO         AddressType = 0
	AddressSelfAssigned AddressType = 1
	AddressTISB         AddressType = 2
	AddressTISBTrack    AddressType = 3
	AddressSurfaceVeh   AddressType = 4
	AddressGroundStn    AddressType = 5
)

// EmitterCategory mirrors the ADS-B emitter category field; GDL-90
// traffic reports carry it through unchanged.
type EmitterCategory uint8

// Heartbeat is broadcast once per second (message ID 0) so a client can
// tell the unit is alive and can cross-check its clock.
type Heartbeat struct {
	GPSPositionValid bool
	MaintRequired    bool
	IdentActive      bool
	GPSBattLow       bool
	UTCOK            bool
	TimeOfDay        time.Duration // since UTC midnight
	MessageCount     uint16        // uplink + basic/long report count this second
}

// TrafficReport describes one tracked aircraft for message ID 20 (long
// report) or 0x1e (basic report, no callsign resolution). This package
// always emits the long form; every field the short form omits is
// simply zeroed.
type TrafficReport struct {
	Address          uint32
	AddressType      AddressType
	Latitude         float64
	Longitude        float64
	AltitudeFeet     int
	AltitudeValid    bool
	OnGround         bool
	NIC              uint8
	NACp             uint8
	GroundSpeedKt    int
	GroundSpeedValid bool
	VerticalFpm      int
	VerticalValid    bool
	TrackDegrees     float64
	TrackValid       bool
	EmitterCategory  EmitterCategory
	Callsign         string
	Priority         bool
}

// OwnshipReport is identical in wire shape to TrafficReport (message ID
// 10) but always carries this unit's own position.
type OwnshipReport struct {
	Latitude      float64
	Longitude     float64
	AltitudeFeet  int
	AltitudeValid bool
	OnGround      bool
	NIC           uint8
	NACp          uint8
}

// OwnshipGeometricAltitude is message ID 11: GNSS altitude plus a
// vertical figure of merit, sent alongside the ownship report.
type OwnshipGeometricAltitude struct {
	AltitudeFeet     int
	VerticalFigureOM uint16
}

// ForeflightIdentify is ForeFlight's vendor extension (message ID
// 0x65, sub-ID 0) that lets a receiver announce its name and
// capabilities to the app on first contact.
type ForeflightIdentify struct {
	SerialNumber   uint64
	DeviceName     string // truncated/padded to 8 bytes
	DeviceNameLong string // truncated/padded to 16 bytes
	GPSCapable     bool
	AHRSCapable    bool
}
