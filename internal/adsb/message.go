// Package adsb decodes validated Mode S frames into structured
// messages: DF 0/4/5/11/16/20/21 surveillance replies and DF 17
// extended squitter (ADS-B) messages.
package adsb

import (
	"fmt"

	"go1090/internal/modes"
)

// Unit is the altitude unit a message reports in.
type Unit int

const (
	UnitFeet Unit = iota
	UnitMeters
)

// ADSBKind distinguishes the DF 17 extended squitter sub-kinds this
// package understands.
type ADSBKind int

const (
	KindUnknown ADSBKind = iota
	KindIdentification
	KindSurfacePosition
	KindAirbornePosition
	KindAirborneVelocity
)

// CPRRaw is the undecoded Compact Position Report carried by a
// DF17 position message. The tracker pairs these across even/odd
// frames and calls DecodeGlobalPosition / DecodeLocalPosition.
type CPRRaw struct {
	Odd     bool
	Surface bool
	RawLat  int
	RawLon  int
}

// Velocity is the decoded DF17 type 19 airborne velocity payload.
type Velocity struct {
	GroundSpeed        float64
	Heading            float64
	HeadingValid       bool
	VerticalRate       int
	VerticalRateSource int
}

// Message is a decoded Mode S / ADS-B message. Only the fields
// relevant to its DF (and, for DF17, its type code) are populated.
type Message struct {
	DF   uint8
	ICAO uint32

	CA uint8 // DF11 capability

	FlightStatus uint8  // DF4,5,20,21
	Identity     uint16 // squawk, DF5/21

	Altitude     int // DF0,4,16,20 and DF17 position messages
	AltitudeUnit Unit

	TypeCode uint8    // DF17 type code
	Kind     ADSBKind // DF17 sub-kind

	Callsign        string // KindIdentification
	EmitterCategory uint8  // KindIdentification

	OnGround bool    // KindSurfacePosition
	CPR      *CPRRaw // KindSurfacePosition, KindAirbornePosition

	Velocity *Velocity // KindAirborneVelocity
}

var aisCharset = []rune("?ABCDEFGHIJKLMNOPQRSTUVWXYZ????? ???????????????0123456789??????")

// Parse decodes a validated Frame. Unrecognized downlink formats are a
// soft error: callers should log and drop, per the system's error
// handling design.
func Parse(f modes.Frame) (*Message, error) {
	msg := f.Bytes
	df := f.DF()

	m := &Message{DF: df}

	switch df {
	case 0:
		m.ICAO = modes.RecoverICAO(f)
		m.Altitude, m.AltitudeUnit = decodeAC13(msg)

	case 4:
		m.ICAO = modes.RecoverICAO(f)
		m.FlightStatus = msg[0] & 7
		m.Altitude, m.AltitudeUnit = decodeAC13(msg)

	case 5:
		m.ICAO = modes.RecoverICAO(f)
		m.FlightStatus = msg[0] & 7
		m.Identity = decodeIdentity(msg)

	case 11:
		m.ICAO = f.ICAORaw()
		m.CA = msg[0] & 7

	case 16:
		m.ICAO = modes.RecoverICAO(f)
		m.Altitude, m.AltitudeUnit = decodeAC13(msg)

	case 17:
		m.ICAO = f.ICAORaw()
		if err := parseExtendedSquitter(msg, m); err != nil {
			return nil, err
		}

	case 20:
		m.ICAO = modes.RecoverICAO(f)
		m.FlightStatus = msg[0] & 7
		m.Altitude, m.AltitudeUnit = decodeAC13(msg)

	case 21:
		m.ICAO = modes.RecoverICAO(f)
		m.FlightStatus = msg[0] & 7
		m.Identity = decodeIdentity(msg)

	default:
		return nil, fmt.Errorf("adsb: unsupported downlink format %d", df)
	}

	return m, nil
}

func parseExtendedSquitter(msg []byte, m *Message) error {
	metype := msg[4] >> 3
	mesub := msg[4] & 7
	m.TypeCode = metype

	switch {
	case metype >= 1 && metype <= 4:
		m.Kind = KindIdentification
		m.EmitterCategory = metype - 1
		m.Callsign = decodeCallsign(msg)

	case metype >= 5 && metype <= 8:
		m.Kind = KindSurfacePosition
		m.OnGround = true
		m.CPR = decodePositionCPR(msg, true)

	case metype >= 9 && metype <= 18:
		m.Kind = KindAirbornePosition
		m.Altitude, m.AltitudeUnit = decodeAC12(msg)
		m.CPR = decodePositionCPR(msg, false)

	case metype >= 20 && metype <= 22:
		m.Kind = KindAirbornePosition
		m.AltitudeUnit = UnitMeters
		m.Altitude, _ = decodeAC12(msg)
		m.CPR = decodePositionCPR(msg, false)

	case metype == 19 && mesub >= 1 && mesub <= 4:
		m.Kind = KindAirborneVelocity
		m.Velocity = decodeVelocity(msg, mesub)

	default:
		return fmt.Errorf("adsb: unsupported extended squitter type %d/%d", metype, mesub)
	}

	return nil
}

func decodePositionCPR(msg []byte, surface bool) *CPRRaw {
	return &CPRRaw{
		Odd:     msg[6]&(1<<2) != 0,
		Surface: surface,
		RawLat:  (int(msg[6]&3) << 15) | (int(msg[7]) << 7) | (int(msg[8]) >> 1),
		RawLon:  (int(msg[8]&1) << 16) | (int(msg[9]) << 8) | int(msg[10]),
	}
}

func decodeCallsign(msg []byte) string {
	idx := []byte{
		msg[5] >> 2,
		(msg[5]&3)<<4 | msg[6]>>4,
		(msg[6]&15)<<2 | msg[7]>>6,
		msg[7] & 63,
		msg[8] >> 2,
		(msg[8]&3)<<4 | msg[9]>>4,
		(msg[9]&15)<<2 | msg[10]>>6,
		msg[10] & 63,
	}
	runes := make([]rune, 8)
	for i, c := range idx {
		runes[i] = aisCharset[c]
	}
	return string(runes)
}

// decodeAC13 decodes the 13 bit altitude field used by DF 0/4/16/20.
func decodeAC13(msg []byte) (altitude int, unit Unit) {
	mBit := msg[3] & (1 << 6)
	qBit := msg[3] & (1 << 4)

	if mBit != 0 {
		return 0, UnitMeters
	}

	if qBit == 0 {
		return 0, UnitFeet
	}

	n := (uint16(msg[2]&31) << 6) |
		(uint16(msg[3]&0x80) >> 2) |
		(uint16(msg[3]&0x20) >> 1) |
		uint16(msg[3]&15)
	return int(n)*25 - 1000, UnitFeet
}

// decodeAC12 decodes the 12 bit altitude field used by DF17 position
// messages.
func decodeAC12(msg []byte) (altitude int, unit Unit) {
	qBit := msg[5] & 1
	if qBit == 0 {
		return 0, UnitFeet
	}

	n := (uint16(msg[5]>>1) << 4) | uint16(msg[6]&0xF0)>>4
	return int(n)*25 - 1000, UnitFeet
}

// decodeIdentity decodes the 13-bit Gillham-coded squawk field used by
// DF5/21 (message bits 20-32): C1-A1-C2-A2-C4-A4-ZERO-B1-D1-B2-D2-B4-D4.
func decodeIdentity(msg []byte) uint16 {
	a := (msg[3]&0x80)>>5 | (msg[2]&0x02)>>0 | (msg[2]&0x08)>>3
	b := (msg[3]&0x02)<<1 | (msg[3]&0x08)>>2 | (msg[3]&0x20)>>5
	c := (msg[2]&0x01)<<2 | (msg[2]&0x04)>>1 | (msg[2]&0x10)>>4
	d := (msg[3]&0x01)<<2 | (msg[3]&0x04)>>1 | (msg[3]&0x10)>>4

	return uint16(a)*1000 + uint16(b)*100 + uint16(c)*10 + uint16(d)
}
