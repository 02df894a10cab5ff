package gdl90

import (
	"math"
)

// frameStart and frameEnd are the GDL-90 flag bytes. Either byte
// appearing literally inside an encoded message must be escaped, which
// the original fishfinder encoder and the go1090 teacher both omit —
// a raw 0x7E or 0x7D in a payload would otherwise terminate the frame
// early or corrupt the next one.
const (
	frameFlag    = 0x7e
	frameEscape  = 0x7d
	frameEscXOR  = 0x20
)

// frame wraps payload (message ID followed by its body) in 0x7E
// delimiters with an appended little-endian CRC-16, escaping any 0x7E
// or 0x7D byte that appears in the payload or CRC.
func frame(payload []byte) []byte {
	crc := crc16(payload)
	body := make([]byte, 0, len(payload)+2)
	body = append(body, payload...)
	body = append(body, byte(crc), byte(crc>>8))

	out := make([]byte, 0, len(body)+4)
	out = append(out, frameFlag)
	for _, b := range body {
		if b == frameFlag || b == frameEscape {
			out = append(out, frameEscape, b^frameEscXOR)
		} else {
			out = append(out, b)
		}
	}
	out = append(out, frameFlag)
	return out
}

// EncodeHeartbeat serializes a Heartbeat as message ID 0x00.
func EncodeHeartbeat(h Heartbeat) []byte {
	var status1, status2 byte
	if h.GPSPositionValid {
		status1 |= 1 << 7
	}
	if h.MaintRequired {
		status1 |= 1 << 6
	}
	if h.IdentActive {
		status1 |= 1 << 5
	}
	if h.GPSBattLow {
		status1 |= 1 << 3
	}
	if h.UTCOK {
		status2 |= 1 << 0
	}

	secs := uint32(h.TimeOfDay.Seconds())
	if secs&0x10000 != 0 {
		status2 |= 1 << 7
	}

	payload := []byte{
		idHeartbeat,
		status1,
		status2,
		byte(secs),
		byte(secs >> 8),
		byte(h.MessageCount),
		byte(h.MessageCount >> 8),
	}
	return frame(payload)
}

// EncodeOwnshipReport serializes an OwnshipReport as message ID 0x0a.
func EncodeOwnshipReport(o OwnshipReport) []byte {
	return frame(encodeTrafficLike(idOwnshipReport, TrafficReport{
		Latitude:      o.Latitude,
		Longitude:     o.Longitude,
		AltitudeFeet:  o.AltitudeFeet,
		AltitudeValid: o.AltitudeValid,
		OnGround:      o.OnGround,
		NIC:           o.NIC,
		NACp:          o.NACp,
		AddressType:   AddressSelfAssigned,
	}))
}

// EncodeOwnshipGeometricAltitude serializes message ID 0x0b.
func EncodeOwnshipGeometricAltitude(o OwnshipGeometricAltitude) []byte {
	alt := int16(o.AltitudeFeet / 5)
	payload := []byte{
		idOwnshipGeoAlt,
		byte(alt >> 8), byte(alt),
		byte(o.VerticalFigureOM >> 8), byte(o.VerticalFigureOM),
	}
	return frame(payload)
}

// EncodeTrafficReport serializes a TrafficReport as message ID 20
// (long report: includes the resolved callsign).
func EncodeTrafficReport(t TrafficReport) []byte {
	return frame(encodeTrafficLike(idTrafficReport, t))
}

// encodeTrafficLike builds the shared 27-byte ownship/traffic report
// body used by message IDs 0x0a and 0x14.
func encodeTrafficLike(msgID byte, t TrafficReport) []byte {
	payload := make([]byte, 28)
	payload[0] = msgID

	payload[1] = byte(t.AddressType) & 0x0f // alert status 0 in the high nibble, address type in the low
	payload[2] = byte(t.Address >> 16)
	payload[3] = byte(t.Address >> 8)
	payload[4] = byte(t.Address)

	lat := encodeLatLon24(t.Latitude)
	payload[5] = byte(lat >> 16)
	payload[6] = byte(lat >> 8)
	payload[7] = byte(lat)

	lon := encodeLatLon24(t.Longitude)
	payload[8] = byte(lon >> 16)
	payload[9] = byte(lon >> 8)
	payload[10] = byte(lon)

	altField := uint16(0xfff)
	if t.AltitudeValid {
		altField = uint16((t.AltitudeFeet + 1000) / 25)
		if altField > 0xffe {
			altField = 0xffe
		}
	}
	misc := byte(1) // airborne, extrapolated position
	if t.OnGround {
		misc = 1 << 1
	}
	payload[11] = byte(altField >> 4)
	payload[12] = byte(altField<<4) | (misc & 0x0f)

	payload[13] = (t.NIC << 4) | (t.NACp & 0x0f)

	hVel := uint16(0xfff)
	if t.GroundSpeedValid {
		hVel = uint16(t.GroundSpeedKt) & 0x0fff
	}
	vVel := uint16(0x800)
	if t.VerticalValid {
		v := t.VerticalFpm / 64
		vVel = uint16(int16(v)) & 0x0fff
	}
	payload[14] = byte(hVel >> 4)
	payload[15] = byte(hVel<<4) | byte(vVel>>8)
	payload[16] = byte(vVel)

	track := byte(0)
	if t.TrackValid {
		track = byte(math.Round(t.TrackDegrees / (360.0 / 256.0)))
	}
	payload[17] = track

	payload[18] = byte(t.EmitterCategory)

	cs := padCallsign(t.Callsign)
	copy(payload[19:27], cs)

	payload[27] = 0
	return payload
}

// encodeLatLon24 packs a signed latitude or longitude in degrees into
// the 24-bit, 180/2^23-resolution two's complement field GDL-90 uses.
func encodeLatLon24(deg float64) int32 {
	const resolution = 180.0 / (1 << 23)
	v := int32(math.Round(deg / resolution))
	return v & 0xffffff
}

// padCallsign truncates or space-pads s to the fixed 8-byte callsign
// field.
func padCallsign(s string) []byte {
	out := make([]byte, 8)
	for i := range out {
		out[i] = ' '
	}
	n := len(s)
	if n > 8 {
		n = 8
	}
	copy(out, s[:n])
	return out
}

// EncodeForeflightIdentify serializes the ForeFlight identification
// extension, message ID 0x65 sub-ID 0.
func EncodeForeflightIdentify(id ForeflightIdentify) []byte {
	payload := make([]byte, 39)
	payload[0] = idForeflightID
	payload[1] = 0 // sub-message ID: Identify
	payload[2] = 1 // version

	sn := id.SerialNumber
	for i := 0; i < 8; i++ {
		payload[3+i] = byte(sn >> (8 * (7 - i)))
	}

	name := padTo(id.DeviceName, 8)
	copy(payload[11:19], name)

	long := padTo(id.DeviceNameLong, 16)
	copy(payload[19:35], long)

	var caps uint32
	if id.GPSCapable {
		caps |= 1 << 0
	}
	if id.AHRSCapable {
		caps |= 1 << 1
	}
	payload[35] = byte(caps >> 24)
	payload[36] = byte(caps >> 16)
	payload[37] = byte(caps >> 8)
	payload[38] = byte(caps)

	return frame(payload)
}

// padTo truncates or NUL-pads s to exactly n bytes.
func padTo(s string, n int) []byte {
	out := make([]byte, n)
	m := len(s)
	if m > n {
		m = n
	}
	copy(out, s[:m])
	return out
}
