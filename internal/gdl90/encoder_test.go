package gdl90

import (
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestFrameEscapesFlagAndEscapeBytes(t *testing.T) {
	// A payload containing both reserved bytes must have each escaped
	// as 0x7D followed by the byte XORed with 0x20, and the frame must
	// still start and end with an unescaped 0x7E.
	out := frame([]byte{0x00, frameFlag, frameEscape, 0x01})

	if out[0] != frameFlag {
		t.Fatalf("out[0] = %#x, want leading 0x7E", out[0])
	}
	if out[len(out)-1] != frameFlag {
		t.Fatalf("out[last] = %#x, want trailing 0x7E", out[len(out)-1])
	}

	inner := out[1 : len(out)-1]
	wantEscapedFlag := []byte{frameEscape, frameFlag ^ frameEscXOR}
	wantEscapedEsc := []byte{frameEscape, frameEscape ^ frameEscXOR}

	if inner[1] != wantEscapedFlag[0] || inner[2] != wantEscapedFlag[1] {
		t.Errorf("0x7E byte not escaped: got %#x %#x, want %#x %#x", inner[1], inner[2], wantEscapedFlag[0], wantEscapedFlag[1])
	}
	if inner[3] != wantEscapedEsc[0] || inner[4] != wantEscapedEsc[1] {
		t.Errorf("0x7D byte not escaped: got %#x %#x, want %#x %#x", inner[3], inner[4], wantEscapedEsc[0], wantEscapedEsc[1])
	}
}

func TestFrameRoundTripsWithoutEscaping(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x02, 0x03}
	out := frame(payload)

	// No reserved bytes in this payload, so the body is exactly
	// payload + little-endian CRC, unescaped.
	crc := crc16(payload)
	want := append(append([]byte{frameFlag}, payload...), byte(crc), byte(crc>>8))
	want = append(want, frameFlag)

	if len(out) != len(want) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %#x, want %#x", i, out[i], want[i])
		}
	}
}

func TestEncodeLatLon24RoundTrips(t *testing.T) {
	const resolution = 180.0 / (1 << 23)
	cases := []float64{0, 37.7749, -122.4194, 89.9999, -179.9999}

	for _, deg := range cases {
		raw := encodeLatLon24(deg)
		signed := raw
		if signed&0x800000 != 0 {
			signed |= ^int32(0xffffff)
		}
		got := float64(signed) * resolution
		if !approxEqual(got, deg, resolution) {
			t.Errorf("encodeLatLon24(%v) round-trips to %v, want within %v", deg, got, resolution)
		}
	}
}

func TestEncodeTrafficReportEmbedsAddressAndMessageID(t *testing.T) {
	out := EncodeTrafficReport(TrafficReport{
		Address:       0xABCDEF,
		AddressType:   AddressICAO,
		Latitude:      37.7749,
		Longitude:     -122.4194,
		AltitudeFeet:  1500,
		AltitudeValid: true,
		Callsign:      "UAL123",
	})

	if out[0] != frameFlag || out[len(out)-1] != frameFlag {
		t.Fatal("traffic report is not properly flag-delimited")
	}
	payload := out[1 : len(out)-3] // strip leading flag, CRC, trailing flag (no escapes expected here)

	if payload[0] != idTrafficReport {
		t.Errorf("message ID = %#x, want %#x", payload[0], idTrafficReport)
	}
	if payload[2] != 0xAB || payload[3] != 0xCD || payload[4] != 0xEF {
		t.Errorf("address bytes = %02x %02x %02x, want AB CD EF", payload[2], payload[3], payload[4])
	}
}

func TestPadCallsignTruncatesAndSpacePads(t *testing.T) {
	short := padCallsign("UAL1")
	if string(short) != "UAL1    " {
		t.Errorf("padCallsign(short) = %q, want %q", short, "UAL1    ")
	}

	long := padCallsign("TOOLONGCALLSIGN")
	if len(long) != 8 {
		t.Fatalf("len(padCallsign(long)) = %d, want 8", len(long))
	}
	if string(long) != "TOOLONGC" {
		t.Errorf("padCallsign(long) = %q, want %q", long, "TOOLONGC")
	}
}

func TestEncodeHeartbeatSetsUTCOKBit(t *testing.T) {
	out := EncodeHeartbeat(Heartbeat{UTCOK: true, MessageCount: 1})
	payload := out[1 : len(out)-3]
	if payload[0] != idHeartbeat {
		t.Fatalf("message ID = %#x, want %#x", payload[0], idHeartbeat)
	}
	if payload[2]&0x01 == 0 {
		t.Error("status byte 2 UTC-OK bit not set")
	}
}

func TestEncodeForeflightIdentifyPadsDeviceNames(t *testing.T) {
	out := EncodeForeflightIdentify(ForeflightIdentify{
		SerialNumber: 42,
		DeviceName:   "go1090",
	})
	payload := out[1 : len(out)-3]
	if payload[0] != idForeflightID {
		t.Fatalf("message ID = %#x, want %#x", payload[0], idForeflightID)
	}
	if payload[1] != 0 {
		t.Errorf("sub-message ID = %d, want 0 (Identify)", payload[1])
	}
	name := payload[11:19]
	if string(name[:6]) != "go1090" || name[6] != 0 || name[7] != 0 {
		t.Errorf("device name field = %q, want NUL-padded %q", name, "go1090")
	}
}
