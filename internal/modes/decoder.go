package modes

import (
	"github.com/sirupsen/logrus"
)

// squelchThreshold is the minimum mean half-chip delta (divided by 4)
// a candidate frame must clear before it is treated as anything other
// than noise.
const squelchThreshold = 16

// Decoder is a streaming Mode S frame detector. It is driven by
// repeatedly calling Decode with a growing buffer of magnitude
// samples; it never blocks and never owns a goroutine of its own.
type Decoder struct {
	log        *logrus.Logger
	fixErrors  bool
	icaoCache  *icaoCache
	aggressive bool
}

// NewDecoder builds a Decoder with single-bit error correction enabled
// by default, matching dump1090-family defaults.
func NewDecoder(log *logrus.Logger) *Decoder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Decoder{
		log:       log,
		fixErrors: true,
		icaoCache: newICAOCache(),
	}
}

// Decode scans buf for Mode S frames. It returns every frame it
// extracted and the number of leading bytes of buf the caller should
// discard (the decoder never looks at those bytes again). Decode is a
// pure function of its receiver's cache state and the input buffer: it
// does not retain a reference to buf.
func (d *Decoder) Decode(buf []byte) (frames []Frame, consumed int) {
	pos := 0

	for {
		if len(buf)-pos < minBufferSamples {
			return frames, pos
		}

		if !detectPreamble(buf[pos : pos+PreambleSamples]) {
			pos++
			continue
		}

		frameSamples := buf[pos+PreambleSamples : pos+windowSamples]
		bits, squelchMean := demodulate(frameSamples)
		packed := packBits(bits)

		// Preamble matched: the window is always fully consumed from
		// here, win or lose, so the decoder never re-examines samples
		// already spent on a demod attempt.
		pos += windowSamples

		if squelchMean < squelchThreshold {
			d.log.Tracef("squelch dropped candidate frame (mean=%d)", squelchMean)
			continue
		}

		df := packed[0] >> 3
		msg := append([]byte(nil), packed[:messageLenBytes(df)]...)

		frame, ok := d.validate(msg, df)
		if !ok {
			continue
		}
		frames = append(frames, frame)
	}
}

// validate checks msg's CRC-24, attempting single-bit repair or
// brute-force ICAO recovery as appropriate for its downlink format.
// Returns ok=false when the frame must be silently discarded.
func (d *Decoder) validate(msg []byte, df uint8) (Frame, bool) {
	if df == 11 || df == 17 {
		if trailingCRC(msg) == checksum(msg) {
			addr := uint32(msg[1])<<16 | uint32(msg[2])<<8 | uint32(msg[3])
			d.icaoCache.add(addr)
			return Frame{Bytes: msg, Valid: true, RepairedBit: -1}, true
		}

		if d.fixErrors {
			if bit := fixSingleBitError(msg); bit != -1 {
				d.log.WithFields(logrus.Fields{"df": df, "bit": bit}).Info("repaired single-bit Mode S frame error")
				addr := uint32(msg[1])<<16 | uint32(msg[2])<<8 | uint32(msg[3])
				d.icaoCache.add(addr)
				return Frame{Bytes: msg, Valid: true, Repaired: true, RepairedBit: bit}, true
			}
		}

		return Frame{}, false
	}

	// DF 0, 4, 5, 16, 20, 21: the AP field is the CRC XORed with the
	// sender's ICAO address. Recover the address by brute force against
	// recently-seen DF11/17 senders.
	switch df {
	case 0, 4, 5, 16, 20, 21:
		crc := checksum(msg)
		n := len(msg)
		addr := (uint32(msg[n-3])^(crc>>16&0xff))<<16 |
			(uint32(msg[n-2])^(crc>>8&0xff))<<8 |
			(uint32(msg[n-1]) ^ (crc & 0xff))

		if d.icaoCache.seenRecently(addr) {
			return Frame{Bytes: msg, Valid: true, RepairedBit: -1}, true
		}
	}

	return Frame{}, false
}

// detectPreamble implements the shape+level test over the first 16
// magnitude samples of a candidate window.
func detectPreamble(m []byte) bool {
	if !(m[0] > m[1] &&
		m[1] < m[2] &&
		m[2] > m[3] &&
		m[3] < m[0] &&
		m[4] < m[0] &&
		m[5] < m[0] &&
		m[6] < m[0] &&
		m[7] > m[8] &&
		m[8] < m[9] &&
		m[9] > m[6]) {
		return false
	}

	high := uint8((int32(m[0]) + int32(m[2]) + int32(m[7]) + int32(m[9])) / 6)
	if m[4] >= high || m[5] >= high {
		return false
	}
	if m[11] >= high || m[12] >= high || m[13] >= high || m[14] >= high {
		return false
	}
	return true
}

// demodulate converts 224 PPM-encoded samples into 112 bits and the
// squelch mean used to reject noise.
func demodulate(samples []byte) (bits [MessageBitsLong]byte, squelchMean int) {
	var deltaSum int
	for i := 0; i < len(samples); i += 2 {
		low, high := samples[i], samples[i+1]
		delta := int(low) - int(high)
		if delta < 0 {
			delta = -delta
		}
		deltaSum += delta

		if low > high {
			bits[i/2] = 1
		} else {
			bits[i/2] = 0
		}
	}
	squelchMean = (deltaSum / (len(samples) / 2)) / 4
	return bits, squelchMean
}

// packBits packs 112 bits MSB-first into 14 bytes.
func packBits(bits [MessageBitsLong]byte) [MessageBytesLong]byte {
	var out [MessageBytesLong]byte
	for i := 0; i < len(bits); i += 8 {
		out[i/8] = bits[i]<<7 | bits[i+1]<<6 | bits[i+2]<<5 | bits[i+3]<<4 |
			bits[i+4]<<3 | bits[i+5]<<2 | bits[i+6]<<1 | bits[i+7]
	}
	return out
}

// RecoverICAO reconstructs the sender's ICAO address for frames whose
// AP field is CRC-XORed with the address (DF 0, 4, 5, 16, 20, 21).
// For DF 11/17 frames the address is simply bytes 1..3, see Frame.ICAORaw.
func RecoverICAO(f Frame) uint32 {
	crc := checksum(f.Bytes)
	n := len(f.Bytes)
	return (uint32(f.Bytes[n-3])^(crc>>16&0xff))<<16 |
		(uint32(f.Bytes[n-2])^(crc>>8&0xff))<<8 |
		(uint32(f.Bytes[n-1]) ^ (crc & 0xff))
}
