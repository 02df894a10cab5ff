package adsb

import "math"

// decodeVelocity decodes DF17 type code 19 airborne velocity messages.
// Subtypes 1/2 carry ground-referenced E/W and N/S velocity
// components; subtypes 3/4 carry airspeed and heading directly.
func decodeVelocity(msg []byte, mesub uint8) *Velocity {
	v := &Velocity{}

	switch mesub {
	case 1, 2:
		ewDir := (msg[5] & 4) >> 2
		ewVelocity := int(msg[5]&3)<<8 | int(msg[6])
		nsDir := (msg[7] & 0x80) >> 7
		nsVelocity := int(msg[7]&0x7f)<<3 | int(msg[8]&0xe0)>>5

		vertRateSource := int((msg[8] & 0x10) >> 4)
		vertRateSign := (msg[8] & 0x8) >> 3
		vertRate := int(msg[8]&7)<<6 | int(msg[9]&0xfc)>>2
		if vertRateSign != 0 {
			vertRate = -vertRate
		}

		v.VerticalRateSource = vertRateSource
		v.VerticalRate = vertRate * 64

		speed := math.Sqrt(float64(nsVelocity*nsVelocity + ewVelocity*ewVelocity))
		v.GroundSpeed = speed

		if speed != 0 {
			ewv, nsv := float64(ewVelocity), float64(nsVelocity)
			if ewDir != 0 {
				ewv = -ewv
			}
			if nsDir != 0 {
				nsv = -nsv
			}

			heading := math.Atan2(ewv, nsv) * 360 / (2 * math.Pi)
			if heading < 0 {
				heading += 360
			}
			v.Heading = heading
			v.HeadingValid = true
		}

	case 3, 4:
		v.HeadingValid = msg[5]&(1<<2) != 0
		v.Heading = (360.0 / 128) * float64(int(msg[5]&3)<<5|int(msg[6])>>3)
	}

	return v
}
