// Package tracker maintains the aircraft table: one record per ICAO
// address, upserted from decoded ADS-B/Mode-S messages and evicted
// lazily after a period of inactivity.
package tracker

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/adsb"
)

// StaleAfter is how long an aircraft may go unseen before it becomes
// eligible for eviction.
const StaleAfter = 60 * time.Second

// cprPositionWindow is the maximum time between an even and an odd CPR
// frame for them to be paired into an unambiguous global position.
const cprPositionWindow = 10 * time.Second

// cprFix is one half of an even/odd CPR pair.
type cprFix struct {
	rawLat, rawLon int
	surface        bool
	at             time.Time
}

// Aircraft is the tracker's record for one ICAO address.
type Aircraft struct {
	ICAO uint32

	Callsign        string
	Squawk          uint16
	EmitterCategory uint8
	OnGround        bool

	HasPosition bool
	Latitude    float64
	Longitude   float64

	BaroAltitude  int
	HasAltitude   bool
	GNSSAltDiff   int
	AltitudeUnit  adsb.Unit
	GroundSpeed   float64
	Heading       float64
	HeadingValid  bool
	VerticalRate  int

	MsgCount uint64
	LastSeen time.Time

	evenCPR, oddCPR *cprFix
}

// Tracker owns the aircraft table exclusively; every read or write
// goes through its mutex.
type Tracker struct {
	log *logrus.Logger

	mu       sync.Mutex
	aircraft map[uint32]*Aircraft
}

// New creates an empty Tracker.
func New(log *logrus.Logger) *Tracker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tracker{log: log, aircraft: make(map[uint32]*Aircraft)}
}

// Update applies a decoded message to the aircraft table, creating the
// record if this is the first message seen for its ICAO address.
func (t *Tracker) Update(msg *adsb.Message) *Aircraft {
	t.mu.Lock()
	defer t.mu.Unlock()

	ac, ok := t.aircraft[msg.ICAO]
	if !ok {
		ac = &Aircraft{ICAO: msg.ICAO}
		t.aircraft[msg.ICAO] = ac
	}

	ac.MsgCount++
	ac.LastSeen = time.Now()

	switch msg.DF {
	case 0, 4, 16, 20:
		ac.BaroAltitude = msg.Altitude
		ac.AltitudeUnit = msg.AltitudeUnit
		ac.HasAltitude = true
	case 5, 21:
		ac.Squawk = msg.Identity
	case 17:
		t.applyExtendedSquitter(ac, msg)
	}

	return ac
}

func (t *Tracker) applyExtendedSquitter(ac *Aircraft, msg *adsb.Message) {
	switch msg.Kind {
	case adsb.KindIdentification:
		ac.Callsign = msg.Callsign
		ac.EmitterCategory = msg.EmitterCategory

	case adsb.KindSurfacePosition:
		ac.OnGround = true
		t.applyCPR(ac, msg)

	case adsb.KindAirbornePosition:
		if msg.AltitudeUnit == adsb.UnitMeters {
			ac.GNSSAltDiff = msg.Altitude - ac.BaroAltitude
		} else {
			ac.BaroAltitude = msg.Altitude
			ac.AltitudeUnit = msg.AltitudeUnit
			ac.HasAltitude = true
		}
		t.applyCPR(ac, msg)

	case adsb.KindAirborneVelocity:
		ac.GroundSpeed = msg.Velocity.GroundSpeed
		ac.Heading = msg.Velocity.Heading
		ac.HeadingValid = msg.Velocity.HeadingValid
		ac.VerticalRate = msg.Velocity.VerticalRate
	}
}

// applyCPR pairs even/odd CPR frames within cprPositionWindow into a
// globally unambiguous position, then tracks subsequent fixes locally
// relative to the last known position.
func (t *Tracker) applyCPR(ac *Aircraft, msg *adsb.Message) {
	fix := &cprFix{rawLat: msg.CPR.RawLat, rawLon: msg.CPR.RawLon, surface: msg.CPR.Surface, at: time.Now()}
	if msg.CPR.Odd {
		ac.oddCPR = fix
	} else {
		ac.evenCPR = fix
	}

	if ac.HasPosition {
		lat, lon := adsb.DecodeLocalPosition(ac.Latitude, ac.Longitude, msg.CPR.RawLat, msg.CPR.RawLon, msg.CPR.Odd, msg.CPR.Surface)
		ac.Latitude, ac.Longitude = lat, lon
		return
	}

	if ac.evenCPR != nil && ac.oddCPR != nil {
		delta := ac.oddCPR.at.Sub(ac.evenCPR.at)
		if delta < 0 {
			delta = -delta
		}
		if delta <= cprPositionWindow {
			newerIsOdd := ac.oddCPR.at.After(ac.evenCPR.at)
			lat, lon, ok := adsb.DecodeGlobalPosition(
				ac.evenCPR.rawLat, ac.evenCPR.rawLon,
				ac.oddCPR.rawLat, ac.oddCPR.rawLon,
				newerIsOdd, msg.CPR.Surface)
			if ok {
				ac.Latitude, ac.Longitude = lat, lon
				ac.HasPosition = true
			}
		}
	}
}

// Snapshot returns a point-in-time copy of every tracked aircraft,
// safe to read without holding the tracker's lock.
func (t *Tracker) Snapshot() []Aircraft {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Aircraft, 0, len(t.aircraft))
	for _, ac := range t.aircraft {
		out = append(out, *ac)
	}
	return out
}

// Count returns the number of tracked aircraft.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.aircraft)
}

// EvictStale removes every aircraft whose last message is older than
// StaleAfter and returns their ICAO addresses. Eviction never blocks
// concurrent Update calls for longer than the scan itself.
func (t *Tracker) EvictStale() []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	var removed []uint32
	for icao, ac := range t.aircraft {
		if now.Sub(ac.LastSeen) > StaleAfter {
			removed = append(removed, icao)
			delete(t.aircraft, icao)
		}
	}
	if len(removed) > 0 {
		t.log.WithField("count", len(removed)).Debug("evicted stale aircraft")
	}
	return removed
}
