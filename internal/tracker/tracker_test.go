package tracker

import (
	"testing"
	"time"

	"go1090/internal/adsb"
)

func TestUpdateCreatesAircraftOnFirstMessage(t *testing.T) {
	trk := New(nil)

	ac := trk.Update(&adsb.Message{DF: 11, ICAO: 0xABCDEF})
	if ac.ICAO != 0xABCDEF {
		t.Errorf("ICAO = %06X, want ABCDEF", ac.ICAO)
	}
	if ac.MsgCount != 1 {
		t.Errorf("MsgCount = %d, want 1", ac.MsgCount)
	}
	if trk.Count() != 1 {
		t.Errorf("Count() = %d, want 1", trk.Count())
	}
}

func TestUpdateAppliesIdentification(t *testing.T) {
	trk := New(nil)
	trk.Update(&adsb.Message{
		DF:              17,
		ICAO:            0x4840D6,
		Kind:            adsb.KindIdentification,
		Callsign:        "KLM1023 ",
		EmitterCategory: 3,
	})

	snap := trk.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("got %d aircraft, want 1", len(snap))
	}
	if snap[0].Callsign != "KLM1023 " {
		t.Errorf("Callsign = %q, want %q", snap[0].Callsign, "KLM1023 ")
	}
	if snap[0].EmitterCategory != 3 {
		t.Errorf("EmitterCategory = %d, want 3", snap[0].EmitterCategory)
	}
}

func TestUpdateAppliesVelocity(t *testing.T) {
	trk := New(nil)
	trk.Update(&adsb.Message{
		DF:   17,
		ICAO: 0x4840D6,
		Kind: adsb.KindAirborneVelocity,
		Velocity: &adsb.Velocity{
			GroundSpeed:  250,
			Heading:      90,
			HeadingValid: true,
			VerticalRate: -640,
		},
	})

	ac := trk.Snapshot()[0]
	if ac.GroundSpeed != 250 {
		t.Errorf("GroundSpeed = %v, want 250", ac.GroundSpeed)
	}
	if ac.Heading != 90 || !ac.HeadingValid {
		t.Errorf("Heading = %v (valid=%v), want 90 (valid=true)", ac.Heading, ac.HeadingValid)
	}
	if ac.VerticalRate != -640 {
		t.Errorf("VerticalRate = %d, want -640", ac.VerticalRate)
	}
}

func TestApplyCPRPairsEvenOddWithinWindow(t *testing.T) {
	trk := New(nil)
	icao := uint32(0x4840D6)

	trk.Update(&adsb.Message{
		DF:   17,
		ICAO: icao,
		Kind: adsb.KindAirbornePosition,
		CPR:  &adsb.CPRRaw{Odd: false, RawLat: 93000, RawLon: 51372},
	})
	ac := trk.Update(&adsb.Message{
		DF:   17,
		ICAO: icao,
		Kind: adsb.KindAirbornePosition,
		CPR:  &adsb.CPRRaw{Odd: true, RawLat: 74158, RawLon: 50194},
	})

	if !ac.HasPosition {
		t.Fatal("HasPosition = false after a valid even/odd CPR pair")
	}
	if ac.Latitude < 52 || ac.Latitude > 53 {
		t.Errorf("Latitude = %v, want ~52.26", ac.Latitude)
	}
}

func TestUpdateSetsHasAltitudeEvenAtZeroFeet(t *testing.T) {
	trk := New(nil)
	ac := trk.Update(&adsb.Message{DF: 0, ICAO: 0x4840D6, Altitude: 0})

	if !ac.HasAltitude {
		t.Error("HasAltitude = false for an aircraft reporting 0 ft, want true")
	}
	if ac.BaroAltitude != 0 {
		t.Errorf("BaroAltitude = %d, want 0", ac.BaroAltitude)
	}
}

func TestEvictStaleRemovesOldAircraftAndDeletesFromTable(t *testing.T) {
	trk := New(nil)
	ac := trk.Update(&adsb.Message{DF: 11, ICAO: 0x1})
	ac.LastSeen = time.Now().Add(-2 * StaleAfter)

	removed := trk.EvictStale()
	if len(removed) != 1 || removed[0] != 0x1 {
		t.Fatalf("removed = %v, want [1]", removed)
	}
	if trk.Count() != 0 {
		t.Errorf("Count() = %d after eviction, want 0 (entry must actually be deleted)", trk.Count())
	}
}

func TestEvictStaleKeepsFreshAircraft(t *testing.T) {
	trk := New(nil)
	trk.Update(&adsb.Message{DF: 11, ICAO: 0x1})

	removed := trk.EvictStale()
	if len(removed) != 0 {
		t.Errorf("removed = %v, want none for a just-seen aircraft", removed)
	}
	if trk.Count() != 1 {
		t.Errorf("Count() = %d, want 1", trk.Count())
	}
}
