package magnitude

import "testing"

func TestConvertCenterIsZero(t *testing.T) {
	if got := Convert(127, 127); got != 0 {
		t.Errorf("Convert(127,127) = %d, want 0", got)
	}
}

func TestConvertPythagorean(t *testing.T) {
	// di=3, dq=4 -> magnitude 5, a clean Pythagorean triple.
	if got := Convert(130, 131); got != 5 {
		t.Errorf("Convert(130,131) = %d, want 5", got)
	}
}

func TestConvertFullNegativeDeflection(t *testing.T) {
	if got := Convert(0, 0); got != 180 {
		t.Errorf("Convert(0,0) = %d, want 180 (sqrt(127^2+127^2) rounded)", got)
	}
}

func TestStageToMagnitudeEvenBuffer(t *testing.T) {
	var s Stage
	out := s.ToMagnitude([]byte{127, 127, 130, 131})
	if len(out) != 2 {
		t.Fatalf("got %d samples, want 2", len(out))
	}
	if out[0] != 0 || out[1] != 5 {
		t.Errorf("out = %v, want [0 5]", out)
	}
	if s.hasPending {
		t.Error("hasPending = true after an even-length buffer")
	}
}

func TestStageToMagnitudeCarriesOddByteAcrossCalls(t *testing.T) {
	var s Stage

	out1 := s.ToMagnitude([]byte{127})
	if len(out1) != 0 {
		t.Fatalf("got %d samples from a single pending byte, want 0", len(out1))
	}
	if !s.hasPending {
		t.Fatal("hasPending = false after an odd-length buffer")
	}

	out2 := s.ToMagnitude([]byte{127, 130, 131})
	if len(out2) != 2 {
		t.Fatalf("got %d samples, want 2 (one from carryover, one fresh pair)", len(out2))
	}
	if out2[0] != 0 {
		t.Errorf("out2[0] = %d, want 0 (carried-over pair 127,127)", out2[0])
	}
	if out2[1] != 5 {
		t.Errorf("out2[1] = %d, want 5 (fresh pair 130,131)", out2[1])
	}
	if s.hasPending {
		t.Error("hasPending = true, want false after consuming the trailing byte")
	}
}
