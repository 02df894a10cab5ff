package iqsrc

import (
	"testing"
	"time"
)

func TestRingPushPopRoundTrip(t *testing.T) {
	r := newRing(16)
	r.push([]byte{1, 2, 3, 4})

	buf := make([]byte, 16)
	n := r.pop(buf)
	if n != 4 {
		t.Fatalf("pop returned %d, want 4", n)
	}
	if got := buf[:n]; got[0] != 1 || got[3] != 4 {
		t.Errorf("popped %v, want [1 2 3 4]", got)
	}
}

func TestRingDropsOldestOnOverflow(t *testing.T) {
	r := newRing(4)
	r.push([]byte{1, 2, 3, 4})
	r.push([]byte{5, 6}) // overflow by 2: drops leading 1,2

	buf := make([]byte, 4)
	n := r.pop(buf)
	if n != 4 {
		t.Fatalf("pop returned %d, want 4", n)
	}
	want := []byte{3, 4, 5, 6}
	for i, b := range want {
		if buf[i] != b {
			t.Errorf("buf = %v, want %v", buf[:n], want)
			break
		}
	}
}

func TestRingPopBlocksUntilPush(t *testing.T) {
	r := newRing(16)
	done := make(chan int, 1)

	go func() {
		buf := make([]byte, 4)
		done <- r.pop(buf)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("pop returned before any data was pushed")
	default:
	}

	r.push([]byte{9})
	select {
	case n := <-done:
		if n != 1 {
			t.Errorf("pop returned %d, want 1", n)
		}
	case <-time.After(time.Second):
		t.Fatal("pop never returned after push")
	}
}

func TestRingCloseUnblocksPopWithZero(t *testing.T) {
	r := newRing(16)
	done := make(chan int, 1)

	go func() {
		buf := make([]byte, 4)
		done <- r.pop(buf)
	}()

	time.Sleep(20 * time.Millisecond)
	r.close()

	select {
	case n := <-done:
		if n != 0 {
			t.Errorf("pop returned %d after close with no data, want 0", n)
		}
	case <-time.After(time.Second):
		t.Fatal("pop never returned after close")
	}
}
