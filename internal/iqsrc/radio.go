package iqsrc

import (
	"fmt"
	"sync"

	rtl "github.com/jpoirier/gortlsdr"
	"github.com/sirupsen/logrus"
)

// RadioConfig is the fixed tuner configuration for Mode S / ADS-B
// reception at 1090 MHz, per the system's radio contract. Only the
// device index varies between installs.
type RadioConfig struct {
	DeviceIndex int
}

const (
	sampleRateHz  = 2_000_000
	centerFreqHz  = 1_090_000_000
	ppmCorrection = 0

	dmaBufferCount = 12
	dmaBufferBytes = 512_000
)

// RadioSource streams IQ bytes from a live RTL2832U tuner. The USB
// driver's blocking, callback-based read runs on its own OS thread
// (ReadAsync never returns until canceled); that thread is the ring's
// sole producer, and Read (called from the pipeline's goroutine) is
// its sole consumer.
type RadioSource struct {
	dev *rtl.Context
	ch  *ring

	closeOnce sync.Once
	done      chan struct{}
}

// OpenRadio configures and starts streaming from the tuner at
// deviceIndex, matching the fixed Mode S radio contract (2 MHz sample
// rate, 1090 MHz center frequency, 0 ppm, AGC on).
func OpenRadio(log *logrus.Logger, cfg RadioConfig) (*RadioSource, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	dev, err := rtl.Open(cfg.DeviceIndex)
	if err != nil {
		return nil, fmt.Errorf("iqsrc: open rtl-sdr device %d: %w", cfg.DeviceIndex, err)
	}

	if err := dev.SetSampleRate(sampleRateHz); err != nil {
		dev.Close()
		return nil, fmt.Errorf("iqsrc: set sample rate: %w", err)
	}
	if err := dev.SetCenterFreq(centerFreqHz); err != nil {
		dev.Close()
		return nil, fmt.Errorf("iqsrc: set center frequency: %w", err)
	}
	if err := dev.SetFreqCorrection(ppmCorrection); err != nil {
		dev.Close()
		return nil, fmt.Errorf("iqsrc: set frequency correction: %w", err)
	}
	if err := dev.SetTunerGainMode(false); err != nil {
		dev.Close()
		return nil, fmt.Errorf("iqsrc: enable AGC: %w", err)
	}
	if err := dev.ResetBuffer(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("iqsrc: reset buffer: %w", err)
	}

	r := &RadioSource{
		dev:  dev,
		ch:   newRing(dmaBufferCount * dmaBufferBytes),
		done: make(chan struct{}),
	}

	go func() {
		cb := func(buf []byte) {
			r.ch.push(buf)
		}
		if err := dev.ReadAsync(cb, nil, dmaBufferCount, dmaBufferBytes); err != nil {
			log.WithError(err).Warn("rtl-sdr async read stopped")
		}
		r.ch.close()
		close(r.done)
	}()

	return r, nil
}

// Read satisfies Source, blocking until the driver thread has pushed
// at least one byte or the radio has been closed.
func (r *RadioSource) Read(p []byte) (int, error) {
	n := r.ch.pop(p)
	if n == 0 {
		return 0, errEndOfStream
	}
	return n, nil
}

// Close cancels the driver's async read and releases the device. The
// driver's own cancellation surfaces as end-of-stream to Read.
func (r *RadioSource) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.dev.CancelAsync()
		<-r.done
		r.dev.Close()
	})
	return err
}
