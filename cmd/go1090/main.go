// Command go1090 reads Mode S / ADS-B signals, decodes them into
// tracked aircraft, and republishes them as a GDL-90 feed for any
// ForeFlight-compatible EFB app on the network.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"go1090/internal/adsb"
	"go1090/internal/gdl90"
	"go1090/internal/iqsrc"
	"go1090/internal/magnitude"
	"go1090/internal/modes"
	"go1090/internal/tracker"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		deviceIndex    = flag.Int("device", 0, "rtl-sdr device index")
		replayFile     = flag.String("replay-file", "", "replay a raw IQ capture instead of opening a radio")
		deviceName     = flag.String("device-name", "go1090", "device name announced to ForeFlight")
		deviceNameLong = flag.String("device-name-long", "go1090 ADS-B receiver", "long device name announced to ForeFlight")
		verbose        = flag.BoolP("verbose", "v", false, "enable debug logging")
	)
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	var src iqsrc.Source
	var err error
	if *replayFile != "" {
		src, err = iqsrc.OpenFile(*replayFile)
	} else {
		src, err = iqsrc.OpenRadio(log, iqsrc.RadioConfig{DeviceIndex: *deviceIndex})
	}
	if err != nil {
		log.WithError(err).Error("go1090: failed to open IQ source")
		return 1
	}
	defer src.Close()

	srv, err := gdl90.NewServer(log, *deviceName, *deviceNameLong, 0)
	if err != nil {
		log.WithError(err).Error("go1090: failed to start GDL-90 server")
		return 1
	}
	defer srv.Close()

	stop := make(chan struct{})
	go srv.Run(stop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("go1090: shutting down")
		close(stop)
	}()

	dec := modes.NewDecoder(log)
	trk := tracker.New(log)

	pipeline(log, src, dec, trk, srv, stop)
	return 0
}

// pipeline runs the read -> magnitude -> decode -> parse -> track ->
// publish loop until stop is closed or the source ends.
func pipeline(log *logrus.Logger, src iqsrc.Source, dec *modes.Decoder, trk *tracker.Tracker, srv *gdl90.Server, stop chan struct{}) {
	var mag magnitude.Stage

	raw := make([]byte, 64*1024)
	var buf []uint8

	evictTicker := time.NewTicker(10 * time.Second)
	defer evictTicker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-evictTicker.C:
			trk.EvictStale()
		default:
		}

		n, err := src.Read(raw)
		if n > 0 {
			buf = append(buf, mag.ToMagnitude(raw[:n])...)

			frames, consumed := dec.Decode(buf)
			buf = buf[consumed:]

			for _, f := range frames {
				msg, perr := adsb.Parse(f)
				if perr != nil {
					log.WithError(perr).Debug("go1090: dropped unparseable frame")
					continue
				}
				ac := trk.Update(msg)
				publishTraffic(srv, ac)
			}
		}
		if err != nil {
			log.WithError(err).Info("go1090: IQ source ended")
			return
		}
	}
}

func publishTraffic(srv *gdl90.Server, ac *tracker.Aircraft) {
	if ac == nil || !ac.HasPosition {
		return
	}

	addrType := gdl90.AddressICAO
	report := gdl90.TrafficReport{
		Address:          ac.ICAO,
		AddressType:      addrType,
		Latitude:         ac.Latitude,
		Longitude:        ac.Longitude,
		AltitudeFeet:     ac.BaroAltitude,
		AltitudeValid:    ac.HasAltitude,
		OnGround:         ac.OnGround,
		NIC:              8,
		NACp:             8,
		GroundSpeedKt:    int(ac.GroundSpeed),
		GroundSpeedValid: ac.GroundSpeed != 0,
		VerticalFpm:      ac.VerticalRate,
		VerticalValid:    ac.VerticalRate != 0,
		TrackDegrees:     ac.Heading,
		TrackValid:       ac.HeadingValid,
		EmitterCategory:  gdl90.EmitterCategory(ac.EmitterCategory),
		Callsign:         ac.Callsign,
	}
	srv.PublishTraffic(report)
}
