package gdl90

import (
	"io"
	"net"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestServer() *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Server{
		log:            log,
		publish:        make(chan []byte, publishBacklog),
		clients:        make(map[string]*client),
		deviceName:     "go1090",
		deviceNameLong: "go1090 ADS-B receiver",
		serial:         7,
	}
}

func TestAddClientSeedsForeflightIdentify(t *testing.T) {
	s := newTestServer()
	s.addClient(&net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: clientPort})

	s.mu.Lock()
	var c *client
	for _, v := range s.clients {
		c = v
	}
	s.mu.Unlock()
	if c == nil {
		t.Fatal("addClient did not register the client")
	}

	select {
	case msg := <-c.outbox:
		payload := msg[1 : len(msg)-3]
		if payload[0] != idForeflightID {
			t.Errorf("seeded message ID = %#x, want %#x (ForeflightIdentify)", payload[0], idForeflightID)
		}
	default:
		t.Fatal("addClient did not seed an identify frame into the new client's outbox")
	}

	close(c.cancel)
}

func TestTickHeartbeatPublishesHeartbeatAndIdentifyEveryTick(t *testing.T) {
	s := newTestServer()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		s.tickHeartbeat(stop)
		close(done)
	}()

	var sawHeartbeat, sawIdentify int
	// Two ticks' worth of messages: both a Heartbeat and a
	// ForeflightIdentify must appear on every tick, not just the first.
	for i := 0; i < 4; i++ {
		msg := <-s.publish
		payload := msg[1 : len(msg)-3]
		switch payload[0] {
		case idHeartbeat:
			sawHeartbeat++
		case idForeflightID:
			sawIdentify++
		}
	}
	close(stop)
	<-done

	if sawHeartbeat == 0 || sawIdentify == 0 {
		t.Fatalf("saw %d heartbeats and %d identify frames in 4 messages, want at least one of each", sawHeartbeat, sawIdentify)
	}
	if sawIdentify < 2 {
		t.Errorf("identify frames = %d across multiple ticks, want it re-sent every tick, not just the first", sawIdentify)
	}
}
