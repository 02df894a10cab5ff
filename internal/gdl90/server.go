package gdl90

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// discoveryPort is the well-known port ForeFlight-compatible clients
	// broadcast a hello datagram to in order to announce themselves.
	discoveryPort = 63093
	// clientPort is the port a display client listens for GDL-90 traffic
	// on, at the same address it was discovered from.
	clientPort = 4000

	publishBacklog = 64
	heartbeatEvery = 1 * time.Second
)

// Server fans out GDL-90 traffic to every client that has announced
// itself over the discovery port, plus periodic heartbeats and a
// ForeFlight identification announcement.
type Server struct {
	log *logrus.Logger

	discoveryConn *net.UDPConn
	sendConn      *net.UDPConn

	publish chan []byte

	mu      sync.Mutex
	clients map[string]*client

	deviceName     string
	deviceNameLong string
	serial         uint64

	startedAt time.Time
	msgCount  uint16

	done chan struct{}
}

type client struct {
	addr   *net.UDPAddr
	outbox chan []byte
	cancel chan struct{}
}

// NewServer opens the discovery listener and send socket. It starts no
// goroutines: callers must call Run to drive it and Close to tear it
// down.
func NewServer(log *logrus.Logger, deviceName, deviceNameLong string, serial uint64) (*Server, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	discConn, err := net.ListenUDP("udp", &net.UDPAddr{Port: discoveryPort})
	if err != nil {
		return nil, fmt.Errorf("gdl90: listen on discovery port %d: %w", discoveryPort, err)
	}

	sendConn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		discConn.Close()
		return nil, fmt.Errorf("gdl90: open send socket: %w", err)
	}

	return &Server{
		log:            log,
		discoveryConn:  discConn,
		sendConn:       sendConn,
		publish:        make(chan []byte, publishBacklog),
		clients:        make(map[string]*client),
		deviceName:     deviceName,
		deviceNameLong: deviceNameLong,
		serial:         serial,
		startedAt:      time.Now(),
		done:           make(chan struct{}),
	}, nil
}

// Run drives the discovery listener, the 1 Hz heartbeat/identify
// ticker, and the publish fan-out until stop is closed.
func (s *Server) Run(stop <-chan struct{}) {
	go s.acceptDiscovery(stop)
	go s.tickHeartbeat(stop)

	for {
		select {
		case <-stop:
			s.closeAllClients()
			return
		case msg := <-s.publish:
			s.broadcast(msg)
		}
	}
}

// Publish enqueues a message for fan-out. When the publish backlog is
// saturated the oldest queued message is dropped to make room — a slow
// tick should never stall decode.
func (s *Server) Publish(msg []byte) {
	for {
		select {
		case s.publish <- msg:
			return
		default:
		}
		select {
		case <-s.publish:
			s.log.Warn("gdl90: publish backlog full, dropping oldest message")
		default:
		}
	}
}

// PublishTraffic is a convenience wrapper that encodes and publishes a
// TrafficReport.
func (s *Server) PublishTraffic(t TrafficReport) {
	s.Publish(EncodeTrafficReport(t))
}

func (s *Server) acceptDiscovery(stop <-chan struct{}) {
	buf := make([]byte, 1500)
	for {
		select {
		case <-stop:
			return
		default:
		}

		s.discoveryConn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, addr, err := s.discoveryConn.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		_ = n

		clientAddr := &net.UDPAddr{IP: addr.IP, Port: clientPort}
		s.addClient(clientAddr)
	}
}

func (s *Server) addClient(addr *net.UDPAddr) {
	key := addr.String()

	s.mu.Lock()
	if _, ok := s.clients[key]; ok {
		s.mu.Unlock()
		return
	}
	c := &client{addr: addr, outbox: make(chan []byte, publishBacklog), cancel: make(chan struct{})}
	s.clients[key] = c
	s.mu.Unlock()

	s.log.WithField("client", key).Info("gdl90: new display client")

	identify := EncodeForeflightIdentify(ForeflightIdentify{
		SerialNumber:   s.serial,
		DeviceName:     s.deviceName,
		DeviceNameLong: s.deviceNameLong,
	})
	select {
	case c.outbox <- identify:
	default:
	}

	go s.runClient(key, c)
}

// runClient owns one client's send loop; it deregisters the client on
// the first write failure rather than retrying indefinitely.
func (s *Server) runClient(key string, c *client) {
	for {
		select {
		case <-c.cancel:
			return
		case msg := <-c.outbox:
			if _, err := s.sendConn.WriteToUDP(msg, c.addr); err != nil {
				s.log.WithField("client", key).WithError(err).Info("gdl90: client write failed, dropping")
				s.removeClient(key)
				return
			}
		}
	}
}

func (s *Server) removeClient(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[key]; ok {
		close(c.cancel)
		delete(s.clients, key)
	}
}

func (s *Server) closeAllClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, c := range s.clients {
		close(c.cancel)
		delete(s.clients, key)
	}
}

func (s *Server) broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, c := range s.clients {
		select {
		case c.outbox <- msg:
		default:
			s.log.WithField("client", key).Warn("gdl90: client outbox full, dropping message")
		}
	}
}

func (s *Server) tickHeartbeat(stop <-chan struct{}) {
	ticker := time.NewTicker(heartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.msgCount++
			s.Publish(EncodeHeartbeat(Heartbeat{
				GPSPositionValid: true,
				UTCOK:            true,
				TimeOfDay:        time.Since(midnightUTC()),
				MessageCount:     s.msgCount,
			}))

			s.Publish(EncodeForeflightIdentify(ForeflightIdentify{
				SerialNumber:   s.serial,
				DeviceName:     s.deviceName,
				DeviceNameLong: s.deviceNameLong,
			}))
		}
	}
}

func midnightUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Close releases both UDP sockets.
func (s *Server) Close() error {
	s.discoveryConn.Close()
	return s.sendConn.Close()
}
