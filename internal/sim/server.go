// Package sim implements an in-process printer that speaks the control
// protocol over TCP. It backs the client and watcher tests and the
// printersim command; it is not a firmware emulation beyond the command set
// this module uses.
package sim

import (
	"bufio"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"

	"printwatch/pkg/flashforge"
)

// Server is one simulated printer. State is guarded by mu and can be
// mutated while the server is accepting connections.
type Server struct {
	listener  net.Listener
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once

	// Responder, when set, intercepts command lines and replies with raw
	// bytes. Used by tests to inject malformed responses.
	Responder func(cmd string) (string, bool)

	mu            sync.RWMutex
	name          string
	model         string
	firmware      string
	serial        string
	mac           string
	size          flashforge.Position
	toolCount     int
	machineStatus string
	moveMode      string
	endstop       flashforge.Endstop
	led           bool
	currentFile   string
	progress      flashforge.Progress
	temps         flashforge.Temperatures
	head          flashforge.HeadPosition
}

// NewServer constructs a simulated printer with idle defaults.
func NewServer(name string) *Server {
	return &Server{
		quit:          make(chan struct{}),
		name:          name,
		model:         "Flashforge Adventurer 3",
		firmware:      "v2.0.9",
		serial:        "SIM0001",
		mac:           "88:A9:A7:00:00:01",
		size:          flashforge.Position{X: 150, Y: 150, Z: 150},
		toolCount:     1,
		machineStatus: "READY",
		moveMode:      "READY",
		led:           true,
		temps:         flashforge.Temperatures{"T0": {Current: 25}, "B": {Current: 28}},
	}
}

// Listen starts accepting control connections on the provided address.
// Use "127.0.0.1:0" in tests and read the bound address back via Addr.
func (s *Server) Listen(address string) error {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	s.listener = l

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Port returns the bound TCP port.
func (s *Server) Port() int { return s.listener.Addr().(*net.TCPAddr).Port }

// Close stops the listener and waits for connection handlers to finish.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		if s.listener != nil {
			s.listener.Close()
		}
	})
	s.wg.Wait()
}

// SetPrinting marks a print in progress for the given file.
func (s *Server) SetPrinting(file string, progress flashforge.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentFile = file
	s.progress = progress
	s.machineStatus = "BUILDING_FROM_SD"
	s.moveMode = "MOVING"
}

// SetIdle clears any current file and returns the machine to READY.
func (s *Server) SetIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentFile = ""
	s.progress = flashforge.Progress{}
	s.machineStatus = "READY"
	s.moveMode = "READY"
}

// SetProgress updates the reported progress pairs.
func (s *Server) SetProgress(p flashforge.Progress) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
}

// SetTemperature updates one probe reading.
func (s *Server) SetTemperature(probe string, t flashforge.Temperature) {
	s.mu.Lock()
	s.temps[probe] = t
	s.mu.Unlock()
}

// SetHeadPosition updates the reported toolhead coordinates.
func (s *Server) SetHeadPosition(p flashforge.HeadPosition) {
	s.mu.Lock()
	s.head = p
	s.mu.Unlock()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		if cmd == "" {
			continue
		}
		if _, err := conn.Write([]byte(s.respond(cmd))); err != nil {
			return
		}
	}
}

func (s *Server) respond(cmd string) string {
	if s.Responder != nil {
		if raw, ok := s.Responder(cmd); ok {
			return raw
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	code := cmd
	if i := strings.IndexByte(cmd, ' '); i >= 0 {
		code = cmd[:i]
	}
	switch code {
	case "~M601":
		return "CMD M601 Received.\r\nControl Success.\r\nok\r\n"
	case "~M115":
		return fmt.Sprintf("CMD M115 Received.\r\n"+
			"Machine Type: %s\r\nMachine Name: %s\r\nFirmware: %s\r\nSN: %s\r\n"+
			"X: %d Y: %d Z: %d\r\nTool Count: %d\r\nMac Address: %s\r\nok\r\n",
			s.model, s.name, s.firmware, s.serial,
			s.size.X, s.size.Y, s.size.Z, s.toolCount, s.mac)
	case "~M119":
		return fmt.Sprintf("CMD M119 Received.\r\n"+
			"Endstop: X-max:%d Y-max:%d Z-min:%d\r\n"+
			"MachineStatus: %s\r\nMoveMode: %s\r\nLED: %s\r\nCurrentFile: %s\r\nok\r\n",
			s.endstop.XMax, s.endstop.YMax, s.endstop.ZMin,
			s.machineStatus, s.moveMode, boolDigit(s.led), s.currentFile)
	case "~M27":
		return fmt.Sprintf("CMD M27 Received.\r\n"+
			"SD printing byte %d/%d\r\nLayer: %d/%d\r\nok\r\n",
			s.progress.Byte.Done, s.progress.Byte.Total,
			s.progress.Layer.Done, s.progress.Layer.Total)
	case "~M105":
		return "CMD M105 Received.\r\n" + s.tempsLine() + "\r\nok\r\n"
	case "~M114":
		return fmt.Sprintf("CMD M114 Received.\r\n"+
			"X:%g Y:%g Z:%g A:%g B:%g\r\nok\r\n",
			s.head.X, s.head.Y, s.head.Z, s.head.A, s.head.B)
	case "~M104":
		return "CMD M104 Received.\r\nok\r\n"
	default:
		return "CMD Unknown Received.\r\nok\r\n"
	}
}

// tempsLine renders the packed per-tool temperature line. T0 leads so the
// decoder's token re-split rule applies.
func (s *Server) tempsLine() string {
	probes := make([]string, 0, len(s.temps))
	for name := range s.temps {
		probes = append(probes, name)
	}
	sort.Slice(probes, func(i, j int) bool {
		if probes[i] == "T0" {
			return true
		}
		if probes[j] == "T0" {
			return false
		}
		return probes[i] < probes[j]
	})
	parts := make([]string, 0, len(probes))
	for _, name := range probes {
		t := s.temps[name]
		parts = append(parts, fmt.Sprintf("%s: %g/%g", name, t.Current, t.Target))
	}
	return strings.Join(parts, " ")
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
