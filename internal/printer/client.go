// Package printer implements the client side of one physical printer: the
// per-request TCP exchange on the control port, cached identity, and the
// online/current-file state maintained by status polls.
package printer

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"printwatch/internal/camera"
	"printwatch/pkg/flashforge"
)

const (
	dialTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second
	readTimeout  = 10 * time.Second

	responseBufSize = 1024
)

// Summary is the cached, I/O-free view of a printer.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Host        string `json:"host"`
	Online      bool   `json:"online"`
	CurrentFile string `json:"current_file,omitempty"`
}

// Client talks to one printer. All control-port requests are serialized by
// the client's own lock; the printer hardware cannot multiplex sessions.
type Client struct {
	id   string
	host string
	addr string
	cam  *camera.Stream
	log  zerolog.Logger

	dialTimeout  time.Duration
	writeTimeout time.Duration
	readTimeout  time.Duration

	mu          sync.Mutex
	info        *flashforge.Info // nil until first successful fetch
	online      bool
	currentFile string
}

// Config locates one printer. Zero ports fall back to the device defaults.
type Config struct {
	ID      string
	Host    string
	APIPort int
	CamPort int
}

func New(cfg Config, log zerolog.Logger) *Client {
	apiPort := cfg.APIPort
	if apiPort == 0 {
		apiPort = flashforge.APIPort
	}
	camPort := cfg.CamPort
	if camPort == 0 {
		camPort = flashforge.CamPort
	}
	camURL := fmt.Sprintf("http://%s%s", net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", camPort)), flashforge.CamStreamPath)
	return &Client{
		id:           cfg.ID,
		host:         cfg.Host,
		addr:         net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", apiPort)),
		cam:          camera.NewStream(camURL, log.With().Str("printer", cfg.ID).Logger()),
		log:          log.With().Str("component", "printer").Str("printer", cfg.ID).Logger(),
		dialTimeout:  dialTimeout,
		writeTimeout: writeTimeout,
		readTimeout:  readTimeout,
	}
}

func (c *Client) ID() string   { return c.id }
func (c *Client) Host() string { return c.host }

// Camera returns the printer's stream multiplexer. It has its own locking
// and is safe to use without holding the client's lock.
func (c *Client) Camera() *camera.Stream { return c.cam }

// Summary returns the cached view without touching the network.
func (c *Client) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := c.id
	if c.info != nil {
		name = c.info.Name
	}
	return Summary{
		ID:          c.id,
		Name:        name,
		Host:        c.host,
		Online:      c.online,
		CurrentFile: c.currentFile,
	}
}

// exchange performs one full session on the control port: fresh connection,
// mandatory handshake, then the real request. The connection is torn down
// afterward; the printer tolerates one session at a time, so there is no
// pooling. Callers must hold c.mu.
func (c *Client) exchange(req flashforge.Request) (string, error) {
	conn, err := net.DialTimeout("tcp", c.addr, c.dialTimeout)
	if err != nil {
		return "", wrapNetErr("dial", c.addr, err)
	}
	defer conn.Close()

	buf := make([]byte, responseBufSize)
	var raw string
	for _, r := range []flashforge.Request{flashforge.ControlRequest(), req} {
		if err := conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return "", wrapNetErr("write", c.addr, err)
		}
		if _, err := conn.Write(r.Encode()); err != nil {
			return "", wrapNetErr("write", c.addr, err)
		}
		if err := conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return "", wrapNetErr("read", c.addr, err)
		}
		n, err := conn.Read(buf)
		if err != nil {
			return "", wrapNetErr("read", c.addr, err)
		}
		raw = string(buf[:n])
	}
	return raw, nil
}

// SendRequest runs one request against the printer and decodes the result.
func (c *Client) SendRequest(req flashforge.Request) (flashforge.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(req)
}

func (c *Client) sendLocked(req flashforge.Request) (flashforge.Response, error) {
	raw, err := c.exchange(req)
	if err != nil {
		return nil, err
	}
	return flashforge.Decode(req.Kind, raw)
}

// RefreshStatus polls the printer and is the only path that flips the
// online flag. Transport failure marks the printer offline; a decode error
// leaves the online state untouched.
func (c *Client) RefreshStatus() (*flashforge.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.exchange(flashforge.StatusRequest())
	if err != nil {
		c.online = false
		c.currentFile = ""
		return nil, fmt.Errorf("%w: %w", ErrOffline, err)
	}
	st, err := flashforge.DecodeStatus(raw)
	if err != nil {
		return nil, err
	}
	c.online = true
	c.currentFile = st.CurrentFile
	return st, nil
}

// Identity returns the printer identity, fetching it on first use. A failed
// fetch is retried on the next call; once fetched the identity is cached
// for the process lifetime and never invalidated.
func (c *Client) Identity() (*flashforge.Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.info != nil {
		return c.info, nil
	}
	resp, err := c.sendLocked(flashforge.InfoRequest())
	if err != nil {
		return nil, err
	}
	info, ok := resp.(*flashforge.Info)
	if !ok {
		return nil, &flashforge.ProtocolError{Kind: flashforge.KindInfo, Reason: "unexpected response type"}
	}
	c.info = info
	c.log.Debug().Str("model", info.ModelName).Str("sn", info.SerialNumber).Msg("cached printer identity")
	return info, nil
}

// Status fetches machine state without touching the cached online flag;
// use RefreshStatus for polling.
func (c *Client) Status() (*flashforge.Status, error) {
	resp, err := c.SendRequest(flashforge.StatusRequest())
	if err != nil {
		return nil, err
	}
	return resp.(*flashforge.Status), nil
}

func (c *Client) Temperatures() (flashforge.Temperatures, error) {
	resp, err := c.SendRequest(flashforge.TemperatureRequest())
	if err != nil {
		return nil, err
	}
	return resp.(flashforge.Temperatures), nil
}

func (c *Client) Progress() (*flashforge.Progress, error) {
	resp, err := c.SendRequest(flashforge.ProgressRequest())
	if err != nil {
		return nil, err
	}
	return resp.(*flashforge.Progress), nil
}

func (c *Client) HeadPosition() (*flashforge.HeadPosition, error) {
	resp, err := c.SendRequest(flashforge.HeadPositionRequest())
	if err != nil {
		return nil, err
	}
	return resp.(*flashforge.HeadPosition), nil
}

// SetTemperature targets one tool with a temperature in degrees Celsius.
func (c *Client) SetTemperature(tool uint8, target float64) error {
	_, err := c.SendRequest(flashforge.SetTemperatureRequest(tool, target))
	return err
}
