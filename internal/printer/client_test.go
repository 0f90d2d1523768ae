package printer

import (
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printwatch/internal/sim"
	"printwatch/pkg/flashforge"
)

func newSimPrinter(t *testing.T, name string) (*sim.Server, *Client) {
	t.Helper()
	srv := sim.NewServer(name)
	require.NoError(t, srv.Listen("127.0.0.1:0"))
	t.Cleanup(srv.Close)

	host, portStr, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return srv, New(Config{ID: name, Host: host, APIPort: port}, zerolog.Nop())
}

func TestStatusRoundTrip(t *testing.T) {
	srv, c := newSimPrinter(t, "garage")
	srv.SetPrinting("benchy.gcode", flashforge.Progress{
		Byte:  flashforge.Ratio{Done: 120, Total: 1000},
		Layer: flashforge.Ratio{Done: 3, Total: 50},
	})

	st, err := c.Status()
	require.NoError(t, err)
	assert.Equal(t, "benchy.gcode", st.CurrentFile)
	assert.Equal(t, "BUILDING_FROM_SD", st.MachineStatus)
	assert.True(t, st.LED)
}

func TestProgressAndTemperatures(t *testing.T) {
	srv, c := newSimPrinter(t, "garage")
	srv.SetPrinting("benchy.gcode", flashforge.Progress{
		Byte:  flashforge.Ratio{Done: 500, Total: 1000},
		Layer: flashforge.Ratio{Done: 25, Total: 50},
	})
	srv.SetTemperature("T0", flashforge.Temperature{Current: 210, Target: 220})

	prog, err := c.Progress()
	require.NoError(t, err)
	assert.Equal(t, flashforge.Ratio{Done: 500, Total: 1000}, prog.Byte)
	assert.Equal(t, flashforge.Ratio{Done: 25, Total: 50}, prog.Layer)
	assert.False(t, prog.Layer.Complete())

	temps, err := c.Temperatures()
	require.NoError(t, err)
	assert.Equal(t, flashforge.Temperature{Current: 210, Target: 220}, temps["T0"])
}

func TestHeadPositionAndSetTemperature(t *testing.T) {
	srv, c := newSimPrinter(t, "garage")
	srv.SetHeadPosition(flashforge.HeadPosition{X: 12.5, Y: 30, Z: 0.5})

	pos, err := c.HeadPosition()
	require.NoError(t, err)
	assert.InDelta(t, 12.5, pos.X, 1e-9)

	require.NoError(t, c.SetTemperature(0, 210))
}

func TestRefreshStatusFlipsOnlineState(t *testing.T) {
	srv, c := newSimPrinter(t, "garage")
	srv.SetPrinting("benchy.gcode", flashforge.Progress{})

	assert.False(t, c.Summary().Online, "new client starts offline")

	st, err := c.RefreshStatus()
	require.NoError(t, err)
	assert.Equal(t, "benchy.gcode", st.CurrentFile)

	sum := c.Summary()
	assert.True(t, sum.Online)
	assert.Equal(t, "benchy.gcode", sum.CurrentFile)

	srv.Close()
	_, err = c.RefreshStatus()
	require.ErrorIs(t, err, ErrOffline)
	var cerr *ConnectionError
	require.ErrorAs(t, err, &cerr)
	assert.False(t, c.Summary().Online)
}

func TestRefreshStatusProtocolErrorKeepsOnlineState(t *testing.T) {
	srv, c := newSimPrinter(t, "garage")
	_, err := c.RefreshStatus()
	require.NoError(t, err)
	require.True(t, c.Summary().Online)

	// Malformed body: missing "ok" terminator.
	srv.Responder = func(cmd string) (string, bool) {
		if strings.HasPrefix(cmd, "~M119") {
			return "CMD M119 Received.\r\nMachineStatus: READY\r\n", true
		}
		return "", false
	}
	_, err = c.RefreshStatus()
	var perr *flashforge.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.True(t, c.Summary().Online, "decode errors do not flip the online flag")
}

func TestIdentityFetchedOnceThenCached(t *testing.T) {
	srv, c := newSimPrinter(t, "garage")

	var infoRequests atomic.Int32
	fail := atomic.Bool{}
	fail.Store(true)
	srv.Responder = func(cmd string) (string, bool) {
		if strings.HasPrefix(cmd, "~M115") {
			infoRequests.Add(1)
			if fail.Load() {
				return "CMD M115 Received.\r\ngarbage\r\n", true
			}
		}
		return "", false
	}

	// Failed fetch is retried on the next access.
	_, err := c.Identity()
	require.Error(t, err)
	require.Equal(t, int32(1), infoRequests.Load())

	fail.Store(false)
	info, err := c.Identity()
	require.NoError(t, err)
	assert.Equal(t, "garage", info.Name)
	assert.Equal(t, "Flashforge Adventurer 3", info.ModelName)
	require.Equal(t, int32(2), infoRequests.Load())

	// Cached for the process lifetime afterward.
	_, err = c.Identity()
	require.NoError(t, err)
	assert.Equal(t, int32(2), infoRequests.Load())

	assert.Equal(t, "garage", c.Summary().Name)
}

func TestReadTimeoutIsTimeoutError(t *testing.T) {
	// A listener that accepts and then stays silent.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	host, portStr, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	port, _ := strconv.Atoi(portStr)

	c := New(Config{ID: "silent", Host: host, APIPort: port}, zerolog.Nop())
	c.readTimeout = 100 * time.Millisecond

	_, err = c.Status()
	var terr *TimeoutError
	require.ErrorAs(t, err, &terr)
}
