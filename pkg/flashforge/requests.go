// Package flashforge implements the line-oriented text protocol spoken by
// FlashForge-family printers on their TCP control port. The package is pure
// transformation: it encodes requests into command lines and decodes raw
// response text into typed results, but performs no I/O itself.
package flashforge

import "fmt"

// Well-known ports and paths on the printer.
const (
	APIPort       = 8899
	CamPort       = 8080
	CamStreamPath = "/?action=stream"
	// CamBoundary is the multipart boundary used by the camera's
	// x-mixed-replace stream.
	CamBoundary = "boundarydonotcross"
)

// Kind identifies one command in the printer's fixed command set.
type Kind int

const (
	KindControl Kind = iota // handshake, must precede every real command
	KindInfo
	KindHeadPosition
	KindTemperature
	KindProgress
	KindStatus
	KindSetTemperature
)

func (k Kind) String() string {
	switch k {
	case KindControl:
		return "control"
	case KindInfo:
		return "info"
	case KindHeadPosition:
		return "head-position"
	case KindTemperature:
		return "temperature"
	case KindProgress:
		return "progress"
	case KindStatus:
		return "status"
	case KindSetTemperature:
		return "set-temperature"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Request is a single command plus its parameters. Only set-temperature
// carries parameters; the zero Tool/Target are ignored for every other kind.
type Request struct {
	Kind   Kind
	Tool   uint8
	Target float64
}

func ControlRequest() Request      { return Request{Kind: KindControl} }
func InfoRequest() Request         { return Request{Kind: KindInfo} }
func HeadPositionRequest() Request { return Request{Kind: KindHeadPosition} }
func TemperatureRequest() Request  { return Request{Kind: KindTemperature} }
func ProgressRequest() Request     { return Request{Kind: KindProgress} }
func StatusRequest() Request       { return Request{Kind: KindStatus} }

// SetTemperatureRequest targets one tool with a temperature in degrees
// Celsius.
func SetTemperatureRequest(tool uint8, target float64) Request {
	return Request{Kind: KindSetTemperature, Tool: tool, Target: target}
}

// GCode returns the vendor mnemonic for the request without line terminator.
// See https://marlinfw.org/docs/gcode/M104.html for the M-code family.
func (r Request) GCode() string {
	switch r.Kind {
	case KindControl:
		return "~M601 S1"
	case KindInfo:
		return "~M115"
	case KindHeadPosition:
		return "~M114"
	case KindTemperature:
		return "~M105"
	case KindProgress:
		return "~M27"
	case KindStatus:
		return "~M119"
	case KindSetTemperature:
		return fmt.Sprintf("~M104 S%g T%d", r.Target, r.Tool)
	default:
		return ""
	}
}

// Encode returns the wire form of the request: the mnemonic plus CRLF.
func (r Request) Encode() []byte {
	return []byte(r.GCode() + "\r\n")
}
