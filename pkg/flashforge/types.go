package flashforge

// Position is a machine coordinate triplet as reported by the info command.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Info is the printer identity reported by M115. Immutable once fetched.
type Info struct {
	Name            string   `json:"name"`
	FirmwareVersion string   `json:"firmware_version"`
	SerialNumber    string   `json:"sn"`
	ToolCount       int      `json:"tool_count"`
	ModelName       string   `json:"model_name"`
	MACAddress      string   `json:"mac_addr"`
	Position        Position `json:"position"`
}

// Endstop holds the end-stop switch states from M119.
type Endstop struct {
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
	ZMin int `json:"z_min"`
}

// Status is the machine state reported by M119. CurrentFile is empty when
// no file is loaded; a present-but-empty value on the wire is normalized to
// empty here.
type Status struct {
	Endstop       Endstop `json:"end_stop"`
	MachineStatus string  `json:"machine_status"`
	MoveMode      string  `json:"move_mode"`
	LED           bool    `json:"led"`
	CurrentFile   string  `json:"current_file,omitempty"`
}

// Temperature is a current/target pair in degrees Celsius.
type Temperature struct {
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
}

// Temperatures maps a probe name (T0, B, ...) to its reading.
type Temperatures map[string]Temperature

// Ratio is a done/total pair. Progress responses report two of these.
type Ratio struct {
	Done  uint32 `json:"done"`
	Total uint32 `json:"total"`
}

// Complete reports whether the ratio has reached its total. A zero total
// never counts as complete; an idle printer reports 0/0.
func (r Ratio) Complete() bool {
	return r.Total > 0 && r.Done >= r.Total
}

// Progress is the M27 result. Byte is always reported before Layer on the
// wire and the order is load-bearing for decoding.
type Progress struct {
	Byte  Ratio `json:"byte"`
	Layer Ratio `json:"layer"`
}

// HeadPosition is the toolhead coordinate set from M114.
type HeadPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Ack is the decoded result of control and set commands, which carry no
// payload beyond their terminator.
type Ack struct {
	Success bool `json:"success"`
}

// Response is implemented by every decoded response type.
type Response interface{ response() }

func (*Info) response()         {}
func (*Status) response()       {}
func (Temperatures) response()  {}
func (*Progress) response()     {}
func (*HeadPosition) response() {}
func (*Ack) response()          {}
