package flashforge

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// reToken matches one key: value token inside a line that packs several
	// of them, e.g. "X: 0 Y: 0 Z: 0" or "X-max:0 Y-max:0 Z-min:1".
	reToken = regexp.MustCompile(`([a-zA-Z0-9\-\s]+):\s*([^:\s]+)`)
	// reRatio matches a done/total pair in a progress body.
	reRatio = regexp.MustCompile(`(\d+)/(\d+)`)
)

// splitTokens re-splits a packed line token-wise into kv.
func splitTokens(s string, kv map[string]string) {
	for _, m := range reToken.FindAllStringSubmatch(s, -1) {
		kv[strings.TrimSpace(m[1])] = m[2]
	}
}

// parseKV decodes the line-oriented key/value grammar shared by most
// responses. The first line is a human-readable echo of the command and is
// discarded; the remaining lines are key: value pairs terminated by a line
// containing exactly "ok". Three keys pack several sub-keys into one line
// and are re-split token-wise: "X" (position triplet) and "T0" (per-tool
// temperatures) across the whole line, "Endstop" across its value.
func parseKV(kind Kind, raw string) (map[string]string, error) {
	kv := make(map[string]string)
	lines := strings.Split(raw, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "ok" {
			return kv, nil
		}
		key, val, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		switch key {
		case "X", "T0":
			splitTokens(line, kv)
		case "Endstop":
			splitTokens(val, kv)
		default:
			kv[key] = strings.TrimLeft(val, " ")
		}
	}
	return nil, errNoTerminator(kind)
}

func lookup(kind Kind, kv map[string]string, key string) (string, error) {
	v, ok := kv[key]
	if !ok {
		return "", errMissingKey(kind, key)
	}
	return v, nil
}

func lookupInt(kind Kind, kv map[string]string, key string) (int, error) {
	s, err := lookup(kind, kv, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errBadValue(kind, key, s, err)
	}
	return n, nil
}

func lookupFloat(kind Kind, kv map[string]string, key string) (float64, error) {
	s, err := lookup(kind, kv, key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errBadValue(kind, key, s, err)
	}
	return f, nil
}

// DecodeInfo decodes an M115 body into printer identity.
func DecodeInfo(raw string) (*Info, error) {
	kv, err := parseKV(KindInfo, raw)
	if err != nil {
		return nil, err
	}
	info := &Info{}
	if info.Name, err = lookup(KindInfo, kv, "Machine Name"); err != nil {
		return nil, err
	}
	if info.FirmwareVersion, err = lookup(KindInfo, kv, "Firmware"); err != nil {
		return nil, err
	}
	if info.SerialNumber, err = lookup(KindInfo, kv, "SN"); err != nil {
		return nil, err
	}
	if info.ToolCount, err = lookupInt(KindInfo, kv, "Tool Count"); err != nil {
		return nil, err
	}
	if info.ModelName, err = lookup(KindInfo, kv, "Machine Type"); err != nil {
		return nil, err
	}
	if info.MACAddress, err = lookup(KindInfo, kv, "Mac Address"); err != nil {
		return nil, err
	}
	if info.Position.X, err = lookupInt(KindInfo, kv, "X"); err != nil {
		return nil, err
	}
	if info.Position.Y, err = lookupInt(KindInfo, kv, "Y"); err != nil {
		return nil, err
	}
	if info.Position.Z, err = lookupInt(KindInfo, kv, "Z"); err != nil {
		return nil, err
	}
	return info, nil
}

// DecodeStatus decodes an M119 body. A present-but-empty CurrentFile is
// normalized to the empty string ("no file").
func DecodeStatus(raw string) (*Status, error) {
	kv, err := parseKV(KindStatus, raw)
	if err != nil {
		return nil, err
	}
	st := &Status{}
	if st.Endstop.XMax, err = lookupInt(KindStatus, kv, "X-max"); err != nil {
		return nil, err
	}
	if st.Endstop.YMax, err = lookupInt(KindStatus, kv, "Y-max"); err != nil {
		return nil, err
	}
	if st.Endstop.ZMin, err = lookupInt(KindStatus, kv, "Z-min"); err != nil {
		return nil, err
	}
	if st.MachineStatus, err = lookup(KindStatus, kv, "MachineStatus"); err != nil {
		return nil, err
	}
	if st.MoveMode, err = lookup(KindStatus, kv, "MoveMode"); err != nil {
		return nil, err
	}
	led, err := lookup(KindStatus, kv, "LED")
	if err != nil {
		return nil, err
	}
	st.LED = led == "1"
	st.CurrentFile = kv["CurrentFile"]
	return st, nil
}

// DecodeTemperatures decodes an M105 body. Every key maps to a
// current/target pair split on "/".
func DecodeTemperatures(raw string) (Temperatures, error) {
	kv, err := parseKV(KindTemperature, raw)
	if err != nil {
		return nil, err
	}
	temps := make(Temperatures, len(kv))
	for key, val := range kv {
		cur, target, found := strings.Cut(val, "/")
		if !found {
			return nil, errBadValue(KindTemperature, key, val, nil)
		}
		c, err := strconv.ParseFloat(cur, 64)
		if err != nil {
			return nil, errBadValue(KindTemperature, key, val, err)
		}
		t, err := strconv.ParseFloat(target, 64)
		if err != nil {
			return nil, errBadValue(KindTemperature, key, val, err)
		}
		temps[key] = Temperature{Current: c, Target: t}
	}
	return temps, nil
}

// DecodeProgress extracts the two done/total pairs from an M27 body. The
// pairs appear positionally in the fixed order (byte, layer); the body does
// not follow the key/value grammar.
func DecodeProgress(raw string) (*Progress, error) {
	pairs := reRatio.FindAllStringSubmatch(raw, -1)
	if len(pairs) < 2 {
		return nil, &ProtocolError{Kind: KindProgress, Reason: "expected two done/total pairs"}
	}
	var out [2]Ratio
	for i := 0; i < 2; i++ {
		done, err := strconv.ParseUint(pairs[i][1], 10, 32)
		if err != nil {
			return nil, errBadValue(KindProgress, "done", pairs[i][1], err)
		}
		total, err := strconv.ParseUint(pairs[i][2], 10, 32)
		if err != nil {
			return nil, errBadValue(KindProgress, "total", pairs[i][2], err)
		}
		out[i] = Ratio{Done: uint32(done), Total: uint32(total)}
	}
	return &Progress{Byte: out[0], Layer: out[1]}, nil
}

// DecodeHeadPosition decodes an M114 body.
func DecodeHeadPosition(raw string) (*HeadPosition, error) {
	kv, err := parseKV(KindHeadPosition, raw)
	if err != nil {
		return nil, err
	}
	pos := &HeadPosition{}
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"X", &pos.X}, {"Y", &pos.Y}, {"Z", &pos.Z}, {"A", &pos.A}, {"B", &pos.B},
	} {
		if *f.dst, err = lookupFloat(KindHeadPosition, kv, f.key); err != nil {
			return nil, err
		}
	}
	return pos, nil
}

// DecodeAck acknowledges control and set commands, which return no payload
// worth decoding.
func DecodeAck(string) (*Ack, error) {
	return &Ack{Success: true}, nil
}

// Decode dispatches raw response text to the decoder for the request kind.
func Decode(kind Kind, raw string) (Response, error) {
	switch kind {
	case KindControl, KindSetTemperature:
		return DecodeAck(raw)
	case KindInfo:
		return DecodeInfo(raw)
	case KindStatus:
		return DecodeStatus(raw)
	case KindTemperature:
		return DecodeTemperatures(raw)
	case KindProgress:
		return DecodeProgress(raw)
	case KindHeadPosition:
		return DecodeHeadPosition(raw)
	default:
		return nil, &ProtocolError{Kind: kind, Reason: "unsupported request kind"}
	}
}
