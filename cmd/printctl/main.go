// Command printctl runs one-shot queries and commands against a single
// printer and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"

	"printwatch/internal/printer"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: printctl -host HOST [flags] COMMAND

commands:
  info       printer identity (M115)
  status     machine state (M119)
  temps      temperature readings (M105)
  progress   byte and layer progress (M27)
  head       toolhead position (M114)
  set-temp   set tool temperature (M104), uses -tool and -target
  snapshot   fetch one camera frame, writes to -out

flags:
`)
	flag.PrintDefaults()
}

func main() {
	var host string
	var port, camPort, tool int
	var target float64
	var out string
	var timeout time.Duration
	flag.StringVar(&host, "host", "", "printer address")
	flag.IntVar(&port, "port", 0, "control port (default 8899)")
	flag.IntVar(&camPort, "cam-port", 0, "camera port (default 8080)")
	flag.IntVar(&tool, "tool", 0, "tool index for set-temp")
	flag.Float64Var(&target, "target", 0, "target temperature for set-temp")
	flag.StringVar(&out, "out", "snapshot.jpg", "output path for snapshot")
	flag.DurationVar(&timeout, "timeout", 15*time.Second, "overall command timeout")
	flag.Usage = usage
	flag.Parse()

	cmd := flag.Arg(0)
	if host == "" || cmd == "" {
		usage()
		os.Exit(2)
	}

	c := printer.New(printer.Config{ID: host, Host: host, APIPort: port, CamPort: camPort}, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var result any
	var err error
	switch cmd {
	case "info":
		result, err = c.Identity()
	case "status":
		result, err = c.Status()
	case "temps":
		result, err = c.Temperatures()
	case "progress":
		result, err = c.Progress()
	case "head":
		result, err = c.HeadPosition()
	case "set-temp":
		if err = c.SetTemperature(uint8(tool), target); err == nil {
			result = map[string]any{"tool": tool, "target": target, "ok": true}
		}
	case "snapshot":
		frame, ferr := c.Camera().Snapshot(ctx)
		if ferr != nil {
			err = ferr
			break
		}
		if err = os.WriteFile(out, frame.Body, 0644); err == nil {
			result = map[string]any{"path": out, "bytes": len(frame.Body)}
		}
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}

	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("marshal result: %v", err)
	}
	fmt.Println(string(b))
}
