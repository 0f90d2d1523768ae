// Command printersim runs a simulated printer for development and demos.
// With -file it reports a print in progress and can advance the layer
// counter on a timer until the job completes.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"printwatch/internal/sim"
	"printwatch/pkg/flashforge"
)

func main() {
	var listen, name, file string
	var layers uint
	var advance time.Duration
	flag.StringVar(&listen, "listen", ":8899", "listen address")
	flag.StringVar(&name, "name", "simprinter", "reported printer name")
	flag.StringVar(&file, "file", "", "report this file as printing")
	flag.UintVar(&layers, "layers", 50, "total layer count for the simulated print")
	flag.DurationVar(&advance, "advance", 0, "advance one layer per interval (0 disables)")
	flag.Parse()

	srv := sim.NewServer(name)
	if err := srv.Listen(listen); err != nil {
		log.Fatalf("listen %s: %v", listen, err)
	}
	defer srv.Close()
	log.Printf("simulated printer %q listening on %s", name, srv.Addr())

	done := make(chan struct{})
	if file != "" {
		total := uint32(layers)
		srv.SetPrinting(file, flashforge.Progress{
			Byte:  flashforge.Ratio{Done: 0, Total: total * 100},
			Layer: flashforge.Ratio{Done: 0, Total: total},
		})
		if advance > 0 {
			go func() {
				ticker := time.NewTicker(advance)
				defer ticker.Stop()
				var layer uint32
				for {
					select {
					case <-done:
						return
					case <-ticker.C:
					}
					if layer >= total {
						continue
					}
					layer++
					srv.SetProgress(flashforge.Progress{
						Byte:  flashforge.Ratio{Done: layer * 100, Total: total * 100},
						Layer: flashforge.Ratio{Done: layer, Total: total},
					})
					if layer == total {
						log.Printf("simulated print %q complete", file)
					}
				}
			}()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	close(done)
	log.Printf("received signal: %v, shutting down...", s)
}
