// Command airlockd runs the dual-gate airlock interlock controller: a
// fixed-period control loop over the gate I/O board's serial link, with a
// sqlite diagnostics log and an HTTP diagnostics API.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hatchway/airlock/internal/api"
	"github.com/hatchway/airlock/internal/config"
	"github.com/hatchway/airlock/internal/controller"
	"github.com/hatchway/airlock/internal/db"
	"github.com/hatchway/airlock/internal/gates"
	"github.com/hatchway/airlock/internal/interlock"
	"github.com/hatchway/airlock/internal/linkmux"
	"github.com/hatchway/airlock/internal/monitoring"
	"github.com/hatchway/airlock/internal/sampler"
	"github.com/hatchway/airlock/internal/status"
)

var (
	devMode    = flag.Bool("dev", false, "Run in dev mode against a mock gate I/O board")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	port       = flag.String("port", "/dev/ttyUSB0", "Serial port of the gate I/O board (ignored in dev mode)")
	configPath = flag.String("config", "airlock.json", "Deployment configuration file")
	migrations = flag.String("migrations", "", "Run database migrations from this directory and continue")
	trace      = flag.Bool("trace", false, "Dump normalized sensors and state every cycle")
)

// devFrame is the steady frame the mock board emits: everything idle.
const devFrame = "IO,0,0,0,0,0,0,0"

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	addr := cfg.GetListen()
	if *listen != "" {
		addr = *listen
	}

	var link linkmux.LinkMuxInterface
	if *devMode {
		m, _ := linkmux.NewMockLinkMux(devFrame, cfg.GetCyclePeriod())
		link = m
	} else {
		m, err := linkmux.NewRealLinkMux(*port, cfg.GetSerial())
		if err != nil {
			log.Fatalf("failed to open gate I/O link: %v", err)
		}
		link = m
	}
	defer link.Close()

	database, err := db.NewDB(cfg.GetDatabasePath())
	if err != nil {
		log.Fatalf("failed to open event log: %v", err)
	}
	defer database.Close()

	if *migrations != "" {
		if err := database.MigrateUp(*migrations); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	runID := uuid.NewString()
	if err := database.RecordRun(runID); err != nil {
		log.Fatalf("failed to record run: %v", err)
	}
	log.Printf("airlock controller starting, run %s", runID)

	samp := sampler.New(cfg.SamplerPolicy(), nil)
	gateway := gates.NewGateway(gates.NewLinkActuator(link))
	ctrl := controller.New(controller.Options{
		Period:    cfg.GetCyclePeriod(),
		Sampler:   samp,
		Sequencer: interlock.NewSequencer(cfg.GetStuckCycles()),
		Gateway:   gateway,
		Indicator: status.NewLinkIndicator(link),
		Recorder:  recorder{database},
		Metrics:   monitoring.NewMetrics(nil),
		RunID:     runID,
		Trace:     *trace,
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// manage IO on the board link
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := link.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor gate I/O link: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// feed sensor frames from the link into the sampler
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, c := link.Subscribe()
		defer link.Unsubscribe(id)
		for {
			select {
			case line := <-c:
				if !linkmux.IsFrame(line) {
					continue // boot banner or command echo
				}
				frame, err := linkmux.ParseFrame(line)
				if err != nil {
					log.Printf("error parsing frame: %v", err)
					continue
				}
				samp.Ingest(frame)
			case <-ctx.Done():
				log.Printf("ingest routine terminated")
				return
			}
		}
	}()

	// the control loop itself
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ctrl.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("control loop terminated: %v", err)
		}
	}()

	// diagnostics HTTP server
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(ctrl, database).ServeMux()
		server := &http.Server{
			Addr:    addr,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
	log.Println("airlock controller stopped")
}

// recorder adapts the event log to the controller's Recorder interface.
type recorder struct {
	db *db.DB
}

func (r recorder) RecordEvent(runID string, cycle uint64, kind, state, detail string) error {
	return r.db.RecordEvent(runID, cycle, kind, state, detail)
}
