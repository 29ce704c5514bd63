package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/temoto/dlms-meter/cmd/dlms-meter/subcmd"
	"github.com/temoto/dlms-meter/hardware/serial"
	"github.com/temoto/dlms-meter/state"
)

func runMain(ctx context.Context, config *state.Config, args []string) error {
	g := state.GetGlobal(ctx)
	if err := g.Init(ctx, config); err != nil {
		return errors.Annotate(err, "init")
	}
	defer g.Stop()

	var input io.Reader
	if config.Serial.Device == "-" {
		// replay captured stream from stdin
		input = os.Stdin
	} else {
		sc, _ := config.SerialConfig()
		port, err := serial.Open(sc)
		if err != nil {
			return errors.Annotate(err, "serial")
		}
		defer port.Close()
		g.Log.Infof("serial open %s", sc.String())
		input = port
	}

	var server *http.Server
	if config.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(g.Registry, promhttp.HandlerOpts{ErrorLog: g.Log}))
		server = &http.Server{Addr: config.Metrics.Listen, Handler: mux}
		g.Alive.Add(1)
		go func() {
			defer g.Alive.Done()
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				g.Error(err, "metrics listen=%s", config.Metrics.Listen)
				stop(g)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case sig := <-sigCh:
			g.Log.Infof("signal %v, stopping", sig)
			stop(g)
		case <-g.Alive.StopChan():
		}
		cancel()
		subcmd.SdNotify(daemon.SdNotifyStopping)
	}()

	subcmd.SdNotify(daemon.SdNotifyReady)
	g.Log.Infof("running")
	err := g.Meter.Run(runCtx, input)
	if err == context.Canceled {
		err = nil
	}
	stop(g)
	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = server.Shutdown(shutdownCtx)
		shutdownCancel()
	}
	g.Alive.Wait()
	return errors.Annotate(err, "meter")
}

func stop(g *state.Global) {
	if g.Alive.IsRunning() {
		g.Alive.Stop()
	}
}
