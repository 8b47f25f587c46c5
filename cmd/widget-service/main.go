// Command widget-service runs the reference test service, hosting the Go widget implementations
// for the contract test harness.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/widgetharness/widget-test-harness/clock"
	"github.com/widgetharness/widget-test-harness/testservice"
	"github.com/widgetharness/widget-test-harness/widgets/timer"
)

const defaultPort = 8000

type serviceParams struct {
	port                int
	logLevel            ldlog.LogLevel
	widgets             []string
	tickInterval        time.Duration
	acceleratedInterval time.Duration
	clipLength          time.Duration
}

func readParams(args []string) (serviceParams, error) {
	var (
		params   serviceParams
		logLevel string
		widgets  string
	)
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.IntVar(&params.port, "port", defaultPort, "port to listen on")
	fs.StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")
	fs.StringVar(&widgets, "widgets", "", "comma-separated widget kinds to host (default: all)")
	fs.DurationVar(&params.tickInterval, "tick-interval", timer.DefaultTickInterval, "countdown interval for timers")
	fs.DurationVar(&params.acceleratedInterval, "accelerated-interval", clock.DefaultAcceleratedInterval,
		"tick interval used when a test accelerates a timer's clock")
	fs.DurationVar(&params.clipLength, "clip-length", timer.DefaultClipLength, "how long a timer's alert plays")
	if err := fs.Parse(args); err != nil {
		return serviceParams{}, err
	}
	params.logLevel = parseLogLevel(logLevel)
	if widgets != "" {
		params.widgets = strings.Split(widgets, ",")
	}
	return params, nil
}

// parseLogLevel matches a level name case-insensitively. Anything unrecognized means Info.
func parseLogLevel(name string) ldlog.LogLevel {
	for _, level := range []ldlog.LogLevel{ldlog.Debug, ldlog.Info, ldlog.Warn, ldlog.Error} {
		if strings.EqualFold(strings.TrimSpace(name), level.Name()) {
			return level
		}
	}
	return ldlog.Info
}

func main() {
	params, err := readParams(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	loggers := ldlog.NewDefaultLoggers()
	loggers.SetMinLevel(params.logLevel)

	config := testservice.Config{
		Widgets:             params.widgets,
		TickInterval:        params.tickInterval,
		AcceleratedInterval: params.acceleratedInterval,
		ClipLength:          params.clipLength,
		Loggers:             loggers,
	}
	service := testservice.New(config)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", params.port),
		Handler:           service,
		ReadHeaderTimeout: 10 * time.Second, // arbitrary but non-infinite timeout to avoid Slowloris Attack
	}
	go func() {
		<-service.Done()
		service.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	loggers.Infof("Listening on port %d", params.port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
