package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/widgetharness/widget-test-harness/framework"
	"github.com/widgetharness/widget-test-harness/framework/ctest"
	"github.com/widgetharness/widget-test-harness/framework/harness"
	"github.com/widgetharness/widget-test-harness/framework/helpers"
	"github.com/widgetharness/widget-test-harness/resultstore"
	"github.com/widgetharness/widget-test-harness/widgettests"
)

const (
	version            = "1.0.0"
	defaultPort        = 8111
	statusQueryTimeout = time.Second * 10
)

func main() {
	fmt.Printf("widget-test-harness v%s\n", version)

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	results, err := run(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !results.OK() {
		os.Exit(1)
	}
}

func run(params commandParams) (*ctest.Results, error) {
	if params.skipFile != "" {
		if err := loadSuppressions(&params); err != nil {
			return nil, err
		}
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	h, err := harness.NewTestHarness(
		params.serviceURL,
		params.host,
		params.port,
		statusQueryTimeout,
		mainDebugLogger,
		os.Stdout,
	)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	loggers := []ctest.TestLogger{
		ctest.ConsoleTestLogger{
			DebugOutputOnFailure: params.debug || params.debugAll,
			DebugOutputOnSuccess: params.debugAll,
		},
	}
	if params.jUnitFile != "" {
		loggers = append(loggers, ctest.NewJUnitTestLogger(params.jUnitFile, h.TestServiceInfo(), params.filters))
	}
	if params.resultsStore != "" {
		store, err := resultstore.Open(context.Background(), params.resultsStore)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to close results store: %s\n", err)
			}
		}()
		loggers = append(loggers, resultstore.NewStoreTestLogger(store, h.TestServiceInfo().Name, nil))
	}
	if !params.noBadge {
		loggers = append(loggers, ctest.BadgeTestLogger{})
	}
	testLogger := &ctest.MultiTestLogger{Loggers: loggers}

	results := widgettests.RunWidgetTestSuite(h, params.filters, testLogger, os.Stdout)

	helpers.MustFprintln(os.Stdout)
	logErr := testLogger.EndLog(results)

	if params.stopServiceAtEnd {
		helpers.MustFprintln(os.Stdout, "Stopping test service")
		if err := h.StopService(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to stop test service: %s\n", err)
		}
	}

	if logErr != nil {
		return nil, fmt.Errorf("error writing log: %w", logErr)
	}

	if params.recordFailures != "" {
		f, err := os.Create(params.recordFailures)
		if err != nil {
			return nil, fmt.Errorf("cannot create suppression file: %w", err)
		}
		for _, test := range results.Failures {
			helpers.MustFprintln(f, test.TestID)
		}
		_ = f.Close()
	}

	return &results, nil
}

func loadSuppressions(params *commandParams) error {
	file, err := os.Open(params.skipFile)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %w", err)
	}
	defer func() { _ = file.Close() }()
	if err := params.filters.MustNotMatch.AddLiteralLines(file); err != nil {
		return fmt.Errorf("while processing suppression file: %w", err)
	}
	return nil
}
