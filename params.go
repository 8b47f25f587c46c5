package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/widgetharness/widget-test-harness/framework/ctest"
)

type commandParams struct {
	serviceURL       string
	port             int
	host             string
	filters          ctest.RegexFilters
	skipFile         string
	recordFailures   string
	stopServiceAtEnd bool
	debug            bool
	debugAll         bool
	jUnitFile        string
	resultsStore     string
	noBadge          bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.serviceURL, "url", "", "test service URL")
	fs.StringVar(&c.host, "host", "localhost", "external hostname of the test harness")
	fs.IntVar(&c.port, "port", defaultPort, "port that the test harness will listen on")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.StringVar(&c.skipFile, "skip-from", "", "file of test names to skip, one per line")
	fs.StringVar(&c.recordFailures, "record-failures", "", "write the names of failed tests to this file")
	fs.BoolVar(&c.stopServiceAtEnd, "stop-service-at-end", false, "tell test service to exit after the test run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	fs.StringVar(&c.resultsStore, "results-store", "",
		"save the run summary to a store: sqlite://path, redis://host:port, consul://host:port, or dynamodb://table")
	fs.BoolVar(&c.noBadge, "no-badge", false, "do not print the summary badge at the end of the run")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if c.serviceURL == "" {
		fmt.Fprintln(os.Stderr, "-url is required")
		fs.Usage()
		return false
	}
	return true
}
