// Package widgettests contains the acceptance tests that the harness runs against a widget test
// service. Each widget kind has its own suite; the entry point picks the suites to run from the
// capabilities the service reports.
package widgettests
