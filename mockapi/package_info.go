// Package mockapi contains fake external services that the suites serve from harness mock
// endpoints, so that a widget under test can be pointed at data the tests control.
package mockapi
