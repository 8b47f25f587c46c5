// Package ctest runs contract tests in nested scopes, much like Go's testing.T but usable
// outside of "go test": the harness binary drives a test service for minutes at a time, decides
// at run time which tests apply, and reports results to several sinks at once.
package ctest
