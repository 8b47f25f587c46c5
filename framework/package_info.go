// Package framework holds the pieces of the widget test harness that know nothing about any
// particular widget: the Logger abstraction, per-scope output capture, capability lists and the
// stream event type shared by the test service and the harness. Test scopes live in ctest, the
// connection to the test service in harness.
//
// A test run works like this:
//
// 1. The harness queries the test service's root endpoint for its status and capabilities, then
// creates one widget entity per test case with a POST to the same endpoint.
//
// 2. Each entity accepts discrete commands (activate a control, read an observable) and streams
// its state changes as server-sent events.
//
// 3. The harness may also serve mock endpoints, such as a quote source, that the test service
// calls back to.
package framework
