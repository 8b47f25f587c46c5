// Package servicedef contains definitions for the REST protocol that widget test services must
// implement.
//
// The package is used by the test harness, and also by the reference test service in this
// repository.
package servicedef
