// Package internal holds helpers for the ctest unit tests that must live outside the ctest package.
package internal

// RunAction calls action. It exists so stacktrace tests have a frame outside of ctest.
func RunAction(action func()) {
	action()
}
