package helpers

import (
	"fmt"
	"io"
)

// MustFprintln is fmt.Fprintln for console output where a failed write means the process can't
// report anything anyway.
func MustFprintln(w io.Writer, a ...any) {
	if _, err := fmt.Fprintln(w, a...); err != nil {
		panic(err)
	}
}

// MustFprintf is the Fprintf counterpart of MustFprintln.
func MustFprintf(w io.Writer, format string, a ...any) {
	if _, err := fmt.Fprintf(w, format, a...); err != nil {
		panic(err)
	}
}
