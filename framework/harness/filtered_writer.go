package harness

import (
	"io"
	"regexp"
)

// filteredWriter drops any write that matches one of the exclude patterns. Each write is assumed
// to be one log line.
type filteredWriter struct {
	writer       io.Writer
	excludeRegex []*regexp.Regexp
}

func newFilteredWriter(writer io.Writer, excludeRegex []*regexp.Regexp) io.Writer {
	if writer == nil {
		writer = io.Discard
	}
	return &filteredWriter{writer, excludeRegex}
}

func (f *filteredWriter) Write(data []byte) (int, error) {
	for _, r := range f.excludeRegex {
		if r.Match(data) {
			return len(data), nil
		}
	}
	return f.writer.Write(data)
}
