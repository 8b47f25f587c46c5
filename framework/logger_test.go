package framework

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/widgetharness/widget-test-harness/clock"
)

func TestCapturingLoggerUsesClock(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := clock.NewManual(start)
	l := &CapturingLogger{Clock: c}
	l.Printf("a %d", 1)
	c.Advance(time.Second)
	l.Println("b", 2)

	out := l.Output()
	assert.Equal(t, CapturedOutput{
		{Time: start, Message: "a 1"},
		{Time: start.Add(time.Second), Message: "b 2"},
	}, out)
	assert.Equal(t, "> [2024-01-02 03:04:05.000] a 1\n> [2024-01-02 03:04:06.000] b 2", out.ToString("> "))
}

func TestCapturingLoggerChildren(t *testing.T) {
	parent := &CapturingLogger{}
	parent.Printf("before")

	child := &CapturingLogger{}
	parent.AddChildLogger(child)
	parent.Printf("during")
	parent.RemoveChildLogger(child)
	parent.Printf("after")

	var parentMessages, childMessages []string
	for _, m := range parent.Output() {
		parentMessages = append(parentMessages, m.Message)
	}
	for _, m := range child.Output() {
		childMessages = append(childMessages, m.Message)
	}
	assert.Equal(t, []string{"before", "after"}, parentMessages)
	assert.Equal(t, []string{"before", "during"}, childMessages)
}

func TestLoggerWithPrefix(t *testing.T) {
	l := &CapturingLogger{}
	p := LoggerWithPrefix(l, "[mock] ")
	p.Printf("got %s", "request")
	out := l.Output()
	assert.Len(t, out, 1)
	assert.Equal(t, "[mock] got request", out[0].Message)
}
