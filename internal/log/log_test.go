package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintfPrefixesAndNewlines(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)
	l.Printf("layer %d created", 3)
	assert.Equal(t, "c layer 3 created\n", buf.String())
}

func TestPrintfDisabledIsNoop(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Printf("should not appear")
	assert.Empty(t, buf.String())
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Printf("noop")
		l.Banner("noop")
	})
}

func TestBannerWrapsLinesBetweenRules(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)
	l.Banner("hello")
	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "c ===")
}
