package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	SetLevel("warn")
	defer SetLevel("info")

	Infof("hidden %d", 1)
	Warnf("shown %s", "warn")
	Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warn")
	assert.Contains(t, out, "WARN")
}

func TestInfoBlockSplitsLines(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	InfoBlock("\nfirst\nsecond\n")
	Sync()
	assert.Contains(t, buf.String(), "first")
	assert.Contains(t, buf.String(), "second")
}

func TestTranscriptRecordsVerdict(t *testing.T) {
	var buf bytes.Buffer
	SetTranscriptWriter(&buf)
	defer SetTranscriptWriter(nil)

	LogExchange("p1", "order_spread", "What is the spread >>> ", "1.5", "Order spread must not exceed 1.")
	LogExchange("p1", "order_spread", "What is the spread >>> ", "0.01", "")

	out := buf.String()
	assert.Contains(t, out, "[FIELD][p1][order_spread]")
	assert.Contains(t, out, "--- REJECTED ---\nOrder spread must not exceed 1.")
	assert.Contains(t, out, "--- ACCEPTED ---")
}
