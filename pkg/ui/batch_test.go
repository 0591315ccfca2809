package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchPlainFrame(t *testing.T) {
	var out bytes.Buffer
	NewBatch(&out, false, 0).Show(sampleModel(3, 2))

	text := out.String()
	assert.NotContains(t, text, clearSequence)
	assert.NotContains(t, text, "interactive process monitor")
	assert.Contains(t, text, "itop | box")
	assert.Contains(t, text, "sort cpu desc")
	assert.Contains(t, text, "CPU%▼")

	var selected []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, ">") {
			selected = append(selected, line)
		}
	}
	if assert.Len(t, selected, 1) {
		assert.Contains(t, selected[0], "102")
	}
}

func TestBatchRedrawAndLimit(t *testing.T) {
	var out bytes.Buffer
	NewBatch(&out, true, 2).Show(sampleModel(5, -1))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, clearSequence))
	assert.Contains(t, text, "interactive process monitor")
	assert.Contains(t, text, "… 3 more")
	assert.NotContains(t, text, "104")
}

func TestBatchEmptyAndStatus(t *testing.T) {
	var out bytes.Buffer
	NewBatch(&out, false, 0).Show(sampleModel(0, -1).WithStatus("sample failed: timed out"))

	assert.Contains(t, out.String(), "[!] sample failed: timed out")
	assert.Contains(t, out.String(), "No processes matched current filters")
}

func TestBatchColorsStatusOnTerminal(t *testing.T) {
	var out bytes.Buffer
	NewBatch(&out, true, 0).Show(sampleModel(1, -1).WithStatus("clock anomaly"))

	assert.Contains(t, out.String(), warnAmber+"[!] clock anomaly"+reset)
}
