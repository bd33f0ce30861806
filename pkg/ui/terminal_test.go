package ui

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Configure(&buf, true)
	t.Cleanup(func() {
		Configure(os.Stdout, false)
		SetQuietMode(false)
	})
	return &buf
}

func TestPrintWithoutColors(t *testing.T) {
	buf := captureOutput(t)

	PrintInfo("Source", "gelbooru")
	PrintError("Search failed", "status 500")

	assert.Equal(t, "Source: gelbooru\nSearch failed: status 500\n", buf.String())
}

func TestQuietModeKeepsErrors(t *testing.T) {
	buf := captureOutput(t)
	SetQuietMode(true)

	PrintBanner()
	PrintInfo("Source", "gelbooru")
	PrintSuccess("done")
	PrintError("fatal")

	assert.True(t, IsQuietMode())
	assert.Equal(t, "fatal\n", buf.String())
}

func TestIsTerminalForBuffer(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestPrintSummary(t *testing.T) {
	buf := captureOutput(t)

	PrintSummary(RunSummary{Pages: 2, Posts: 3, Succeeded: 2, Failed: 1, Elapsed: 1500 * time.Millisecond})

	out := buf.String()
	assert.Contains(t, out, "Pages: 2")
	assert.Contains(t, out, "Posts: 3")
	assert.Contains(t, out, "Downloaded: 2")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "Elapsed: 1.5s")
}
