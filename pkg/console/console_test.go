package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_WritesOneLinePerCall(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Green("%s detected", "gcc")
	p.Red("Cannot compile")
	p.Plain("plain %d", 1)
	p.Lines([]string{"a", "b"})

	out := buf.String()
	assert.Contains(t, out, "gcc detected")
	assert.Contains(t, out, "Cannot compile")
	assert.Contains(t, out, "plain 1\na\nb\n")
	assert.Equal(t, 5, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestDiscard(t *testing.T) {
	p := Discard()
	p.Yellow("ignored")
}
