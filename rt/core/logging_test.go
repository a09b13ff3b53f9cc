package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextLoggerTagsComponents(t *testing.T) {
	var buf bytes.Buffer
	root := NewTextLogger(&buf, "sparks", false)
	root.With("scene").Warnf("element %s refers to missing parent %s", "a", "b")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "component=sparks")
	assert.Contains(t, out, "component=scene")
	assert.Contains(t, out, "element a refers to missing parent b")
}

func TestDebugFollowsSetDebug(t *testing.T) {
	var buf bytes.Buffer
	root := NewTextLogger(&buf, "", false)
	child := root.With("renderer")

	child.Debugf("hidden")
	assert.Empty(t, buf.String())

	root.SetDebug(true)
	child.Debugf("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	assert.NotNil(t, l)
	l.With("x").Errorf("dropped %d", 1)

	var buf bytes.Buffer
	text := NewTextLogger(&buf, "", false)
	assert.Same(t, text, OrNop(text))
}

func TestRepeatsCollapseIdenticalMessages(t *testing.T) {
	var buf bytes.Buffer
	l := NewTextLogger(&buf, "", false)
	var r Repeats

	for i := 0; i < 3; i++ {
		r.Errorf(l, "upload failed: %s", "oom")
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "level=ERROR"))

	r.Errorf(l, "draw failed")
	out := buf.String()
	assert.Contains(t, out, "repeated 2 more times: upload failed: oom")
	assert.Equal(t, 2, strings.Count(out, "level=ERROR"))

	buf.Reset()
	r.Clear(l)
	assert.Empty(t, buf.String(), "nothing skipped since the last message")
	r.Errorf(l, "draw failed")
	assert.Contains(t, buf.String(), "draw failed", "Clear starts a new run")
}
