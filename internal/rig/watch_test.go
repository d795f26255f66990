package rig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_CallsBackOnWrite(t *testing.T) {
	m, _ := newTestManager(t, Output{})
	path := writeFile(t, "rig.toml", "[[fixture]]\nname = \"a\"\nstart = 1\n")
	other := filepath.Join(filepath.Dir(path), "notes.txt")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	require.NoError(t, Watch(ctx, m.log, path, func() { changed <- struct{}{} }))

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o600))
	select {
	case <-changed:
		t.Fatal("callback for an unrelated file")
	case <-time.After(3 * settle):
	}

	require.NoError(t, os.WriteFile(path, []byte("[[fixture]]\nname = \"b\"\nstart = 2\n"), 0o600))
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no callback after the rig file changed")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	m, _ := newTestManager(t, Output{})
	err := Watch(context.Background(), m.log, filepath.Join(t.TempDir(), "nope", "rig.toml"), func() {})
	assert.Error(t, err)
}
