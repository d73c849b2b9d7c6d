package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `yaml:"name"`
	Baud int    `yaml:"baud"`
}

func TestDumpOptionCreatesParent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, DumpOption(sample{Name: "fob", Baud: 115200}, out, false))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "name: fob")
	assert.Contains(t, string(b), "baud: 115200")
}

func TestDumpOptionAskBeforeOverwrite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(out, []byte("keep"), 0600))

	old := ConfirmReader
	t.Cleanup(func() { ConfirmReader = old })

	ConfirmReader = strings.NewReader("n\n")
	require.NoError(t, DumpOption(sample{Name: "fob"}, out, false))
	b, _ := os.ReadFile(out)
	assert.Equal(t, "keep", string(b))

	ConfirmReader = strings.NewReader("\n")
	require.NoError(t, DumpOption(sample{Name: "fob"}, out, false))
	b, _ = os.ReadFile(out)
	assert.Contains(t, string(b), "name: fob")
}

func TestAskForConfirmation(t *testing.T) {
	old := ConfirmReader
	t.Cleanup(func() { ConfirmReader = old })

	for in, want := range map[string]bool{"y\n": true, "YES\n": true, "\n": true, "no\n": false, "maybe\n": false, "": false} {
		ConfirmReader = strings.NewReader(in)
		assert.Equal(t, want, AskForConfirmationDefaultYes("ok?"), "%q", in)
	}
}
