package cmd

import (
	"fob_apiserver/internal/config"
	"fob_apiserver/internal/recorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"testing"
)

var root = getRootCmd()

func TestSubcommands(t *testing.T) {
	for _, name := range []string{"serve", "init", "probe", "record"} {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
	for _, flag := range []string{"config", "driver", "com", "baud", "debug", "port", "interface"} {
		assert.NotNil(t, ServeCmd.Flags().Lookup(flag), flag)
	}
	assert.NotNil(t, RecordCmd.Flags().Lookup("db"))
}

func TestInitWritesConfig(t *testing.T) {
	out := filepath.Join(t.TempDir(), "fobd", "config.yaml")
	root.SetArgs([]string{"init", "--config", filepath.Join(t.TempDir(), "none.yaml"), "-o", out, "-y"})
	require.NoError(t, root.Execute())

	buf, err := os.ReadFile(out)
	require.NoError(t, err)
	var opt config.FOBOpt
	require.NoError(t, yaml.Unmarshal(buf, &opt))
	assert.Equal(t, config.NewFOBOpt(), opt)
}

func TestRecordWithSimDriver(t *testing.T) {
	db := filepath.Join(t.TempDir(), "frames.db")
	root.SetArgs([]string{"record", "--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--driver", config.DriverSim, "--db", db, "-d", "300ms"})
	require.NoError(t, root.Execute())

	rec, err := recorder.Open(db)
	require.NoError(t, err)
	defer rec.Close()
	n, err := rec.Count()
	require.NoError(t, err)
	assert.Positive(t, n)
}
