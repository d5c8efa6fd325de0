package main

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drpcorg/octo"
	"github.com/drpcorg/octo/store"
	"github.com/drpcorg/octo/utils"
)

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"inspect", "repl"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
}

func textUpdate(t *testing.T) []byte {
	d := octo.NewDoc(octo.Options{ClientID: 1, Logger: utils.NewDiscardLogger()})
	text, _ := d.GetText("t")
	update, err := d.Transact(func(txn *octo.Txn) error {
		return text.Insert(txn, 0, "hi")
	})
	require.NoError(t, err)
	return update
}

func inspect(t *testing.T, file []byte, flags ...string) (string, error) {
	path := filepath.Join(t.TempDir(), "update.bin")
	require.NoError(t, os.WriteFile(path, file, 0o644))
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"inspect", path}, flags...))
	err := cmd.Execute()
	return out.String(), err
}

func TestInspect(t *testing.T) {
	update := textUpdate(t)

	out, err := inspect(t, update)
	require.NoError(t, err)
	assert.Contains(t, out, "run 1-0, 1 items")

	out, err = inspect(t, []byte(hex.EncodeToString(update)+"\n"), "--hex", "--doc")
	require.NoError(t, err)
	assert.Contains(t, out, "text t:\thi")
	assert.Contains(t, out, "state 1-2")

	out, err = inspect(t, octo.EncodeStateVector(octo.StateVector{1: 2, 7: 1}), "--sv")
	require.NoError(t, err)
	assert.Equal(t, "1-2,7-1\n", out)

	_, err = inspect(t, []byte{1})
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "octo.db", cfg.Dir)
	assert.Equal(t, "warn", cfg.LogLevel)

	path := filepath.Join(t.TempDir(), "octo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dir: /tmp/x\nclient_id: 42\nlog_level: debug\n"), 0o644))
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{Dir: "/tmp/x", ClientID: 42, LogLevel: "debug", History: ".octo_cmd_log.txt"}, cfg)
	opts, err := cfg.DocOptions()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), opts.ClientID)

	cfg.LogLevel = "loud"
	_, err = cfg.DocOptions()
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("dir: [oops"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	s, err := store.Open(t.TempDir(), store.Options{Logger: utils.NewDiscardLogger()})
	require.NoError(t, err)
	defer s.Close()
	reg := registry(s)
	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}
