//go:build !integration

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/dedupe/internal/config"
	"github.com/sells-group/dedupe/internal/dedupe"
	"github.com/sells-group/dedupe/internal/model"
	"github.com/sells-group/dedupe/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// useSQLite points cfg at a fresh SQLite database seeded with recs and
// restores the previous globals when the test ends.
func useSQLite(t *testing.T, recs ...model.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dedupe.db")

	st, err := store.NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	for _, r := range recs {
		_, err := st.CreateRecord(context.Background(), r)
		require.NoError(t, err)
	}
	require.NoError(t, st.Close())

	oldCfg, oldProfile := cfg, profilePath
	t.Cleanup(func() { cfg, profilePath = oldCfg, oldProfile })

	cfg = &config.Config{
		Store:  config.StoreConfig{Driver: "sqlite", DatabaseURL: path},
		Engine: dedupe.DefaultConfig(),
		Scan:   config.ScanConfig{Blocking: "none"},
		Server: config.ServerConfig{Port: 8080},
		Log:    config.LogConfig{Level: "info", Format: "json"},
	}
	profilePath = ""
	return path
}

// runCmd runs c's RunE with output captured.
func runCmd(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetContext(context.Background())
	t.Cleanup(func() { c.SetOut(nil) })
	err := c.RunE(c, args)
	return out.String(), err
}

func openStore(t *testing.T, path string) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

func sampleRecords() []model.Record {
	return []model.Record{
		{ID: "r1", Name: "Joe's Pizza", Phone: "555-123-4567", ZipCode: "62701"},
		{ID: "r2", Name: "Joes Pizza LLC", Phone: "(555) 123-4567", Email: "joe@joespizza.com"},
		{ID: "r3", Name: "Acme Plumbing", Website: "acmeplumbing.com", ZipCode: "10001"},
		{ID: "r4", Name: "Zebra Consulting", ZipCode: "90210"},
	}
}

func scanConfig(blocking string, concurrency int) config.ScanConfig {
	return config.ScanConfig{Blocking: blocking, Concurrency: concurrency}
}
