package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/askql/pkg/adapter"
	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"in-memory", func(_ *testing.T) string { return ":memory:" }},
		{"empty path", func(_ *testing.T) string { return "" }},
		{"file-based", func(t *testing.T) string { return filepath.Join(t.TempDir(), "flights.db") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)
			require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: tt.path(t)}))
			defer func() { _ = adp.Close() }()

			assert.True(t, adp.IsConnected())
			assert.NoError(t, adp.Ping(ctx))
		})
	}
}

func TestAdapter_SchemaQualifiedQuery(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	cfg := core.AdapterConfig{
		Path:   filepath.Join(t.TempDir(), "flights.db"),
		Schema: "SFLIGHT",
	}
	require.NoError(t, adp.Connect(ctx, cfg))
	defer func() { _ = adp.Close() }()

	require.NoError(t, adp.Exec(ctx, `CREATE TABLE SFLIGHT.SBOOK (CARRID TEXT, LOCCURAM REAL)`))
	require.NoError(t, adp.Exec(ctx, `INSERT INTO SFLIGHT.SBOOK VALUES (?, ?), (?, ?)`, "AA", 100.5, "LH", 20.0))

	rows, err := adp.Query(ctx, "SELECT SUM(LOCCURAM) AS SUM_LOCCURAM FROM SFLIGHT.SBOOK WHERE CARRID = 'AA';")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	rs, err := adapter.ScanResultSet(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"SUM_LOCCURAM"}, rs.Columns)
	require.Equal(t, 1, rs.Len())
	assert.InDelta(t, 100.5, rs.Rows[0]["SUM_LOCCURAM"], 0.0001)
}

func TestAdapter_DialectAndRegistry(t *testing.T) {
	assert.Equal(t, "sqlite", New(nil).DialectName())

	factory, ok := adapter.Get("sqlite")
	require.True(t, ok)
	_, ok = factory(nil).(*Adapter)
	assert.True(t, ok, "factory should return *Adapter")
}

func TestAdapter_NotConnected(t *testing.T) {
	adp := New(nil)
	assert.Error(t, adp.Exec(context.Background(), "SELECT 1"))
	_, err := adp.Query(context.Background(), "SELECT 1")
	assert.Error(t, err)
	assert.NoError(t, adp.Close())
}
