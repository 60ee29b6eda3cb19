package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/askql/pkg/adapter"
	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "empty path defaults to memory",
			setupPath: func(_ *testing.T) string {
				return ""
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "flights.duckdb")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			dbPath := tt.setupPath(t)
			require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: dbPath}))
			defer func() { _ = adp.Close() }()

			assert.NoError(t, adp.Ping(ctx))
			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

func TestAdapter_ConnectSettings(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	cfg := core.AdapterConfig{
		Path: ":memory:",
		Params: map[string]any{
			"settings": map[string]any{"threads": 2},
		},
	}
	require.NoError(t, adp.Connect(ctx, cfg))
	defer func() { _ = adp.Close() }()

	rows, err := adp.Query(ctx, "SELECT current_setting('threads') AS threads")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	rs, err := adapter.ScanResultSet(rows)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len())
	assert.EqualValues(t, 2, rs.Rows[0]["threads"])
}

func TestAdapter_ConnectRejectsBadParams(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
	}{
		{"unknown key", map[string]any{"bogus": true}},
		{"unsafe extension", map[string]any{"extensions": []any{"json; DROP TABLE x"}}},
		{"unsafe setting", map[string]any{"settings": map[string]any{"a b": "1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adp := New(nil)
			err := adp.Connect(context.Background(), core.AdapterConfig{Params: tt.params})
			require.Error(t, err)
			assert.False(t, adp.IsConnected())
		})
	}
}

func TestAdapter_NotConnected(t *testing.T) {
	tests := []struct {
		name      string
		operation func(ctx context.Context, adp *Adapter) error
	}{
		{
			name: "exec without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.Exec(ctx, "SELECT 1")
			},
		},
		{
			name: "query without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.Query(ctx, "SELECT 1")
				return err
			},
		},
		{
			name: "ping without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.Ping(ctx)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.operation(context.Background(), New(nil))
			assert.Error(t, err, "expected error when operating without connection")
		})
	}
}

func TestAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		connect bool
	}{
		{"close without connect", false},
		{"close after connect", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			if tt.connect {
				require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
			}

			assert.NoError(t, adp.Close())
		})
	}
}

func TestAdapter_SynthesizedQueries(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	require.NoError(t, adp.Exec(ctx, `CREATE SCHEMA SFLIGHT`))
	require.NoError(t, adp.Exec(ctx, `
		CREATE TABLE SFLIGHT.SBOOK (
			CARRID VARCHAR,
			CUSTOMID INTEGER,
			CLASS VARCHAR,
			LOCCURAM DOUBLE
		)
	`))
	require.NoError(t, adp.Exec(ctx, `CREATE TABLE SFLIGHT.SCUSTOM (ID INTEGER, NAME VARCHAR)`))
	require.NoError(t, adp.Exec(ctx, `
		INSERT INTO SFLIGHT.SBOOK VALUES
			('AA', 1, 'C', 500.0),
			('AA', 2, 'Y', 250.0),
			('LH', 1, 'C', 800.0)
	`))
	require.NoError(t, adp.Exec(ctx, `INSERT INTO SFLIGHT.SCUSTOM VALUES (1, 'Smith'), (2, 'Jones')`))

	tests := []struct {
		name     string
		sql      string
		expected core.ResultSet
	}{
		{
			name: "filtered sum",
			sql:  "SELECT SUM(LOCCURAM) AS SUM_LOCCURAM FROM SFLIGHT.SBOOK WHERE CARRID = 'AA';",
			expected: core.ResultSet{
				Columns: []string{"SUM_LOCCURAM"},
				Rows:    []core.Row{{"SUM_LOCCURAM": 750.0}},
			},
		},
		{
			name: "group by with having",
			sql:  "SELECT CARRID, SUM(LOCCURAM) AS SUM_LOCCURAM FROM SFLIGHT.SBOOK GROUP BY CARRID HAVING CARRID = 'AA';",
			expected: core.ResultSet{
				Columns: []string{"CARRID", "SUM_LOCCURAM"},
				Rows:    []core.Row{{"CARRID": "AA", "SUM_LOCCURAM": 750.0}},
			},
		},
		{
			name: "join",
			sql:  "SELECT NAME, AVG(LOCCURAM) AS AVG_LOCCURAM FROM SFLIGHT.SBOOK INNER JOIN SFLIGHT.SCUSTOM ON SBOOK.CUSTOMID = SCUSTOM.ID GROUP BY NAME HAVING NAME = 'Smith';",
			expected: core.ResultSet{
				Columns: []string{"NAME", "AVG_LOCCURAM"},
				Rows:    []core.Row{{"NAME": "Smith", "AVG_LOCCURAM": 650.0}},
			},
		},
		{
			name: "no matches",
			sql:  "SELECT * FROM SFLIGHT.SBOOK WHERE CARRID = 'ZZ';",
			expected: core.ResultSet{
				Columns: []string{"CARRID", "CUSTOMID", "CLASS", "LOCCURAM"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := adp.Query(ctx, tt.sql)
			require.NoError(t, err)
			defer func() { _ = rows.Close() }()

			rs, err := adapter.ScanResultSet(rows)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rs)
		})
	}
}

func TestAdapter_QueryError(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	_, err := adp.Query(ctx, "SELECT * FROM SFLIGHT.MISSING;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute query")
}

func TestIsSafeName(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"json", true},
		{"memory_limit", true},
		{"", false},
		{"a b", false},
		{"x;y", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, isSafeName(tt.input))
		})
	}
}
