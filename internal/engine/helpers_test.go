package engine

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/askql/pkg/adapter"
	"github.com/leapstack-labs/askql/pkg/adapters/duckdb"
	"github.com/leapstack-labs/askql/pkg/core"
)

const flightNS = "http://flight_database.org/"

var flightTriples = []core.Triple{
	{Subject: flightNS + "SBOOK", Predicate: "rdf:type", Object: "Table"},
	{Subject: flightNS + "SBOOK/CARRID", Predicate: "columnOf", Object: flightNS + "SBOOK"},
	{Subject: flightNS + "SBOOK/LOCCURAM", Predicate: "columnOf", Object: flightNS + "SBOOK"},
	{Subject: flightNS + "SBOOK/LOCCURAM", Predicate: "aggregation", Object: "SUM"},
}

const (
	analysisScenarioA = "Tables: SBOOK\nColumns: SUM(LOCCURAM)\nFilters: CARRID = 'AA'\nJoins:\nGroupBy:"
	analysisScenarioB = analysisScenarioA + " CARRID"
)

// mockAdapter is a sqlmock-backed adapter.
type mockAdapter struct {
	adapter.BaseSQLAdapter
}

func (m *mockAdapter) Connect(context.Context, core.AdapterConfig) error { return nil }

func (m *mockAdapter) DialectName() string { return "mock" }

func newMockAdapter(t *testing.T) (*mockAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &mockAdapter{BaseSQLAdapter: adapter.BaseSQLAdapter{DB: db}}, mock
}

// newFlightsDB returns an in-memory DuckDB holding a small SFLIGHT.SBOOK table.
func newFlightsDB(t *testing.T) adapter.Adapter {
	t.Helper()
	ctx := context.Background()

	db := duckdb.New(nil)
	require.NoError(t, db.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		"CREATE SCHEMA SFLIGHT",
		"CREATE TABLE SFLIGHT.SBOOK (CARRID VARCHAR, CONNID INTEGER, LOCCURAM DOUBLE)",
		"INSERT INTO SFLIGHT.SBOOK VALUES ('AA', 17, 1000.25), ('AA', 64, 500.25), ('LH', 400, 300)",
	} {
		require.NoError(t, db.Exec(ctx, stmt))
	}
	return db
}
