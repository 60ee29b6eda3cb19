package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/leapstack-labs/askql/internal/testutil"
	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{
			name:   "namespace",
			prefix: DefaultPrefix,
			want:   `SELECT ?s ?p ?o WHERE { ?s ?p ?o . FILTER(STRSTARTS(STR(?s), "http://flight_database.org/")) }`,
		},
		{
			name:   "quote escaped",
			prefix: `http://x.org/"); DROP`,
			want:   `SELECT ?s ?p ?o WHERE { ?s ?p ?o . FILTER(STRSTARTS(STR(?s), "http://x.org/\"); DROP")) }`,
		},
		{
			name:   "backslash and newline escaped",
			prefix: "a\\b\nc",
			want:   `SELECT ?s ?p ?o WHERE { ?s ?p ?o . FILTER(STRSTARTS(STR(?s), "a\\b\nc")) }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQuery(tt.prefix))
		})
	}
}

func TestParseResults(t *testing.T) {
	f, err := os.Open("testdata/sparql_results.xml")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	triples, err := ParseResults(f)
	require.NoError(t, err)

	assert.Equal(t, []core.Triple{
		{Subject: "http://flight_database.org/sflight/SBOOK", Predicate: "http://flight_database.org/database/tableName", Object: "SBOOK"},
		{Subject: "http://flight_database.org/sflight/LOCCURAM", Predicate: "http://flight_database.org/database/description", Object: "Booking price & fees"},
		{Subject: "http://flight_database.org/sflight/CUSTOMID", Predicate: "http://flight_database.org/database/relatedTo", Object: ""},
	}, triples)
}

func TestParseResults_Malformed(t *testing.T) {
	_, err := ParseResults(strings.NewReader("<sparql><results>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse sparql results")
}

func TestSPARQL_Retrieve(t *testing.T) {
	body, err := os.ReadFile("testdata/sparql_results.xml")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, sparqlResultsXML, r.Header.Get("Accept"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, BuildQuery(DefaultPrefix), r.PostForm.Get("query"))
		assert.Equal(t, "urn:graph:sflight", r.PostForm.Get("default-graph-uri"))

		w.Header().Set("Content-Type", sparqlResultsXML)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	r, err := NewSPARQL(Config{Endpoint: srv.URL, Graph: "urn:graph:sflight"}, testutil.NewTestLogger(t))
	require.NoError(t, err)

	triples, err := r.Retrieve(context.Background(), DefaultPrefix)
	require.NoError(t, err)
	assert.Len(t, triples, 3)
}

func TestSPARQL_RetrieveErrors(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int
		maxRetries uint64
		wantCalls  int32
		wantErr    bool
	}{
		{"server error retried then ok", []int{http.StatusBadGateway}, 1, 2, false},
		{"bad request not retried", []int{http.StatusBadRequest}, 3, 1, true},
		{"no retry budget", []int{http.StatusServiceUnavailable}, 0, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				if int(n) <= len(tt.statuses) {
					http.Error(w, "endpoint unavailable", tt.statuses[n-1])
					return
				}
				_, _ = w.Write([]byte(`<sparql xmlns="http://www.w3.org/2005/sparql-results#"><results/></sparql>`))
			}))
			defer srv.Close()

			r, err := NewSPARQL(Config{Endpoint: srv.URL, MaxRetries: tt.maxRetries}, nil)
			require.NoError(t, err)

			triples, err := r.Retrieve(context.Background(), DefaultPrefix)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "sparql endpoint returned")
			} else {
				require.NoError(t, err)
				assert.Empty(t, triples)
			}
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestNewSPARQL_Validation(t *testing.T) {
	_, err := NewSPARQL(Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata.endpoint is required")

	_, err = NewSPARQL(Config{Endpoint: "not a url"}, nil)
	require.Error(t, err)
}
