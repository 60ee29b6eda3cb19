package metadata

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/leapstack-labs/askql/internal/retry"
	"github.com/leapstack-labs/askql/pkg/core"
)

const sparqlResultsXML = "application/sparql-results+xml"

// SPARQL retrieves triples from a SPARQL 1.1 protocol endpoint.
type SPARQL struct {
	endpoint string
	graph    string
	client   *http.Client
	policy   retry.Policy
	logger   *slog.Logger
}

// NewSPARQL creates a retriever for cfg.Endpoint.
func NewSPARQL(cfg Config, logger *slog.Logger) (*SPARQL, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("metadata.endpoint is required for the sparql source")
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid metadata.endpoint: %w", err)
	}
	return &SPARQL{
		endpoint: cfg.Endpoint,
		graph:    cfg.Graph,
		client:   http.DefaultClient,
		policy:   retry.Policy{MaxRetries: cfg.MaxRetries, AttemptTimeout: cfg.Timeout},
		logger:   logger,
	}, nil
}

// BuildQuery returns the graph-pattern query selecting every triple whose
// subject starts with prefix.
func BuildQuery(prefix string) string {
	return fmt.Sprintf(`SELECT ?s ?p ?o WHERE { ?s ?p ?o . FILTER(STRSTARTS(STR(?s), "%s")) }`, escapeLiteral(prefix))
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

// Retrieve runs the prefix query against the endpoint.
func (s *SPARQL) Retrieve(ctx context.Context, prefix string) ([]core.Triple, error) {
	query := BuildQuery(prefix)
	s.logger.Debug("querying sparql endpoint", slog.String("endpoint", s.endpoint), slog.String("prefix", prefix))

	var triples []core.Triple
	err := retry.Do(ctx, s.policy, s.logger, "sparql.query", func(ctx context.Context) error {
		var err error
		triples, err = s.do(ctx, query)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("retrieved triples", slog.Int("count", len(triples)))
	return triples, nil
}

func (s *SPARQL) do(ctx context.Context, query string) ([]core.Triple, error) {
	form := url.Values{"query": {query}}
	if s.graph != "" {
		form.Set("default-graph-uri", s.graph)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build sparql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", sparqlResultsXML)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sparql request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("sparql endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, retry.Transient(err)
		}
		return nil, err
	}

	return ParseResults(resp.Body)
}

// sparqlDocument mirrors the W3C SPARQL query results XML format.
// Element names match in any namespace.
type sparqlDocument struct {
	XMLName xml.Name `xml:"sparql"`
	Results []struct {
		Bindings []sparqlBinding `xml:"binding"`
	} `xml:"results>result"`
}

type sparqlBinding struct {
	Name    string  `xml:"name,attr"`
	URI     *string `xml:"uri"`
	Literal *string `xml:"literal"`
}

func (b sparqlBinding) value() string {
	switch {
	case b.URI != nil:
		return strings.TrimSpace(*b.URI)
	case b.Literal != nil:
		return *b.Literal
	default:
		// blank nodes carry no schema information
		return ""
	}
}

// ParseResults decodes an s/p/o SELECT result document. Unbound or blank
// node variables become empty strings.
func ParseResults(r io.Reader) ([]core.Triple, error) {
	var doc sparqlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse sparql results: %w", err)
	}

	triples := make([]core.Triple, 0, len(doc.Results))
	for _, res := range doc.Results {
		var t core.Triple
		for _, b := range res.Bindings {
			switch b.Name {
			case "s":
				t.Subject = b.value()
			case "p":
				t.Predicate = b.value()
			case "o":
				t.Object = b.value()
			}
		}
		triples = append(triples, t)
	}
	return triples, nil
}
