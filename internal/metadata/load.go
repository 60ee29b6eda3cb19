package metadata

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/askql/pkg/core"
	"gopkg.in/yaml.v3"
)

// LoadFile reads triples from an N-Triples (.nt) or YAML (.yaml, .yml) file.
func LoadFile(path string) ([]core.Triple, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by the user on the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".nt":
		return ParseNTriples(f)
	case ".yaml", ".yml":
		return ParseYAML(f)
	default:
		return nil, fmt.Errorf("unsupported triple file extension %q (expected .nt, .yaml or .yml)", ext)
	}
}

// ParseYAML reads a YAML list of {s, p, o} mappings.
func ParseYAML(r io.Reader) ([]core.Triple, error) {
	var triples []core.Triple
	if err := yaml.NewDecoder(r).Decode(&triples); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse triples yaml: %w", err)
	}
	for i, t := range triples {
		if t.Subject == "" || t.Predicate == "" {
			return nil, fmt.Errorf("triple %d: subject and predicate are required", i+1)
		}
	}
	return triples, nil
}

// ParseNTriples reads N-Triples. IRIs are returned without angle brackets,
// literals as their unescaped lexical form and blank nodes as "_:label".
func ParseNTriples(r io.Reader) ([]core.Triple, error) {
	var triples []core.Triple
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		t, err := parseTripleLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		triples = append(triples, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read n-triples: %w", err)
	}
	return triples, nil
}

func parseTripleLine(line string) (core.Triple, error) {
	var terms [3]string
	rest := line
	for i := range terms {
		term, tail, err := nextTerm(strings.TrimLeft(rest, " \t"))
		if err != nil {
			return core.Triple{}, err
		}
		terms[i] = term
		rest = tail
	}

	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, ".") {
		return core.Triple{}, fmt.Errorf("expected '.' after object")
	}
	if tail := strings.TrimSpace(rest[1:]); tail != "" && !strings.HasPrefix(tail, "#") {
		return core.Triple{}, fmt.Errorf("unexpected content after '.': %q", tail)
	}
	return core.Triple{Subject: terms[0], Predicate: terms[1], Object: terms[2]}, nil
}

// nextTerm consumes one IRI, blank node or literal from the start of s.
func nextTerm(s string) (term, rest string, err error) {
	switch {
	case strings.HasPrefix(s, "<"):
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return "", "", fmt.Errorf("unterminated IRI")
		}
		iri, err := unescape(s[1:end], false)
		if err != nil {
			return "", "", fmt.Errorf("invalid IRI <%s>: %w", s[1:end], err)
		}
		return iri, s[end+1:], nil

	case strings.HasPrefix(s, "_:"):
		end := strings.IndexAny(s, " \t<\"")
		if end < 0 {
			end = len(s)
		}
		// A label never ends in '.', so trailing dots are the terminator.
		label := strings.TrimRight(s[:end], ".")
		if len(label) <= len("_:") {
			return "", "", fmt.Errorf("empty blank node label")
		}
		return label, s[len(label):], nil

	case strings.HasPrefix(s, `"`):
		end := closingQuote(s)
		if end < 0 {
			return "", "", fmt.Errorf("unterminated literal")
		}
		lexical, err := unescape(s[1:end], true)
		if err != nil {
			return "", "", fmt.Errorf("invalid literal %s: %w", s[:end+1], err)
		}
		rest = s[end+1:]
		// language tag or datatype annotations are not part of the value
		switch {
		case strings.HasPrefix(rest, "@"):
			i := 1
			for i < len(rest) && (isAlnum(rest[i]) || rest[i] == '-') {
				i++
			}
			rest = rest[i:]
		case strings.HasPrefix(rest, "^^<"):
			i := strings.IndexByte(rest, '>')
			if i < 0 {
				return "", "", fmt.Errorf("unterminated datatype IRI")
			}
			rest = rest[i+1:]
		}
		return lexical, rest, nil

	default:
		return "", "", fmt.Errorf("unexpected term start %q", firstRune(s))
	}
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// echars are the single-character escapes allowed in N-Triples literals.
var echars = map[byte]byte{
	't': '\t', 'b': '\b', 'n': '\n', 'r': '\r', 'f': '\f',
	'"': '"', '\'': '\'', '\\': '\\',
}

// unescape decodes \uXXXX and \UXXXXXXXX everywhere and, in literals, the
// single-character escapes.
func unescape(s string, literal bool) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			sb.WriteByte(s[i])
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("dangling escape")
		}
		c := s[i+1]
		switch {
		case c == 'u' || c == 'U':
			n := 4
			if c == 'U' {
				n = 8
			}
			if i+2+n > len(s) {
				return "", fmt.Errorf("short \\%c escape", c)
			}
			code, err := strconv.ParseUint(s[i+2:i+2+n], 16, 32)
			if err != nil || !utf8.ValidRune(rune(code)) {
				return "", fmt.Errorf("invalid \\%c escape %q", c, s[i+2:i+2+n])
			}
			sb.WriteRune(rune(code))
			i += 1 + n
		case literal && echars[c] != 0:
			sb.WriteByte(echars[c])
			i++
		default:
			return "", fmt.Errorf("invalid escape \\%c", c)
		}
	}
	return sb.String(), nil
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
