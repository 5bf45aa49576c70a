package rdf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// The Turtle subset written here is one statement per line with prefixed
// names where the local part is safe, full IRIs otherwise, and escaped
// string literals. Decode accepts exactly the shape Encode produces, which
// is the only interchange format between the builder and the query layer.

// safeLocal matches local names that can appear in a prefixed name without
// further escaping. Percent-encoded bytes (%XX) are permitted; a trailing
// dot is not.
var safeLocal = regexp.MustCompile(`^[A-Za-z0-9_%](?:[A-Za-z0-9_.%-]*[A-Za-z0-9_%-])?$`)

// Encode writes the store to w in Turtle.
func Encode(w io.Writer, s *Store) error {
	bw := bufio.NewWriter(w)
	for _, p := range prefixes {
		if _, err := fmt.Fprintf(bw, "@prefix %s: <%s> .\n", p.Label, p.IRI); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(bw); err != nil {
		return err
	}
	for _, t := range s.Triples() {
		var obj string
		if t.Object.Literal {
			obj = quoteLiteral(t.Object.Value)
		} else {
			obj = compactIRI(t.Object.Value)
		}
		pred := compactIRI(t.Predicate)
		if t.Predicate == PredType {
			pred = "a"
		}
		if _, err := fmt.Fprintf(bw, "%s %s %s .\n", compactIRI(t.Subject), pred, obj); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Decode parses Turtle previously produced by Encode.
func Decode(r io.Reader) (*Store, error) {
	store := NewStore()
	ns := make(map[string]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "@prefix") {
			label, iri, err := parsePrefix(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			ns[label] = iri
			continue
		}
		t, err := parseStatement(line, ns)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		store.Add(t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read turtle: %w", err)
	}
	return store, nil
}

// WriteFile serializes the store to path atomically: the content is written
// to a temporary file in the same directory and renamed into place, so a
// failed write never leaves a partial file that looks valid.
func WriteFile(path string, s *Store) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".kg-*.ttl")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := Encode(tmp, s); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("serialize store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a serialized store from path.
func ReadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	defer f.Close()

	store, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	return store, nil
}

func compactIRI(iri string) string {
	for _, p := range prefixes {
		if !strings.HasPrefix(iri, p.IRI) {
			continue
		}
		local := iri[len(p.IRI):]
		if local != "" && safeLocal.MatchString(local) {
			return p.Label + ":" + local
		}
	}
	return "<" + iri + ">"
}

func quoteLiteral(v string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range v {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func parsePrefix(line string) (label, iri string, err error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "@prefix"))
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return "", "", fmt.Errorf("malformed @prefix: %q", line)
	}
	label = strings.TrimSpace(rest[:colon])
	rest = strings.TrimSpace(rest[colon+1:])
	if !strings.HasPrefix(rest, "<") {
		return "", "", fmt.Errorf("malformed @prefix IRI: %q", line)
	}
	end := strings.Index(rest, ">")
	if end < 0 {
		return "", "", fmt.Errorf("unterminated @prefix IRI: %q", line)
	}
	return label, rest[1:end], nil
}

func parseStatement(line string, ns map[string]string) (Triple, error) {
	subj, rest, err := parseIRITerm(line, ns)
	if err != nil {
		return Triple{}, fmt.Errorf("subject: %w", err)
	}
	var pred string
	if strings.HasPrefix(rest, "a ") {
		pred = PredType
		rest = strings.TrimSpace(rest[2:])
	} else {
		pred, rest, err = parseIRITerm(rest, ns)
		if err != nil {
			return Triple{}, fmt.Errorf("predicate: %w", err)
		}
	}
	obj, rest, err := parseObject(rest, ns)
	if err != nil {
		return Triple{}, fmt.Errorf("object: %w", err)
	}
	if strings.TrimSpace(rest) != "." {
		return Triple{}, fmt.Errorf("missing statement terminator in %q", line)
	}
	return Triple{Subject: subj, Predicate: pred, Object: obj}, nil
}

func parseIRITerm(s string, ns map[string]string) (iri, rest string, err error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<") {
		end := strings.Index(s, ">")
		if end < 0 {
			return "", "", fmt.Errorf("unterminated IRI in %q", s)
		}
		return s[1:end], strings.TrimSpace(s[end+1:]), nil
	}
	sp := strings.IndexAny(s, " \t")
	if sp < 0 {
		return "", "", fmt.Errorf("unexpected end of statement in %q", s)
	}
	token := s[:sp]
	iri, err = expandPrefixed(token, ns)
	if err != nil {
		return "", "", err
	}
	return iri, strings.TrimSpace(s[sp:]), nil
}

func parseObject(s string, ns map[string]string) (Term, string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `"`) {
		val, rest, err := unquoteLiteral(s)
		if err != nil {
			return Term{}, "", err
		}
		return Literal(val), rest, nil
	}
	iri, rest, err := parseIRITerm(s, ns)
	if err != nil {
		return Term{}, "", err
	}
	return IRI(iri), rest, nil
}

func unquoteLiteral(s string) (val, rest string, err error) {
	var sb strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		if c == '"' {
			return sb.String(), strings.TrimSpace(s[i+1:]), nil
		}
		if c == '\\' {
			if i+1 >= len(s) {
				break
			}
			switch s[i+1] {
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			default:
				return "", "", fmt.Errorf("unknown escape \\%c", s[i+1])
			}
			i += 2
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return "", "", fmt.Errorf("unterminated literal in %q", s)
}

func expandPrefixed(token string, ns map[string]string) (string, error) {
	colon := strings.Index(token, ":")
	if colon < 0 {
		return "", fmt.Errorf("expected IRI or prefixed name, got %q", token)
	}
	base, ok := ns[token[:colon]]
	if !ok {
		return "", fmt.Errorf("unknown prefix %q", token[:colon])
	}
	return base + token[colon+1:], nil
}
