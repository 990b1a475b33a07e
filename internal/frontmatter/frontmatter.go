// Package frontmatter splits a document's metadata block from its body and
// evaluates the block as a restricted key/value assignment language.
//
// The reference format executes the block as host-language code; here it is
// parsed strictly as data literals, which keeps the author-facing syntax for
// the common cases (strings, numbers, booleans, lists) without granting the
// block any ambient capability.
package frontmatter

import (
	"fmt"
	"strings"
)

// ParseError indicates a malformed metadata block. Line is 1-based and
// relative to the document, so it points at the offending source line.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("metadata parse error at line %d: %s", e.Line, e.Message)
}

// Split separates a `+`-fenced metadata block from the body.
//
// A block is opened by a first line consisting solely of one-or-more `+`
// characters and closed by the next such line. If the document does not start
// with a fence, had is false and body is the full input unchanged. An opened
// but unterminated block is a ParseError.
func Split(source string) (block string, body string, had bool, err error) {
	if source == "" {
		return "", "", false, nil
	}

	lines := strings.Split(source, "\n")
	if !isFence(lines[0]) {
		return "", source, false, nil
	}

	for i := 1; i < len(lines); i++ {
		if isFence(lines[i]) {
			block = strings.Join(lines[1:i], "\n")
			body = strings.Join(lines[i+1:], "\n")
			return block, body, true, nil
		}
	}

	return "", "", false, &ParseError{
		Line:    len(lines),
		Message: "metadata block opened but never closed with a '+' fence",
	}
}

// isFence reports whether the line consists solely of one-or-more '+' runes.
// Trailing carriage returns are tolerated for CRLF sources.
func isFence(line string) bool {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return false
	}
	for _, r := range line {
		if r != '+' {
			return false
		}
	}
	return true
}

// Parse evaluates a metadata block as a sequence of `key = literal`
// assignments and returns the resulting mapping.
//
// Literal grammar: single/double-quoted strings, integers, decimals,
// True/False booleans and bracketed comma-separated lists of those. Blank
// lines are skipped. Anything else is a ParseError identifying the line.
func Parse(block string) (map[string]any, error) {
	meta := map[string]any{}
	if block == "" {
		return meta, nil
	}

	for i, line := range strings.Split(block, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		// Line numbers are document-relative: line 1 is the opening fence.
		lineNo := i + 2

		key, value, err := parseAssignment(line)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Message: err.Error()}
		}
		meta[key] = value
	}

	return meta, nil
}

func parseAssignment(line string) (string, any, error) {
	eq := strings.Index(line, "=")
	if eq < 0 {
		return "", nil, fmt.Errorf("expected 'key = value' assignment, got %q", strings.TrimSpace(line))
	}

	key := strings.TrimSpace(line[:eq])
	if key == "" {
		return "", nil, fmt.Errorf("assignment is missing a key")
	}
	if !isIdentifier(key) {
		return "", nil, fmt.Errorf("invalid key %q", key)
	}

	value, rest, err := scanLiteral(strings.TrimSpace(line[eq+1:]))
	if err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return "", nil, fmt.Errorf("unexpected trailing input %q", strings.TrimSpace(rest))
	}

	return key, value, nil
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return s != ""
}

// scanLiteral consumes one literal from the front of s and returns it along
// with the unconsumed remainder.
func scanLiteral(s string) (any, string, error) {
	if s == "" {
		return nil, "", fmt.Errorf("expected a literal value")
	}

	switch {
	case s[0] == '"' || s[0] == '\'':
		return scanString(s)
	case s[0] == '[':
		return scanList(s)
	case strings.HasPrefix(s, "True"):
		return true, s[len("True"):], nil
	case strings.HasPrefix(s, "False"):
		return false, s[len("False"):], nil
	default:
		return scanNumber(s)
	}
}

func scanString(s string) (any, string, error) {
	quote := s[0]
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		if c == quote {
			return b.String(), s[i+1:], nil
		}
		b.WriteByte(c)
	}
	return nil, "", fmt.Errorf("unterminated string literal")
}

func scanList(s string) (any, string, error) {
	rest := strings.TrimSpace(s[1:])
	list := []any{}

	if strings.HasPrefix(rest, "]") {
		return list, rest[1:], nil
	}

	for {
		value, r, err := scanLiteral(rest)
		if err != nil {
			return nil, "", err
		}
		list = append(list, value)

		rest = strings.TrimSpace(r)
		switch {
		case strings.HasPrefix(rest, ","):
			rest = strings.TrimSpace(rest[1:])
			// Tolerate a trailing comma before the closing bracket.
			if strings.HasPrefix(rest, "]") {
				return list, rest[1:], nil
			}
		case strings.HasPrefix(rest, "]"):
			return list, rest[1:], nil
		default:
			return nil, "", fmt.Errorf("unterminated list literal")
		}
	}
}

func scanNumber(s string) (any, string, error) {
	end := 0
	seenDot := false
	for end < len(s) {
		c := s[end]
		if c == '-' && end == 0 {
			end++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		break
	}

	token := s[:end]
	if token == "" || token == "-" || token == "." {
		return nil, "", fmt.Errorf("invalid literal %q", firstToken(s))
	}

	if seenDot {
		var f float64
		if _, err := fmt.Sscanf(token, "%g", &f); err != nil {
			return nil, "", fmt.Errorf("invalid decimal literal %q", token)
		}
		return f, s[end:], nil
	}

	var n int
	if _, err := fmt.Sscanf(token, "%d", &n); err != nil {
		return nil, "", fmt.Errorf("invalid integer literal %q", token)
	}
	return n, s[end:], nil
}

func firstToken(s string) string {
	if i := strings.IndexAny(s, " \t,]"); i > 0 {
		return s[:i]
	}
	return s
}
