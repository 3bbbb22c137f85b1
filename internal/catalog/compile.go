package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/f1metrix/internal/cache"
)

// segment is either literal SQL text or one named placeholder.
type segment struct {
	text  string
	param string
}

// scan splits sql into literal text and :name placeholders.
// Placeholders inside string literals, quoted identifiers and comments are
// left alone. Positional ? placeholders are rejected.
func scan(sql string) ([]segment, error) {
	var segments []segment
	start := 0
	flush := func(end int) {
		if end > start {
			segments = append(segments, segment{text: sql[start:end]})
		}
	}

	for i := 0; i < len(sql); {
		switch c := sql[i]; {
		case c == '\'' || c == '"' || c == '`':
			end, err := skipQuoted(sql, i, c)
			if err != nil {
				return nil, err
			}
			i = end
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				i = len(sql)
			} else {
				i += end + 1
			}
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				return nil, errors.New("unterminated comment")
			}
			i += end + 4
		case c == '?':
			return nil, fmt.Errorf("positional placeholder at offset %d; use :name", i)
		case c == ':' && i+1 < len(sql) && isIdentStart(sql[i+1]):
			end := i + 2
			for end < len(sql) && isIdentPart(sql[end]) {
				end++
			}
			flush(i)
			segments = append(segments, segment{param: sql[i+1 : end]})
			start = end
			i = end
		default:
			i++
		}
	}
	flush(len(sql))
	return segments, nil
}

// skipQuoted returns the offset just past the quoted run starting at i.
// A doubled quote character is an escaped quote.
func skipQuoted(sql string, i int, quote byte) (int, error) {
	for j := i + 1; j < len(sql); j++ {
		if sql[j] != quote {
			continue
		}
		if j+1 < len(sql) && sql[j+1] == quote {
			j++
			continue
		}
		return j + 1, nil
	}
	return 0, fmt.Errorf("unterminated quote at offset %d", i)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// BindError reports a parameter value that could not be bound.
type BindError struct {
	Query   string
	Param   string
	Message string
}

func (e *BindError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("query %q: %s", e.Query, e.Message)
	}
	return fmt.Sprintf("query %q: parameter %q: %s", e.Query, e.Param, e.Message)
}

// IsBindError returns true if err is a parameter binding failure.
func IsBindError(err error) bool {
	var be *BindError
	return errors.As(err, &be)
}

// Bind resolves every declared parameter from values or its default and
// parses it to its declared type. Scalars become int64, float64 or string;
// lists become []int64 or []string.
func (q *Query) Bind(values map[string]string) (map[string]any, error) {
	var unknown []string
	for name := range values {
		if _, ok := q.Param(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &BindError{Query: q.Name, Message: "unknown parameter(s): " + strings.Join(unknown, ", ")}
	}

	bound := make(map[string]any, len(q.Params))
	for _, p := range q.Params {
		raw, ok := values[p.Name]
		if !ok {
			if p.Default == nil {
				return nil, &BindError{Query: q.Name, Param: p.Name, Message: "value is required"}
			}
			raw = *p.Default
		}
		v, err := parseValue(p, raw)
		if err != nil {
			return nil, &BindError{Query: q.Name, Param: p.Name, Message: err.Error()}
		}
		bound[p.Name] = v
	}
	return bound, nil
}

// Compile binds values and rewrites the SQL with positional placeholders.
// Each list element gets its own placeholder, so the request differs per
// binding and is cached separately.
func (q *Query) Compile(values map[string]string) (cache.Request, error) {
	bound, err := q.Bind(values)
	if err != nil {
		return cache.Request{}, err
	}

	var b strings.Builder
	var args []any
	for _, s := range q.segments {
		if s.param == "" {
			b.WriteString(s.text)
			continue
		}
		switch v := bound[s.param].(type) {
		case []int64:
			writePlaceholders(&b, len(v))
			for _, x := range v {
				args = append(args, x)
			}
		case []string:
			writePlaceholders(&b, len(v))
			for _, x := range v {
				args = append(args, x)
			}
		default:
			b.WriteByte('?')
			args = append(args, v)
		}
	}
	return cache.Request{SQL: strings.TrimSpace(b.String()), Args: args}, nil
}

func writePlaceholders(b *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('?')
	}
}

// parseValue converts raw input to the parameter's declared type.
func parseValue(p Param, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch p.Type {
	case ParamInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return n, nil
	case ParamFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return f, nil
	case ParamString:
		return raw, nil
	case ParamIntList:
		parts, err := splitList(raw)
		if err != nil {
			return nil, err
		}
		out := make([]int64, len(parts))
		for i, s := range parts {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("element %q is not an integer", s)
			}
			out[i] = n
		}
		return out, nil
	case ParamStringList:
		return splitList(raw)
	}
	return nil, fmt.Errorf("unknown type %q", p.Type)
}

// splitList splits comma-separated input, trimming each element.
func splitList(raw string) ([]string, error) {
	if raw == "" {
		return nil, errors.New("list must not be empty")
	}
	parts := strings.Split(raw, ",")
	for i, s := range parts {
		parts[i] = strings.TrimSpace(s)
		if parts[i] == "" {
			return nil, errors.New("list has an empty element")
		}
	}
	return parts, nil
}
