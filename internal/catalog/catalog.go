// Package catalog holds the named, parameterized queries behind the
// editorial posts.
//
// A catalog is a YAML document. Each query has fixed SQL text with :name
// placeholders and a typed parameter list. Binding values never touches the
// SQL text beyond placeholder expansion, so every value reaches the engine
// as a bound argument.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed editorial.yaml
var defaultCatalog []byte

// DateLayout is the format of Query.Date.
const DateLayout = "2006-01-02"

var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ParamType is the declared type of a query parameter.
type ParamType string

const (
	ParamInt        ParamType = "int"
	ParamFloat      ParamType = "float"
	ParamString     ParamType = "string"
	ParamIntList    ParamType = "int_list"
	ParamStringList ParamType = "string_list"
)

// IsList reports whether t expands to a placeholder list.
func (t ParamType) IsList() bool {
	return t == ParamIntList || t == ParamStringList
}

// Valid reports whether t is a known parameter type.
func (t ParamType) Valid() bool {
	switch t {
	case ParamInt, ParamFloat, ParamString, ParamIntList, ParamStringList:
		return true
	}
	return false
}

// Param declares one query parameter.
type Param struct {
	Name        string    `yaml:"name" json:"name"`
	Type        ParamType `yaml:"type" json:"type"`
	Default     *string   `yaml:"default,omitempty" json:"default,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
}

// Required reports whether the parameter has no default.
func (p Param) Required() bool {
	return p.Default == nil
}

// Query is one editorial query.
type Query struct {
	// Name is the kebab-case identifier used on the command line and in URLs.
	Name string `yaml:"name" json:"name"`

	// Title is the headline of the post the query supports.
	Title string `yaml:"title" json:"title"`

	// Date is the publication date of the post, YYYY-MM-DD.
	Date string `yaml:"date" json:"date"`

	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	SQL         string  `yaml:"sql" json:"sql"`
	Params      []Param `yaml:"params,omitempty" json:"params"`

	published time.Time
	segments  []segment
}

// Published returns the parsed publication date.
func (q *Query) Published() time.Time {
	return q.published
}

// Param returns the declared parameter with the given name.
func (q *Query) Param(name string) (Param, bool) {
	for _, p := range q.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Catalog is a validated set of queries.
type Catalog struct {
	queries []*Query
	byName  map[string]*Query
}

// Get returns the query with the given name.
func (c *Catalog) Get(name string) (*Query, bool) {
	q, ok := c.byName[name]
	return q, ok
}

// List returns the queries newest first, ties broken by name.
func (c *Catalog) List() []*Query {
	out := make([]*Query, len(c.queries))
	copy(out, c.queries)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].published.Equal(out[j].published) {
			return out[i].published.After(out[j].published)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Len returns the number of queries.
func (c *Catalog) Len() int {
	return len(c.queries)
}

type document struct {
	Queries []*Query `yaml:"queries"`
}

// Default returns the embedded editorial catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
// Unknown fields are rejected.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	c := &Catalog{byName: make(map[string]*Query, len(doc.Queries))}
	for i, q := range doc.Queries {
		if q == nil {
			return nil, fmt.Errorf("queries[%d]: empty entry", i)
		}
		if err := q.prepare(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[q.Name]; dup {
			return nil, &DefinitionError{Query: q.Name, Message: "duplicate query name"}
		}
		c.byName[q.Name] = q
		c.queries = append(c.queries, q)
	}
	return c, nil
}

// prepare validates q and compiles its placeholder segments.
func (q *Query) prepare() error {
	fail := func(format string, args ...any) error {
		return &DefinitionError{Query: q.Name, Message: fmt.Sprintf(format, args...)}
	}

	if !namePattern.MatchString(q.Name) {
		return fail("name must be kebab-case")
	}
	if q.Title == "" {
		return fail("title is required")
	}
	published, err := time.Parse(DateLayout, q.Date)
	if err != nil {
		return fail("date must be YYYY-MM-DD")
	}
	q.published = published

	declared := make(map[string]bool, len(q.Params))
	for _, p := range q.Params {
		if p.Name == "" {
			return fail("parameter without a name")
		}
		if declared[p.Name] {
			return fail("duplicate parameter %q", p.Name)
		}
		if !p.Type.Valid() {
			return fail("parameter %q has unknown type %q", p.Name, p.Type)
		}
		if p.Default != nil {
			if _, err := parseValue(p, *p.Default); err != nil {
				return fail("parameter %q default: %v", p.Name, err)
			}
		}
		declared[p.Name] = true
	}

	segments, err := scan(q.SQL)
	if err != nil {
		return fail("%v", err)
	}
	used := make(map[string]bool)
	for _, s := range segments {
		if s.param == "" {
			continue
		}
		if !declared[s.param] {
			return fail("placeholder :%s is not a declared parameter", s.param)
		}
		used[s.param] = true
	}
	for _, p := range q.Params {
		if !used[p.Name] {
			return fail("parameter %q is never used", p.Name)
		}
	}
	q.segments = segments
	return nil
}

// DefinitionError reports an invalid catalog entry.
type DefinitionError struct {
	Query   string
	Message string
}

func (e *DefinitionError) Error() string {
	if e.Query == "" {
		return "catalog: " + e.Message
	}
	return fmt.Sprintf("catalog: query %q: %s", e.Query, e.Message)
}
