// Package source maps the columns of a downloaded list onto screening
// records and builds the snapshot that a refresher publishes.
package source

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"screener/internal/screening/dataset"
	"screener/internal/screening/fetch"
	"screener/internal/screening/grouper"
	pstrings "screener/pkg/platform/strings"
)

// ErrMissingColumn is returned when a mapped column is absent from the table.
var ErrMissingColumn = errors.New("missing column")

// Mapping describes where a source keeps each screening attribute.
type Mapping struct {
	// Grouped sources publish several rows per entity keyed by EntityIDColumn.
	Grouped        bool
	EntityIDColumn string
	NameColumn     string
	// CountryColumns are tried in order; the first non-empty value wins.
	CountryColumns []string
	// CountryPattern, if set, extracts the country from the column value
	// using its first capture group.
	CountryPattern   string
	BirthDateColumn  string
	BirthDateLayout  string
	BirthDatePattern string
	// NullValues are treated as empty, e.g. "-0-" in the OFAC files.
	NullValues  []string
	Passthrough []string
}

// Validate checks the mapping without a table.
func (m Mapping) Validate() error {
	_, err := m.compile()
	return err
}

type compiled struct {
	Mapping
	countryRe *regexp.Regexp
	dobRe     *regexp.Regexp
	nulls     map[string]struct{}
}

func (m Mapping) compile() (*compiled, error) {
	if m.NameColumn == "" {
		return nil, fmt.Errorf("name column is required")
	}
	if m.Grouped && m.EntityIDColumn == "" {
		return nil, fmt.Errorf("grouped sources require an entity id column")
	}
	if m.BirthDateColumn != "" && m.BirthDateLayout == "" {
		return nil, fmt.Errorf("birth date layout is required when a birth date column is set")
	}

	c := &compiled{Mapping: m, nulls: make(map[string]struct{}, len(m.NullValues))}
	var err error
	if c.countryRe, err = compilePattern(m.CountryPattern); err != nil {
		return nil, fmt.Errorf("country pattern: %w", err)
	}
	if c.dobRe, err = compilePattern(m.BirthDatePattern); err != nil {
		return nil, fmt.Errorf("birth date pattern: %w", err)
	}
	for _, v := range m.NullValues {
		c.nulls[strings.TrimSpace(v)] = struct{}{}
	}
	return c, nil
}

func compilePattern(p string) (*regexp.Regexp, error) {
	if p == "" {
		return nil, nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("pattern %q needs a capture group", p)
	}
	return re, nil
}

type columns struct {
	entityID    int
	name        int
	countries   []int
	birthDate   int
	passthrough map[string]int
}

func (c *compiled) resolve(t fetch.Table) (columns, error) {
	lookup := func(name string) (int, error) {
		if name == "" {
			return -1, nil
		}
		i, ok := t.Column(name)
		if !ok {
			return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return i, nil
	}

	var cols columns
	var err error
	if cols.entityID, err = lookup(c.EntityIDColumn); err != nil {
		return cols, err
	}
	if cols.name, err = lookup(c.NameColumn); err != nil {
		return cols, err
	}
	if cols.birthDate, err = lookup(c.BirthDateColumn); err != nil {
		return cols, err
	}
	for _, name := range c.CountryColumns {
		i, err := lookup(name)
		if err != nil {
			return cols, err
		}
		cols.countries = append(cols.countries, i)
	}
	cols.passthrough = make(map[string]int, len(c.Passthrough))
	for _, name := range c.Passthrough {
		i, err := lookup(name)
		if err != nil {
			return cols, err
		}
		cols.passthrough[name] = i
	}
	return cols, nil
}

// Build converts a table into a snapshot for the named source. Rows without
// a name are skipped. Unparseable birth dates are treated as missing.
func Build(name string, t fetch.Table, m Mapping, now time.Time) (*dataset.Dataset, error) {
	c, err := m.compile()
	if err != nil {
		return nil, err
	}
	cols, err := c.resolve(t)
	if err != nil {
		return nil, err
	}

	records := make([]dataset.Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		fullName := c.value(row, cols.name)
		if fullName == "" {
			continue
		}
		records = append(records, dataset.Record{
			EntityID:  c.value(row, cols.entityID),
			Name:      fullName,
			Country:   c.country(row, cols.countries),
			BirthDate: c.birthDate(row, cols.birthDate),
			Fields:    c.fields(row, cols.passthrough),
		})
	}

	var candidates []dataset.Candidate
	if m.Grouped {
		candidates = grouper.Group(records)
	} else {
		candidates = grouper.Identity(records)
	}
	return dataset.New(name, now, records, candidates), nil
}

func (c *compiled) value(row []string, col int) string {
	v := strings.TrimSpace(fetch.Value(row, col))
	if _, null := c.nulls[v]; null {
		return ""
	}
	return v
}

func (c *compiled) country(row []string, cols []int) string {
	values := make([]string, 0, len(cols))
	for _, col := range cols {
		v := c.value(row, col)
		if c.countryRe != nil {
			v = extract(c.countryRe, v)
		}
		values = append(values, v)
	}
	return pstrings.FirstNonEmpty(values...)
}

func (c *compiled) birthDate(row []string, col int) *time.Time {
	v := c.value(row, col)
	if c.dobRe != nil {
		v = extract(c.dobRe, v)
	}
	if v == "" {
		return nil
	}
	t, err := time.Parse(c.BirthDateLayout, v)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func (c *compiled) fields(row []string, cols map[string]int) map[string]string {
	if len(cols) == 0 {
		return nil
	}
	out := make(map[string]string, len(cols))
	for name, col := range cols {
		if v := c.value(row, col); v != "" {
			out[name] = v
		}
	}
	return out
}

func extract(re *regexp.Regexp, v string) string {
	m := re.FindStringSubmatch(v)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Builder binds a Mapping to the name of the source it describes.
type Builder struct {
	Name    string
	Mapping Mapping
}

// Build maps t into a snapshot for b.Name.
func (b Builder) Build(t fetch.Table, now time.Time) (*dataset.Dataset, error) {
	return Build(b.Name, t, b.Mapping, now)
}
