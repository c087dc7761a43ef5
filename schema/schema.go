// Package schema maps the column names of a vote-results export onto the
// semantic fields the pipeline needs. Column naming drifts between export
// vintages, so each field carries an ordered list of known aliases.
package schema

import (
	"fmt"
	"strings"
)

// Field is a semantic column of the vote-results table.
type Field int

const (
	State Field = iota
	Municipality
	Zone
	Section
	Office
	Round
	Candidate
	Party
	Votes

	numFields
)

var fieldNames = [numFields]string{
	State:        "state",
	Municipality: "municipality",
	Zone:         "zone",
	Section:      "section",
	Office:       "office",
	Round:        "round",
	Candidate:    "candidate",
	Party:        "party",
	Votes:        "votes",
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// aliases lists, per field, the lower-case column names it may appear under.
// The first alias present in a table wins.
var aliases = [numFields][]string{
	State:        {"sg_uf", "uf"},
	Municipality: {"cd_municipio", "cd_mun", "codigo_municipio", "cd_municipio_ibge"},
	Zone:         {"nr_zona", "zona"},
	Section:      {"nr_secao", "secao"},
	Office:       {"ds_cargo", "cargo"},
	Round:        {"nr_turno", "turno"},
	Candidate:    {"nm_votavel", "nm_candidato", "nome_votavel", "nome"},
	Party:        {"sg_partido", "partido"},
	Votes:        {"qt_votos", "votos", "qt_votos_nominais"},
}

// Required lists the fields without which the run cannot proceed.
var Required = []Field{Municipality, Zone, Section, Office, Round, Candidate, Votes}

// Fields returns every field in declaration order.
func Fields() []Field {
	fs := make([]Field, numFields)
	for i := range fs {
		fs[i] = Field(i)
	}
	return fs
}

// Aliases returns the known column names for f, in priority order.
func Aliases(f Field) []string {
	return append([]string(nil), aliases[f]...)
}

// FieldMap holds the resolved column index of each field, or -1.
type FieldMap struct {
	index   [numFields]int
	columns [numFields]string
}

// Index returns the column index of f and whether f resolved.
func (m FieldMap) Index(f Field) (int, bool) {
	i := m.index[f]
	return i, i >= 0
}

// Has reports whether f resolved to a column.
func (m FieldMap) Has(f Field) bool {
	return m.index[f] >= 0
}

// Column returns the original column name f resolved to, or "".
func (m FieldMap) Column(f Field) string {
	return m.columns[f]
}

// Get returns the value of f in row, or "" when f is absent.
func (m FieldMap) Get(row []string, f Field) string {
	i := m.index[f]
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// maxFoundColumns caps the column sample carried by MissingFieldsError.
const maxFoundColumns = 30

// MissingFieldsError reports every required field that did not resolve,
// together with a sample of the columns that were actually present.
type MissingFieldsError struct {
	Missing []Field
	Found   []string
}

func (e *MissingFieldsError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = fmt.Sprintf("%s (%s)", f, strings.Join(aliases[f], "|"))
	}
	return fmt.Sprintf("unexpected columns in vote file: missing %s; columns found: [%s]",
		strings.Join(names, ", "), strings.Join(e.Found, " "))
}

// Resolve matches columns case-insensitively against the alias table.
// Optional fields that do not resolve are simply absent from the map.
func Resolve(columns []string) (FieldMap, error) {
	lower := make(map[string]int, len(columns))
	for i, c := range columns {
		key := strings.ToLower(strings.TrimSpace(c))
		if _, dup := lower[key]; !dup {
			lower[key] = i
		}
	}

	var m FieldMap
	for f := Field(0); f < numFields; f++ {
		m.index[f] = -1
		for _, alias := range aliases[f] {
			if i, ok := lower[alias]; ok {
				m.index[f] = i
				m.columns[f] = columns[i]
				break
			}
		}
	}

	var missing []Field
	for _, f := range Required {
		if !m.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		found := columns
		if len(found) > maxFoundColumns {
			found = found[:maxFoundColumns]
		}
		return m, &MissingFieldsError{Missing: missing, Found: append([]string(nil), found...)}
	}
	return m, nil
}
