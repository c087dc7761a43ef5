// Package table reads delimited text exports whose delimiter and character
// encoding are not known in advance.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding names a character encoding the reader knows how to decode.
type Encoding string

const (
	Latin1 Encoding = "latin1"
	UTF8   Encoding = "utf-8"
)

// Combination is one (delimiter, encoding) read attempt.
type Combination struct {
	Delimiter rune
	Encoding  Encoding
}

func (c Combination) String() string {
	return fmt.Sprintf("%q/%s", c.Delimiter, c.Encoding)
}

// Combinations lists read attempts in the order they are tried. Electoral
// court exports are almost always semicolon-separated Latin-1, so those go
// first.
var Combinations = []Combination{
	{';', Latin1},
	{';', UTF8},
	{',', Latin1},
	{',', UTF8},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var (
	errEmpty        = errors.New("empty file")
	errSingleColumn = errors.New("header has a single column")
	errInvalidUTF8  = errors.New("invalid utf-8")
)

// Table is a fully decoded delimited file. Every row has len(Columns) fields.
type Table struct {
	Path      string
	Delimiter rune
	Encoding  Encoding
	Columns   []string
	Rows      [][]string
}

// UnreadableFileError reports that no combination could parse a file.
type UnreadableFileError struct {
	Path     string
	Attempts []error
}

func (e *UnreadableFileError) Error() string {
	msgs := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		msgs[i] = a.Error()
	}
	return fmt.Sprintf("could not read %s with any delimiter/encoding (%s)", e.Path, strings.Join(msgs, "; "))
}

// Read parses path with the first combination in Combinations that decodes
// every row cleanly.
func Read(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	return Parse(path, data)
}

// Parse is Read for content already in memory; path is only used for
// reporting.
func Parse(path string, data []byte) (*Table, error) {
	var attempts []error
	for _, c := range Combinations {
		t, err := parse(data, c)
		if err != nil {
			attempts = append(attempts, fmt.Errorf("%s: %w", c, err))
			continue
		}
		t.Path = path
		return t, nil
	}
	return nil, &UnreadableFileError{Path: path, Attempts: attempts}
}

func parse(data []byte, c Combination) (*Table, error) {
	text, err := decode(bytes.TrimPrefix(data, utf8BOM), c.Encoding)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = c.Delimiter

	header, err := r.Read()
	if err == io.EOF {
		return nil, errEmpty
	}
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, errSingleColumn
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	// FieldsPerRecord was fixed by the header read, so a ragged row fails the
	// whole attempt instead of being dropped.
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	return &Table{
		Delimiter: c.Delimiter,
		Encoding:  c.Encoding,
		Columns:   header,
		Rows:      rows,
	}, nil
}

func decode(data []byte, enc Encoding) ([]byte, error) {
	switch enc {
	case UTF8:
		if !utf8.Valid(data) {
			return nil, errInvalidUTF8
		}
		return data, nil
	case Latin1:
		return charmap.ISO8859_1.NewDecoder().Bytes(data)
	}
	return nil, fmt.Errorf("unknown encoding %q", enc)
}
