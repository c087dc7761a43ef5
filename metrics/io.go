package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/zalepa/urnas/outfile"
)

// FileName expands a template such as "metrics_{year}.json".
func FileName(template string, year int) string {
	return strings.ReplaceAll(template, "{year}", strconv.Itoa(year))
}

// Encode writes doc as compact UTF-8 JSON followed by a newline. Non-ASCII
// text is written literally and HTML characters are not escaped.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// Write encodes doc to path, replacing any previous file only once the new
// one is complete.
func Write(path string, doc *Document) error {
	if err := outfile.Write(path, func(w io.Writer) error {
		return Encode(w, doc)
	}); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// Read loads a document written by Write.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metrics: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse metrics %s: %w", path, err)
	}
	return &doc, nil
}
