// Package locate finds the raw input artifacts of a run and unpacks them
// into scratch space. It never parses file contents.
package locate

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// InputNotFoundError reports that no file matched any pattern of an input.
type InputNotFoundError struct {
	Input    string
	Dir      string
	Patterns []string
}

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("%s input not found in %s (tried %s)", e.Input, e.Dir, strings.Join(e.Patterns, ", "))
}

// FindOne returns the first file in dir matching patterns. Patterns are tried
// in order and the first one with any hit wins; among its hits the lexically
// first is returned.
func FindOne(dir, input string, patterns []string) (string, error) {
	for _, p := range patterns {
		hits, err := filepath.Glob(filepath.Join(dir, p))
		if err != nil {
			return "", fmt.Errorf("%s pattern %q: %w", input, p, err)
		}
		var files []string
		for _, h := range hits {
			if info, err := os.Stat(h); err == nil && !info.IsDir() {
				files = append(files, h)
			}
		}
		if len(files) > 0 {
			sort.Strings(files)
			return files[0], nil
		}
	}
	return "", &InputNotFoundError{Input: input, Dir: dir, Patterns: patterns}
}

// IsArchive reports whether path names a zip archive.
func IsArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}

// Expand returns the files an artifact provides: the extracted contents of an
// archive, or the artifact itself when it is a plain file. Archives are
// extracted under scratch into a directory named after the archive, which is
// emptied first so reruns start clean.
func Expand(path, scratch string) ([]string, error) {
	if !IsArchive(path) {
		return []string{path}, nil
	}
	dest := filepath.Join(scratch, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if err := os.RemoveAll(dest); err != nil {
		return nil, fmt.Errorf("clear scratch: %w", err)
	}
	if err := Extract(path, dest); err != nil {
		return nil, err
	}
	return Walk(dest)
}

// Walk lists every regular file under dir in lexical order.
func Walk(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}

// Extract unpacks the zip archive at src into dest. Entries that would land
// outside dest are rejected.
func Extract(src, dest string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", filepath.Base(src), err)
	}
	defer zr.Close()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	for _, f := range zr.File {
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("archive %s: entry %q escapes destination", filepath.Base(src), f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("archive %s: %s: %w", filepath.Base(src), f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Tabular filters files down to delimited-text candidates: every .csv, or
// every .txt when there is no .csv. macOS resource-fork entries are skipped.
func Tabular(files []string) []string {
	var csvs, txts []string
	for _, f := range files {
		if strings.Contains(filepath.ToSlash(f), "__MACOSX") {
			continue
		}
		switch strings.ToLower(filepath.Ext(f)) {
		case ".csv":
			csvs = append(csvs, f)
		case ".txt":
			txts = append(txts, f)
		}
	}
	if len(csvs) > 0 {
		return csvs
	}
	return txts
}

var votesName = regexp.MustCompile(`(vot|votacao).*(sec)`)

// PickVotes chooses the per-section vote file among candidates: the first
// whose base name looks like "votacao_secao", else the first candidate.
func PickVotes(candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	for _, c := range candidates {
		if votesName.MatchString(strings.ToLower(filepath.Base(c))) {
			return c, true
		}
	}
	return candidates[0], true
}

// FindExt returns the first file with extension ext (case-insensitive),
// skipping macOS resource-fork entries.
func FindExt(files []string, ext string) (string, bool) {
	for _, f := range files {
		if strings.Contains(filepath.ToSlash(f), "__MACOSX") {
			continue
		}
		if strings.EqualFold(filepath.Ext(f), ext) {
			return f, true
		}
	}
	return "", false
}
