package table

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestReadSemicolonLatin1(t *testing.T) {
	content, err := charmap.ISO8859_1.NewEncoder().String(
		"\"CD_MUNICIPIO\";\"NM_VOTAVEL\";\"QT_VOTOS\"\n\"27855\";\"JOÃO\";\"10\"\n")
	require.NoError(t, err)
	path := writeFile(t, "votacao.csv", []byte(content))

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, ';', tbl.Delimiter)
	assert.Equal(t, Latin1, tbl.Encoding)
	assert.Equal(t, []string{"CD_MUNICIPIO", "NM_VOTAVEL", "QT_VOTOS"}, tbl.Columns)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "JOÃO", tbl.Rows[0][1])
}

func TestReadCommaFallsThroughSemicolon(t *testing.T) {
	// Every semicolon attempt sees a single-column header and fails.
	path := writeFile(t, "votes.csv", []byte("a,b,c\n1,2,3\n4,5,6\n"))

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, ',', tbl.Delimiter)
	assert.Equal(t, Latin1, tbl.Encoding)
	assert.Equal(t, [][]string{{"1", "2", "3"}, {"4", "5", "6"}}, tbl.Rows)
}

func TestReadStripsBOM(t *testing.T) {
	path := writeFile(t, "bom.csv", []byte("\ufeffuf;votos\nAL;3\n"))

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, Latin1, tbl.Encoding)
	assert.Equal(t, []string{"uf", "votos"}, tbl.Columns)
}

func TestReadRaggedRowFailsOver(t *testing.T) {
	// Semicolon parse is ragged (row 2 has 3 fields), comma parse is clean.
	path := writeFile(t, "mixed.csv", []byte("a;x,b\n1;2,3\n4;5;6,7\n"))

	tbl, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, ',', tbl.Delimiter)
	assert.Len(t, tbl.Rows, 2)
}

func TestReadUnreadable(t *testing.T) {
	path := writeFile(t, "one.csv", []byte("onlyonecolumn\n1\n2\n"))

	_, err := Read(path)
	require.Error(t, err)

	var ue *UnreadableFileError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, path, ue.Path)
	assert.Len(t, ue.Attempts, len(Combinations))
}

func TestReadEmpty(t *testing.T) {
	path := writeFile(t, "empty.csv", nil)

	_, err := Read(path)
	var ue *UnreadableFileError
	require.ErrorAs(t, err, &ue)
	for _, a := range ue.Attempts {
		assert.ErrorIs(t, a, errEmpty)
	}
}

func TestParseInvalidUTF8OnlyFailsUTF8(t *testing.T) {
	_, err := parse([]byte("a,b\n\xff,1\n"), Combination{',', UTF8})
	assert.ErrorIs(t, err, errInvalidUTF8)

	tbl, err := parse([]byte("a,b\n\xff,1\n"), Combination{',', Latin1})
	require.NoError(t, err)
	assert.Equal(t, "ÿ", tbl.Rows[0][0])
}
