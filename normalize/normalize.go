// Package normalize turns raw vote-results rows into canonical Rows: padded
// municipality codes, a single target state, a closed office vocabulary and
// integer vote counts.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/zalepa/urnas/schema"
	"github.com/zalepa/urnas/table"
)

// Options controls normalization.
type Options struct {
	// State is the two-letter abbreviation rows must carry when the table has
	// a state column.
	State string
	// CodeWidth is the zero-padded width of municipality codes.
	CodeWidth int
}

// Stats counts what happened to the rows of one table.
type Stats struct {
	Read          int `json:"read"`
	Kept          int `json:"kept"`
	OtherState    int `json:"otherState"`
	UnknownOffice int `json:"unknownOffice"`
	BadKey        int `json:"badKey"`
}

// Rows normalizes every row of t. Row-level noise never fails the call: rows
// from other states, rows for races outside the office vocabulary and rows
// whose zone/section/round are not integers are dropped and counted.
func Rows(t *table.Table, fm schema.FieldMap, opts Options) ([]Row, Stats) {
	state := strings.ToUpper(strings.TrimSpace(opts.State))
	filterState := fm.Has(schema.State)

	var st Stats
	rows := make([]Row, 0, len(t.Rows))
	for _, raw := range t.Rows {
		st.Read++

		if filterState && strings.ToUpper(strings.TrimSpace(fm.Get(raw, schema.State))) != state {
			st.OtherState++
			continue
		}

		office, ok := OfficeCode(fm.Get(raw, schema.Office))
		if !ok {
			st.UnknownOffice++
			continue
		}

		zone, errZ := atoi(fm.Get(raw, schema.Zone))
		section, errS := atoi(fm.Get(raw, schema.Section))
		round, errR := atoi(fm.Get(raw, schema.Round))
		if errZ != nil || errS != nil || errR != nil {
			st.BadKey++
			continue
		}

		rows = append(rows, Row{
			Municipality: PadCode(fm.Get(raw, schema.Municipality), opts.CodeWidth),
			Zone:         zone,
			Section:      section,
			Office:       office,
			Round:        round,
			Candidate:    fm.Get(raw, schema.Candidate),
			Party:        fm.Get(raw, schema.Party),
			Votes:        ParseVotes(fm.Get(raw, schema.Votes)),
		})
	}
	st.Kept = len(rows)
	return rows, st
}

// PadCode left-pads a municipality code with zeros to width. Leading zeros
// are stripped first so that "117", "0117" and "00000000117" all map to the
// same code. Codes longer than width are not truncated.
func PadCode(code string, width int) string {
	code = strings.TrimLeft(strings.TrimSpace(code), "0")
	if len(code) >= width {
		return code
	}
	return strings.Repeat("0", width-len(code)) + code
}

// ParseVotes reads a vote count. Unparsable values and values outside the
// int64 range count as zero; fractional values are truncated. Negative counts
// pass through unchanged.
func ParseVotes(s string) int64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.Abs(v) >= math.MaxInt64 {
		return 0
	}
	return int64(v)
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
