package report

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalepa/urnas/aggregate"
	"github.com/zalepa/urnas/metrics"
	"github.com/zalepa/urnas/normalize"
)

func row(muni string, office normalize.Office, round int, cand, party string, votes int64) normalize.Row {
	return normalize.Row{
		Municipality: muni, Zone: 1, Section: 1, Office: office,
		Round: round, Candidate: cand, Party: party, Votes: votes,
	}
}

func sampleDoc(partyKnown bool) *metrics.Document {
	rows := []normalize.Row{
		row("0000001", normalize.Governor, 1, "ANA", "P1", 10),
		row("0000001", normalize.Governor, 1, "BIA", "P2", 5),
		row("0000002", normalize.Governor, 1, "BIA", "P2", 9),
		row("0000002", normalize.Governor, 1, "ANA", "P1", 3),
		row("0000003", normalize.Governor, 1, "BIA", "P2", 7),
		row("0000003", normalize.Senator, 1, "CAIO", "P3", 4),
		row("0000001", normalize.Governor, 2, "ANA", "P1", 20),
	}
	res := aggregate.Run(rows, aggregate.DefaultTopN)
	return metrics.Assemble(res, metrics.Options{Year: 2022, PartyKnown: partyKnown})
}

func TestTally(t *testing.T) {
	got := Tally(sampleDoc(true))
	want := []Race{
		{Office: "GOV", Round: "1", Wins: []Wins{
			{Name: "BIA", Party: "P2", Municipalities: 2},
			{Name: "ANA", Party: "P1", Municipalities: 1},
		}},
		{Office: "GOV", Round: "2", Wins: []Wins{
			{Name: "ANA", Party: "P1", Municipalities: 1},
		}},
		{Office: "SEN", Round: "1", Wins: []Wins{
			{Name: "CAIO", Party: "P3", Municipalities: 1},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tally mismatch (-want +got):\n%s", diff)
	}
}

func TestTallyWithoutParty(t *testing.T) {
	got := Tally(sampleDoc(false))
	require.NotEmpty(t, got)
	for _, r := range got {
		for _, w := range r.Wins {
			assert.Empty(t, w.Party)
		}
	}
}

func TestTallyEmpty(t *testing.T) {
	assert.Empty(t, Tally(&metrics.Document{}))
}

func TestRaceTitle(t *testing.T) {
	assert.Equal(t, "Governador - turno 2", RaceTitle(Race{Office: "GOV", Round: "2"}))
	assert.Equal(t, "XX - turno 1", RaceTitle(Race{Office: "XX", Round: "1"}))
}

func TestRenderPDFOnePagePerRace(t *testing.T) {
	races := Tally(sampleDoc(true))
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, RenderPDF(path, "AL 2022", races))

	n, err := PageCount(path)
	require.NoError(t, err)
	assert.Equal(t, len(races), n)
}

func TestRenderPDFEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, RenderPDF(path, "AL 2022", nil))

	n, err := PageCount(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRenderPDFCapsBars(t *testing.T) {
	var wins []Wins
	for i := 0; i < maxBars+5; i++ {
		wins = append(wins, Wins{Name: string(rune('A' + i)), Municipalities: maxBars + 5 - i})
	}
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, RenderPDF(path, "AL 2022", []Race{{Office: "DE", Round: "1", Wins: wins}}))

	n, err := PageCount(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPageCountMissing(t *testing.T) {
	_, err := PageCount(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
}

func TestWriteTable(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, WriteTable(&buf, Tally(sampleDoc(true))))
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "Governador - turno 1", lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "BIA (P2)"), lines[3])
	assert.Contains(t, lines[3], strings.Repeat("█", barWidth))
	assert.Contains(t, lines[4], strings.Repeat("█", barWidth/2))
	assert.Contains(t, out, "Senador - turno 1")
}

func TestAddDots(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.000"},
		{102, "102"},
		{1234567, "1.234.567"},
		{-4500, "-4.500"},
	}
	for _, tt := range tests {
		if got := formatInt(tt.in); got != tt.want {
			t.Errorf("formatInt(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
