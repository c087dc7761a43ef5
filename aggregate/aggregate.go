// Package aggregate computes the grouped statistics behind the metrics
// document: distinct section counts, top-N candidate rankings with vote
// shares, and per-municipality winners.
//
// Every pass walks the same normalized rows and keeps groups in order of
// first appearance, so equal input produces identical output. Ties between
// candidates are broken by first appearance too, never by name or party.
package aggregate

import (
	"sort"

	"github.com/zalepa/urnas/normalize"
)

// DefaultTopN is the number of candidates kept per zone ranking.
const DefaultTopN = 5

// ZoneKey identifies an electoral zone within a municipality.
type ZoneKey struct {
	Municipality string
	Zone         int
}

// GroupKey identifies one race in one place. Zone is zero for
// municipality-level groups.
type GroupKey struct {
	Municipality string
	Zone         int
	Office       normalize.Office
	Round        int
}

// ZoneSections is the number of distinct sections observed in a zone.
type ZoneSections struct {
	Municipality string
	Zone         int
	Sections     int
}

// MunicipalitySections is the number of distinct section numbers observed
// across a whole municipality. It is computed from the section numbers
// directly, not summed from ZoneSections.
type MunicipalitySections struct {
	Municipality string
	Sections     int
}

// GroupTotal is the summed vote count of one group.
type GroupTotal struct {
	GroupKey
	Votes int64
}

// Ranked is one candidate's summed result within a group.
type Ranked struct {
	GroupKey
	Rank      int
	Candidate string
	Party     string
	Votes     int64
	// Total is the summed vote count of the whole group, including
	// candidates cut from the ranking.
	Total int64
	// Share is Votes/Total, or 0 when Total is not positive.
	Share float64
}

// Result bundles every aggregate of one run.
type Result struct {
	Zones          []ZoneSections
	Municipalities []MunicipalitySections
	Totals         []GroupTotal
	Top            []Ranked
	Winners        []Ranked
}

// Run performs all passes over rows, keeping topN candidates per zone.
func Run(rows []normalize.Row, topN int) Result {
	return Result{
		Zones:          SectionCounts(rows),
		Municipalities: MunicipalitySectionCounts(rows),
		Totals:         GroupTotals(rows),
		Top:            Top(rows, topN),
		Winners:        Winners(rows),
	}
}

// SectionCounts returns the distinct section count of every zone.
func SectionCounts(rows []normalize.Row) []ZoneSections {
	type zoneSection struct {
		zone    ZoneKey
		section int
	}
	seen := make(map[zoneSection]bool)
	pos := make(map[ZoneKey]int)
	var out []ZoneSections

	for _, r := range rows {
		zk := ZoneKey{r.Municipality, r.Zone}
		i, ok := pos[zk]
		if !ok {
			i = len(out)
			pos[zk] = i
			out = append(out, ZoneSections{Municipality: r.Municipality, Zone: r.Zone})
		}
		key := zoneSection{zk, r.Section}
		if !seen[key] {
			seen[key] = true
			out[i].Sections++
		}
	}
	return out
}

// MunicipalitySectionCounts returns the distinct section numbers of every
// municipality. A section number reused by two zones counts once.
func MunicipalitySectionCounts(rows []normalize.Row) []MunicipalitySections {
	type muniSection struct {
		municipality string
		section      int
	}
	seen := make(map[muniSection]bool)
	pos := make(map[string]int)
	var out []MunicipalitySections

	for _, r := range rows {
		i, ok := pos[r.Municipality]
		if !ok {
			i = len(out)
			pos[r.Municipality] = i
			out = append(out, MunicipalitySections{Municipality: r.Municipality})
		}
		key := muniSection{r.Municipality, r.Section}
		if !seen[key] {
			seen[key] = true
			out[i].Sections++
		}
	}
	return out
}

// GroupTotals sums votes per (municipality, zone, office, round).
func GroupTotals(rows []normalize.Row) []GroupTotal {
	pos := make(map[GroupKey]int)
	var out []GroupTotal
	for _, r := range rows {
		g := groupOf(r, true)
		i, ok := pos[g]
		if !ok {
			i = len(out)
			pos[g] = i
			out = append(out, GroupTotal{GroupKey: g})
		}
		out[i].Votes += r.Votes
	}
	return out
}

// Top ranks candidates within every (municipality, zone, office, round)
// group and keeps the first n of each (all of them when n <= 0).
func Top(rows []normalize.Row, n int) []Ranked {
	return rank(rows, true, n)
}

// Winners returns the single best candidate of every (municipality, office,
// round) group.
func Winners(rows []normalize.Row) []Ranked {
	return rank(rows, false, 1)
}

func groupOf(r normalize.Row, withZone bool) GroupKey {
	g := GroupKey{Municipality: r.Municipality, Office: r.Office, Round: r.Round}
	if withZone {
		g.Zone = r.Zone
	}
	return g
}

func rank(rows []normalize.Row, withZone bool, n int) []Ranked {
	type candidateKey struct {
		group     GroupKey
		candidate string
		party     string
	}

	var (
		groups  []GroupKey
		members = make(map[GroupKey][]int)
		totals  = make(map[GroupKey]int64)
		index   = make(map[candidateKey]int)
		sums    []Ranked
	)

	for _, r := range rows {
		g := groupOf(r, withZone)
		if _, ok := members[g]; !ok {
			groups = append(groups, g)
		}

		k := candidateKey{g, r.Candidate, r.Party}
		i, ok := index[k]
		if !ok {
			i = len(sums)
			index[k] = i
			sums = append(sums, Ranked{GroupKey: g, Candidate: r.Candidate, Party: r.Party})
			members[g] = append(members[g], i)
		}
		sums[i].Votes += r.Votes
		totals[g] += r.Votes
	}

	var out []Ranked
	for _, g := range groups {
		idx := members[g]
		sort.SliceStable(idx, func(a, b int) bool {
			return sums[idx[a]].Votes > sums[idx[b]].Votes
		})
		if n > 0 && len(idx) > n {
			idx = idx[:n]
		}
		total := totals[g]
		for pos, i := range idx {
			r := sums[i]
			r.Rank = pos + 1
			r.Total = total
			r.Share = share(r.Votes, total)
			out = append(out, r)
		}
	}
	return out
}

func share(votes, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(votes) / float64(total)
}
