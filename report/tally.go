// Package report renders a metrics document as a printable PDF summary.
package report

import (
	"sort"

	"github.com/zalepa/urnas/metrics"
)

// Race is one (office, round) pair with the number of municipalities each
// candidate won, most wins first.
type Race struct {
	Office string
	Round  string
	Wins   []Wins
}

// Wins is a candidate's municipality count in one race.
type Wins struct {
	Name           string
	Party          string
	Municipalities int
}

// Tally counts municipality winners per race. Races and tied candidates keep
// the order in which they first appear in doc.
func Tally(doc *metrics.Document) []Race {
	type raceKey struct{ office, round string }
	type candKey struct{ name, party string }

	var races []Race
	racePos := make(map[raceKey]int)
	candPos := make(map[raceKey]map[candKey]int)

	for _, code := range doc.Municipalities.Keys() {
		m, _ := doc.Municipalities.Get(code)
		if m == nil {
			continue
		}
		for _, office := range m.Winner.Keys() {
			rounds, _ := m.Winner.Get(office)
			if rounds == nil {
				continue
			}
			for _, round := range rounds.Keys() {
				c, _ := rounds.Get(round)
				rk := raceKey{office, round}
				ri, ok := racePos[rk]
				if !ok {
					ri = len(races)
					racePos[rk] = ri
					candPos[rk] = make(map[candKey]int)
					races = append(races, Race{Office: office, Round: round})
				}
				var party string
				if c.Party != nil {
					party = *c.Party
				}
				ck := candKey{c.Name, party}
				ci, ok := candPos[rk][ck]
				if !ok {
					ci = len(races[ri].Wins)
					candPos[rk][ck] = ci
					races[ri].Wins = append(races[ri].Wins, Wins{Name: c.Name, Party: party})
				}
				races[ri].Wins[ci].Municipalities++
			}
		}
	}

	for i := range races {
		w := races[i].Wins
		sort.SliceStable(w, func(a, b int) bool {
			return w[a].Municipalities > w[b].Municipalities
		})
	}
	return races
}
