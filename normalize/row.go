package normalize

import "strings"

// Office is the closed set of races the pipeline aggregates.
type Office string

const (
	Governor      Office = "GOV"
	Senator       Office = "SEN"
	FederalDeputy Office = "DF"
	StateDeputy   Office = "DE"
)

// officeMatchers is checked in order against the lower-cased office
// description; the first substring hit wins. Order matters: "deputado
// federal" must not be claimed by a broader match.
var officeMatchers = []struct {
	substr string
	office Office
}{
	{"govern", Governor},
	{"senad", Senator},
	{"feder", FederalDeputy},
	{"estad", StateDeputy},
}

// OfficeCode maps a free-text office description to an Office. Matching is by
// substring, so "Vice-Governador" maps to GOV. Races matching none of the
// four (president, district deputy, ...) report false.
func OfficeCode(desc string) (Office, bool) {
	lower := strings.ToLower(desc)
	for _, m := range officeMatchers {
		if strings.Contains(lower, m.substr) {
			return m.office, true
		}
	}
	return "", false
}

// Row is one polling-section vote record after normalization.
type Row struct {
	Municipality string
	Zone         int
	Section      int
	Office       Office
	Round        int
	Candidate    string
	Party        string
	Votes        int64
}
