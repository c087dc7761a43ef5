// Package metrics assembles aggregate tables into the nested per-municipality
// document consumed by the map front end, and reads and writes it.
package metrics

// Document is the persisted metrics output.
type Document struct {
	Meta           Meta                      `json:"meta"`
	Municipalities OrderedMap[*Municipality] `json:"municipios"`
}

// Meta describes the run that produced a Document.
type Meta struct {
	Status string `json:"status"`
	Year   int    `json:"year"`
}

// Municipality holds one municipality's statistics, keyed in the document by
// its zero-padded code.
type Municipality struct {
	// Name is the municipality code until names are joined from another source.
	Name       string   `json:"nome"`
	Sections   int      `json:"secoes"`
	Abstention *float64 `json:"abst"`
	// Winner maps office code -> round -> winning candidate.
	Winner OrderedMap[*OrderedMap[Candidate]] `json:"winner"`
	Zones  OrderedMap[*Zone]                  `json:"zonas"`
}

// Zone holds one electoral zone's statistics.
type Zone struct {
	Zone       int      `json:"zona"`
	Sections   int      `json:"secoes"`
	Abstention *float64 `json:"abst"`
	Blank      *int64   `json:"brancos"`
	Null       *int64   `json:"nulos"`
	// Top maps office code -> round -> ranked candidates, best first.
	Top OrderedMap[*OrderedMap[[]TopEntry]] `json:"top"`
}

// Candidate names a winner.
type Candidate struct {
	Name  string  `json:"nome"`
	Party *string `json:"partido"`
}

// TopEntry is one ranked candidate with its share of the zone's votes.
type TopEntry struct {
	Name  string  `json:"nome"`
	Party *string `json:"partido"`
	Share float64 `json:"pct"`
}
