package metrics

import (
	"strconv"

	"github.com/zalepa/urnas/aggregate"
)

// StatusOK is the meta status of a successfully built document.
const StatusOK = "ok"

// Options controls document assembly.
type Options struct {
	Year int
	// PartyKnown reports whether the party column resolved. When false every
	// partido field is null rather than an empty string.
	PartyKnown bool
}

// Assemble folds aggregate tables into a Document.
//
// Municipalities are seeded in first-appearance order, zones come from the
// section counts and are created on demand if a ranking mentions a zone the
// counts never saw, rankings keep their rank order, and winners are keyed by
// office then round.
func Assemble(res aggregate.Result, opts Options) *Document {
	doc := &Document{Meta: Meta{Status: StatusOK, Year: opts.Year}}

	for _, m := range res.Municipalities {
		doc.Municipalities.Set(m.Municipality, &Municipality{
			Name:     m.Municipality,
			Sections: m.Sections,
		})
	}

	for _, z := range res.Zones {
		muni := doc.municipality(z.Municipality)
		zone := muni.zone(z.Zone)
		zone.Sections = z.Sections
	}

	for _, r := range res.Top {
		zone := doc.municipality(r.Municipality).zone(r.Zone)
		rounds := childMap(&zone.Top, string(r.Office))
		key := strconv.Itoa(r.Round)
		entries, _ := rounds.Get(key)
		rounds.Set(key, append(entries, TopEntry{
			Name:  r.Candidate,
			Party: party(r.Party, opts.PartyKnown),
			Share: r.Share,
		}))
	}

	for _, w := range res.Winners {
		muni := doc.municipality(w.Municipality)
		rounds := childMap(&muni.Winner, string(w.Office))
		rounds.Set(strconv.Itoa(w.Round), Candidate{
			Name:  w.Candidate,
			Party: party(w.Party, opts.PartyKnown),
		})
	}

	return doc
}

func (d *Document) municipality(code string) *Municipality {
	m, ok := d.Municipalities.Get(code)
	if !ok {
		m = &Municipality{Name: code}
		d.Municipalities.Set(code, m)
	}
	return m
}

func (m *Municipality) zone(n int) *Zone {
	key := strconv.Itoa(n)
	z, ok := m.Zones.Get(key)
	if !ok {
		z = &Zone{Zone: n}
		m.Zones.Set(key, z)
	}
	return z
}

func childMap[V any](parent *OrderedMap[*OrderedMap[V]], key string) *OrderedMap[V] {
	child, ok := parent.Get(key)
	if !ok {
		child = &OrderedMap[V]{}
		parent.Set(key, child)
	}
	return child
}

func party(p string, known bool) *string {
	if !known {
		return nil
	}
	return &p
}
