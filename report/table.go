package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const barWidth = 30

// WriteTable prints every race as a fixed-width table with a text bar per
// candidate, scaled to the race leader.
func WriteTable(w io.Writer, races []Race) error {
	for i, r := range races {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeRace(w, r); err != nil {
			return err
		}
	}
	return nil
}

func writeRace(w io.Writer, r Race) error {
	maxName := len("Candidato")
	for _, c := range r.Wins {
		if n := utf8.RuneCountInString(label(c)); n > maxName {
			maxName = n
		}
	}
	top := 0
	if len(r.Wins) > 0 {
		top = r.Wins[0].Municipalities
	}

	var b strings.Builder
	b.WriteString(RaceTitle(r) + "\n")
	fmt.Fprintf(&b, "%-*s  %10s\n", maxName, "Candidato", "Municipios")
	b.WriteString(strings.Repeat("─", maxName+2+10+1+barWidth) + "\n")
	for _, c := range r.Wins {
		fmt.Fprintf(&b, "%-*s  %10s %s\n", maxName, label(c), formatInt(int64(c.Municipalities)), bar(c.Municipalities, top))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func label(c Wins) string {
	if c.Party == "" {
		return c.Name
	}
	return c.Name + " (" + c.Party + ")"
}

func bar(v, max int) string {
	if max <= 0 || v <= 0 {
		return ""
	}
	n := v * barWidth / max
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

func formatInt(v int64) string {
	s := fmt.Sprint(v)
	if v < 0 {
		return "-" + addDots(s[1:])
	}
	return addDots(s)
}

// addDots groups thousands with '.', as Brazilian figures are printed.
func addDots(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var sb strings.Builder
	pre := n % 3
	if pre > 0 {
		sb.WriteString(s[:pre])
		sb.WriteByte('.')
	}
	for i := pre; i < n; i += 3 {
		sb.WriteString(s[i : i+3])
		if i+3 < n {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
