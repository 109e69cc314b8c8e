package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jason-s-yu/truco/internal/models"
)

// FormatRoundSummary renders a round of the history as plain text, e.g.
//
//	Ronda 3 - Redondo (Pie: Ana)
//	  Los Pibes: Truco 2, Envido 4
//
// Redondo rounds list each winning team in the order it first appears;
// pica-pica rounds list each sub-round with the points every winner took.
func FormatRoundSummary(rec models.RoundRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ronda %d - %s (Pie: %s)\n", rec.RoundNumber, roundTitle(rec.RoundType), rec.DealerName)

	if rec.RoundType == models.PicaPica {
		writePicaPicaLines(&b, rec.PicaPica)
	} else {
		writeRedondoLines(&b, rec.Redondo)
	}
	return strings.TrimSpace(b.String())
}

func roundTitle(t models.RoundType) string {
	switch t {
	case models.Redondo:
		return "Redondo"
	case models.PicaPica:
		return "Pica-Pica"
	default:
		return string(t)
	}
}

type contestTotals struct {
	name   string
	truco  int
	envido int
}

func writeRedondoLines(b *strings.Builder, scores []models.RedondoScore) {
	var order []string
	totals := map[string]*contestTotals{}
	get := func(key, name string) *contestTotals {
		if t, ok := totals[key]; ok {
			return t
		}
		t := &contestTotals{name: name}
		totals[key] = t
		order = append(order, key)
		return t
	}

	for _, s := range scores {
		if s.TrucoWinnerTeamID != nil {
			get(s.TrucoWinnerTeamID.String(), displayName(s.TrucoWinnerName, s.TrucoWinnerTeamID.String())).truco += s.TrucoPoints
		}
		if s.EnvidoWinnerTeamID != nil {
			get(s.EnvidoWinnerTeamID.String(), displayName(s.EnvidoWinnerName, s.EnvidoWinnerTeamID.String())).envido += s.EnvidoPoints
		}
	}

	for _, key := range order {
		t := totals[key]
		var parts []string
		if t.truco > 0 {
			parts = append(parts, fmt.Sprintf("Truco %d", t.truco))
		}
		if t.envido > 0 {
			parts = append(parts, fmt.Sprintf("Envido %d", t.envido))
		}
		if len(parts) == 0 {
			parts = append(parts, "0 puntos")
		}
		fmt.Fprintf(b, "  %s: %s\n", t.name, strings.Join(parts, ", "))
	}
}

func writePicaPicaLines(b *strings.Builder, scores []models.PicaPicaScore) {
	bySub := map[int][]models.PicaPicaScore{}
	for _, s := range scores {
		bySub[s.SubRound] = append(bySub[s.SubRound], s)
	}
	subs := make([]int, 0, len(bySub))
	for k := range bySub {
		subs = append(subs, k)
	}
	sort.Ints(subs)

	for _, sub := range subs {
		var order []string
		points := map[string]int{}
		add := func(name string, p int) {
			if p <= 0 {
				return
			}
			if _, ok := points[name]; !ok {
				order = append(order, name)
			}
			points[name] += p
		}
		for _, s := range bySub[sub] {
			if s.TrucoWinnerID != nil {
				add(displayName(s.TrucoWinnerName, s.TrucoWinnerID.String()), s.TrucoPoints)
			}
			if s.EnvidoWinnerID != nil {
				add(displayName(s.EnvidoWinnerName, s.EnvidoWinnerID.String()), s.EnvidoPoints)
			}
		}

		var parts []string
		for _, name := range order {
			parts = append(parts, fmt.Sprintf("%s %d", name, points[name]))
		}
		if len(parts) == 0 {
			parts = append(parts, "Sin puntos")
		}
		fmt.Fprintf(b, "  Sub-ronda %d: %s\n", sub, strings.Join(parts, ", "))
	}
}

func displayName(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
