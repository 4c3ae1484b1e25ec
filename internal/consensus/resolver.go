// Package consensus extracts pick percentages from scraped share fields and
// decides which side the public favours.
package consensus

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/josema3054/predicciones-deportivas/internal/models"
)

// ErrUnparseable is returned when neither share field holds a percentage
var ErrUnparseable = errors.New("no parseable percentage in share fields")

var percentPattern = regexp.MustCompile(`(\d+)\s*%`)

// ExtractPercent returns the first integer followed by a percent sign
func ExtractPercent(text string) (int, bool) {
	m := percentPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return pct, true
}

// Shares is a resolved pair of pick percentages. First and Second are always
// in canonical order (team_a/team_b or over/under), whatever order the raw
// fields arrived in.
type Shares struct {
	First     models.Side `json:"first"`
	Second    models.Side `json:"second"`
	FirstPct  int         `json:"first_pct"`
	SecondPct int         `json:"second_pct"`
	// Swapped is set when the text labels contradicted the field positions
	Swapped bool `json:"swapped"`
	// Partial is set when only one of the two fields held a percentage
	Partial bool `json:"partial"`
}

// Dominant returns the side with the strictly greater share. Equal shares
// resolve to the second side.
func (s Shares) Dominant() (models.Side, int) {
	if s.FirstPct > s.SecondPct {
		return s.First, s.FirstPct
	}
	return s.Second, s.SecondPct
}

// Pct returns the share held by side, 0 for an unknown side
func (s Shares) Pct(side models.Side) int {
	switch side {
	case s.First:
		return s.FirstPct
	case s.Second:
		return s.SecondPct
	default:
		return 0
	}
}

// Sum is the total of both shares; about 100 for clean data
func (s Shares) Sum() int {
	return s.FirstPct + s.SecondPct
}

// AsMap returns the shares keyed by side
func (s Shares) AsMap() map[models.Side]int {
	return map[models.Side]int{s.First: s.FirstPct, s.Second: s.SecondPct}
}

// Resolve dispatches on the market kind of rec
func Resolve(rec *models.ConsensusRecord) (Shares, error) {
	switch rec.Kind {
	case models.MarketWinnerLoser:
		if rec.WinnerLoser == nil {
			return Shares{}, models.ErrInvalidMarket
		}
		return ResolveWinnerLoser(*rec.WinnerLoser)
	case models.MarketOverUnder:
		if rec.OverUnder == nil {
			return Shares{}, models.ErrInvalidMarket
		}
		return ResolveOverUnder(*rec.OverUnder)
	default:
		return Shares{}, fmt.Errorf("%w: unknown kind %q", models.ErrInvalidMarket, rec.Kind)
	}
}

// ResolveWinnerLoser reads team shares by position; these fields carry no
// side label.
func ResolveWinnerLoser(m models.WinnerLoserMarket) (Shares, error) {
	a, okA := ExtractPercent(m.ShareA)
	b, okB := ExtractPercent(m.ShareB)
	if !okA && !okB {
		return Shares{}, ErrUnparseable
	}
	return Shares{
		First:     models.SideTeamA,
		Second:    models.SideTeamB,
		FirstPct:  a,
		SecondPct: b,
		Partial:   okA != okB,
	}, nil
}

// ResolveOverUnder assigns each field to a side by the "Over"/"Under" label in
// its text, never by which field it arrived in. A field without a usable
// label takes whichever side is left; when neither field is labelled the
// declared order (field 1 over, field 2 under) applies.
func ResolveOverUnder(m models.OverUnderMarket) (Shares, error) {
	p1, ok1 := ExtractPercent(m.Field1)
	p2, ok2 := ExtractPercent(m.Field2)
	if !ok1 && !ok2 {
		return Shares{}, ErrUnparseable
	}

	l1, l2 := sideLabel(m.Field1), sideLabel(m.Field2)
	swapped := false
	switch {
	case l1 == models.SideUnder && l2 != models.SideUnder:
		swapped = true
	case l2 == models.SideOver && l1 != models.SideOver:
		swapped = true
	}

	shares := Shares{
		First:   models.SideOver,
		Second:  models.SideUnder,
		Swapped: swapped,
		Partial: ok1 != ok2,
	}
	if swapped {
		shares.FirstPct, shares.SecondPct = p2, p1
	} else {
		shares.FirstPct, shares.SecondPct = p1, p2
	}
	return shares, nil
}

// sideLabel reads the over/under label of a field. Fields naming both or
// neither side have no label.
func sideLabel(text string) models.Side {
	lower := strings.ToLower(text)
	hasOver := strings.Contains(lower, "over")
	hasUnder := strings.Contains(lower, "under")
	switch {
	case hasOver && !hasUnder:
		return models.SideOver
	case hasUnder && !hasOver:
		return models.SideUnder
	default:
		return ""
	}
}
