// Package normalize canonicalizes team identifiers and scraped date text so
// records from independent sources can be compared.
package normalize

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

var (
	// ErrUnknownTeam is returned when no code can be derived for an identifier
	ErrUnknownTeam = errors.New("unknown team identifier")
	// ErrAmbiguousCity is returned for a city name shared by several franchises
	ErrAmbiguousCity = errors.New("ambiguous city name")
)

// maxCodeLength bounds both passthrough codes and generated acronyms
const maxCodeLength = 4

// Team is one franchise of a sport vocabulary
type Team struct {
	Code    string   `yaml:"code"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// Vocabulary maps the identifiers a scraper may produce for a sport onto
// canonical short codes.
type Vocabulary struct {
	sport     string
	names     map[string]string   // code -> full name
	codeAlias map[string]string   // alternative code -> code
	special   map[string]string   // upper-cased special names -> code
	ambiguous map[string][]string // upper-cased city -> candidate codes
	aliases   map[string]string   // lower-cased full names and aliases -> code
	partials  []partialName       // mascots, longest first
}

type partialName struct {
	fragment string
	code     string
}

// NewVocabulary creates a vocabulary for sport from a team list
func NewVocabulary(sport string, teams []Team) *Vocabulary {
	v := &Vocabulary{
		sport:     strings.ToLower(sport),
		names:     make(map[string]string),
		codeAlias: make(map[string]string),
		special:   make(map[string]string),
		ambiguous: make(map[string][]string),
		aliases:   make(map[string]string),
	}
	for _, team := range teams {
		v.AddTeam(team)
	}
	return v
}

// Sport returns the lower-cased sport key
func (v *Vocabulary) Sport() string {
	return v.sport
}

// AddTeam registers a team, its full name and aliases. Registering an existing
// code merges the aliases.
func (v *Vocabulary) AddTeam(team Team) {
	code := strings.ToUpper(strings.TrimSpace(team.Code))
	if code == "" {
		return
	}
	if _, exists := v.names[code]; !exists || team.Name != "" {
		v.names[code] = team.Name
	}
	if team.Name != "" {
		v.aliases[strings.ToLower(team.Name)] = code
	}
	for _, alias := range team.Aliases {
		v.aliases[strings.ToLower(cleanIdentifier(alias))] = code
	}
}

// AddCodeAlias maps an alternative code used by some source onto a known code
func (v *Vocabulary) AddCodeAlias(alias, code string) {
	v.codeAlias[strings.ToUpper(alias)] = strings.ToUpper(code)
}

// AddSpecial registers a multi-word name that must resolve before acronym
// construction is attempted.
func (v *Vocabulary) AddSpecial(name, code string) {
	v.special[strings.ToUpper(cleanIdentifier(name))] = strings.ToUpper(code)
}

// AddAmbiguous marks a city shared by several franchises
func (v *Vocabulary) AddAmbiguous(city string, codes ...string) {
	upper := make([]string, len(codes))
	for i, c := range codes {
		upper[i] = strings.ToUpper(c)
	}
	v.ambiguous[strings.ToUpper(cleanIdentifier(city))] = upper
}

// AddPartial registers a fragment (usually a mascot) matched by containment
func (v *Vocabulary) AddPartial(fragment, code string) {
	v.partials = append(v.partials, partialName{
		fragment: strings.ToLower(fragment),
		code:     strings.ToUpper(code),
	})
	sort.Slice(v.partials, func(i, j int) bool {
		a, b := v.partials[i].fragment, v.partials[j].fragment
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
}

// Name returns the full team name for a code, or the code itself
func (v *Vocabulary) Name(code string) string {
	code = v.canonicalCode(strings.ToUpper(strings.TrimSpace(code)))
	if name, ok := v.names[code]; ok && name != "" {
		return name
	}
	return code
}

// Contains reports whether code (or a code alias) is part of the vocabulary
func (v *Vocabulary) Contains(code string) bool {
	_, ok := v.names[v.canonicalCode(strings.ToUpper(strings.TrimSpace(code)))]
	return ok
}

// Codes returns the known codes in sorted order
func (v *Vocabulary) Codes() []string {
	codes := make([]string, 0, len(v.names))
	for code := range v.names {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Resolve derives the canonical code for a short code or free-text name.
// Lookup order: known code, special-cased names, ambiguous cities, full names
// and aliases, mascot fragments, short alphabetic passthrough, word-initial
// acronym.
func (v *Vocabulary) Resolve(identifier string) (string, error) {
	cleaned := cleanIdentifier(identifier)
	if cleaned == "" {
		return "", ErrUnknownTeam
	}
	upper := strings.ToUpper(cleaned)
	lower := strings.ToLower(cleaned)

	if code := v.canonicalCode(upper); v.hasCode(code) {
		return code, nil
	}
	if code, ok := v.special[upper]; ok {
		return code, nil
	}
	if candidates, ok := v.ambiguous[upper]; ok {
		return "", fmt.Errorf("%w: %q could be %s", ErrAmbiguousCity, cleaned, strings.Join(candidates, " or "))
	}
	if code, ok := v.aliases[lower]; ok {
		return code, nil
	}
	for _, p := range v.partials {
		if strings.Contains(lower, p.fragment) {
			return p.code, nil
		}
	}

	letters := strings.ReplaceAll(upper, ".", "")
	if len(letters) <= maxCodeLength && isAlpha(letters) {
		return letters, nil
	}
	if acronym := initials(upper); acronym != "" && len(acronym) <= maxCodeLength {
		return acronym, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTeam, cleaned)
}

// Code is Resolve without the error detail
func (v *Vocabulary) Code(identifier string) (string, bool) {
	code, err := v.Resolve(identifier)
	return code, err == nil
}

// Normalize returns the canonical code, or fallback when none can be derived.
// It never fails; scraped text is best effort.
func (v *Vocabulary) Normalize(identifier, fallback string) string {
	if code, ok := v.Code(identifier); ok {
		return code
	}
	return fallback
}

func (v *Vocabulary) hasCode(code string) bool {
	_, ok := v.names[code]
	return ok
}

func (v *Vocabulary) canonicalCode(code string) string {
	if target, ok := v.codeAlias[code]; ok {
		return target
	}
	return code
}

// cleanIdentifier trims and collapses internal whitespace
func cleanIdentifier(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func initials(s string) string {
	var b strings.Builder
	for _, word := range strings.Fields(s) {
		for _, r := range word {
			if unicode.IsLetter(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
	}
	return b.String()
}
