package normalize

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry holds one vocabulary per sport
type Registry struct {
	mu           sync.RWMutex
	vocabularies map[string]*Vocabulary
}

// NewRegistry creates a registry preloaded with the built-in vocabularies
func NewRegistry() *Registry {
	r := &Registry{vocabularies: make(map[string]*Vocabulary)}
	r.Register(MLBVocabulary())
	return r
}

// Register adds or replaces the vocabulary for its sport
func (r *Registry) Register(v *Vocabulary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vocabularies[v.Sport()] = v
}

// Get returns the vocabulary for sport
func (r *Registry) Get(sport string) (*Vocabulary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vocabularies[strings.ToLower(sport)]
	return v, ok
}

// Sports lists the registered sport keys
func (r *Registry) Sports() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sports := make([]string, 0, len(r.vocabularies))
	for sport := range r.vocabularies {
		sports = append(sports, sport)
	}
	sort.Strings(sports)
	return sports
}

// vocabularyFile is the YAML layout of an extra vocabulary file:
//
//	sports:
//	  nba:
//	    teams:
//	      - {code: LAL, name: Los Angeles Lakers, aliases: [LA Lakers]}
//	    special: {"GOLDEN STATE": GSW}
//	    code_aliases: {GS: GSW}
//	    partials: {lakers: LAL}
//	    ambiguous: {"LOS ANGELES": [LAL, LAC]}
type vocabularyFile struct {
	Sports map[string]sportEntry `yaml:"sports"`
}

type sportEntry struct {
	Teams       []Team              `yaml:"teams"`
	Special     map[string]string   `yaml:"special"`
	CodeAliases map[string]string   `yaml:"code_aliases"`
	Partials    map[string]string   `yaml:"partials"`
	Ambiguous   map[string][]string `yaml:"ambiguous"`
}

// LoadFile merges the vocabularies described in a YAML file into the
// registry. Sports already registered are extended, new sports are created.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read vocabulary file: %w", err)
	}
	return r.Load(data)
}

// Load merges YAML vocabulary data into the registry
func (r *Registry) Load(data []byte) error {
	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse vocabulary file: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for sport, entry := range file.Sports {
		key := strings.ToLower(sport)
		v, ok := r.vocabularies[key]
		if !ok {
			v = NewVocabulary(key, nil)
			r.vocabularies[key] = v
		}
		for _, team := range entry.Teams {
			v.AddTeam(team)
		}
		for alias, code := range entry.CodeAliases {
			v.AddCodeAlias(alias, code)
		}
		for name, code := range entry.Special {
			v.AddSpecial(name, code)
		}
		for fragment, code := range entry.Partials {
			v.AddPartial(fragment, code)
		}
		for city, codes := range entry.Ambiguous {
			v.AddAmbiguous(city, codes...)
		}
	}
	return nil
}
