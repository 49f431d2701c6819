package grammars

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/odvcencio/sitter/gotreesitter"
)

// ErrUnknownLanguage is returned by Lookup for a name nothing registered.
var ErrUnknownLanguage = errors.New("grammars: unknown language")

// LangEntry holds a registered language with its file associations.
type LangEntry struct {
	Name       string
	Extensions []string                      // e.g. [".arith"]
	Shebangs   []string                      // e.g. ["#!/usr/bin/env arith"]
	Language   func() *gotreesitter.Language // lazy loader; must return the same Language every call
	// Description is a one-line summary shown by listings.
	Description string
}

var (
	registryMu sync.RWMutex
	registry   []LangEntry
)

// Register adds a language to the registry. Registering a name twice
// replaces the earlier entry.
func Register(entry LangEntry) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for i := range registry {
		if registry[i].Name == entry.Name {
			registry[i] = entry
			return
		}
	}
	registry = append(registry, entry)
}

// DetectLanguage returns the LangEntry for a filename, or nil if unknown.
// Matches by extension.
func DetectLanguage(filename string) *LangEntry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for i := range registry {
		for _, ext := range registry[i].Extensions {
			if strings.HasSuffix(filename, ext) {
				e := registry[i]
				return &e
			}
		}
	}
	return nil
}

// DetectLanguageByShebang checks the first line of content for shebang matches.
func DetectLanguageByShebang(firstLine string) *LangEntry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for i := range registry {
		for _, shebang := range registry[i].Shebangs {
			if strings.HasPrefix(firstLine, shebang) {
				e := registry[i]
				return &e
			}
		}
	}
	return nil
}

// AllLanguages returns all registered languages sorted by name.
func AllLanguages() []LangEntry {
	registryMu.RLock()
	out := make([]LangEntry, len(registry))
	copy(out, registry)
	registryMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the entry registered under name. For an unknown name the
// error wraps ErrUnknownLanguage and names the closest registered languages.
func Lookup(name string) (*LangEntry, error) {
	registryMu.RLock()
	for i := range registry {
		if registry[i].Name == name {
			e := registry[i]
			registryMu.RUnlock()
			return &e, nil
		}
	}
	registryMu.RUnlock()

	if s := Suggest(name); len(s) > 0 {
		return nil, fmt.Errorf("%w %q (did you mean %s?)", ErrUnknownLanguage, name, strings.Join(s, ", "))
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownLanguage, name)
}

// maxSuggestDistance bounds how many edits a typo may be from a name and
// still be suggested.
const maxSuggestDistance = 3

// Suggest returns registered language names close to name, best first:
// names containing name's letters in order, then names within a few edits.
func Suggest(name string) []string {
	if name == "" {
		return nil
	}
	var names []string
	for _, e := range AllLanguages() {
		names = append(names, e.Name)
	}

	var out []string
	seen := make(map[string]bool)
	ranks := fuzzy.RankFindFold(name, names)
	sort.Sort(ranks)
	for _, r := range ranks {
		out = append(out, r.Target)
		seen[r.Target] = true
	}

	type near struct {
		name string
		dist int
	}
	var nearby []near
	for _, n := range names {
		if seen[n] {
			continue
		}
		if d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(n)); d <= maxSuggestDistance {
			nearby = append(nearby, near{n, d})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].dist < nearby[j].dist })
	for _, c := range nearby {
		out = append(out, c.name)
	}
	return out
}
