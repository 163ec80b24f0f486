package citation

import (
	"errors"
	"sort"
	"strconv"
)

// ErrEmptyIndex is returned when an alias mapping yields no usable alias.
var ErrEmptyIndex = errors.New("alias mapping contains no usable aliases")

// optionalLemmas are filler words dropped when building compact keys.
var optionalLemmas = map[string]bool{
	"российский":  true,
	"федерация":   true,
	"рф":          true,
	"россия":      true,
	"федеральный": true,
}

// abbrLemmas are well-known code abbreviations. A candidate span containing
// one of them wins ties against a span without.
var abbrLemmas = map[string]bool{
	"апк":  true,
	"гк":   true,
	"гпк":  true,
	"ук":   true,
	"нк":   true,
	"жк":   true,
	"ск":   true,
	"тк":   true,
	"коап": true,
	"рф":   true,
	"фз":   true,
}

// AliasEntry is one law of the alias mapping: a decimal law id and the names
// the law is referred to by.
type AliasEntry struct {
	ID      string   `json:"id" yaml:"id"`
	Aliases []string `json:"aliases" yaml:"aliases"`
}

// MatchKind tells how a candidate span matched the index.
type MatchKind int

const (
	MatchExact MatchKind = iota
	MatchCompact
)

func (k MatchKind) String() string {
	if k == MatchCompact {
		return "compact"
	}
	return "exact"
}

// LawCandidate is a tentative law match inside one token window.
type LawCandidate struct {
	LawID      int
	Start, End int
	Kind       MatchKind
	TokenCount int
	HasAbbr    bool
}

// Index resolves lemma sequences to law ids. It is built once and never
// modified afterwards, so any number of goroutines may query it.
type Index struct {
	exact       map[string]int
	compact     map[string]int
	maxAliasLen int
	laws        int
	useCompact  bool
	lem         *Lemmatizer
}

// IndexOption configures index construction.
type IndexOption func(*Index)

// WithCompact enables or disables compact (filler-stripped) matching.
func WithCompact(enabled bool) IndexOption {
	return func(idx *Index) { idx.useCompact = enabled }
}

// WithLemmatizer sets the lemmatizer used for aliases. The same lemmatizer
// should be used for the texts the index is queried with.
func WithLemmatizer(lem *Lemmatizer) IndexOption {
	return func(idx *Index) { idx.lem = lem }
}

// NewIndex builds an index from entries in the given order. On duplicate
// alias keys the first entry wins. Entries whose id is not an integer and
// aliases without any word content are skipped.
func NewIndex(entries []AliasEntry, opts ...IndexOption) (*Index, error) {
	idx := &Index{
		exact:       make(map[string]int),
		compact:     make(map[string]int),
		maxAliasLen: 1,
		useCompact:  true,
	}
	for _, opt := range opts {
		opt(idx)
	}

	compactIDs := make(map[string]map[int]bool)
	// compactOrder keeps compact keys in first-seen order for a stable build.
	var compactOrder []string
	lawsSeen := make(map[int]bool)

	for _, entry := range entries {
		lawID, err := strconv.Atoi(entry.ID)
		if err != nil {
			continue
		}
		for _, alias := range entry.Aliases {
			tokens := Tokenize(alias, idx.lem)
			key, n := joinLemmas(tokens, 0, len(tokens), nil)
			if n == 0 {
				continue
			}
			lawsSeen[lawID] = true

			if _, exists := idx.exact[key]; !exists {
				idx.exact[key] = lawID
			}
			if n > idx.maxAliasLen {
				idx.maxAliasLen = n
			}

			if !idx.useCompact {
				continue
			}
			compactKey, cn := joinLemmas(tokens, 0, len(tokens), optionalLemmas)
			if cn < 2 {
				continue
			}
			ids, ok := compactIDs[compactKey]
			if !ok {
				ids = make(map[int]bool)
				compactIDs[compactKey] = ids
				compactOrder = append(compactOrder, compactKey)
			}
			ids[lawID] = true
		}
	}

	if len(idx.exact) == 0 {
		return nil, ErrEmptyIndex
	}

	for _, compactKey := range compactOrder {
		ids := compactIDs[compactKey]
		if len(ids) != 1 {
			continue
		}
		for lawID := range ids {
			idx.compact[compactKey] = lawID
		}
	}
	idx.laws = len(lawsSeen)

	return idx, nil
}

// NewIndexFromMap builds an index from a law-id keyed mapping. Map order is
// not defined, so entries are processed in ascending numeric id order; ids
// that are not integers are dropped.
func NewIndexFromMap(aliases map[string][]string, opts ...IndexOption) (*Index, error) {
	type numbered struct {
		entry AliasEntry
		id    int
	}
	ordered := make([]numbered, 0, len(aliases))
	for id, names := range aliases {
		n, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		ordered = append(ordered, numbered{AliasEntry{ID: id, Aliases: names}, n})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].id != ordered[j].id {
			return ordered[i].id < ordered[j].id
		}
		// "7" and "07" name the same law; keep their order stable too.
		return ordered[i].entry.ID < ordered[j].entry.ID
	})

	entries := make([]AliasEntry, len(ordered))
	for i, o := range ordered {
		entries[i] = o.entry
	}
	return NewIndex(entries, opts...)
}

// Laws returns the number of distinct law ids with at least one alias.
func (idx *Index) Laws() int { return idx.laws }

// Keys returns the number of exact alias keys.
func (idx *Index) Keys() int { return len(idx.exact) }

// CompactKeys returns the number of unambiguous compact keys.
func (idx *Index) CompactKeys() int { return len(idx.compact) }

// MaxAliasLen returns the longest alias length in lemmas.
func (idx *Index) MaxAliasLen() int { return idx.maxAliasLen }

// Lemmatizer returns the lemmatizer the index was built with.
func (idx *Index) Lemmatizer() *Lemmatizer { return idx.lem }

// Lookup returns the law id for an exact lemma key.
func (idx *Index) Lookup(key string) (int, bool) {
	lawID, ok := idx.exact[key]
	return lawID, ok
}

// Candidates returns every span of tokens that matches an alias. Spans start
// and end on a word and hold at most MaxAliasLen words; punctuation inside a
// span, such as the quotes around an official title, is not counted.
func (idx *Index) Candidates(tokens []Token) []LawCandidate {
	var candidates []LawCandidate
	for i := range tokens {
		if tokens[i].Punct {
			continue
		}
		words := 0
		for j := i; j < len(tokens); j++ {
			if tokens[j].Punct {
				continue
			}
			words++
			if words > idx.maxAliasLen {
				break
			}
			if c, ok := idx.match(tokens, i, j+1); ok {
				candidates = append(candidates, c)
			}
		}
	}
	return candidates
}

// match looks tokens[i:j] up, exact key first, then compact key.
func (idx *Index) match(tokens []Token, i, j int) (LawCandidate, bool) {
	key, count := joinLemmas(tokens, i, j, nil)
	if count == 0 {
		return LawCandidate{}, false
	}
	if lawID, ok := idx.exact[key]; ok {
		return LawCandidate{
			LawID:      lawID,
			Start:      i,
			End:        j,
			Kind:       MatchExact,
			TokenCount: count,
			HasAbbr:    hasAbbr(tokens[i:j]),
		}, true
	}

	if !idx.useCompact {
		return LawCandidate{}, false
	}
	compactKey, compactCount := joinLemmas(tokens, i, j, optionalLemmas)
	if compactCount < 2 {
		return LawCandidate{}, false
	}
	lawID, ok := idx.compact[compactKey]
	if !ok {
		return LawCandidate{}, false
	}
	return LawCandidate{
		LawID:      lawID,
		Start:      i,
		End:        j,
		Kind:       MatchCompact,
		TokenCount: compactCount,
		HasAbbr:    hasAbbr(tokens[i:j]),
	}, true
}

// BestMatch returns the law id of the highest ranked candidate in tokens:
// exact before compact, then leftmost, then longest, then spans containing
// an abbreviation.
func (idx *Index) BestMatch(tokens []Token) (int, bool) {
	candidates := idx.Candidates(tokens)
	if len(candidates) == 0 {
		return 0, false
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidateLess(candidates[a], candidates[b])
	})
	return candidates[0].LawID, true
}

func candidateLess(a, b LawCandidate) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.TokenCount != b.TokenCount {
		return a.TokenCount > b.TokenCount
	}
	return a.HasAbbr && !b.HasAbbr
}

func hasAbbr(tokens []Token) bool {
	for _, tok := range tokens {
		if abbrLemmas[tok.Lemma] {
			return true
		}
	}
	return false
}
