package citation

import (
	"errors"
	"testing"
)

// stubLemmatizer maps a handful of inflected forms to their dictionary form.
func stubLemmatizer() *Lemmatizer {
	dict := map[string]string{
		"Гражданского": "гражданский",
		"Гражданский":  "гражданский",
		"кодекса":      "кодекс",
		"Кодекса":      "кодекс",
		"кодексом":     "кодекс",
		"Российской":   "российский",
		"Федерации":    "федерация",
		"Налогового":   "налоговый",
		"Налоговый":    "налоговый",
		"Федерального": "федеральный",
		"закона":       "закон",
		"Закона":       "закон",
		"Закон":        "закон",
		"защите":       "защита",
		"прав":         "право",
		"потребителей": "потребитель",
	}
	return NewLemmatizer(NormalizerFunc(func(word string) (string, error) {
		if lemma, ok := dict[word]; ok {
			return lemma, nil
		}
		return "", errors.New("not in dictionary")
	}))
}

func TestNewIndex(t *testing.T) {
	entries := []AliasEntry{
		{ID: "10", Aliases: []string{"ГК РФ", "Гражданский кодекс Российской Федерации"}},
		{ID: "20", Aliases: []string{"НК РФ", "Налоговый кодекс Российской Федерации"}},
		{ID: "not-a-number", Aliases: []string{"ЖК РФ"}},
		{ID: "30", Aliases: []string{"...", ""}},
	}

	idx, err := NewIndex(entries, WithLemmatizer(stubLemmatizer()))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if idx.Laws() != 2 {
		t.Errorf("Expected 2 laws, got %d", idx.Laws())
	}
	if idx.Keys() != 4 {
		t.Errorf("Expected 4 exact keys, got %d", idx.Keys())
	}
	if idx.MaxAliasLen() != 4 {
		t.Errorf("Expected max alias length 4, got %d", idx.MaxAliasLen())
	}

	cases := []struct {
		key      string
		expected int
		found    bool
	}{
		{"гк рф", 10, true},
		{"гражданский кодекс российский федерация", 10, true},
		{"нк рф", 20, true},
		{"жк рф", 0, false},
		{"гк", 0, false},
	}
	for _, tc := range cases {
		lawID, ok := idx.Lookup(tc.key)
		if ok != tc.found || lawID != tc.expected {
			t.Errorf("Lookup(%q): expected (%d, %v), got (%d, %v)", tc.key, tc.expected, tc.found, lawID, ok)
		}
	}
}

func TestNewIndexEmpty(t *testing.T) {
	cases := []struct {
		name    string
		entries []AliasEntry
	}{
		{"no_entries", nil},
		{"bad_ids_only", []AliasEntry{{ID: "x", Aliases: []string{"ГК РФ"}}}},
		{"punctuation_aliases_only", []AliasEntry{{ID: "1", Aliases: []string{"«»", " - "}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			idx, err := NewIndex(tc.entries)
			if !errors.Is(err, ErrEmptyIndex) {
				t.Errorf("Expected ErrEmptyIndex, got %v", err)
			}
			if idx != nil {
				t.Error("Expected nil index")
			}
		})
	}
}

func TestNewIndexFirstWriterWins(t *testing.T) {
	idx, err := NewIndex([]AliasEntry{
		{ID: "1", Aliases: []string{"Кодекс"}},
		{ID: "2", Aliases: []string{"КОДЕКС"}},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if lawID, _ := idx.Lookup("кодекс"); lawID != 1 {
		t.Errorf("Expected law 1, got %d", lawID)
	}
}

func TestNewIndexFromMapNumericOrder(t *testing.T) {
	// "10" sorts before "2" as a string; numeric order must win.
	idx, err := NewIndexFromMap(map[string][]string{
		"10": {"Кодекс"},
		"2":  {"Кодекс"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if lawID, _ := idx.Lookup("кодекс"); lawID != 2 {
		t.Errorf("Expected law 2, got %d", lawID)
	}
}

func TestNewIndexFromMapMixedKeys(t *testing.T) {
	aliases := map[string][]string{
		"9":   {"Кодекс X"},
		"10":  {"Кодекс X"},
		"5a":  {"Кодекс X"},
		"1b":  {"Кодекс X"},
		"abc": {"Кодекс X"},
	}

	// Map iteration order varies between builds; the winner must not.
	for i := 0; i < 200; i++ {
		idx, err := NewIndexFromMap(aliases)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if lawID, _ := idx.Lookup("кодекс x"); lawID != 9 {
			t.Fatalf("Build %d: expected law 9, got %d", i, lawID)
		}
		if idx.Laws() != 2 {
			t.Fatalf("Build %d: expected 2 laws, got %d", i, idx.Laws())
		}
	}
}

func TestCompactKeys(t *testing.T) {
	lem := stubLemmatizer()

	t.Run("unambiguous", func(t *testing.T) {
		idx, err := NewIndex([]AliasEntry{
			{ID: "10", Aliases: []string{"Гражданский кодекс Российской Федерации"}},
		}, WithLemmatizer(lem))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if idx.CompactKeys() != 1 {
			t.Fatalf("Expected 1 compact key, got %d", idx.CompactKeys())
		}
		lawID, ok := idx.BestMatch(Tokenize("Гражданского кодекса", lem))
		if !ok || lawID != 10 {
			t.Errorf("Expected compact match to law 10, got (%d, %v)", lawID, ok)
		}
	})

	t.Run("ambiguous_dropped", func(t *testing.T) {
		idx, err := NewIndex([]AliasEntry{
			{ID: "10", Aliases: []string{"Гражданский кодекс Российской Федерации"}},
			{ID: "11", Aliases: []string{"Гражданский кодекс"}},
		}, WithLemmatizer(lem))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if idx.CompactKeys() != 0 {
			t.Errorf("Expected no compact keys, got %d", idx.CompactKeys())
		}
		// The exact alias of law 11 still resolves.
		lawID, ok := idx.BestMatch(Tokenize("Гражданского кодекса", lem))
		if !ok || lawID != 11 {
			t.Errorf("Expected exact match to law 11, got (%d, %v)", lawID, ok)
		}
	})

	t.Run("single_lemma_not_compacted", func(t *testing.T) {
		idx, err := NewIndex([]AliasEntry{
			{ID: "5", Aliases: []string{"Федеральный Закон"}},
		}, WithLemmatizer(lem))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if idx.CompactKeys() != 0 {
			t.Errorf("Expected no compact keys, got %d", idx.CompactKeys())
		}
	})

	t.Run("disabled", func(t *testing.T) {
		idx, err := NewIndex([]AliasEntry{
			{ID: "10", Aliases: []string{"Гражданский кодекс Российской Федерации"}},
		}, WithLemmatizer(lem), WithCompact(false))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, ok := idx.BestMatch(Tokenize("Гражданского кодекса", lem)); ok {
			t.Error("Expected no match with compact matching disabled")
		}
	})
}

func TestBestMatchRanking(t *testing.T) {
	lem := stubLemmatizer()
	idx, err := NewIndex([]AliasEntry{
		{ID: "10", Aliases: []string{"ГК РФ", "ГК"}},
		{ID: "20", Aliases: []string{"НК РФ"}},
		{ID: "30", Aliases: []string{"Налоговый кодекс Российской Федерации"}},
		{ID: "40", Aliases: []string{"РФ"}},
	}, WithLemmatizer(lem))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	cases := []struct {
		name     string
		text     string
		expected int
		found    bool
	}{
		{"leftmost_wins", "НК РФ и ГК РФ", 20, true},
		{"longest_at_same_start", "ГК РФ", 10, true},
		{"exact_beats_earlier_compact", "Налогового кодекса и НК РФ", 20, true},
		{"compact_when_no_exact", "Налогового кодекса", 30, true},
		{"no_alias", "Уголовного кодекса", 0, false},
		{"empty", "", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lawID, ok := idx.BestMatch(Tokenize(tc.text, lem))
			if ok != tc.found || lawID != tc.expected {
				t.Errorf("Expected (%d, %v), got (%d, %v)", tc.expected, tc.found, lawID, ok)
			}
		})
	}
}

func TestCandidateLess(t *testing.T) {
	cases := []struct {
		name string
		a, b LawCandidate
	}{
		{
			name: "exact_before_compact",
			a:    LawCandidate{Kind: MatchExact, Start: 5, TokenCount: 1},
			b:    LawCandidate{Kind: MatchCompact, Start: 0, TokenCount: 3},
		},
		{
			name: "earlier_start",
			a:    LawCandidate{Start: 0, TokenCount: 1},
			b:    LawCandidate{Start: 1, TokenCount: 3},
		},
		{
			name: "more_tokens",
			a:    LawCandidate{Start: 0, TokenCount: 3},
			b:    LawCandidate{Start: 0, TokenCount: 2},
		},
		{
			name: "abbreviation",
			a:    LawCandidate{Start: 0, TokenCount: 2, HasAbbr: true},
			b:    LawCandidate{Start: 0, TokenCount: 2},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !candidateLess(tc.a, tc.b) {
				t.Error("Expected a to rank before b")
			}
			if candidateLess(tc.b, tc.a) {
				t.Error("Expected b not to rank before a")
			}
		})
	}
}

func TestMatchKindString(t *testing.T) {
	if MatchExact.String() != "exact" {
		t.Errorf("Expected 'exact', got %q", MatchExact.String())
	}
	if MatchCompact.String() != "compact" {
		t.Errorf("Expected 'compact', got %q", MatchCompact.String())
	}
}

func TestBestMatchAcrossQuotes(t *testing.T) {
	lem := stubLemmatizer()
	idx, err := NewIndex([]AliasEntry{
		{ID: "30", Aliases: []string{"Закон о защите прав потребителей"}},
		{ID: "40", Aliases: []string{"Закон «О защите конкуренции»"}},
		{ID: "50", Aliases: []string{"Кодекс"}},
	}, WithLemmatizer(lem))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	cases := []struct {
		name   string
		text   string
		lawID  int
		wantOK bool
	}{
		{"quotes_in_text_only", "Закона «о защите прав потребителей»", 30, true},
		{"ascii_quotes_in_text", `Закона "о защите прав потребителей"`, 30, true},
		{"quotes_in_alias_and_text", "Закона «О защите конкуренции»", 40, true},
		{"quotes_in_alias_only", "Закон О защите конкуренции", 40, true},
		{"punctuation_between_words", "Закона, о защите прав потребителей", 30, true},
		{"quoted_single_word", "«Кодекс»", 50, true},
		{"no_match", "«о защите»", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lawID, ok := idx.BestMatch(Tokenize(tc.text, lem))
			if ok != tc.wantOK || lawID != tc.lawID {
				t.Errorf("Expected (%d, %v), got (%d, %v)", tc.lawID, tc.wantOK, lawID, ok)
			}
		})
	}
}

func TestCandidatesSpanBounds(t *testing.T) {
	lem := stubLemmatizer()
	idx, err := NewIndex([]AliasEntry{
		{ID: "30", Aliases: []string{"Закон о защите прав потребителей"}},
	}, WithLemmatizer(lem))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tokens := Tokenize("«Закона «о защите прав потребителей»»", lem)
	candidates := idx.Candidates(tokens)
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if tokens[c.Start].Punct || tokens[c.End-1].Punct {
		t.Errorf("Expected span to start and end on a word, got %q..%q", tokens[c.Start].Text, tokens[c.End-1].Text)
	}
	if c.TokenCount != 5 {
		t.Errorf("Expected 5 counted words, got %d", c.TokenCount)
	}
}
