package citation

import (
	"strings"
	"testing"
)

func windowTexts(tokens []Token) []string {
	texts := make([]string, len(tokens))
	for i, tok := range tokens {
		texts[i] = tok.Text
	}
	return texts
}

func TestLookaheadWindow(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		budget   int
		expected []string
	}{
		{
			name:     "budget_counts_words_only",
			text:     " ГК, РФ. и далее",
			budget:   2,
			expected: []string{"ГК", ",", "РФ"},
		},
		{
			name:     "anchor_extends_to_closing_quote",
			text:     " закон «о защите прав потребителей» и др",
			budget:   2,
			expected: []string{"закон", "«", "о", "защите", "прав", "потребителей", "»"},
		},
		{
			name:     "quotes_without_anchor_do_not_extend",
			text:     " слово «а б в г»",
			budget:   2,
			expected: []string{"слово", "«", "а"},
		},
		{
			name:     "abbreviation_is_anchor",
			text:     ` ФЗ "о связи и почте" далее`,
			budget:   2,
			expected: []string{"ФЗ", `"`, "о", "связи", "и", "почте", `"`},
		},
		{
			name:     "typographic_quotes",
			text:     " кодекс „о труде и отдыхе“ далее",
			budget:   2,
			expected: []string{"кодекс", "„", "о", "труде", "и", "отдыхе", "“"},
		},
		{
			name:     "shorter_than_budget",
			text:     " ГК",
			budget:   12,
			expected: []string{"ГК"},
		},
		{
			name:     "empty",
			text:     "",
			budget:   12,
			expected: []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := windowTexts(LookaheadWindow(tc.text, tc.budget, nil))
			if strings.Join(got, "|") != strings.Join(tc.expected, "|") {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestLookaheadWindowDefaultBudget(t *testing.T) {
	text := strings.Repeat("слово ", 30)
	window := LookaheadWindow(text, 0, nil)
	if len(window) != DefaultLookahead {
		t.Errorf("Expected %d tokens, got %d", DefaultLookahead, len(window))
	}
}

func TestLookaheadWindowUnclosedQuoteCapped(t *testing.T) {
	text := " закон «" + strings.Repeat("слово ", 2000)
	window := LookaheadWindow(text, 12, nil)
	if len(window) != maxWindowTokens+1 {
		t.Errorf("Expected window capped at %d tokens, got %d", maxWindowTokens+1, len(window))
	}
}

func TestArticleLabelAhead(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		budget   int
		expected bool
	}{
		{"abbreviated_label", " ст. 5 ГК РФ", 12, true},
		{"full_word", " статьи 5 ГК РФ", 12, true},
		{"genitive_plural", " статей 5-7", 12, true},
		{"capitalized", " Статья 5", 12, true},
		{"no_label", " ГК РФ", 12, false},
		{"beyond_budget", " один два три ст. 5", 3, false},
		{"at_budget_edge", " один два ст. 5", 3, true},
		{"label_prefix_only", " стол 5", 12, false},
		{"empty", "", 12, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ArticleLabelAhead(tc.text, tc.budget, nil); got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}
