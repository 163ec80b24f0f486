package citation

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func newTestExtractor(t *testing.T, opts ...ExtractorOption) *Extractor {
	t.Helper()
	idx, err := NewIndex([]AliasEntry{
		{ID: "10", Aliases: []string{"ГК РФ", "Гражданский кодекс Российской Федерации"}},
		{ID: "20", Aliases: []string{"НК РФ", "Налоговый кодекс Российской Федерации"}},
		{ID: "30", Aliases: []string{"Закон о защите прав потребителей"}},
	}, WithLemmatizer(stubLemmatizer()))
	if err != nil {
		t.Fatalf("Failed to build index: %v", err)
	}
	return NewExtractor(idx, opts...)
}

// stripSpans drops source positions so that links compare by content.
func stripSpans(links []Link) []Link {
	out := make([]Link, len(links))
	for i, link := range links {
		link.TextOffset, link.TextLength = 0, 0
		out[i] = link
	}
	return out
}

func TestExtract(t *testing.T) {
	extractor := newTestExtractor(t)

	cases := []struct {
		name     string
		text     string
		expected []Link
	}{
		{
			name:     "article",
			text:     "ст. 5 ГК РФ",
			expected: []Link{{LawID: 10, Article: "5"}},
		},
		{
			name:     "point_and_article",
			text:     "п. 1 ст. 5 ГК РФ",
			expected: []Link{{LawID: 10, Article: "5", PointArticle: "1"}},
		},
		{
			name: "subpoints_expanded",
			text: "пп. а, б п. 1 ст. 5 ГК РФ",
			expected: []Link{
				{LawID: 10, Article: "5", PointArticle: "1", SubpointArticle: "а"},
				{LawID: 10, Article: "5", PointArticle: "1", SubpointArticle: "б"},
			},
		},
		{
			name: "subpoint_range",
			text: "пп. а–в п. 2 ст. 7 НК РФ",
			expected: []Link{
				{LawID: 20, Article: "7", PointArticle: "2", SubpointArticle: "а"},
				{LawID: 20, Article: "7", PointArticle: "2", SubpointArticle: "б"},
				{LawID: 20, Article: "7", PointArticle: "2", SubpointArticle: "в"},
			},
		},
		{
			name:     "subpoint_without_point_ignored",
			text:     "пп. а ст. 5 ГК РФ",
			expected: []Link{{LawID: 10, Article: "5"}},
		},
		{
			name:     "article_list_normalized",
			text:     "ст. 3 –  5 НК РФ",
			expected: []Link{{LawID: 20, Article: "3-5"}},
		},
		{
			name:     "inflected_full_name",
			text:     "в силу статьи 5 Гражданского кодекса Российской Федерации",
			expected: []Link{{LawID: 10, Article: "5"}},
		},
		{
			name:     "compact_name",
			text:     "ст. 5 Гражданского кодекса",
			expected: []Link{{LawID: 10, Article: "5"}},
		},
		{
			name:     "quoted_title",
			text:     "ст. 5 Закона «о защите прав потребителей»",
			expected: []Link{{LawID: 30, Article: "5"}},
		},
		{
			name: "two_citations",
			text: "ст. 5 ГК РФ и ст. 10 НК РФ",
			expected: []Link{
				{LawID: 10, Article: "5"},
				{LawID: 20, Article: "10"},
			},
		},
		{
			name:     "point_only",
			text:     "согласно п. 2 ГК РФ",
			expected: []Link{{LawID: 10, PointArticle: "2"}},
		},
		{
			name:     "point_only_shadowed_by_article_ahead",
			text:     "п. 2, а также ст. 5 ГК РФ",
			expected: []Link{{LawID: 10, Article: "5"}},
		},
		{
			name:     "unknown_law",
			text:     "ст. 5 настоящего документа",
			expected: []Link{},
		},
		{
			name:     "glued_label",
			text:     "уст. 5 ГК РФ",
			expected: []Link{},
		},
		{
			name:     "plain_text",
			text:     "Текст без ссылок на законы.",
			expected: []Link{},
		},
		{
			name:     "empty",
			text:     "",
			expected: []Link{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := stripSpans(extractor.Extract(tc.text))
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Expected %+v, got %+v", tc.expected, got)
			}
		})
	}
}

func TestExtractFullBeforePointOnly(t *testing.T) {
	extractor := newTestExtractor(t, WithLookahead(2))

	got := stripSpans(extractor.Extract("п. 3 НК РФ, ст. 5 ГК РФ"))
	expected := []Link{
		{LawID: 10, Article: "5"},
		{LawID: 20, PointArticle: "3"},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %+v, got %+v", expected, got)
	}
}

func TestExtractQuotedTitleBeyondBudget(t *testing.T) {
	extractor := newTestExtractor(t, WithLookahead(2))

	got := stripSpans(extractor.Extract("ст. 5 Закона «о защите прав потребителей»"))
	expected := []Link{{LawID: 30, Article: "5"}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %+v, got %+v", expected, got)
	}
}

func TestExtractQuotedAlias(t *testing.T) {
	idx, err := NewIndex([]AliasEntry{
		{ID: "40", Aliases: []string{"Закон «О защите конкуренции»"}},
	}, WithLemmatizer(stubLemmatizer()))
	if err != nil {
		t.Fatalf("Failed to build index: %v", err)
	}
	extractor := NewExtractor(idx, WithLookahead(2))

	cases := []struct {
		name     string
		text     string
		expected []Link
	}{
		{
			name:     "angle_quotes",
			text:     "ч. 2 ст. 11 Закона «О защите конкуренции»",
			expected: []Link{{LawID: 40, Article: "11", PointArticle: "2"}},
		},
		{
			name:     "ascii_quotes",
			text:     `ст. 11 Закона "О защите конкуренции"`,
			expected: []Link{{LawID: 40, Article: "11"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := stripSpans(extractor.Extract(tc.text))
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Expected %+v, got %+v", tc.expected, got)
			}
		})
	}
}

func TestExtractSpans(t *testing.T) {
	extractor := newTestExtractor(t)
	text := "Согласно п. 1 ст. 5 ГК РФ"

	links := extractor.Extract(text)
	if len(links) != 1 {
		t.Fatalf("Expected 1 link, got %d", len(links))
	}
	raw := text[links[0].TextOffset : links[0].TextOffset+links[0].TextLength]
	if raw != "п. 1 ст. 5" {
		t.Errorf("Expected span %q, got %q", "п. 1 ст. 5", raw)
	}
}

func TestExtractNoOverlappingSpans(t *testing.T) {
	extractor := newTestExtractor(t)
	text := "пп. а, б п. 1 ст. 5 ГК РФ; ч. 2 ст. 7 НК РФ; п. 4 ГК РФ; ст. 8, 9 ГК РФ и п. 6 НК РФ"

	links := extractor.Extract(text)
	if len(links) == 0 {
		t.Fatal("Expected links")
	}

	type spanKey struct{ start, end int }
	spans := make(map[spanKey]bool)
	for _, link := range links {
		spans[spanKey{link.TextOffset, link.TextOffset + link.TextLength}] = true
	}
	for a := range spans {
		for b := range spans {
			if a == b {
				continue
			}
			if a.start < b.end && b.start < a.end {
				t.Errorf("Spans overlap: %v and %v", a, b)
			}
		}
	}
}

func TestExtractDeterministic(t *testing.T) {
	extractor := newTestExtractor(t)
	text := strings.Repeat("пп. а-в п. 1 ст. 5 ГК РФ, п. 2 НК РФ. ", 20)

	first := extractor.Extract(text)
	for i := 0; i < 5; i++ {
		if again := extractor.Extract(text); !reflect.DeepEqual(first, again) {
			t.Fatalf("Run %d differs from the first run", i)
		}
	}
}

func TestExtractWithoutNormalizer(t *testing.T) {
	idx, err := NewIndexFromMap(map[string][]string{"10": {"ГК РФ"}})
	if err != nil {
		t.Fatalf("Failed to build index: %v", err)
	}
	extractor := NewExtractor(idx)

	got := stripSpans(extractor.Extract("ст. 5 ГК РФ"))
	expected := []Link{{LawID: 10, Article: "5"}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %+v, got %+v", expected, got)
	}
}

func TestExtractNilIndex(t *testing.T) {
	links := NewExtractor(nil).Extract("ст. 5 ГК РФ")
	if links == nil || len(links) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", links)
	}
}

func TestLinkJSON(t *testing.T) {
	cases := []struct {
		name     string
		link     Link
		expected string
	}{
		{
			name:     "article_only",
			link:     Link{LawID: 10, Article: "5", TextOffset: 3, TextLength: 5},
			expected: `{"law_id":10,"article":"5","point_article":null,"subpoint_article":null}`,
		},
		{
			name:     "all_levels",
			link:     Link{LawID: 20, Article: "7", PointArticle: "2", SubpointArticle: "а"},
			expected: `{"law_id":20,"article":"7","point_article":"2","subpoint_article":"а"}`,
		},
		{
			name:     "point_only",
			link:     Link{LawID: 30, PointArticle: "1"},
			expected: `{"law_id":30,"article":null,"point_article":"1","subpoint_article":null}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.link)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if string(data) != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, data)
			}

			var decoded Link
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tc.link.TextOffset, tc.link.TextLength = 0, 0
			if decoded != tc.link {
				t.Errorf("Expected %+v, got %+v", tc.link, decoded)
			}
		})
	}
}

func TestCalculateStats(t *testing.T) {
	links := []Link{
		{LawID: 10, Article: "5"},
		{LawID: 10, Article: "5", PointArticle: "1"},
		{LawID: 10, Article: "5", PointArticle: "1", SubpointArticle: "а"},
		{LawID: 20, PointArticle: "2"},
	}

	stats := CalculateStats(links)
	if stats.TotalLinks != 4 {
		t.Errorf("Expected 4 links, got %d", stats.TotalLinks)
	}
	if stats.DistinctLaws != 2 {
		t.Errorf("Expected 2 laws, got %d", stats.DistinctLaws)
	}
	if stats.ByGranularity["article"] != 1 || stats.ByGranularity["point"] != 2 || stats.ByGranularity["subpoint"] != 1 {
		t.Errorf("Unexpected granularity counts: %v", stats.ByGranularity)
	}
	if stats.ByLaw[10] != 3 {
		t.Errorf("Expected 3 links for law 10, got %d", stats.ByLaw[10])
	}
}
