package citation

// Extractor assembles links from grammar matches and law-name resolution.
// It is safe for concurrent use as long as the index is not replaced.
type Extractor struct {
	index     *Index
	grammar   *Grammar
	lem       *Lemmatizer
	lookahead int
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLookahead sets the non-punctuation token budget of the law-name window.
func WithLookahead(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.lookahead = n
		}
	}
}

// WithExtractorLemmatizer overrides the lemmatizer used for text windows.
func WithExtractorLemmatizer(lem *Lemmatizer) ExtractorOption {
	return func(e *Extractor) { e.lem = lem }
}

// NewExtractor creates an extractor over idx.
func NewExtractor(idx *Index, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		index:     idx,
		grammar:   NewGrammar(),
		lookahead: DefaultLookahead,
	}
	if idx != nil {
		e.lem = idx.Lemmatizer()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// span is a claimed byte range of the source text.
type span struct {
	start, end int
}

// Extract returns the links cited in text. Full citations come first in text
// order, followed by point/part-only citations in text order. Links never
// originate from overlapping text spans.
func (e *Extractor) Extract(text string) []Link {
	links := []Link{}
	if e.index == nil || text == "" {
		return links
	}

	var used []span

	for _, m := range e.grammar.FullMatches(text) {
		if isOverlapping(m.Start, m.End, used) {
			continue
		}
		lawID, ok := e.lawAfter(text, m.End)
		if !ok {
			continue
		}

		subList := NormalizeList(m.SubpointList)
		ptList := NormalizeList(m.PointList)
		artList := NormalizeList(m.ArticleList)

		base := Link{
			LawID:        lawID,
			Article:      artList,
			PointArticle: ptList,
			TextOffset:   m.Start,
			TextLength:   m.End - m.Start,
		}
		if subList != "" && ptList != "" {
			for _, sub := range ExpandList(subList) {
				link := base
				link.SubpointArticle = sub
				links = append(links, link)
			}
		} else {
			links = append(links, base)
		}
		used = append(used, span{m.Start, m.End})
	}

	for _, m := range e.grammar.PointMatches(text) {
		if isOverlapping(m.Start, m.End, used) {
			continue
		}
		if ArticleLabelAhead(text[m.End:], e.lookahead, e.lem) {
			continue
		}
		lawID, ok := e.lawAfter(text, m.End)
		if !ok {
			continue
		}
		links = append(links, Link{
			LawID:        lawID,
			PointArticle: NormalizeList(m.PointList),
			TextOffset:   m.Start,
			TextLength:   m.End - m.Start,
		})
		used = append(used, span{m.Start, m.End})
	}

	return links
}

// lawAfter resolves the law named in the window that follows offset.
func (e *Extractor) lawAfter(text string, offset int) (int, bool) {
	window := LookaheadWindow(text[offset:], e.lookahead, e.lem)
	if len(window) == 0 {
		return 0, false
	}
	return e.index.BestMatch(window)
}

// isOverlapping checks if a range overlaps with any claimed span.
func isOverlapping(start, end int, used []span) bool {
	for _, s := range used {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}
