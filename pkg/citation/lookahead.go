package citation

// DefaultLookahead is the default number of non-punctuation tokens scanned
// after a citation label when searching for the law name.
const DefaultLookahead = 12

// maxWindowTokens caps a lookahead window regardless of quoting, so that an
// unclosed quote cannot make the scan run to the end of a long document.
const maxWindowTokens = 800

// docAnchors are lemmas of document-type words that usually precede a quoted
// official title.
var docAnchors = map[string]bool{
	"закон":         true,
	"кодекс":        true,
	"указ":          true,
	"постановление": true,
	"положение":     true,
	"правило":       true,
	"правила":       true,
}

// quoteState tracks which kinds of quotation the scan is currently inside.
type quoteState struct {
	ascii, angle, smart bool
}

func (q *quoteState) inside() bool {
	return q.ascii || q.angle || q.smart
}

func (q *quoteState) update(glyph string) {
	switch glyph {
	case `"`:
		q.ascii = !q.ascii
	case "«":
		q.angle = true
	case "»":
		q.angle = false
	case "„":
		q.smart = true
	case "”", "‟":
		q.smart = false
	case "“":
		// Closes „…“ and opens “…”.
		q.smart = !q.smart
	}
}

// LookaheadWindow returns the tokens of text that are searched for a law
// name. The window ends once budget non-punctuation tokens were read, unless
// an anchor word was seen and the scan is inside quotes; then it extends to
// the closing quote.
func LookaheadWindow(text string, budget int, lem *Lemmatizer) []Token {
	if budget <= 0 {
		budget = DefaultLookahead
	}

	window := make([]Token, 0, budget+4)
	scanner := NewScanner(text, lem)
	words := 0
	anchorBeforeQuotes := false
	var quotes quoteState

	for {
		tok, ok := scanner.Next()
		if !ok {
			break
		}
		window = append(window, tok)

		if !tok.Punct {
			words++
			if docAnchors[tok.Lemma] || abbrLemmas[tok.Lemma] {
				anchorBeforeQuotes = true
			}
		}
		quotes.update(tok.Text)

		if words >= budget && !(anchorBeforeQuotes && quotes.inside()) {
			break
		}
		if len(window) > maxWindowTokens {
			break
		}
	}
	return window
}

// ArticleLabelAhead reports whether an article label occurs within the first
// budget non-punctuation tokens of text.
func ArticleLabelAhead(text string, budget int, lem *Lemmatizer) bool {
	if budget <= 0 {
		budget = DefaultLookahead
	}

	scanner := NewScanner(text, lem)
	words := 0
	for {
		tok, ok := scanner.Next()
		if !ok {
			return false
		}
		if tok.Punct {
			continue
		}
		words++
		if isArticleLabel(tok) {
			return true
		}
		if words >= budget {
			return false
		}
	}
}

func isArticleLabel(tok Token) bool {
	if tok.Lemma == "статья" || tok.Lemma == "ст" {
		return true
	}
	return articleWordPattern.MatchString(tok.Text)
}
