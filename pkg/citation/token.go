package citation

import (
	"regexp"
	"strings"
)

// punctGlyphs is the fixed set of single-character punctuation and quote tokens.
const punctGlyphs = `.,;:!?()[]{}"«»“”„‟‹›—–-`

// tokenPattern recognizes token classes in precedence order. Numeric comes
// before the word classes so that mixed alphanumerics split predictably.
var tokenPattern = regexp.MustCompile(
	`(№)` +
		`|(\d+(?:\.\d+)*(?:[-–—]\d+(?:\.\d+)*)?)` +
		`|([A-Za-z]+)` +
		`|([А-ЯЁ]{2,})` +
		`|([А-ЯЁ][а-яё]+)` +
		`|([а-яё]+)` +
		`|([.,;:!?()\[\]{}"«»“”„‟‹›—–\-])`,
)

// Token class indices into the submatch groups of tokenPattern.
const (
	classMarker = iota + 1
	classNumber
	classLatin
	classUpperCyr
	classCapitalCyr
	classLowerCyr
	classPunct
)

// Token is a single lexical unit of the source text.
type Token struct {
	Text  string `json:"text"`
	Lemma string `json:"lemma"`
	Punct bool   `json:"punct"`
}

// Scanner yields tokens lazily, lemmatizing each one only when it is reached.
type Scanner struct {
	text string
	pos  int
	lem  *Lemmatizer
}

// NewScanner creates a scanner over text. A nil lemmatizer uses the fallback
// normalization only.
func NewScanner(text string, lem *Lemmatizer) *Scanner {
	return &Scanner{text: text, lem: lem}
}

// Next returns the next token and false once the text is exhausted.
func (s *Scanner) Next() (Token, bool) {
	if s.pos >= len(s.text) {
		return Token{}, false
	}
	loc := tokenPattern.FindStringSubmatchIndex(s.text[s.pos:])
	if loc == nil {
		s.pos = len(s.text)
		return Token{}, false
	}

	text := s.text[s.pos+loc[0] : s.pos+loc[1]]
	s.pos += loc[1]

	class := 0
	for group := classMarker; group <= classPunct; group++ {
		if loc[2*group] >= 0 {
			class = group
			break
		}
	}

	return Token{
		Text:  text,
		Lemma: s.lem.lemmaOf(text, class),
		Punct: class == classPunct,
	}, true
}

// Tokenize splits text into tokens in document order.
func Tokenize(text string, lem *Lemmatizer) []Token {
	tokens := make([]Token, 0, len(text)/4)
	scanner := NewScanner(text, lem)
	for {
		tok, ok := scanner.Next()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

// isPunct reports whether s is a single glyph from the punctuation set.
func isPunct(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)
	return len(r) == 1 && strings.ContainsRune(punctGlyphs, r[0])
}

// joinLemmas joins the lemmas of the non-punctuation tokens in tokens[i:j].
// When skip is non-nil, lemmas it contains are dropped as well. The second
// result is the number of lemmas joined.
func joinLemmas(tokens []Token, i, j int, skip map[string]bool) (string, int) {
	var b strings.Builder
	count := 0
	for _, tok := range tokens[i:j] {
		if tok.Punct || skip[tok.Lemma] {
			continue
		}
		if count > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Lemma)
		count++
	}
	return b.String(), count
}
