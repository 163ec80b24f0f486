package citation

import (
	"fmt"
	"regexp"
	"strings"
)

// Normalizer maps a Cyrillic word to its dictionary form. Implementations
// wrap a morphological analyzer and may fail for individual words.
type Normalizer interface {
	Normalize(word string) (string, error)
}

// NormalizerFunc adapts a plain function to the Normalizer interface.
type NormalizerFunc func(word string) (string, error)

// Normalize calls f(word).
func (f NormalizerFunc) Normalize(word string) (string, error) {
	return f(word)
}

var (
	numberPattern   = regexp.MustCompile(`^\d+(?:\.\d+)*(?:[-–—]\d+(?:\.\d+)*)?$`)
	latinPattern    = regexp.MustCompile(`^[A-Za-z]+$`)
	upperCyrPattern = regexp.MustCompile(`^[А-ЯЁ]{2,}$`)
	cyrWordPattern  = regexp.MustCompile(`^[А-Яа-яЁё]+$`)
)

var dashReplacer = strings.NewReplacer("–", "-", "—", "-")

// Lemmatizer normalizes tokens to lemmas. Cyrillic words go through the
// injected Normalizer; everything else is handled by fixed rules. A nil
// *Lemmatizer is usable and applies the fallback normalization only.
type Lemmatizer struct {
	normalizer Normalizer
}

// NewLemmatizer creates a lemmatizer backed by n. n may be nil.
func NewLemmatizer(n Normalizer) *Lemmatizer {
	return &Lemmatizer{normalizer: n}
}

// Lemma returns the normalized form of a single token text.
func (l *Lemmatizer) Lemma(text string) string {
	switch {
	case text == "№":
		return l.lemmaOf(text, classMarker)
	case numberPattern.MatchString(text):
		return l.lemmaOf(text, classNumber)
	case isPunct(text):
		return l.lemmaOf(text, classPunct)
	case latinPattern.MatchString(text):
		return l.lemmaOf(text, classLatin)
	case upperCyrPattern.MatchString(text):
		return l.lemmaOf(text, classUpperCyr)
	case cyrWordPattern.MatchString(text):
		return l.lemmaOf(text, classLowerCyr)
	default:
		return foldCase(text)
	}
}

// lemmaOf applies the lemma rule for a token of the given class.
func (l *Lemmatizer) lemmaOf(text string, class int) string {
	switch class {
	case classMarker, classPunct:
		return text
	case classNumber:
		return dashReplacer.Replace(text)
	case classLatin:
		return strings.ToLower(text)
	case classUpperCyr:
		return foldCase(text)
	case classCapitalCyr, classLowerCyr:
		return l.normalize(text)
	default:
		return foldCase(text)
	}
}

// normalize delegates to the morphological capability and falls back to case
// folding on any failure, including a panic inside the delegate.
func (l *Lemmatizer) normalize(word string) string {
	if l == nil || l.normalizer == nil {
		return foldCase(word)
	}
	lemma, err := l.safeNormalize(word)
	if err != nil || lemma == "" {
		return foldCase(word)
	}
	return foldCase(lemma)
}

func (l *Lemmatizer) safeNormalize(word string) (lemma string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("normalizer panic on %q: %v", word, r)
		}
	}()
	return l.normalizer.Normalize(word)
}

// foldCase lower-cases s and folds ё to е.
func foldCase(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "ё", "е")
}
