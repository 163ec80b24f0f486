// Package morph provides the Russian morphological normalizer used for
// lemmatizing citation text. It wraps the SteosMorphy dictionary analyzer.
package morph

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/steosofficial/steosmorphy/analyzer"
)

// ErrNoParse is returned when the analyzer has neither a dictionary parse
// nor a prediction for a word.
var ErrNoParse = errors.New("no morphological parse")

// envMu serializes loads that temporarily point the analyzer at a custom
// dictionary path through its environment variable.
var envMu sync.Mutex

// Analyzer normalizes words to their dictionary form. The underlying
// dictionary is memory-mapped and read-only, so an Analyzer may be shared.
type Analyzer struct {
	morph *analyzer.MorphAnalyzer
}

// Load opens the morphological dictionary. An empty dictPath uses the
// analyzer's own lookup (STEOSMORPHY_DICT_PATH, then the packaged dictionary).
func Load(dictPath string) (*Analyzer, error) {
	envMu.Lock()
	defer envMu.Unlock()

	if dictPath != "" {
		previous, had := os.LookupEnv(analyzer.EnvDictPath)
		if err := os.Setenv(analyzer.EnvDictPath, dictPath); err != nil {
			return nil, fmt.Errorf("failed to set dictionary path: %w", err)
		}
		defer func() {
			if had {
				_ = os.Setenv(analyzer.EnvDictPath, previous)
			} else {
				_ = os.Unsetenv(analyzer.EnvDictPath)
			}
		}()
	}

	m, err := analyzer.LoadMorphAnalyzer()
	if err != nil {
		return nil, fmt.Errorf("failed to load morphological dictionary: %w", err)
	}
	return &Analyzer{morph: m}, nil
}

// Normalize returns the lemma of the first dictionary parse of word, or of
// the first predicted parse when the word is not in the dictionary.
func (a *Analyzer) Normalize(word string) (string, error) {
	parses := a.morph.Parse(word)
	if len(parses) == 0 {
		parses = a.morph.ParsePredicted(word)
	}
	for _, p := range parses {
		if p != nil && p.Lemma != "" {
			return p.Lemma, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNoParse, word)
}
