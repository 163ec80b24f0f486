package morph

import (
	"os"
	"sync"
	"testing"

	"github.com/steosofficial/steosmorphy/analyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/lawlinks/pkg/citation"
)

var (
	loadOnce   sync.Once
	shared     *Analyzer
	sharedLoad error
)

// testAnalyzer loads the dictionary once per test binary. Tests are skipped
// when no dictionary is installed.
func testAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	loadOnce.Do(func() {
		shared, sharedLoad = Load("")
	})
	if sharedLoad != nil {
		t.Skipf("morphological dictionary unavailable: %v", sharedLoad)
	}
	return shared
}

func TestNormalize(t *testing.T) {
	a := testAnalyzer(t)

	cases := []struct {
		word     string
		expected string
	}{
		{"кодекса", "кодекс"},
		{"Гражданского", "гражданский"},
		{"статьи", "статья"},
		{"законом", "закон"},
	}

	for _, tc := range cases {
		t.Run(tc.word, func(t *testing.T) {
			lemma, err := a.Normalize(tc.word)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, lemma)
		})
	}
}

func TestAnalyzerAsNormalizer(t *testing.T) {
	a := testAnalyzer(t)

	lem := citation.NewLemmatizer(a)
	idx, err := citation.NewIndex([]citation.AliasEntry{
		{ID: "10", Aliases: []string{"Гражданский кодекс"}},
	}, citation.WithLemmatizer(lem))
	require.NoError(t, err)

	links := citation.NewExtractor(idx).Extract("ст. 5 Гражданского кодекса")
	require.Len(t, links, 1)
	assert.Equal(t, 10, links[0].LawID)
	assert.Equal(t, "5", links[0].Article)
}

func TestLoadMissingDictionary(t *testing.T) {
	previous, had := os.LookupEnv(analyzer.EnvDictPath)

	_, err := Load(t.TempDir() + "/missing.dawg")
	assert.Error(t, err)

	// The custom path must not leak into the environment.
	current, has := os.LookupEnv(analyzer.EnvDictPath)
	assert.Equal(t, had, has)
	assert.Equal(t, previous, current)
}
