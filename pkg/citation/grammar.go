package citation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Grammar building blocks. ws also accepts Unicode space separators since
// legal texts routinely put a non-breaking space between label and number.
const (
	ws          = `[\s\p{Zs}]`
	dash        = `[-–—]`
	numItem     = `\d+(?:\.\d+)*(?:` + ws + `*` + dash + ws + `*\d+(?:\.\d+)*)?`
	letterItem  = `(?-i:[а-яё](?:` + ws + `*` + dash + ws + `*[а-яё])?)`
	listItem    = `(?:` + numItem + `|` + letterItem + `)`
	listExpr    = listItem + `(?:` + ws + `*,` + ws + `*` + listItem + `)*(?:` + ws + `*(?:или|и)` + ws + `*` + listItem + `)?`
	articleList = numItem + `(?:` + ws + `*,` + ws + `*` + numItem + `)*(?:` + ws + `*(?:или|и)` + ws + `*` + numItem + `)?`

	subLabel     = `(?:подпункт[а-яё]*|пп\.?)`
	pointLabel   = `(?:пункт[а-яё]*|п\.|част[ьи][а-яё]*|ч\.)`
	articleLabel = `(?:стать[а-яё]*|статей|ст\.?)`
	pointArtSep  = `(?:` + ws + `*[,;]?` + ws + `*(?:во|в)?` + ws + `*)?`
)

var (
	fullPattern = regexp.MustCompile(`(?i)` +
		`(?:(?P<sub_label>` + subLabel + `)` + ws + `*(?P<sub_list>` + listExpr + `)` + ws + `*)?` +
		`(?:(?P<pt_label>` + pointLabel + `)` + ws + `*(?P<pt_list>` + listExpr + `)` + ws + `*` + pointArtSep + `)?` +
		`(?P<art_label>` + articleLabel + `)` + ws + `*(?P<art_list>` + articleList + `)`)

	pointPattern = regexp.MustCompile(`(?i)` +
		`(?P<pt_label>` + pointLabel + `)` + ws + `*(?P<pt_list>` + listExpr + `)`)

	articleWordPattern = regexp.MustCompile(`(?i)^(?:стать[а-яё]*|статей|ст)$`)

	// gluedLetterTail matches a trailing letter item of a list, with its
	// connector, when that letter is really the first letter of a word.
	gluedLetterTail = regexp.MustCompile(`(?:` + ws + `*(?:,|или|и)` + ws + `*)?` + letterItem + `$`)

	hyphenSpacePattern = regexp.MustCompile(ws + `*-` + ws + `*`)
	spaceRunPattern    = regexp.MustCompile(ws + `+`)
)

// Match is one citation label sequence found in the source text. Start and
// End are byte offsets. List fields hold the raw list text, empty when the
// corresponding label is absent.
type Match struct {
	Start        int
	End          int
	SubpointList string
	PointList    string
	ArticleList  string
}

// Grammar finds citation label sequences in text. It holds only compiled
// patterns and is safe for concurrent use.
type Grammar struct {
	full  *regexp.Regexp
	point *regexp.Regexp

	subList, ptList, artList int
	ptOnlyList               int
}

// NewGrammar creates a grammar with the full and point-only pattern families.
func NewGrammar() *Grammar {
	return &Grammar{
		full:       fullPattern,
		point:      pointPattern,
		subList:    fullPattern.SubexpIndex("sub_list"),
		ptList:     fullPattern.SubexpIndex("pt_list"),
		artList:    fullPattern.SubexpIndex("art_list"),
		ptOnlyList: pointPattern.SubexpIndex("pt_list"),
	}
}

// FullMatches returns the [subpoint] [point/part] article sequences of text
// in text order. Matches do not overlap.
func (g *Grammar) FullMatches(text string) []Match {
	var matches []Match
	for _, loc := range findLabelled(g.full, text) {
		matches = append(matches, Match{
			Start:        loc[0],
			End:          loc[1],
			SubpointList: group(text, loc, g.subList),
			PointList:    group(text, loc, g.ptList),
			ArticleList:  group(text, loc, g.artList),
		})
	}
	return matches
}

// PointMatches returns the point/part label sequences of text in text order.
func (g *Grammar) PointMatches(text string) []Match {
	var matches []Match
	for _, loc := range findLabelled(g.point, text) {
		listStart, end := loc[2*g.ptOnlyList], loc[1]
		end = trimGluedLetter(text, listStart, end)
		if end <= listStart {
			continue
		}
		matches = append(matches, Match{
			Start:     loc[0],
			End:       end,
			PointList: text[listStart:end],
		})
	}
	return matches
}

// trimGluedLetter drops a trailing single-letter list item that is followed
// directly by another letter, e.g. the "д" of "и далее". It returns the new end
// of the list; a value not greater than listStart means nothing is left.
func trimGluedLetter(text string, listStart, end int) int {
	if end >= len(text) {
		return end
	}
	next, _ := utf8.DecodeRuneInString(text[end:])
	if !unicode.IsLetter(next) {
		return end
	}
	tail := gluedLetterTail.FindStringIndex(text[listStart:end])
	if tail == nil {
		return end
	}
	return listStart + tail[0]
}

// findLabelled returns the non-overlapping matches of re whose first rune is
// not glued to a preceding letter. A rejected match is retried one rune
// further so that a label inside it is still found.
func findLabelled(re *regexp.Regexp, text string) [][]int {
	var found [][]int
	pos := 0
	for pos < len(text) {
		loc := re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}

		start, end := loc[0], loc[1]
		if start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:start])
			if unicode.IsLetter(prev) {
				_, size := utf8.DecodeRuneInString(text[start:])
				pos = start + size
				continue
			}
		}

		found = append(found, loc)
		if end > pos {
			pos = end
		} else {
			pos++
		}
	}
	return found
}

func group(text string, loc []int, index int) string {
	if index < 0 || 2*index+1 >= len(loc) || loc[2*index] < 0 {
		return ""
	}
	return text[loc[2*index]:loc[2*index+1]]
}

// NormalizeList folds dash variants to an ASCII hyphen, removes spaces around
// hyphens, collapses other whitespace and trims the result.
func NormalizeList(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = dashReplacer.Replace(s)
	s = hyphenSpacePattern.ReplaceAllString(s, "-")
	s = spaceRunPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
