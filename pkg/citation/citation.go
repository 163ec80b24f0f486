// Package citation recognizes references to Russian legal codes in free text.
// It tokenizes and lemmatizes the text, matches article, point/part and
// subpoint label sequences, and resolves the law each citation names against
// an index of law aliases.
package citation

import "encoding/json"

// Granularity classifies a link by the most specific level it cites.
type Granularity string

const (
	GranularityLaw      Granularity = "law"
	GranularityArticle  Granularity = "article"
	GranularityPoint    Granularity = "point"
	GranularitySubpoint Granularity = "subpoint"
)

// Link is one recognized citation of a law. Empty strings mean the level is
// absent from the citation.
type Link struct {
	LawID           int
	Article         string
	PointArticle    string
	SubpointArticle string

	// Position in source text, in bytes.
	TextOffset int
	TextLength int
}

// Granularity returns the most specific level the link cites.
func (l Link) Granularity() Granularity {
	switch {
	case l.SubpointArticle != "":
		return GranularitySubpoint
	case l.PointArticle != "":
		return GranularityPoint
	case l.Article != "":
		return GranularityArticle
	default:
		return GranularityLaw
	}
}

type linkJSON struct {
	LawID           int     `json:"law_id"`
	Article         *string `json:"article"`
	PointArticle    *string `json:"point_article"`
	SubpointArticle *string `json:"subpoint_article"`
}

// MarshalJSON renders absent levels as null. The source span is not part of
// the wire form.
func (l Link) MarshalJSON() ([]byte, error) {
	return json.Marshal(linkJSON{
		LawID:           l.LawID,
		Article:         nullable(l.Article),
		PointArticle:    nullable(l.PointArticle),
		SubpointArticle: nullable(l.SubpointArticle),
	})
}

// UnmarshalJSON reads the wire form produced by MarshalJSON.
func (l *Link) UnmarshalJSON(data []byte) error {
	var raw linkJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = Link{
		LawID:           raw.LawID,
		Article:         deref(raw.Article),
		PointArticle:    deref(raw.PointArticle),
		SubpointArticle: deref(raw.SubpointArticle),
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
