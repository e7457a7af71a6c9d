// Package recommend shapes metadata service records into a stable
// recommendation form and renders the user-facing reply, with a deterministic
// fallback when the language model path fails.
package recommend

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/aniwise/aniwise/pkg/anilist"
)

// TitlePlaceholder is used when a record carries neither an English nor a
// romanized title.
const TitlePlaceholder = "Title Not Available"

// maxGenres bounds how many upstream genres are kept per recommendation.
const maxGenres = 3

// NAInt is an integer that may be unavailable upstream. It marshals to the
// number when present and to the literal "N/A" otherwise, so the side payload
// always has a stable shape.
type NAInt struct {
	Value int
	Valid bool
}

// MarshalJSON implements json.Marshaler.
func (n NAInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return json.Marshal("N/A")
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON implements json.Unmarshaler. The "N/A" sentinel and JSON
// null both decode to the unavailable state, so cached payloads round-trip.
func (n *NAInt) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err == nil {
		n.Value = v
		n.Valid = true
		return nil
	}
	n.Value = 0
	n.Valid = false
	return nil
}

// String renders the value for prompt and fallback text.
func (n NAInt) String() string {
	if !n.Valid {
		return "N/A"
	}
	return strconv.Itoa(n.Value)
}

func naInt(v *int) NAInt {
	if v == nil {
		return NAInt{}
	}
	return NAInt{Value: *v, Valid: true}
}

// Recommendation is the normalized, immutable unit passed to rendering.
type Recommendation struct {
	Title    string `json:"title"`
	Score    NAInt  `json:"score"`
	Genres   string `json:"genres"`
	Episodes NAInt  `json:"episodes"`
	URL      string `json:"url"`
}

// Normalize maps raw media records into Recommendations, preserving upstream
// order. Sorting is the service's job, reflected in the query's sort key.
func Normalize(records []anilist.Media) []Recommendation {
	recommendations := make([]Recommendation, 0, len(records))
	for _, record := range records {
		recommendations = append(recommendations, Recommendation{
			Title:    resolveTitle(record.Title),
			Score:    naInt(record.AverageScore),
			Genres:   joinGenres(record.Genres),
			Episodes: naInt(record.Episodes),
			URL:      record.SiteURL,
		})
	}
	return recommendations
}

// resolveTitle applies the title precedence: English, then romanized, then
// the fixed placeholder. Never empty.
func resolveTitle(title anilist.MediaTitle) string {
	if title.English != nil && strings.TrimSpace(*title.English) != "" {
		return strings.TrimSpace(*title.English)
	}
	if title.Romaji != nil && strings.TrimSpace(*title.Romaji) != "" {
		return strings.TrimSpace(*title.Romaji)
	}
	return TitlePlaceholder
}

func joinGenres(genres []string) string {
	if len(genres) > maxGenres {
		genres = genres[:maxGenres]
	}
	return strings.Join(genres, ", ")
}
