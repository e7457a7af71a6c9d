// Package anilist talks to an AniList-compatible GraphQL metadata service.
// The query builder is pure; all I/O lives in Client.
package anilist

import "errors"

// ErrService is returned on non-2xx responses or malformed bodies from the
// metadata service.
var ErrService = errors.New("anime metadata service request failed")

// Query is the opaque request payload sent to the metadata service: a GraphQL
// document plus its variable map. Built deterministically, no hidden state.
type Query struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// MediaTitle holds the title variants of a media record. Any variant may be
// missing upstream.
type MediaTitle struct {
	English *string `json:"english"`
	Romaji  *string `json:"romaji"`
}

// Media is the metadata service's representation of one anime.
type Media struct {
	Title           MediaTitle       `json:"title"`
	Genres          []string         `json:"genres"`
	AverageScore    *int             `json:"averageScore"`
	Episodes        *int             `json:"episodes"`
	Popularity      *int             `json:"popularity"`
	SiteURL         string           `json:"siteUrl"`
	Recommendations *Recommendations `json:"recommendations"`
}

// Recommendations is the nested recommendation linkage AniList attaches to a
// media record.
type Recommendations struct {
	Nodes []RecommendationNode `json:"nodes"`
}

// RecommendationNode links to a recommended media record.
type RecommendationNode struct {
	MediaRecommendation *struct {
		Title MediaTitle `json:"title"`
	} `json:"mediaRecommendation"`
}

// page mirrors the GraphQL response envelope.
type pageResponse struct {
	Data *struct {
		Page struct {
			Media []Media `json:"media"`
		} `json:"Page"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}
