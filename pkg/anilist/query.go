package anilist

import (
	"github.com/aniwise/aniwise/pkg/extractor"
)

// Sort keys accepted by the metadata service.
const (
	SortPopularityDesc = "POPULARITY_DESC"
	SortScoreDesc      = "SCORE_DESC"
)

// mediaQuery is the GraphQL document for anime search. Variables left nil are
// omitted from the variable map, which the service treats as "no filter".
const mediaQuery = `query ($search: String, $genreIn: [String], $episodesGreater: Int, $perPage: Int, $sort: [MediaSort]) {
  Page(page: 1, perPage: $perPage) {
    media(type: ANIME, search: $search, genre_in: $genreIn, episodes_greater: $episodesGreater, sort: $sort) {
      title {
        english
        romaji
      }
      genres
      averageScore
      episodes
      popularity
      siteUrl
      recommendations(perPage: 3) {
        nodes {
          mediaRecommendation {
            title {
              romaji
            }
          }
        }
      }
    }
  }
}`

// BuildQuery deterministically maps extracted parameters onto the service's
// query shape. Pure: identical input always yields an identical Query.
//
// Sort policy: popularity-descending when the user wants a binge or gave no
// similarity anchor (trending fallback), otherwise score-descending so the
// anchor search surfaces the best-rated matches.
func BuildQuery(params extractor.QueryParameters) Query {
	perPage := params.RequestCount
	if perPage < 1 {
		perPage = 1
	}
	if perPage > 10 {
		perPage = 10
	}

	variables := map[string]interface{}{
		"perPage": perPage,
	}

	if len(params.Genres) > 0 {
		variables["genreIn"] = params.Genres
	}
	if params.SimilarTo != "" {
		variables["search"] = params.SimilarTo
	}
	if params.MinEpisodes > 0 {
		// episodes_greater is exclusive upstream.
		variables["episodesGreater"] = params.MinEpisodes - 1
	}

	sort := SortScoreDesc
	if params.Binge || params.SimilarTo == "" {
		sort = SortPopularityDesc
	}
	variables["sort"] = []string{sort}

	return Query{
		Query:     mediaQuery,
		Variables: variables,
	}
}
