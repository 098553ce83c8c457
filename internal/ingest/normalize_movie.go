package ingest

import (
	"github.com/andresuchdata/tmdb-mirror/internal/tmdb"
)

// NormalizeMovie flattens one upstream movie aggregate into rows per
// destination table. Lists with stable ids yield a dimension row plus an
// association row; duplicates within the record are collapsed. External ids
// always produce exactly one row no matter which fields the upstream
// omitted.
func NormalizeMovie(rec *tmdb.MovieRecord) RowSet {
	rs := RowSet{}

	var collectionID any
	if c := rec.BelongsToCollection; c != nil && c.ID != 0 {
		collectionID = c.ID
		rs.Add("movie_collections",
			c.ID, strVal(c.Name), strVal(c.PosterPath), strVal(c.BackdropPath))
	}

	rs.Add("movie",
		rec.ID,
		strVal(rec.BackdropPath),
		int64Val(rec.Budget),
		strVal(rec.Homepage),
		strVal(rec.IMDbID),
		firstCountry(rec.OriginCountry),
		strVal(rec.OriginalLanguage),
		strVal(rec.OriginalTitle),
		strVal(rec.Overview),
		floatVal(rec.Popularity),
		strVal(rec.PosterPath),
		timeVal(rec.ReleaseDate),
		int64Val(rec.Revenue),
		int64Val(rec.Runtime),
		strVal(rec.Status),
		strVal(rec.Tagline),
		strVal(rec.Title),
		boolVal(rec.Video),
		floatVal(rec.VoteAverage),
		int64Val(rec.VoteCount),
		collectionID,
	)

	seenGenres := map[int64]struct{}{}
	for _, g := range rec.Genres {
		if _, ok := seenGenres[g.ID]; ok {
			continue
		}
		seenGenres[g.ID] = struct{}{}
		rs.Add("movie_genres", g.ID, strVal(g.Name))
		rs.Add("movie_genres_assoc", rec.ID, g.ID)
	}

	seenCompanies := map[int64]struct{}{}
	for _, c := range rec.ProductionCompanies {
		if _, ok := seenCompanies[c.ID]; ok {
			continue
		}
		seenCompanies[c.ID] = struct{}{}
		rs.Add("movie_production_companies",
			c.ID, strVal(c.Name), strVal(c.OriginCountry), strVal(c.LogoPath))
		rs.Add("movie_companies_assoc", rec.ID, c.ID)
	}

	seenCountries := map[string]struct{}{}
	for _, c := range rec.ProductionCountries {
		if _, ok := seenCountries[c.ISO31661]; ok {
			continue
		}
		seenCountries[c.ISO31661] = struct{}{}
		rs.Add("movie_production_countries", c.ISO31661, strVal(c.Name))
		rs.Add("movie_countries_assoc", rec.ID, c.ISO31661)
	}

	seenLanguages := map[string]struct{}{}
	for _, l := range rec.SpokenLanguages {
		if _, ok := seenLanguages[l.ISO6391]; ok {
			continue
		}
		seenLanguages[l.ISO6391] = struct{}{}
		rs.Add("movie_spoken_languages", l.ISO6391, strVal(l.EnglishName), strVal(l.Name))
		rs.Add("movie_languages_assoc", rec.ID, l.ISO6391)
	}

	seenCast := map[int64]struct{}{}
	for _, cm := range rec.Credits.Cast {
		if _, ok := seenCast[cm.ID]; ok {
			continue
		}
		seenCast[cm.ID] = struct{}{}
		rs.Add("movie_cast_members",
			cm.ID, boolVal(cm.Adult), int16Val(cm.Gender), int64Val(cm.CastID),
			strVal(cm.Name), strVal(cm.OriginalName), strVal(cm.KnownForDepartment),
			floatVal(cm.Popularity), strVal(cm.ProfilePath), strVal(cm.Character),
			int16Val(cm.Order))
		rs.Add("movie_cast_assoc", rec.ID, cm.ID)
	}

	seenKeywords := map[int64]struct{}{}
	for _, kw := range rec.Keywords.Keywords {
		if _, ok := seenKeywords[kw.ID]; ok {
			continue
		}
		seenKeywords[kw.ID] = struct{}{}
		rs.Add("movie_keywords", kw.ID, strVal(kw.Name))
		rs.Add("movie_keywords_assoc", rec.ID, kw.ID)
	}

	ext := rec.ExternalIDs
	if ext == nil {
		ext = &tmdb.ExternalIDs{}
	}
	rs.Add("movie_external_ids",
		rec.ID, strVal(ext.IMDbID), strVal(ext.WikidataID),
		strVal(ext.FacebookID), strVal(ext.InstagramID), strVal(ext.TwitterID))

	for _, at := range rec.AlternativeTitles.All() {
		rs.Add("movie_alternative_titles",
			strVal(at.ISO31661), strVal(at.Title), strVal(at.Type), rec.ID)
	}

	for _, group := range rec.ReleaseDates.Results {
		for _, rel := range group.Releases {
			rs.Add("movie_release_dates",
				strVal(group.ISO31661), emptyToNull(rel.Certification),
				timeVal(rel.ReleaseDate), int64Val(rel.Type), strVal(rel.Note), rec.ID)
		}
	}

	seenVideos := map[string]struct{}{}
	for _, v := range rec.Videos.Results {
		if _, ok := seenVideos[v.ID]; ok {
			continue
		}
		seenVideos[v.ID] = struct{}{}
		rs.Add("movie_videos",
			v.ID, strVal(v.ISO6391), strVal(v.ISO31661), strVal(v.Name),
			strVal(v.Key), strVal(v.Site), int64Val(v.Size), strVal(v.Type),
			boolVal(v.Official), timeVal(v.PublishedAt), rec.ID)
	}

	return rs
}
