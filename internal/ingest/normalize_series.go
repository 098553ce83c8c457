package ingest

import (
	"github.com/andresuchdata/tmdb-mirror/internal/tmdb"
)

// NormalizeSeries flattens one upstream series aggregate into rows per
// destination table, mirroring NormalizeMovie for the series family.
func NormalizeSeries(rec *tmdb.SeriesRecord) RowSet {
	rs := RowSet{}

	var lastEpisodeID, nextEpisodeID any
	if ep := rec.LastEpisodeToAir; ep != nil {
		lastEpisodeID = ep.ID
		rs.Add("series_last_episode_to_air", episodeRow(ep)...)
	}
	if ep := rec.NextEpisodeToAir; ep != nil {
		nextEpisodeID = ep.ID
		rs.Add("series_next_episode_to_air", episodeRow(ep)...)
	}

	rs.Add("series",
		rec.ID,
		strVal(rec.BackdropPath),
		timeVal(rec.FirstAirDate),
		strVal(rec.Homepage),
		strVal(rec.IMDbID),
		boolVal(rec.InProduction),
		timeVal(rec.LastAirDate),
		strVal(rec.Name),
		int64Val(rec.NumberOfEpisodes),
		int64Val(rec.NumberOfSeasons),
		firstCountry(rec.OriginCountry),
		strVal(rec.OriginalLanguage),
		strVal(rec.OriginalName),
		strVal(rec.Overview),
		floatVal(rec.Popularity),
		strVal(rec.PosterPath),
		strVal(rec.Status),
		strVal(rec.Tagline),
		strVal(rec.Type),
		floatVal(rec.VoteAverage),
		int64Val(rec.VoteCount),
		lastEpisodeID,
		nextEpisodeID,
	)

	seenCreators := map[int64]struct{}{}
	for _, cb := range rec.CreatedBy {
		if _, ok := seenCreators[cb.ID]; ok {
			continue
		}
		seenCreators[cb.ID] = struct{}{}
		rs.Add("series_created_by",
			cb.ID, strVal(cb.CreditID), strVal(cb.Name), strVal(cb.OriginalName),
			int16Val(cb.Gender), strVal(cb.ProfilePath))
		rs.Add("series_created_by_assoc", rec.ID, cb.ID)
	}

	seenGenres := map[int64]struct{}{}
	for _, g := range rec.Genres {
		if _, ok := seenGenres[g.ID]; ok {
			continue
		}
		seenGenres[g.ID] = struct{}{}
		rs.Add("series_genres", g.ID, strVal(g.Name))
		rs.Add("series_genres_assoc", rec.ID, g.ID)
	}

	seenNetworks := map[int64]struct{}{}
	for _, n := range rec.Networks {
		if _, ok := seenNetworks[n.ID]; ok {
			continue
		}
		seenNetworks[n.ID] = struct{}{}
		rs.Add("series_networks",
			n.ID, strVal(n.LogoPath), strVal(n.Name), strVal(n.OriginCountry))
		rs.Add("series_networks_assoc", rec.ID, n.ID)
	}

	seenCompanies := map[int64]struct{}{}
	for _, c := range rec.ProductionCompanies {
		if _, ok := seenCompanies[c.ID]; ok {
			continue
		}
		seenCompanies[c.ID] = struct{}{}
		rs.Add("series_production_companies",
			c.ID, strVal(c.Name), strVal(c.OriginCountry), strVal(c.LogoPath))
		rs.Add("series_companies_assoc", rec.ID, c.ID)
	}

	seenCountries := map[string]struct{}{}
	for _, c := range rec.ProductionCountries {
		if _, ok := seenCountries[c.ISO31661]; ok {
			continue
		}
		seenCountries[c.ISO31661] = struct{}{}
		rs.Add("series_production_countries", c.ISO31661, strVal(c.Name))
		rs.Add("series_countries_assoc", rec.ID, c.ISO31661)
	}

	seenLanguages := map[string]struct{}{}
	for _, l := range rec.SpokenLanguages {
		if _, ok := seenLanguages[l.ISO6391]; ok {
			continue
		}
		seenLanguages[l.ISO6391] = struct{}{}
		rs.Add("series_spoken_languages", l.ISO6391, strVal(l.EnglishName), strVal(l.Name))
		rs.Add("series_languages_assoc", rec.ID, l.ISO6391)
	}

	seenCast := map[int64]struct{}{}
	for _, cm := range rec.Credits.Cast {
		if _, ok := seenCast[cm.ID]; ok {
			continue
		}
		seenCast[cm.ID] = struct{}{}
		rs.Add("series_cast_members",
			cm.ID, boolVal(cm.Adult), int16Val(cm.Gender), int64Val(cm.CastID),
			strVal(cm.Name), strVal(cm.OriginalName), strVal(cm.KnownForDepartment),
			floatVal(cm.Popularity), strVal(cm.ProfilePath), strVal(cm.Character),
			int16Val(cm.Order))
		rs.Add("series_cast_assoc", rec.ID, cm.ID)
	}

	seenKeywords := map[int64]struct{}{}
	for _, kw := range rec.Keywords.Results {
		if _, ok := seenKeywords[kw.ID]; ok {
			continue
		}
		seenKeywords[kw.ID] = struct{}{}
		rs.Add("series_keywords", kw.ID, strVal(kw.Name))
		rs.Add("series_keywords_assoc", rec.ID, kw.ID)
	}

	ext := rec.ExternalIDs
	if ext == nil {
		ext = &tmdb.ExternalIDs{}
	}
	rs.Add("series_external_ids",
		rec.ID, strVal(ext.IMDbID), strVal(ext.WikidataID),
		strVal(ext.FacebookID), strVal(ext.InstagramID), strVal(ext.TwitterID))

	for _, at := range rec.AlternativeTitles.All() {
		rs.Add("series_alternative_titles",
			strVal(at.ISO31661), strVal(at.Title), strVal(at.Type), rec.ID)
	}

	seenSeasons := map[int64]struct{}{}
	for _, s := range rec.Seasons {
		if _, ok := seenSeasons[s.ID]; ok {
			continue
		}
		seenSeasons[s.ID] = struct{}{}
		rs.Add("series_seasons",
			s.ID, timeVal(s.AirDate), int64Val(s.EpisodeCount), strVal(s.Name),
			strVal(s.Overview), strVal(s.PosterPath), int64Val(s.SeasonNumber),
			floatVal(s.VoteAverage), rec.ID)
	}

	seenVideos := map[string]struct{}{}
	for _, v := range rec.Videos.Results {
		if _, ok := seenVideos[v.ID]; ok {
			continue
		}
		seenVideos[v.ID] = struct{}{}
		rs.Add("series_videos",
			v.ID, strVal(v.ISO6391), strVal(v.ISO31661), strVal(v.Name),
			strVal(v.Key), strVal(v.Site), int64Val(v.Size), strVal(v.Type),
			boolVal(v.Official), timeVal(v.PublishedAt), rec.ID)
	}

	return rs
}

func episodeRow(ep *tmdb.Episode) []any {
	return []any{
		ep.ID, strVal(ep.Name), strVal(ep.Overview), floatVal(ep.VoteAverage),
		int64Val(ep.VoteCount), timeVal(ep.AirDate), int64Val(ep.EpisodeNumber),
		strVal(ep.EpisodeType), strVal(ep.ProductionCode), int64Val(ep.Runtime),
		int64Val(ep.SeasonNumber), int64Val(ep.ShowID), strVal(ep.StillPath),
	}
}
