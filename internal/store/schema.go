package store

import (
	"fmt"
	"strings"
)

// Column describes one column of a mirror table.
type Column struct {
	Name    string
	Type    string
	NotNull bool
}

// Table is an explicit descriptor for one mirror table: name, columns,
// primary key and the tables whose rows must be flushed before this one
// within a staging build.
type Table struct {
	Name      string
	Columns   []Column
	PK        []string
	Serial    bool     // surrogate bigserial id instead of a natural PK
	Dimension bool     // shared lookup table; inserts use ON CONFLICT DO NOTHING
	Upsert    bool     // owned row keyed by an upstream id; inserts use ON CONFLICT DO UPDATE
	DependsOn []string // flush ordering within a build
}

// ColumnNames returns the insertable column names (the surrogate serial id,
// when present, is assigned by the database).
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if t.Serial && c.Name == "id" {
			continue
		}
		names = append(names, c.Name)
	}
	return names
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

// CreateDDL renders CREATE TABLE IF NOT EXISTS for the table under the given
// name (live or staging_ prefixed). Identifiers are quoted: "character" and
// "type" appear as column names.
func (t Table) CreateDDL(tableName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", quoteIdent(tableName))
	for i, c := range t.Columns {
		typ := c.Type
		if t.Serial && c.Name == "id" {
			typ = "BIGSERIAL"
		}
		fmt.Fprintf(&b, "    %s %s", quoteIdent(c.Name), typ)
		if c.NotNull {
			b.WriteString(" NOT NULL")
		}
		if i < len(t.Columns)-1 || len(t.PK) > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	if len(t.PK) > 0 {
		quoted := make([]string, len(t.PK))
		for i, c := range t.PK {
			quoted[i] = quoteIdent(c)
		}
		fmt.Fprintf(&b, "    PRIMARY KEY (%s)\n", strings.Join(quoted, ", "))
	}
	b.WriteString(")")
	return b.String()
}

const (
	bigint    = "BIGINT"
	smallint  = "SMALLINT"
	integer   = "INTEGER"
	double    = "DOUBLE PRECISION"
	boolean   = "BOOLEAN"
	text      = "TEXT"
	timestamp = "TIMESTAMP"
)

func varchar(n int) string { return fmt.Sprintf("VARCHAR(%d)", n) }

// MovieTables lists the movie-family tables in dependency order: dimensions
// and roots first, children and associations after the tables they reference.
var MovieTables = []Table{
	{
		Name: "movie_collections",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "name", Type: text},
			{Name: "poster_path", Type: varchar(255)},
			{Name: "backdrop_path", Type: varchar(255)},
		},
		PK:        []string{"id"},
		Dimension: true,
	},
	{
		Name: "movie_genres",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "name", Type: varchar(255)},
		},
		PK:        []string{"id"},
		Dimension: true,
	},
	{
		Name: "movie_production_companies",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "name", Type: text},
			{Name: "origin_country", Type: varchar(255)},
			{Name: "logo_path", Type: varchar(255)},
		},
		PK:        []string{"id"},
		Dimension: true,
	},
	{
		Name: "movie_production_countries",
		Columns: []Column{
			{Name: "iso_3166_1", Type: text, NotNull: true},
			{Name: "name", Type: text},
		},
		PK:        []string{"iso_3166_1"},
		Dimension: true,
	},
	{
		Name: "movie_spoken_languages",
		Columns: []Column{
			{Name: "iso_639_1", Type: text, NotNull: true},
			{Name: "english_name", Type: varchar(255)},
			{Name: "name", Type: varchar(255)},
		},
		PK:        []string{"iso_639_1"},
		Dimension: true,
	},
	{
		Name: "movie_cast_members",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "adult", Type: boolean},
			{Name: "gender", Type: smallint},
			{Name: "cast_id", Type: integer},
			{Name: "name", Type: varchar(255)},
			{Name: "original_name", Type: varchar(255)},
			{Name: "known_for_department", Type: varchar(255)},
			{Name: "popularity", Type: double},
			{Name: "profile_path", Type: varchar(255)},
			{Name: "character", Type: text},
			{Name: "cast_order", Type: smallint},
		},
		PK:        []string{"id"},
		Dimension: true,
	},
	{
		Name: "movie_keywords",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "name", Type: varchar(255)},
		},
		PK:        []string{"id"},
		Dimension: true,
	},
	{
		Name: "movie",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "backdrop_path", Type: varchar(255)},
			{Name: "budget", Type: bigint},
			{Name: "homepage", Type: text},
			{Name: "imdb_id", Type: varchar(12)},
			{Name: "origin_country", Type: text},
			{Name: "original_language", Type: varchar(64)},
			{Name: "original_title", Type: text},
			{Name: "overview", Type: text},
			{Name: "popularity", Type: double},
			{Name: "poster_path", Type: varchar(255)},
			{Name: "release_date", Type: timestamp},
			{Name: "revenue", Type: bigint},
			{Name: "runtime", Type: integer},
			{Name: "status", Type: text},
			{Name: "tagline", Type: text},
			{Name: "title", Type: text},
			{Name: "video", Type: boolean},
			{Name: "vote_average", Type: double},
			{Name: "vote_count", Type: bigint},
			{Name: "belongs_to_collection_id", Type: bigint},
		},
		PK:        []string{"id"},
		DependsOn: []string{"movie_collections"},
	},
	{
		Name: "movie_genres_assoc",
		Columns: []Column{
			{Name: "movie_id", Type: bigint, NotNull: true},
			{Name: "genre_id", Type: bigint, NotNull: true},
		},
		PK:        []string{"movie_id", "genre_id"},
		DependsOn: []string{"movie", "movie_genres"},
	},
	{
		Name: "movie_companies_assoc",
		Columns: []Column{
			{Name: "movie_id", Type: bigint, NotNull: true},
			{Name: "company_id", Type: bigint, NotNull: true},
		},
		PK:        []string{"movie_id", "company_id"},
		DependsOn: []string{"movie", "movie_production_companies"},
	},
	{
		Name: "movie_countries_assoc",
		Columns: []Column{
			{Name: "movie_id", Type: bigint, NotNull: true},
			{Name: "country_id", Type: text, NotNull: true},
		},
		PK:        []string{"movie_id", "country_id"},
		DependsOn: []string{"movie", "movie_production_countries"},
	},
	{
		Name: "movie_languages_assoc",
		Columns: []Column{
			{Name: "movie_id", Type: bigint, NotNull: true},
			{Name: "language_id", Type: text, NotNull: true},
		},
		PK:        []string{"movie_id", "language_id"},
		DependsOn: []string{"movie", "movie_spoken_languages"},
	},
	{
		Name: "movie_cast_assoc",
		Columns: []Column{
			{Name: "movie_id", Type: bigint, NotNull: true},
			{Name: "cast_id", Type: bigint, NotNull: true},
		},
		PK:        []string{"movie_id", "cast_id"},
		DependsOn: []string{"movie", "movie_cast_members"},
	},
	{
		Name: "movie_keywords_assoc",
		Columns: []Column{
			{Name: "movie_id", Type: bigint, NotNull: true},
			{Name: "id", Type: bigint, NotNull: true},
		},
		PK:        []string{"movie_id", "id"},
		DependsOn: []string{"movie", "movie_keywords"},
	},
	{
		Name: "movie_external_ids",
		Columns: []Column{
			{Name: "movie_id", Type: bigint, NotNull: true},
			{Name: "imdb_id", Type: varchar(255)},
			{Name: "wikidata_id", Type: varchar(255)},
			{Name: "facebook_id", Type: varchar(255)},
			{Name: "instagram_id", Type: varchar(255)},
			{Name: "twitter_id", Type: varchar(255)},
		},
		PK:        []string{"movie_id"},
		DependsOn: []string{"movie"},
	},
	{
		Name: "movie_alternative_titles",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "iso_3166_1", Type: text},
			{Name: "title", Type: text},
			{Name: "type", Type: text},
			{Name: "movie_id", Type: bigint},
		},
		PK:        []string{"id"},
		Serial:    true,
		DependsOn: []string{"movie"},
	},
	{
		Name: "movie_release_dates",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "iso_3166_1", Type: text},
			{Name: "certification", Type: text},
			{Name: "release_date", Type: timestamp},
			{Name: "type", Type: integer},
			{Name: "note", Type: text},
			{Name: "movie_id", Type: bigint},
		},
		PK:        []string{"id"},
		Serial:    true,
		DependsOn: []string{"movie"},
	},
	{
		Name: "movie_videos",
		Columns: []Column{
			{Name: "id", Type: varchar(255), NotNull: true},
			{Name: "iso_639_1", Type: text},
			{Name: "iso_3166_1", Type: text},
			{Name: "name", Type: text},
			{Name: "key", Type: varchar(255)},
			{Name: "site", Type: varchar(255)},
			{Name: "size", Type: integer},
			{Name: "type", Type: varchar(255)},
			{Name: "official", Type: boolean},
			{Name: "published_at", Type: timestamp},
			{Name: "movie_id", Type: bigint},
		},
		PK:        []string{"id"},
		DependsOn: []string{"movie"},
	},
}

// SeriesTables mirrors MovieTables for the series family.
var SeriesTables = []Table{
	{
		Name: "series_created_by",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "credit_id", Type: varchar(255)},
			{Name: "name", Type: text},
			{Name: "original_name", Type: text},
			{Name: "gender", Type: smallint},
			{Name: "profile_path", Type: varchar(255)},
		},
		PK:        []string{"id"},
		Dimension: true,
	},
	{
		Name: "series_genres",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "name", Type: varchar(255)},
		},
		PK:        []string{"id"},
		Dimension: true,
	},
	{
		Name: "series_networks",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "logo_path", Type: varchar(255)},
			{Name: "name", Type: text},
			{Name: "origin_country", Type: varchar(255)},
		},
		PK:        []string{"id"},
		Dimension: true,
	},
	{
		Name: "series_production_companies",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "name", Type: text},
			{Name: "origin_country", Type: varchar(255)},
			{Name: "logo_path", Type: varchar(255)},
		},
		PK:        []string{"id"},
		Dimension: true,
	},
	{
		Name: "series_production_countries",
		Columns: []Column{
			{Name: "iso_3166_1", Type: text, NotNull: true},
			{Name: "name", Type: text},
		},
		PK:        []string{"iso_3166_1"},
		Dimension: true,
	},
	{
		Name: "series_spoken_languages",
		Columns: []Column{
			{Name: "iso_639_1", Type: text, NotNull: true},
			{Name: "english_name", Type: varchar(255)},
			{Name: "name", Type: varchar(255)},
		},
		PK:        []string{"iso_639_1"},
		Dimension: true,
	},
	{
		Name: "series_cast_members",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "adult", Type: boolean},
			{Name: "gender", Type: smallint},
			{Name: "cast_id", Type: integer},
			{Name: "name", Type: varchar(255)},
			{Name: "original_name", Type: varchar(255)},
			{Name: "known_for_department", Type: varchar(255)},
			{Name: "popularity", Type: double},
			{Name: "profile_path", Type: varchar(255)},
			{Name: "character", Type: text},
			{Name: "cast_order", Type: smallint},
		},
		PK:        []string{"id"},
		Dimension: true,
	},
	{
		Name: "series_keywords",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "name", Type: varchar(255)},
		},
		PK:        []string{"id"},
		Dimension: true,
	},
	{
		Name: "series_last_episode_to_air",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "name", Type: text},
			{Name: "overview", Type: text},
			{Name: "vote_average", Type: double},
			{Name: "vote_count", Type: bigint},
			{Name: "air_date", Type: timestamp},
			{Name: "episode_number", Type: integer},
			{Name: "episode_type", Type: text},
			{Name: "production_code", Type: text},
			{Name: "runtime", Type: integer},
			{Name: "season_number", Type: integer},
			{Name: "show_id", Type: bigint},
			{Name: "still_path", Type: varchar(255)},
		},
		PK:     []string{"id"},
		Upsert: true,
	},
	{
		Name: "series_next_episode_to_air",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "name", Type: text},
			{Name: "overview", Type: text},
			{Name: "vote_average", Type: double},
			{Name: "vote_count", Type: bigint},
			{Name: "air_date", Type: timestamp},
			{Name: "episode_number", Type: integer},
			{Name: "episode_type", Type: text},
			{Name: "production_code", Type: text},
			{Name: "runtime", Type: integer},
			{Name: "season_number", Type: integer},
			{Name: "show_id", Type: bigint},
			{Name: "still_path", Type: varchar(255)},
		},
		PK:     []string{"id"},
		Upsert: true,
	},
	{
		Name: "series",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "backdrop_path", Type: varchar(255)},
			{Name: "first_air_date", Type: timestamp},
			{Name: "homepage", Type: text},
			{Name: "imdb_id", Type: varchar(12)},
			{Name: "in_production", Type: boolean},
			{Name: "last_air_date", Type: timestamp},
			{Name: "name", Type: text},
			{Name: "number_of_episodes", Type: integer},
			{Name: "number_of_seasons", Type: integer},
			{Name: "origin_country", Type: text},
			{Name: "original_language", Type: varchar(64)},
			{Name: "original_name", Type: text},
			{Name: "overview", Type: text},
			{Name: "popularity", Type: double},
			{Name: "poster_path", Type: varchar(255)},
			{Name: "status", Type: text},
			{Name: "tagline", Type: text},
			{Name: "type", Type: text},
			{Name: "vote_average", Type: double},
			{Name: "vote_count", Type: bigint},
			{Name: "last_episode_to_air_id", Type: bigint},
			{Name: "next_episode_to_air_id", Type: bigint},
		},
		PK:        []string{"id"},
		DependsOn: []string{"series_last_episode_to_air", "series_next_episode_to_air"},
	},
	{
		Name: "series_created_by_assoc",
		Columns: []Column{
			{Name: "series_id", Type: bigint, NotNull: true},
			{Name: "created_by_id", Type: bigint, NotNull: true},
		},
		PK:        []string{"series_id", "created_by_id"},
		DependsOn: []string{"series", "series_created_by"},
	},
	{
		Name: "series_genres_assoc",
		Columns: []Column{
			{Name: "series_id", Type: bigint, NotNull: true},
			{Name: "genre_id", Type: bigint, NotNull: true},
		},
		PK:        []string{"series_id", "genre_id"},
		DependsOn: []string{"series", "series_genres"},
	},
	{
		Name: "series_networks_assoc",
		Columns: []Column{
			{Name: "series_id", Type: bigint, NotNull: true},
			{Name: "network_id", Type: bigint, NotNull: true},
		},
		PK:        []string{"series_id", "network_id"},
		DependsOn: []string{"series", "series_networks"},
	},
	{
		Name: "series_companies_assoc",
		Columns: []Column{
			{Name: "series_id", Type: bigint, NotNull: true},
			{Name: "company_id", Type: bigint, NotNull: true},
		},
		PK:        []string{"series_id", "company_id"},
		DependsOn: []string{"series", "series_production_companies"},
	},
	{
		Name: "series_countries_assoc",
		Columns: []Column{
			{Name: "series_id", Type: bigint, NotNull: true},
			{Name: "country_id", Type: text, NotNull: true},
		},
		PK:        []string{"series_id", "country_id"},
		DependsOn: []string{"series", "series_production_countries"},
	},
	{
		Name: "series_languages_assoc",
		Columns: []Column{
			{Name: "series_id", Type: bigint, NotNull: true},
			{Name: "language_id", Type: text, NotNull: true},
		},
		PK:        []string{"series_id", "language_id"},
		DependsOn: []string{"series", "series_spoken_languages"},
	},
	{
		Name: "series_cast_assoc",
		Columns: []Column{
			{Name: "series_id", Type: bigint, NotNull: true},
			{Name: "cast_id", Type: bigint, NotNull: true},
		},
		PK:        []string{"series_id", "cast_id"},
		DependsOn: []string{"series", "series_cast_members"},
	},
	{
		Name: "series_keywords_assoc",
		Columns: []Column{
			{Name: "series_id", Type: bigint, NotNull: true},
			{Name: "id", Type: bigint, NotNull: true},
		},
		PK:        []string{"series_id", "id"},
		DependsOn: []string{"series", "series_keywords"},
	},
	{
		Name: "series_external_ids",
		Columns: []Column{
			{Name: "series_id", Type: bigint, NotNull: true},
			{Name: "imdb_id", Type: varchar(255)},
			{Name: "wikidata_id", Type: varchar(255)},
			{Name: "facebook_id", Type: varchar(255)},
			{Name: "instagram_id", Type: varchar(255)},
			{Name: "twitter_id", Type: varchar(255)},
		},
		PK:        []string{"series_id"},
		DependsOn: []string{"series"},
	},
	{
		Name: "series_alternative_titles",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "iso_3166_1", Type: text},
			{Name: "title", Type: text},
			{Name: "type", Type: text},
			{Name: "series_id", Type: bigint},
		},
		PK:        []string{"id"},
		Serial:    true,
		DependsOn: []string{"series"},
	},
	{
		Name: "series_seasons",
		Columns: []Column{
			{Name: "id", Type: bigint, NotNull: true},
			{Name: "air_date", Type: timestamp},
			{Name: "episode_count", Type: integer},
			{Name: "name", Type: text},
			{Name: "overview", Type: text},
			{Name: "poster_path", Type: varchar(255)},
			{Name: "season_number", Type: integer},
			{Name: "vote_average", Type: double},
			{Name: "series_id", Type: bigint},
		},
		PK:        []string{"id"},
		DependsOn: []string{"series"},
	},
	{
		Name: "series_videos",
		Columns: []Column{
			{Name: "id", Type: varchar(255), NotNull: true},
			{Name: "iso_639_1", Type: text},
			{Name: "iso_3166_1", Type: text},
			{Name: "name", Type: text},
			{Name: "key", Type: varchar(255)},
			{Name: "site", Type: varchar(255)},
			{Name: "size", Type: integer},
			{Name: "type", Type: varchar(255)},
			{Name: "official", Type: boolean},
			{Name: "published_at", Type: timestamp},
			{Name: "series_id", Type: bigint},
		},
		PK:        []string{"id"},
		DependsOn: []string{"series"},
	},
}

// FamilyTables returns the table set for a record family.
func FamilyTables(family string) []Table {
	if family == "series" {
		return SeriesTables
	}
	return MovieTables
}

// TableByName looks a table descriptor up across both families.
func TableByName(name string) (Table, bool) {
	for _, t := range MovieTables {
		if t.Name == name {
			return t, true
		}
	}
	for _, t := range SeriesTables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
