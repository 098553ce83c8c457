package tmdb

// Upstream JSON shapes. Parsing is lenient: unknown fields are ignored and
// missing or null fields stay nil, mapping to nullable columns downstream.

// IDExportLine is one newline-delimited entry of a daily id export file.
type IDExportLine struct {
	ID    int64 `json:"id"`
	Adult bool  `json:"adult"`
}

// Genre, Company, Country, Language, Keyword are the shared dimension shapes.
type Genre struct {
	ID   int64   `json:"id"`
	Name *string `json:"name"`
}

type Company struct {
	ID            int64   `json:"id"`
	Name          *string `json:"name"`
	OriginCountry *string `json:"origin_country"`
	LogoPath      *string `json:"logo_path"`
}

type Country struct {
	ISO31661 string  `json:"iso_3166_1"`
	Name     *string `json:"name"`
}

type Language struct {
	ISO6391     string  `json:"iso_639_1"`
	EnglishName *string `json:"english_name"`
	Name        *string `json:"name"`
}

type Keyword struct {
	ID   int64   `json:"id"`
	Name *string `json:"name"`
}

type CastMember struct {
	ID                 int64    `json:"id"`
	Adult              *bool    `json:"adult"`
	Gender             *int16   `json:"gender"`
	CastID             *int64   `json:"cast_id"`
	Name               *string  `json:"name"`
	OriginalName       *string  `json:"original_name"`
	KnownForDepartment *string  `json:"known_for_department"`
	Popularity         *float64 `json:"popularity"`
	ProfilePath        *string  `json:"profile_path"`
	Character          *string  `json:"character"`
	Order              *int16   `json:"order"`
}

type Credits struct {
	Cast []CastMember `json:"cast"`
}

// ExternalIDs tolerates any subset of fields; every member is nullable.
type ExternalIDs struct {
	IMDbID      *string `json:"imdb_id"`
	WikidataID  *string `json:"wikidata_id"`
	FacebookID  *string `json:"facebook_id"`
	InstagramID *string `json:"instagram_id"`
	TwitterID   *string `json:"twitter_id"`
}

type AlternativeTitle struct {
	ISO31661 *string `json:"iso_3166_1"`
	Title    *string `json:"title"`
	Type     *string `json:"type"`
}

type alternativeTitles struct {
	Titles  []AlternativeTitle `json:"titles"`  // movie
	Results []AlternativeTitle `json:"results"` // series
}

// All returns whichever list the upstream populated for this family.
func (a alternativeTitles) All() []AlternativeTitle {
	if len(a.Titles) > 0 {
		return a.Titles
	}
	return a.Results
}

type Video struct {
	ID          string  `json:"id"`
	ISO6391     *string `json:"iso_639_1"`
	ISO31661    *string `json:"iso_3166_1"`
	Name        *string `json:"name"`
	Key         *string `json:"key"`
	Site        *string `json:"site"`
	Size        *int64  `json:"size"`
	Type        *string `json:"type"`
	Official    *bool   `json:"official"`
	PublishedAt *string `json:"published_at"`
}

type videoResults struct {
	Results []Video `json:"results"`
}

type Release struct {
	Certification *string `json:"certification"`
	ReleaseDate   *string `json:"release_date"`
	Type          *int64  `json:"type"`
	Note          *string `json:"note"`
}

type ReleaseDateGroup struct {
	ISO31661 *string   `json:"iso_3166_1"`
	Releases []Release `json:"release_dates"`
}

type releaseDateResults struct {
	Results []ReleaseDateGroup `json:"results"`
}

// Collection may arrive as a full object or as a bare id.
type Collection struct {
	ID           int64   `json:"id"`
	Name         *string `json:"name"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
}

type movieKeywords struct {
	Keywords []Keyword `json:"keywords"`
}

type seriesKeywords struct {
	Results []Keyword `json:"results"`
}

// MovieRecord is the aggregate append_to_response pull for one movie.
type MovieRecord struct {
	ID                  int64              `json:"id"`
	BackdropPath        *string            `json:"backdrop_path"`
	BelongsToCollection *Collection        `json:"belongs_to_collection"`
	Budget              *int64             `json:"budget"`
	Genres              []Genre            `json:"genres"`
	Homepage            *string            `json:"homepage"`
	IMDbID              *string            `json:"imdb_id"`
	OriginCountry       []string           `json:"origin_country"`
	OriginalLanguage    *string            `json:"original_language"`
	OriginalTitle       *string            `json:"original_title"`
	Overview            *string            `json:"overview"`
	Popularity          *float64           `json:"popularity"`
	PosterPath          *string            `json:"poster_path"`
	ProductionCompanies []Company          `json:"production_companies"`
	ProductionCountries []Country          `json:"production_countries"`
	ReleaseDate         *string            `json:"release_date"`
	Revenue             *int64             `json:"revenue"`
	Runtime             *int64             `json:"runtime"`
	SpokenLanguages     []Language         `json:"spoken_languages"`
	Status              *string            `json:"status"`
	Tagline             *string            `json:"tagline"`
	Title               *string            `json:"title"`
	Video               *bool              `json:"video"`
	VoteAverage         *float64           `json:"vote_average"`
	VoteCount           *int64             `json:"vote_count"`
	Credits             Credits            `json:"credits"`
	ExternalIDs         *ExternalIDs       `json:"external_ids"`
	Keywords            movieKeywords      `json:"keywords"`
	AlternativeTitles   alternativeTitles  `json:"alternative_titles"`
	Videos              videoResults       `json:"videos"`
	ReleaseDates        releaseDateResults `json:"release_dates"`
}

type Network struct {
	ID            int64   `json:"id"`
	LogoPath      *string `json:"logo_path"`
	Name          *string `json:"name"`
	OriginCountry *string `json:"origin_country"`
}

type Creator struct {
	ID           int64   `json:"id"`
	CreditID     *string `json:"credit_id"`
	Name         *string `json:"name"`
	OriginalName *string `json:"original_name"`
	Gender       *int16  `json:"gender"`
	ProfilePath  *string `json:"profile_path"`
}

type Episode struct {
	ID             int64    `json:"id"`
	Name           *string  `json:"name"`
	Overview       *string  `json:"overview"`
	VoteAverage    *float64 `json:"vote_average"`
	VoteCount      *int64   `json:"vote_count"`
	AirDate        *string  `json:"air_date"`
	EpisodeNumber  *int64   `json:"episode_number"`
	EpisodeType    *string  `json:"episode_type"`
	ProductionCode *string  `json:"production_code"`
	Runtime        *int64   `json:"runtime"`
	SeasonNumber   *int64   `json:"season_number"`
	ShowID         *int64   `json:"show_id"`
	StillPath      *string  `json:"still_path"`
}

type Season struct {
	ID           int64    `json:"id"`
	AirDate      *string  `json:"air_date"`
	EpisodeCount *int64   `json:"episode_count"`
	Name         *string  `json:"name"`
	Overview     *string  `json:"overview"`
	PosterPath   *string  `json:"poster_path"`
	SeasonNumber *int64   `json:"season_number"`
	VoteAverage  *float64 `json:"vote_average"`
}

// SeriesRecord is the aggregate append_to_response pull for one series.
type SeriesRecord struct {
	ID                  int64             `json:"id"`
	BackdropPath        *string           `json:"backdrop_path"`
	CreatedBy           []Creator         `json:"created_by"`
	FirstAirDate        *string           `json:"first_air_date"`
	Genres              []Genre           `json:"genres"`
	Homepage            *string           `json:"homepage"`
	IMDbID              *string           `json:"imdb_id"`
	InProduction        *bool             `json:"in_production"`
	LastAirDate         *string           `json:"last_air_date"`
	LastEpisodeToAir    *Episode          `json:"last_episode_to_air"`
	NextEpisodeToAir    *Episode          `json:"next_episode_to_air"`
	Name                *string           `json:"name"`
	Networks            []Network         `json:"networks"`
	NumberOfEpisodes    *int64            `json:"number_of_episodes"`
	NumberOfSeasons     *int64            `json:"number_of_seasons"`
	OriginCountry       []string          `json:"origin_country"`
	OriginalLanguage    *string           `json:"original_language"`
	OriginalName        *string           `json:"original_name"`
	Overview            *string           `json:"overview"`
	Popularity          *float64          `json:"popularity"`
	PosterPath          *string           `json:"poster_path"`
	ProductionCompanies []Company         `json:"production_companies"`
	ProductionCountries []Country         `json:"production_countries"`
	Seasons             []Season          `json:"seasons"`
	SpokenLanguages     []Language        `json:"spoken_languages"`
	Status              *string           `json:"status"`
	Tagline             *string           `json:"tagline"`
	Type                *string           `json:"type"`
	VoteAverage         *float64          `json:"vote_average"`
	VoteCount           *int64            `json:"vote_count"`
	Credits             Credits           `json:"credits"`
	ExternalIDs         *ExternalIDs      `json:"external_ids"`
	Keywords            seriesKeywords    `json:"keywords"`
	AlternativeTitles   alternativeTitles `json:"alternative_titles"`
	Videos              videoResults      `json:"videos"`
}

// ChangeEntry is one entry of a paginated /changes response.
type ChangeEntry struct {
	ID    int64 `json:"id"`
	Adult bool  `json:"adult"`
}

type changesPage struct {
	Results    []ChangeEntry `json:"results"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}
