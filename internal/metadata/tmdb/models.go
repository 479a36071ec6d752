package tmdb

// findResponse is the TMDB /find/{external_id} response.
type findResponse struct {
	MovieResults []movieResult `json:"movie_results"`
	TVResults    []tvResult    `json:"tv_results"`
}

type movieResult struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
	ReleaseDate  string `json:"release_date"`
	GenreIDs     []int  `json:"genre_ids"`
	OriginalLang string `json:"original_language"`
}

type tvResult struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Overview      string   `json:"overview"`
	PosterPath    string   `json:"poster_path"`
	FirstAirDate  string   `json:"first_air_date"`
	GenreIDs      []int    `json:"genre_ids"`
	OriginCountry []string `json:"origin_country"`
	OriginalLang  string   `json:"original_language"`
}

// movieDetails is the TMDB /movie/{id} response (fields we use).
type movieDetails struct {
	ID          int     `json:"id"`
	ImdbID      string  `json:"imdb_id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"`
	Genres      []genre `json:"genres"`
	Keywords    struct {
		Keywords []keyword `json:"keywords"`
	} `json:"keywords"`
}

// tvDetails is the TMDB /tv/{id} response (fields we use).
type tvDetails struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Overview       string   `json:"overview"`
	PosterPath     string   `json:"poster_path"`
	FirstAirDate   string   `json:"first_air_date"`
	EpisodeRunTime []int    `json:"episode_run_time"`
	Genres         []genre  `json:"genres"`
	OriginCountry  []string `json:"origin_country"`
	Keywords       struct {
		Results []keyword `json:"results"`
	} `json:"keywords"`
	ExternalIDs struct {
		ImdbID string `json:"imdb_id"`
	} `json:"external_ids"`
}

type genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type keyword struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type searchMoviesResponse struct {
	Results []movieResult `json:"results"`
}

type searchTVResponse struct {
	Results []tvResult `json:"results"`
}
