package domain

// MatchResult is the TMDB identity the resolver settles on for a title.
// Not persisted except through the response cache.
type MatchResult struct {
	TmdbID           int    `json:"tmdbid"`
	Name             string `json:"name"`
	OriginalLanguage string `json:"original_language"`
}

// SearchOutcome is the cached envelope for a search, including the
// not-found sentinel (Found = false). Caching the sentinel keeps
// repeated failed lookups off the network.
type SearchOutcome struct {
	Found          bool        `json:"found"`
	Result         MatchResult `json:"result,omitempty"`
	Transliterated string      `json:"transliterated,omitempty"`
}

// ShowDetails carries the fields we consume from the TMDB details
// endpoint.
type ShowDetails struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	OriginalName     string `json:"original_name"`
	OriginalLanguage string `json:"original_language"`
	FirstAirDate     string `json:"first_air_date"`
}

// NotFoundRecord is one show that could not be matched or updated,
// kept for manual follow-up.
type NotFoundRecord struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	CategoryID         int    `json:"categoryId"`
	CategoryName       string `json:"categoryName"`
	TransliteratedName string `json:"transliteratedName,omitempty"`
	Error              string `json:"error,omitempty"`
}

// NotFoundLedger is the persisted not-found file. It is rewritten
// wholesale on every append so state survives crashes.
type NotFoundLedger struct {
	Total int              `json:"total"`
	Shows []NotFoundRecord `json:"shows"`
}

// Has reports whether a show id is already recorded.
func (l *NotFoundLedger) Has(id int) bool {
	for _, s := range l.Shows {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Append records a show, de-duplicated by show id. Returns true when
// the ledger changed and needs to be persisted.
func (l *NotFoundLedger) Append(rec NotFoundRecord) bool {
	if l.Has(rec.ID) {
		return false
	}
	l.Shows = append(l.Shows, rec)
	l.Total = len(l.Shows)
	return true
}

// ProcessingState is the resumability anchor, persisted synchronously
// after every processed show.
type ProcessingState struct {
	CurrentCategoryID  *int `json:"current_category_id"`
	LastProcessedIndex int  `json:"last_processed_index"`
}

// RunStatistics is accumulated directly by the batch processor on each
// real outcome. Logging and notifications consume it; they are never
// its source of truth.
type RunStatistics struct {
	Processed    int
	Updated      int
	NotFound     int
	UpdateFailed int
	Errored      int
}

// Failures is everything that did not end in a successful update.
func (s RunStatistics) Failures() int {
	return s.NotFound + s.UpdateFailed + s.Errored
}
