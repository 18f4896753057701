package domain

// Show is a single series entry in the IPTV Editor playlist.
// Immutable once loaded for a run.
type Show struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	CategoryID int    `json:"category"`
}

// Category is read-only reference data from the playlist backend.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Episode carries the fields we consume from the backend's episode
// listing. The listing is informational only; it is fetched to warm
// the cache before an update.
type Episode struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type EpisodeList struct {
	Items []Episode `json:"items"`
}
