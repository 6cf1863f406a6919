package repo

// UpdateResult information about one update run
type UpdateResult struct {
	// did it work or not
	Success bool `json:"success"`
	// this is for humans
	ErrorMessage string `json:"errorMessage,omitempty"`
	// timestamp of the snapshot that is now being served
	Updated string `json:"updated,omitempty"`
	// Rejected is set when another update was already in flight
	Rejected bool        `json:"-"`
	Stats    UpdateStats `json:"stats"`
}

// UpdateStats runtime statistics of an update
type UpdateStats struct {
	NumberOfItems int `json:"numberOfItems"`
	// seconds spent fetching and filtering the feeds
	CollectRuntime float64 `json:"collectRuntime"`
	// seconds spent on everything else (serialization, persistence)
	OwnRuntime float64 `json:"ownRuntime"`
}
