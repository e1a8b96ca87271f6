package responses

// Update - result of reloading the content export
type Update struct {
	Success bool `json:"success"`
	// set when the export could not be loaded
	ErrorMessage string `json:"errorMessage"`
	Stats        Stats  `json:"stats"`
}

// Stats of the loaded export, -1 counts after a failed update
type Stats struct {
	NumberOfNodes     int `json:"numberOfNodes"`
	NumberOfURIs      int `json:"numberOfURIs"`
	NumberOfSites     int `json:"numberOfSites"`
	NumberOfLanguages int `json:"numberOfLanguages"`
	// seconds spent fetching and indexing the export
	RepoRuntime float64 `json:"repoRuntime"`
	// seconds
	OwnRuntime float64 `json:"ownRuntime"`
}
