// internal/handlers/disease-search/models.go
package diseasesearch

import "aquacare/internal/models"

// Output is the search response body.
type Output struct {
	Query   string           `json:"query"`
	Total   int              `json:"total"`
	Results []models.Disease `json:"results"`
}

// esResponse mirrors the subset of the Elasticsearch search response we read.
type esResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Disease `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
