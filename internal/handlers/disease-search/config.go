// internal/handlers/disease-search/config.go
package diseasesearch

import "time"

type Config struct {
	Index    string
	CacheTTL time.Duration
	MaxHits  int
	Timeout  time.Duration
}
