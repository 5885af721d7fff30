// internal/handlers/disease-search/service.go
package diseasesearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"aquacare/internal/common/errors"
	"aquacare/internal/common/logger"
	"aquacare/internal/common/metrics"
	"aquacare/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
)

type Service struct {
	config *Config
	es     *elasticsearch.Client
	cache  *redis.Client
	logger logger.Logger
}

func NewService(cfg *Config, es *elasticsearch.Client, cache *redis.Client, log logger.Logger) *Service {
	return &Service{
		config: cfg,
		es:     es,
		cache:  cache,
		logger: log,
	}
}

// Search looks up diseases matching the query across name, symptoms and
// treatment. Results are cached; a broken cache degrades to a direct search
// rather than failing the request.
func (s *Service) Search(ctx context.Context, query string) (*Output, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewValidationFailedError("query must not be empty")
	}

	key := cacheKey(query)
	if cached, ok := s.fromCache(ctx, key); ok {
		metrics.DiseaseSearchCacheHits.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.DiseaseSearchCacheHits.WithLabelValues("miss").Inc()

	output, err := s.searchIndex(ctx, query)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, key, output)
	return output, nil
}

func cacheKey(query string) string {
	return "disease-search:" + strings.ToLower(query)
}

func (s *Service) fromCache(ctx context.Context, key string) (*Output, bool) {
	payload, err := s.cache.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("disease search cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}

	var output Output
	if err := json.Unmarshal(payload, &output); err != nil {
		s.logger.Warn("disease search cache entry corrupt", map[string]interface{}{"key": key})
		return nil, false
	}
	return &output, true
}

func (s *Service) toCache(ctx context.Context, key string, output *Output) {
	payload, err := json.Marshal(output)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.config.CacheTTL).Err(); err != nil {
		s.logger.Warn("disease search cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *Service) searchIndex(ctx context.Context, query string) (*Output, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name^2", "symptoms", "treatment"},
			},
		},
		"size": s.config.MaxHits,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, errors.NewInternalError(err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.config.Index),
		s.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, errors.NewSearchQueryFailedError(fmt.Errorf("elasticsearch returned %s: %s", res.Status(), raw))
	}

	var parsed esResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}

	output := &Output{
		Query:   query,
		Total:   len(parsed.Hits.Hits),
		Results: make([]models.Disease, 0, len(parsed.Hits.Hits)),
	}
	for _, hit := range parsed.Hits.Hits {
		output.Results = append(output.Results, hit.Source)
	}
	return output, nil
}
