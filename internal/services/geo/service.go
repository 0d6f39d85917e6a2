// Package geo provides the AMap REST client used by the tool adapter.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/common"
	"github.com/ternarybob/wayfarer/internal/interfaces"
	"github.com/ternarybob/wayfarer/internal/models"
	"golang.org/x/time/rate"
)

// Service implements the GeoService interface against the AMap v3 REST API
type Service struct {
	config     *common.GeoConfig
	logger     arbor.ILogger
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewService creates a new geo service instance. The API key is resolved
// with environment -> KV store -> config precedence.
func NewService(
	config *common.GeoConfig,
	storageManager interfaces.StorageManager,
	logger arbor.ILogger,
) (interfaces.GeoService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, storageManager.KeyValueStorage(), "amap_api_key", config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("AMap API key is required (set via WAYFARER_AMAP_API_KEY, KV store, or geo.api_key in config): %w", err)
	}

	interval := config.RateLimit
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	return &Service{
		config: config,
		logger: logger,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		limiter: limiter,
	}, nil
}

// Weather returns the multi-day forecast for a city name or adcode
func (s *Service) Weather(ctx context.Context, city string) (*models.WeatherResponse, error) {
	if city == "" {
		return nil, fmt.Errorf("city is required for weather lookup")
	}

	params := url.Values{}
	params.Set("city", city)
	params.Set("extensions", "all")

	var resp models.WeatherResponse
	if err := s.get(ctx, "/v3/weather/weatherInfo", params, &resp); err != nil {
		return nil, fmt.Errorf("weather lookup failed: %w", err)
	}
	if resp.Status != "1" {
		return nil, fmt.Errorf("weather lookup rejected by provider: %s", resp.Info)
	}

	s.logger.Info().Str("city", city).Int("forecasts", len(resp.Forecasts)).Msg("Weather lookup completed")
	return &resp, nil
}

// SearchPOI performs a keyword text search, optionally scoped to a city
func (s *Service) SearchPOI(ctx context.Context, keywords, city string) (*models.POIResponse, error) {
	if keywords == "" {
		return nil, fmt.Errorf("keywords are required for POI search")
	}

	params := url.Values{}
	params.Set("keywords", keywords)
	params.Set("offset", "20")
	params.Set("page", "1")
	if city != "" {
		params.Set("city", city)
	}

	var resp models.POIResponse
	if err := s.get(ctx, "/v3/place/text", params, &resp); err != nil {
		return nil, fmt.Errorf("POI search failed: %w", err)
	}
	if resp.Status != "1" {
		return nil, fmt.Errorf("POI search rejected by provider: %s", resp.Info)
	}

	s.logger.Info().
		Str("keywords", keywords).
		Str("city", city).
		Str("count", resp.Count).
		Msg("POI search completed")
	return &resp, nil
}

// SearchNearby searches for POIs around a center point, sorted by distance
func (s *Service) SearchNearby(ctx context.Context, location, keywords, types string, radius int) (*models.POIResponse, error) {
	if location == "" {
		return nil, fmt.Errorf("location is required for nearby search")
	}
	if radius <= 0 {
		return nil, fmt.Errorf("radius must be greater than 0, got %d", radius)
	}

	params := url.Values{}
	params.Set("location", location)
	params.Set("radius", strconv.Itoa(radius))
	params.Set("sortrule", "distance")
	params.Set("offset", "20")
	params.Set("page", "1")
	if keywords != "" {
		params.Set("keywords", keywords)
	}
	if types != "" {
		params.Set("types", types)
	}

	var resp models.POIResponse
	if err := s.get(ctx, "/v3/place/around", params, &resp); err != nil {
		return nil, fmt.Errorf("nearby search failed: %w", err)
	}
	if resp.Status != "1" {
		return nil, fmt.Errorf("nearby search rejected by provider: %s", resp.Info)
	}

	s.logger.Info().
		Str("location", location).
		Str("keywords", keywords).
		Int("radius", radius).
		Str("count", resp.Count).
		Msg("Nearby search completed")
	return &resp, nil
}

// Distance measures the distance between two coordinates
func (s *Service) Distance(ctx context.Context, origins, destination, distanceType string) (*models.DistanceResponse, error) {
	if origins == "" || destination == "" {
		return nil, fmt.Errorf("origins and destination are required for distance measurement")
	}
	if distanceType == "" {
		distanceType = "1"
	}

	params := url.Values{}
	params.Set("origins", origins)
	params.Set("destination", destination)
	params.Set("type", distanceType)

	var resp models.DistanceResponse
	if err := s.get(ctx, "/v3/distance", params, &resp); err != nil {
		return nil, fmt.Errorf("distance measurement failed: %w", err)
	}
	if resp.Status != "1" {
		return nil, fmt.Errorf("distance measurement rejected by provider: %s", resp.Info)
	}

	s.logger.Info().
		Str("origins", origins).
		Str("destination", destination).
		Str("type", distanceType).
		Msg("Distance measurement completed")
	return &resp, nil
}

// get performs a rate-limited GET against the provider and decodes the
// response body. The API key is appended here and never logged.
func (s *Service) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait interrupted: %w", err)
	}

	// Log the request without the key
	s.logger.Debug().Str("path", path).Str("params", params.Encode()).Msg("Geo API request")

	params.Set("key", s.apiKey)
	fullURL := fmt.Sprintf("%s%s?%s", s.config.BaseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
