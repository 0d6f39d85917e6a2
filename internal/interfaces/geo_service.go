package interfaces

import (
	"context"

	"github.com/ternarybob/wayfarer/internal/models"
)

// GeoService defines the interface for the map provider (AMap REST API).
// All operations return provider-native structures; formatting for the
// language model happens in the tool adapter.
type GeoService interface {
	// Weather returns the multi-day forecast for a city name or adcode.
	Weather(ctx context.Context, city string) (*models.WeatherResponse, error)

	// SearchPOI performs a keyword text search, optionally scoped to a city.
	SearchPOI(ctx context.Context, keywords, city string) (*models.POIResponse, error)

	// SearchNearby searches for POIs around a center point. Location is
	// "lng,lat", radius is in meters, types may be empty.
	SearchNearby(ctx context.Context, location, keywords, types string, radius int) (*models.POIResponse, error)

	// Distance measures the distance between two coordinates. The distance
	// type follows the provider convention: "0" straight line, "1" driving,
	// "3" walking.
	Distance(ctx context.Context, origins, destination, distanceType string) (*models.DistanceResponse, error)
}
