// Package tools maps model-issued tool calls onto backing services and
// renders their results for the conversation context.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/interfaces"
)

// Tool names the model may request. Anything outside this set is rejected.
const (
	ToolWeather   = "get_weather"
	ToolSearchPOI = "search_poi"
	ToolNearby    = "search_nearby"
	ToolDistance  = "measure_distance"
	ToolKnowledge = "query_knowledge"
)

// Call is one tool invocation parsed from a model instruction
type Call struct {
	Name      string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

// ParseInstruction decodes a JSON array of tool calls. The model sometimes
// wraps the array in a fenced code block, so fences are stripped first.
func ParseInstruction(raw string) ([]Call, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var calls []Call
	if err := json.Unmarshal([]byte(cleaned), &calls); err != nil {
		return nil, fmt.Errorf("failed to parse tool instruction: %w", err)
	}
	if len(calls) == 0 {
		return nil, fmt.Errorf("tool instruction contains no calls")
	}
	return calls, nil
}

// Adapter executes tool calls against the geo and knowledge services.
// Validation is fail-closed: a malformed or unknown call returns an error
// rather than a best-effort request.
type Adapter struct {
	geo         interfaces.GeoService
	knowledge   interfaces.KnowledgeService
	defaultCity string
	logger      arbor.ILogger
}

// NewAdapter creates an adapter. defaultCity backs the weather fallback
// chain when a call names no location.
func NewAdapter(geo interfaces.GeoService, knowledge interfaces.KnowledgeService, defaultCity string, logger arbor.ILogger) *Adapter {
	return &Adapter{
		geo:         geo,
		knowledge:   knowledge,
		defaultCity: defaultCity,
		logger:      logger,
	}
}

// KnowledgeAvailable reports whether the knowledge tool can be offered
func (a *Adapter) KnowledgeAvailable() bool {
	return a.knowledge != nil && a.knowledge.Available()
}

// Execute runs one tool call and returns the formatted result text
func (a *Adapter) Execute(ctx context.Context, call Call) (string, error) {
	a.logger.Info().
		Str("tool", call.Name).
		Msg("Executing tool call")

	switch call.Name {
	case ToolWeather:
		return a.executeWeather(ctx, call)
	case ToolSearchPOI:
		return a.executeSearchPOI(ctx, call)
	case ToolNearby:
		return a.executeNearby(ctx, call)
	case ToolDistance:
		return a.executeDistance(ctx, call)
	case ToolKnowledge:
		return a.executeKnowledge(ctx, call)
	default:
		return "", fmt.Errorf("unknown tool: %s", call.Name)
	}
}

// executeWeather resolves the city through the fallback chain
// location -> city -> configured default, then queries the forecast.
func (a *Adapter) executeWeather(ctx context.Context, call Call) (string, error) {
	city := argString(call.Parameters, "location")
	if city == "" {
		city = argString(call.Parameters, "city")
	}
	if city == "" {
		city = a.defaultCity
	}

	resp, err := a.geo.Weather(ctx, city)
	if err != nil {
		return "", fmt.Errorf("weather lookup failed for %s: %w", city, err)
	}
	return FormatWeather(resp), nil
}

func (a *Adapter) executeSearchPOI(ctx context.Context, call Call) (string, error) {
	keywords := argString(call.Parameters, "keywords")
	if keywords == "" {
		return "", fmt.Errorf("%s requires a keywords argument", ToolSearchPOI)
	}
	city := argString(call.Parameters, "city")

	resp, err := a.geo.SearchPOI(ctx, keywords, city)
	if err != nil {
		return "", fmt.Errorf("place search failed for %q: %w", keywords, err)
	}
	return FormatPOIs(resp), nil
}

func (a *Adapter) executeNearby(ctx context.Context, call Call) (string, error) {
	location := argString(call.Parameters, "location")
	if location == "" {
		return "", fmt.Errorf("%s requires a location argument", ToolNearby)
	}
	if !strings.Contains(location, ",") {
		return "", fmt.Errorf("location must be a longitude,latitude pair, got %q", location)
	}
	keywords := argString(call.Parameters, "keywords")
	if keywords == "" {
		return "", fmt.Errorf("%s requires a keywords argument", ToolNearby)
	}
	if _, ok := call.Parameters["types"]; !ok {
		return "", fmt.Errorf("%s requires a types argument", ToolNearby)
	}
	types := argString(call.Parameters, "types")

	radius := argInt(call.Parameters, "radius", 1000)

	resp, err := a.geo.SearchNearby(ctx, location, keywords, types, radius)
	if err != nil {
		return "", fmt.Errorf("nearby search failed at %s: %w", location, err)
	}
	return FormatPOIs(resp), nil
}

func (a *Adapter) executeDistance(ctx context.Context, call Call) (string, error) {
	origins := argString(call.Parameters, "origins")
	if origins == "" {
		origins = argString(call.Parameters, "origin")
	}
	destination := argString(call.Parameters, "destination")
	if origins == "" || destination == "" {
		return "", fmt.Errorf("%s requires origins and destination arguments", ToolDistance)
	}

	distanceType := argString(call.Parameters, "type")
	if distanceType == "" {
		distanceType = "1"
	}

	resp, err := a.geo.Distance(ctx, origins, destination, distanceType)
	if err != nil {
		return "", fmt.Errorf("distance measurement failed: %w", err)
	}
	return FormatDistance(resp, distanceType), nil
}

func (a *Adapter) executeKnowledge(ctx context.Context, call Call) (string, error) {
	query := argString(call.Parameters, "query")
	if query == "" {
		return "", fmt.Errorf("%s requires a query argument", ToolKnowledge)
	}
	if a.knowledge == nil {
		return "", fmt.Errorf("knowledge service is not configured")
	}

	result, err := a.knowledge.Query(ctx, query)
	if err != nil {
		return "", fmt.Errorf("knowledge query failed: %w", err)
	}
	return result.Answer, nil
}

// argString reads a string argument, tolerating missing keys
func argString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if value, ok := args[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// argInt reads a numeric argument; JSON numbers decode as float64 but the
// model occasionally quotes them.
func argInt(args map[string]any, key string, fallback int) int {
	if args == nil {
		return fallback
	}
	switch value := args[key].(type) {
	case float64:
		return int(value)
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}
