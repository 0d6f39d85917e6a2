package tools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ternarybob/wayfarer/internal/models"
)

// poiDisplayLimit caps the rendered list when the provider reports a large
// result count; the model does not need more than this to answer.
const (
	poiLargeResultCount = 20
	poiDisplayLimit     = 10
	poiPhotoLimit       = 3
)

// FormatWeather renders a forecast response as readable markdown
func FormatWeather(resp *models.WeatherResponse) string {
	if resp == nil || len(resp.Forecasts) == 0 {
		return "No weather forecast is available for that location."
	}

	forecast := resp.Forecasts[0]
	var sb strings.Builder
	fmt.Fprintf(&sb, "Weather forecast for %s, %s (reported %s):\n\n",
		forecast.City, forecast.Province, forecast.ReportTime)

	for _, cast := range forecast.Casts {
		fmt.Fprintf(&sb, "- %s (%s): day %s %s°C wind %s, night %s %s°C wind %s\n",
			cast.Date, weekdayLabel(cast.Week),
			cast.DayWeather, cast.DayTemp, cast.DayWind,
			cast.NightWeather, cast.NightTemp, cast.NightWind)
	}

	return strings.TrimSpace(sb.String())
}

func weekdayLabel(week string) string {
	labels := map[string]string{
		"1": "Mon", "2": "Tue", "3": "Wed", "4": "Thu",
		"5": "Fri", "6": "Sat", "7": "Sun",
	}
	if label, ok := labels[week]; ok {
		return label
	}
	return week
}

// FormatPOIs renders a place search response. Large result sets are
// truncated to keep the conversation context within budget.
func FormatPOIs(resp *models.POIResponse) string {
	if resp == nil || len(resp.POIs) == 0 {
		return "No places matched the search."
	}

	total, _ := strconv.Atoi(resp.Count)
	if total == 0 {
		total = len(resp.POIs)
	}

	pois := resp.POIs
	var sb strings.Builder
	if total > poiLargeResultCount {
		if len(pois) > poiDisplayLimit {
			pois = pois[:poiDisplayLimit]
		}
		fmt.Fprintf(&sb, "Found %d results; showing the first %d:\n\n", total, len(pois))
	} else {
		fmt.Fprintf(&sb, "Found %d results:\n\n", total)
	}

	for i, poi := range pois {
		sb.WriteString(formatPOI(i+1, poi))
		sb.WriteString("\n")
	}

	return strings.TrimSpace(sb.String())
}

func formatPOI(rank int, poi models.POI) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d. **%s**\n", rank, poi.Name)
	if poi.Type != "" {
		fmt.Fprintf(&sb, "   - Type: %s\n", poi.Type)
	}

	address := strings.TrimSpace(poi.CityName + poi.AdName + poi.Address)
	if address != "" {
		fmt.Fprintf(&sb, "   - Address: %s\n", address)
	}
	if poi.Location != "" {
		fmt.Fprintf(&sb, "   - Location: %s\n", poi.Location)
	}
	if poi.ID != "" {
		fmt.Fprintf(&sb, "   - POI ID: %s\n", poi.ID)
	}
	if poi.Tel != "" {
		fmt.Fprintf(&sb, "   - Tel: %s\n", poi.Tel)
	}

	if ext := poi.BizExt; ext != nil {
		if ext.OpenTime != "" {
			fmt.Fprintf(&sb, "   - Open hours: %s\n", ext.OpenTime)
		}
		if ext.Rating != "" {
			fmt.Fprintf(&sb, "   - Rating: %s\n", ext.Rating)
		}
		if ext.Cost != "" {
			fmt.Fprintf(&sb, "   - Average cost: %s\n", ext.Cost)
		}
		if ext.Level != "" {
			fmt.Fprintf(&sb, "   - Level: %s\n", ext.Level)
		}
	}

	if gallery := formatPhotoGallery(poi); gallery != "" {
		sb.WriteString(gallery)
	}

	return sb.String()
}

// formatPhotoGallery emits the photo carousel markup for scenic spots.
// The front end binds the carousel controls by POI ID, so both a scenic
// type marker and an ID are required.
func formatPhotoGallery(poi models.POI) string {
	if poi.ID == "" || len(poi.Photos) == 0 {
		return ""
	}
	if !strings.Contains(poi.Type, "风景名胜") && !strings.Contains(poi.Type, "景点") {
		return ""
	}

	photos := poi.Photos
	if len(photos) > poiPhotoLimit {
		photos = photos[:poiPhotoLimit]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "   <div class=\"poi-photo-container\" data-poi-index=\"%s\">\n", poi.ID)
	for i, photo := range photos {
		active := ""
		if i == 0 {
			active = " active"
		}
		fmt.Fprintf(&sb, "     <img class=\"poi-photo%s\" src=\"%s\" alt=\"%s\" data-photo-index=\"%d\">\n",
			active, photo.URL, poi.Name, i)
	}
	if len(photos) > 1 {
		fmt.Fprintf(&sb, "     <button class=\"poi-photo-nav prev\" data-poi-index=\"%s\">&lsaquo;</button>\n", poi.ID)
		fmt.Fprintf(&sb, "     <button class=\"poi-photo-nav next\" data-poi-index=\"%s\">&rsaquo;</button>\n", poi.ID)
	}
	sb.WriteString("   </div>\n")
	return sb.String()
}

// FormatDistance renders a distance measurement response
func FormatDistance(resp *models.DistanceResponse, distanceType string) string {
	if resp == nil || len(resp.Results) == 0 {
		return "No distance result was returned."
	}

	mode := distanceModeLabel(distanceType)

	var sb strings.Builder
	for _, result := range resp.Results {
		meters, _ := strconv.ParseFloat(result.Distance, 64)
		fmt.Fprintf(&sb, "%s distance: %.0f meters (%.2f km)", mode, meters, meters/1000)

		if result.Duration != "" && distanceType != "0" {
			if seconds, err := strconv.ParseFloat(result.Duration, 64); err == nil && seconds > 0 {
				fmt.Fprintf(&sb, ", estimated travel time %.0f minutes", seconds/60)
			}
		}
		sb.WriteString("\n")
	}

	return strings.TrimSpace(sb.String())
}

func distanceModeLabel(distanceType string) string {
	switch distanceType {
	case "0":
		return "Straight-line"
	case "3":
		return "Walking"
	default:
		return "Driving"
	}
}
