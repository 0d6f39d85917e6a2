package tools

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/wayfarer/internal/models"
)

func scenicPOI(id string, photos int) models.POI {
	poi := models.POI{
		ID:       id,
		Name:     "West Lake",
		Type:     "风景名胜;公园",
		Address:  "1 Lakeside Rd",
		CityName: "Hangzhou",
		AdName:   "Xihu",
		Location: "120.15,30.25",
		Tel:      "0571-12345678",
		BizExt: &models.POIBizExt{
			Rating:   "4.8",
			Cost:     "0",
			OpenTime: "07:00-18:00",
			Level:    "5A",
		},
	}
	for i := 0; i < photos; i++ {
		poi.Photos = append(poi.Photos, models.POIPhoto{
			Title: fmt.Sprintf("view %d", i),
			URL:   fmt.Sprintf("https://img.example.com/%d.jpg", i),
		})
	}
	return poi
}

func TestFormatWeather(t *testing.T) {
	resp := &models.WeatherResponse{
		Status: "1",
		Forecasts: []models.Forecast{{
			City:       "Haikou",
			Province:   "Hainan",
			ReportTime: "2026-08-28 08:00:00",
			Casts: []models.Cast{
				{Date: "2026-08-28", Week: "5", DayWeather: "Sunny", NightWeather: "Clear", DayTemp: "33", NightTemp: "26", DayWind: "SE", NightWind: "SE"},
				{Date: "2026-08-29", Week: "6", DayWeather: "Showers", NightWeather: "Cloudy", DayTemp: "31", NightTemp: "25", DayWind: "S", NightWind: "S"},
			},
		}},
	}

	out := FormatWeather(resp)

	assert.Contains(t, out, "Haikou, Hainan")
	assert.Contains(t, out, "2026-08-28 (Fri)")
	assert.Contains(t, out, "Sunny")
	assert.Contains(t, out, "33°C")
	assert.Contains(t, out, "2026-08-29 (Sat)")
}

func TestFormatWeather_EmptyResponse(t *testing.T) {
	assert.Contains(t, FormatWeather(nil), "No weather forecast")
	assert.Contains(t, FormatWeather(&models.WeatherResponse{}), "No weather forecast")
}

func TestFormatPOIs_SmallResultShowsAll(t *testing.T) {
	resp := &models.POIResponse{
		Status: "1",
		Count:  "2",
		POIs:   []models.POI{scenicPOI("B001", 0), {ID: "B002", Name: "Noodle House", Type: "餐饮服务"}},
	}

	out := FormatPOIs(resp)

	assert.Contains(t, out, "Found 2 results")
	assert.NotContains(t, out, "showing the first")
	assert.Contains(t, out, "**West Lake**")
	assert.Contains(t, out, "**Noodle House**")
	assert.Contains(t, out, "Address: HangzhouXihu1 Lakeside Rd")
	assert.Contains(t, out, "POI ID: B001")
	assert.Contains(t, out, "Rating: 4.8")
	assert.Contains(t, out, "Open hours: 07:00-18:00")
	assert.Contains(t, out, "Level: 5A")
}

func TestFormatPOIs_LargeResultTruncatesToTen(t *testing.T) {
	resp := &models.POIResponse{Status: "1", Count: "87"}
	for i := 0; i < 20; i++ {
		resp.POIs = append(resp.POIs, models.POI{ID: fmt.Sprintf("B%03d", i), Name: fmt.Sprintf("Place %d", i)})
	}

	out := FormatPOIs(resp)

	assert.Contains(t, out, "Found 87 results; showing the first 10")
	assert.Contains(t, out, "Place 9")
	assert.NotContains(t, out, "Place 10")
}

func TestFormatPOIs_PhotoGalleryOnlyForScenicSpots(t *testing.T) {
	// Scenic type with ID and photos gets the gallery
	out := FormatPOIs(&models.POIResponse{Status: "1", Count: "1", POIs: []models.POI{scenicPOI("B001", 2)}})
	assert.Contains(t, out, `<div class="poi-photo-container" data-poi-index="B001">`)
	assert.Contains(t, out, "poi-photo-nav prev")
	assert.Contains(t, out, "poi-photo-nav next")

	// Single photo: no nav buttons
	out = FormatPOIs(&models.POIResponse{Status: "1", Count: "1", POIs: []models.POI{scenicPOI("B001", 1)}})
	assert.Contains(t, out, "poi-photo-container")
	assert.NotContains(t, out, "poi-photo-nav")

	// Non-scenic type: no gallery even with photos
	restaurant := scenicPOI("B002", 3)
	restaurant.Type = "餐饮服务;中餐厅"
	out = FormatPOIs(&models.POIResponse{Status: "1", Count: "1", POIs: []models.POI{restaurant}})
	assert.NotContains(t, out, "poi-photo-container")

	// Scenic but no ID: no gallery, the front end cannot bind controls
	anonymous := scenicPOI("", 3)
	out = FormatPOIs(&models.POIResponse{Status: "1", Count: "1", POIs: []models.POI{anonymous}})
	assert.NotContains(t, out, "poi-photo-container")
}

func TestFormatPOIs_PhotoGalleryCapsAtThree(t *testing.T) {
	out := FormatPOIs(&models.POIResponse{Status: "1", Count: "1", POIs: []models.POI{scenicPOI("B001", 5)}})

	assert.Equal(t, 3, strings.Count(out, "<img"))
}

func TestFormatDistance(t *testing.T) {
	resp := &models.DistanceResponse{
		Status:  "1",
		Results: []models.DistanceResult{{Distance: "15500", Duration: "1800"}},
	}

	out := FormatDistance(resp, "1")

	assert.Contains(t, out, "Driving distance: 15500 meters (15.50 km)")
	assert.Contains(t, out, "estimated travel time 30 minutes")
}

func TestFormatDistance_StraightLineOmitsDuration(t *testing.T) {
	resp := &models.DistanceResponse{
		Status:  "1",
		Results: []models.DistanceResult{{Distance: "980", Duration: "120"}},
	}

	out := FormatDistance(resp, "0")

	assert.Contains(t, out, "Straight-line distance: 980 meters (0.98 km)")
	assert.NotContains(t, out, "travel time")
}

func TestFormatDistance_WalkingMode(t *testing.T) {
	resp := &models.DistanceResponse{
		Status:  "1",
		Results: []models.DistanceResult{{Distance: "1200", Duration: "900"}},
	}

	out := FormatDistance(resp, "3")
	require.Contains(t, out, "Walking distance")
	assert.Contains(t, out, "15 minutes")
}

func TestFormatDistance_EmptyResponse(t *testing.T) {
	assert.Contains(t, FormatDistance(nil, "1"), "No distance result")
}
