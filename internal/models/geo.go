package models

// WeatherResponse is the AMap weather forecast response (extensions=all)
type WeatherResponse struct {
	Status    string     `json:"status"`
	Info      string     `json:"info"`
	Forecasts []Forecast `json:"forecasts"`
}

// Forecast holds the multi-day forecast for one city
type Forecast struct {
	City       string `json:"city"`
	Adcode     string `json:"adcode"`
	Province   string `json:"province"`
	ReportTime string `json:"reporttime"`
	Casts      []Cast `json:"casts"`
}

// Cast is a single day within a forecast
type Cast struct {
	Date         string `json:"date"`
	Week         string `json:"week"`
	DayWeather   string `json:"dayweather"`
	NightWeather string `json:"nightweather"`
	DayTemp      string `json:"daytemp"`
	NightTemp    string `json:"nighttemp"`
	DayWind      string `json:"daywind"`
	NightWind    string `json:"nightwind"`
}

// POIResponse is the AMap place search response (v3 text and around search)
type POIResponse struct {
	Status string `json:"status"`
	Info   string `json:"info"`
	Count  string `json:"count"`
	POIs   []POI  `json:"pois"`
}

// POI is a single point of interest
type POI struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Address  string     `json:"address"`
	Location string     `json:"location"`
	Tel      string     `json:"tel"`
	CityName string     `json:"cityname"`
	AdName   string     `json:"adname"`
	BizExt   *POIBizExt `json:"biz_ext,omitempty"`
	Photos   []POIPhoto `json:"photos,omitempty"`
}

// POIBizExt carries business extension fields (rating, hours, price)
type POIBizExt struct {
	Rating   string `json:"rating"`
	Cost     string `json:"cost"`
	OpenTime string `json:"opentime2"`
	Level    string `json:"level"`
}

// POIPhoto is a provider-hosted photo reference
type POIPhoto struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// DistanceResponse is the AMap distance measurement response
type DistanceResponse struct {
	Status  string           `json:"status"`
	Info    string           `json:"info"`
	Results []DistanceResult `json:"results"`
}

// DistanceResult is one origin/destination measurement
type DistanceResult struct {
	OriginID string `json:"origin_id"`
	DestID   string `json:"dest_id"`
	Distance string `json:"distance"` // meters
	Duration string `json:"duration"` // seconds, empty for straight-line
}
