// Package weather fetches show-site conditions from the Weather.com
// API: current observations from a personal weather station plus an
// hourly forecast. Weather is advisory display data; every failure here
// is logged and tolerated, never fatal to the console.
package weather

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Secrets carries the API credentials, kept outside the main config
// file.
type Secrets struct {
	PWS struct {
		APIKey    string `json:"api_key"`
		StationID string `json:"station_id"`
	} `json:"pws"`
	Forecast struct {
		APIKey  string `json:"api_key"`
		Geocode string `json:"geocode"`
	} `json:"forecast"`
}

// LoadSecrets reads the secrets file. A missing file is an error the
// caller may choose to tolerate by running without weather.
func LoadSecrets(path string) (*Secrets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weather secrets: %w", err)
	}
	var s Secrets
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse weather secrets %s: %w", path, err)
	}
	return &s, nil
}

// Observation is the current-conditions snapshot from the station.
type Observation struct {
	TempC         float64 `json:"temp"`
	Humidity      float64 `json:"humidity"`
	WindSpeedKmh  float64 `json:"wind_speed"`
	WindGustKmh   float64 `json:"wind_gust"`
	WindDegree    float64 `json:"wind_degree"`
	WindDirection string  `json:"wind_dir"`
	PrecipRate    float64 `json:"precip_rate"`
	PrecipTotal   float64 `json:"precip_total"`
	PressureHpa   float64 `json:"pressure"`
	UV            float64 `json:"uv"`
	StationID     string  `json:"station_id"`
	ObsTime       string  `json:"obs_time"`
}

// ForecastHour is one hour of the forecast.
type ForecastHour struct {
	Time         string  `json:"time"`
	TimeShort    string  `json:"time_short"`
	TempC        float64 `json:"temp"`
	Condition    string  `json:"condition"`
	PrecipChance float64 `json:"precip_chance"`
	WindSpeedKmh float64 `json:"wind_speed"`
	WindGustKmh  float64 `json:"wind_gust"`
	WindDir      string  `json:"wind_dir"`
}

// Client queries the Weather.com endpoints.
type Client struct {
	secrets *Secrets
	http    *http.Client
	baseURL string
}

// NewClient creates a weather client with the API default endpoints.
func NewClient(secrets *Secrets) *Client {
	return &Client{
		secrets: secrets,
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://api.weather.com",
	}
}

// pwsResponse mirrors the v2 PWS observations payload.
type pwsResponse struct {
	Observations []struct {
		StationID    string   `json:"stationID"`
		ObsTimeLocal string   `json:"obsTimeLocal"`
		WindDir      *float64 `json:"winddir"`
		Humidity     *float64 `json:"humidity"`
		UV           *float64 `json:"uv"`
		Metric       struct {
			Temp        *float64 `json:"temp"`
			WindSpeed   *float64 `json:"windSpeed"`
			WindGust    *float64 `json:"windGust"`
			PrecipRate  *float64 `json:"precipRate"`
			PrecipTotal *float64 `json:"precipTotal"`
			Pressure    *float64 `json:"pressure"`
		} `json:"metric"`
	} `json:"observations"`
}

// Current fetches the station's current observation. The station
// reports wind in m/s; it is converted to km/h here.
func (c *Client) Current() (*Observation, error) {
	if c.secrets.PWS.APIKey == "" || c.secrets.PWS.StationID == "" {
		return nil, fmt.Errorf("pws api_key or station_id not configured")
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("units", "m")
	q.Set("numericPrecision", "decimal")
	q.Set("stationId", c.secrets.PWS.StationID)
	q.Set("apiKey", c.secrets.PWS.APIKey)

	var resp pwsResponse
	if err := c.get("/v2/pws/observations/current?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Observations) == 0 {
		return nil, fmt.Errorf("no observations in response")
	}

	obs := resp.Observations[0]
	o := &Observation{
		TempC:         deref(obs.Metric.Temp),
		Humidity:      deref(obs.Humidity),
		WindSpeedKmh:  deref(obs.Metric.WindSpeed) * 3.6,
		WindGustKmh:   deref(obs.Metric.WindGust) * 3.6,
		WindDegree:    deref(obs.WindDir),
		WindDirection: WindDirection(obs.WindDir),
		PrecipRate:    deref(obs.Metric.PrecipRate),
		PrecipTotal:   deref(obs.Metric.PrecipTotal),
		PressureHpa:   deref(obs.Metric.Pressure),
		UV:            deref(obs.UV),
		StationID:     obs.StationID,
		ObsTime:       obs.ObsTimeLocal,
	}
	return o, nil
}

// forecastResponse mirrors the v3 hourly forecast payload: parallel
// arrays with one entry per hour.
type forecastResponse struct {
	ValidTimeLocal        []string  `json:"validTimeLocal"`
	Temperature           []float64 `json:"temperature"`
	WxPhraseLong          []string  `json:"wxPhraseLong"`
	PrecipChance          []float64 `json:"precipChance"`
	WindSpeed             []float64 `json:"windSpeed"`
	WindGust              []float64 `json:"windGust"`
	WindDirectionCardinal []string  `json:"windDirectionCardinal"`
}

// Forecast fetches up to hours (max 24) of the hourly forecast.
func (c *Client) Forecast(hours int) ([]ForecastHour, error) {
	if c.secrets.Forecast.APIKey == "" || c.secrets.Forecast.Geocode == "" {
		return nil, fmt.Errorf("forecast api_key or geocode not configured")
	}
	if hours > 24 {
		hours = 24
	}

	q := url.Values{}
	q.Set("apiKey", c.secrets.Forecast.APIKey)
	q.Set("geocode", c.secrets.Forecast.Geocode)
	q.Set("units", "m")
	q.Set("language", "en-US")
	q.Set("format", "json")

	var resp forecastResponse
	if err := c.get("/v3/wx/forecast/hourly/1day?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	n := len(resp.ValidTimeLocal)
	if hours < n {
		n = hours
	}
	out := make([]ForecastHour, 0, n)
	for i := 0; i < n; i++ {
		h := ForecastHour{
			Time:      resp.ValidTimeLocal[i],
			TimeShort: shortTime(resp.ValidTimeLocal[i]),
		}
		if i < len(resp.Temperature) {
			h.TempC = resp.Temperature[i]
		}
		if i < len(resp.WxPhraseLong) {
			h.Condition = resp.WxPhraseLong[i]
		}
		if i < len(resp.PrecipChance) {
			h.PrecipChance = resp.PrecipChance[i]
		}
		if i < len(resp.WindSpeed) {
			h.WindSpeedKmh = resp.WindSpeed[i]
		}
		if i < len(resp.WindGust) {
			h.WindGustKmh = resp.WindGust[i]
		}
		if i < len(resp.WindDirectionCardinal) {
			h.WindDir = resp.WindDirectionCardinal[i]
		}
		out = append(out, h)
	}
	return out, nil
}

func (c *Client) get(path string, v interface{}) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather request: status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode weather response: %w", err)
	}
	return nil
}

var compass = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WindDirection converts degrees to a 16-point compass label.
func WindDirection(degree *float64) string {
	if degree == nil {
		return "?"
	}
	normalized := math.Mod(*degree, 360)
	if normalized < 0 {
		normalized += 360
	}
	idx := int(math.Round(normalized/(360/float64(len(compass))))) % len(compass)
	return compass[idx]
}

// shortTime extracts "HH:MM" from an ISO local timestamp.
func shortTime(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i >= 0 && len(ts) >= i+6 {
		return ts[i+1 : i+6]
	}
	return ts
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
