// Package weather fetches current conditions and a short forecast for a
// farm's coordinates. The provider is best-effort: callers degrade to an
// empty snapshot when it fails.
package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Provider is the weather collaborator injected into the recommendation
// trigger; tests substitute a fake.
type Provider interface {
	Fetch(ctx context.Context, latitude, longitude float64) (*Snapshot, error)
}

// Snapshot is the merged weather context handed to the text generator and
// stored alongside the daily recommendation.
type Snapshot struct {
	Current  *Current      `json:"current,omitempty"`
	Forecast []ForecastDay `json:"forecast,omitempty"`
}

type Current struct {
	TemperatureC float64 `json:"temperatureC"`
	HumidityPct  float64 `json:"humidityPct"`
	WindSpeedKmh float64 `json:"windSpeedKmh"`
	RainfallMm   float64 `json:"rainfallMm"`
}

type ForecastDay struct {
	Date                string  `json:"date"`
	TempMaxC            float64 `json:"tempMaxC"`
	TempMinC            float64 `json:"tempMinC"`
	RainfallProbability float64 `json:"rainfallProbability"`
	RainfallMm          float64 `json:"rainfallMm"`
}

// Client talks to an Open-Meteo compatible forecast endpoint.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

// openMeteoResponse mirrors the subset of the forecast payload we use.
type openMeteoResponse struct {
	Current struct {
		Temperature2m      float64 `json:"temperature_2m"`
		RelativeHumidity2m float64 `json:"relative_humidity_2m"`
		WindSpeed10m       float64 `json:"wind_speed_10m"`
		Precipitation      float64 `json:"precipitation"`
	} `json:"current"`
	Daily struct {
		Time                        []string  `json:"time"`
		Temperature2mMax            []float64 `json:"temperature_2m_max"`
		Temperature2mMin            []float64 `json:"temperature_2m_min"`
		PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
		PrecipitationSum            []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Fetch retrieves current conditions plus a 7-day forecast.
func (c *Client) Fetch(ctx context.Context, latitude, longitude float64) (*Snapshot, error) {
	var result openMeteoResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":      fmt.Sprintf("%.4f", latitude),
			"longitude":     fmt.Sprintf("%.4f", longitude),
			"current":       "temperature_2m,relative_humidity_2m,wind_speed_10m,precipitation",
			"daily":         "temperature_2m_max,temperature_2m_min,precipitation_probability_max,precipitation_sum",
			"forecast_days": "7",
			"timezone":      "auto",
		}).
		SetResult(&result).
		Get("/v1/forecast")

	if err != nil {
		c.logger.Warn("Weather API call failed",
			zap.Float64("latitude", latitude),
			zap.Float64("longitude", longitude),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to call weather API: %w", err)
	}
	if resp.IsError() {
		c.logger.Warn("Weather API returned error status",
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("weather API error: status %d", resp.StatusCode())
	}

	snapshot := &Snapshot{
		Current: &Current{
			TemperatureC: result.Current.Temperature2m,
			HumidityPct:  result.Current.RelativeHumidity2m,
			WindSpeedKmh: result.Current.WindSpeed10m,
			RainfallMm:   result.Current.Precipitation,
		},
	}
	for i, day := range result.Daily.Time {
		f := ForecastDay{Date: day}
		if i < len(result.Daily.Temperature2mMax) {
			f.TempMaxC = result.Daily.Temperature2mMax[i]
		}
		if i < len(result.Daily.Temperature2mMin) {
			f.TempMinC = result.Daily.Temperature2mMin[i]
		}
		if i < len(result.Daily.PrecipitationProbabilityMax) {
			f.RainfallProbability = result.Daily.PrecipitationProbabilityMax[i]
		}
		if i < len(result.Daily.PrecipitationSum) {
			f.RainfallMm = result.Daily.PrecipitationSum[i]
		}
		snapshot.Forecast = append(snapshot.Forecast, f)
	}

	return snapshot, nil
}
