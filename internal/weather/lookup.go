// Package weather resolves a place name and date expression into a one-day forecast summary
// using the Open-Meteo geocoding and forecast APIs.
package weather

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	moderr "github.com/lizzyg/weatherfc/errors"
	"github.com/lizzyg/weatherfc/internal/dates"
)

// Place is the first geocoding match for a location name.
type Place struct {
	Latitude  float64
	Longitude float64
	Name      string
}

// Forecast is a single day of forecast data for a place.
type Forecast struct {
	Place         string
	Date          string
	MaxTemp       float64
	MinTemp       float64
	Precipitation float64
}

// String renders the forecast the way it is shown to the model.
func (f Forecast) String() string {
	return fmt.Sprintf("Weather for %s on %s:\n- Max temperature: %s°C\n- Min temperature: %s°C\n- Precipitation: %s mm",
		f.Place, f.Date, formatNumber(f.MaxTemp), formatNumber(f.MinTemp), formatNumber(f.Precipitation))
}

// Service performs weather lookups.
type Service struct {
	client   *Client
	resolver *dates.Resolver
	logger   *slog.Logger
}

// NewService returns a Service. A nil resolver uses the wall clock; a nil logger uses slog.Default().
func NewService(c *Client, r *dates.Resolver, logger *slog.Logger) *Service {
	if r == nil {
		r = dates.NewResolver()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: c, resolver: r, logger: logger}
}

// Lookup returns the forecast summary for location on the date described by dateExpr
// (today when dateExpr is blank). Every failure is a *errors.Error whose message is
// suitable to show as-is.
func (s *Service) Lookup(ctx context.Context, location, dateExpr string) (string, error) {
	f, err := s.Forecast(ctx, location, dateExpr)
	if err != nil {
		s.logger.Debug("weather lookup failed",
			slog.String("location", location),
			slog.String("datetime_str", dateExpr),
			slog.String("kind", moderr.KindOf(err).String()),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	return f.String(), nil
}

// Forecast is Lookup without rendering.
func (s *Service) Forecast(ctx context.Context, location, dateExpr string) (Forecast, error) {
	if strings.TrimSpace(location) == "" {
		return Forecast{}, moderr.New(moderr.KindUnparsableInput, nil, "Sorry, I couldn't determine the location for the weather query.")
	}

	place, err := s.geocode(ctx, location)
	if err != nil {
		return Forecast{}, err
	}

	var date string
	if strings.TrimSpace(dateExpr) != "" {
		d, ok := s.resolver.Resolve(dateExpr)
		if !ok {
			return Forecast{}, moderr.New(moderr.KindUnparsableInput, nil, "Sorry, I couldn't understand the date/time '%s'.", dateExpr)
		}
		date = d.Format(dates.ISOLayout)
	} else {
		date = s.resolver.Today().Format(dates.ISOLayout)
	}

	resp, err := s.client.Forecast(ctx, place.Latitude, place.Longitude, date)
	if err != nil {
		return Forecast{}, err
	}
	d := resp.Daily
	if d == nil || len(d.Time) == 0 ||
		len(d.Temperature2mMax) == 0 || d.Temperature2mMax[0] == nil ||
		len(d.Temperature2mMin) == 0 || d.Temperature2mMin[0] == nil ||
		len(d.PrecipitationSum) == 0 || d.PrecipitationSum[0] == nil {
		return Forecast{}, moderr.New(moderr.KindMalformedResponse, nil, "Sorry, weather data is incomplete or unavailable for %s on %s.", place.Name, date)
	}

	return Forecast{
		Place:         place.Name,
		Date:          d.Time[0],
		MaxTemp:       *d.Temperature2mMax[0],
		MinTemp:       *d.Temperature2mMin[0],
		Precipitation: *d.PrecipitationSum[0],
	}, nil
}

func (s *Service) geocode(ctx context.Context, location string) (Place, error) {
	resp, err := s.client.Geocode(ctx, location)
	if err != nil {
		return Place{}, err
	}
	if len(resp.Results) == 0 {
		return Place{}, moderr.New(moderr.KindUnparsableInput, nil, "Sorry, I couldn't find location data for '%s'.", location)
	}
	r := resp.Results[0]
	if r.Latitude == nil || r.Longitude == nil || r.Name == "" {
		return Place{}, moderr.New(moderr.KindMalformedResponse, nil, "Sorry, couldn't parse geocoding data for '%s'.", location)
	}
	return Place{Latitude: *r.Latitude, Longitude: *r.Longitude, Name: r.Name}, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
