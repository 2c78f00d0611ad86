package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mutablelogic/go-client"
	"github.com/mutablelogic/go-server/pkg/httpresponse"

	moderr "github.com/lizzyg/weatherfc/errors"
)

// dailyFields are the forecast series requested from Open-Meteo.
const dailyFields = "temperature_2m_max,temperature_2m_min,precipitation_sum"

// Client talks to the Open-Meteo geocoding and forecast endpoints.
type Client struct {
	geocode  *client.Client
	forecast *client.Client
}

// NewClient returns a client for the given geocoding and forecast endpoint URLs.
func NewClient(geocodeURL, forecastURL string, opts ...client.ClientOpt) (*Client, error) {
	geo, err := client.New(append(opts, client.OptEndpoint(geocodeURL))...)
	if err != nil {
		return nil, err
	}
	fc, err := client.New(append(opts, client.OptEndpoint(forecastURL))...)
	if err != nil {
		return nil, err
	}
	return &Client{geocode: geo, forecast: fc}, nil
}

// GeocodeResponse is the body of a geocoding search.
type GeocodeResponse struct {
	Results []struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Name      string   `json:"name"`
	} `json:"results"`
}

// ForecastResponse is the body of a daily forecast request.
type ForecastResponse struct {
	Daily *struct {
		Time             []string   `json:"time"`
		Temperature2mMax []*float64 `json:"temperature_2m_max"`
		Temperature2mMin []*float64 `json:"temperature_2m_min"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Geocode returns the first match for name.
func (c *Client) Geocode(ctx context.Context, name string) (*GeocodeResponse, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")

	var resp GeocodeResponse
	if err := c.geocode.DoWithContext(ctx, nil, &jsonBody{v: &resp}, client.OptQuery(q)); err != nil {
		if isDecodeError(err) {
			return nil, moderr.New(moderr.KindMalformedResponse, err, "Sorry, the geocoding service returned an invalid response.")
		}
		return nil, moderr.New(moderr.KindTransport, err, "Sorry, there was an error contacting the geocoding service: %v", err)
	}
	return &resp, nil
}

// Forecast returns the daily forecast for the coordinates on the given ISO date.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, date string) (*ForecastResponse, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("daily", dailyFields)
	q.Set("timezone", "auto")
	q.Set("start_date", date)
	q.Set("end_date", date)

	var resp ForecastResponse
	if err := c.forecast.DoWithContext(ctx, nil, &jsonBody{v: &resp}, client.OptQuery(q)); err != nil {
		if isDecodeError(err) {
			return nil, moderr.New(moderr.KindMalformedResponse, err, "Sorry, the weather service returned an invalid response.")
		}
		return nil, moderr.New(moderr.KindTransport, err, "Sorry, there was an error retrieving the weather data: %v", err)
	}
	return &resp, nil
}

///////////////////////////////////////////////////////////////////////////////
// UNMARSHALER

var errInvalidBody = errors.New("invalid response body")

// jsonBody decodes a successful response as JSON whatever content type the
// server declared.
type jsonBody struct {
	v any
}

func (b *jsonBody) Unmarshal(header http.Header, body io.Reader) error {
	if err := json.NewDecoder(body).Decode(b.v); err != nil {
		return fmt.Errorf("%w (%s): %v", errInvalidBody, header.Get("Content-Type"), err)
	}
	return nil
}

// isDecodeError reports a body that could not be read as JSON, including one
// whose Content-Type header go-client could not parse.
func isDecodeError(err error) bool {
	var code httpresponse.Err
	if errors.As(err, &code) && code == http.StatusUnsupportedMediaType {
		return true
	}
	return errors.Is(err, errInvalidBody)
}
