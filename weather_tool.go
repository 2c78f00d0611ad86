package weatherfc

import (
	"context"
	"fmt"

	"github.com/lizzyg/weatherfc/internal/weather"
)

// WeatherArgs are the arguments of the get_weather tool.
type WeatherArgs struct {
	Location    string `json:"location" jsonschema_description:"The city and state/country, e.g., San Francisco, CA or Paris, France"`
	DatetimeStr string `json:"datetime_str,omitempty" jsonschema_description:"Optional. A date or natural language time reference like 'tomorrow', 'next Monday', or '2024-07-15'. If omitted, current weather or today's forecast is assumed."`
}

// WeatherTool exposes a weather lookup as the get_weather tool.
type WeatherTool struct {
	svc *weather.Service
}

func NewWeatherTool(svc *weather.Service) *WeatherTool { return &WeatherTool{svc: svc} }

func (t *WeatherTool) Name() string { return "get_weather" }
func (t *WeatherTool) Description() string {
	return "Get the current weather or forecast for a specific location and optional date."
}
func (t *WeatherTool) Parameters() any { return &WeatherArgs{} }

func (t *WeatherTool) Execute(ctx context.Context, args any) (string, error) {
	a, ok := args.(*WeatherArgs)
	if !ok {
		return "", fmt.Errorf("get_weather: unexpected argument type %T", args)
	}
	return t.svc.Lookup(ctx, a.Location, a.DatetimeStr)
}
