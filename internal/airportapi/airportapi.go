// Package airportapi is a thin client for the third-party data APIs the
// service proxies: airport lookup by IATA code (RapidAPI airport-info) and
// the country list. Responses are passed through untouched.
package airportapi

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

const rapidAPIHost = "airport-info.p.rapidapi.com"

// Client performs the outbound lookups.
type Client struct {
	airports  *resty.Client
	countries *resty.Client
}

// New builds a Client for the given API base URLs. The RapidAPI key is
// attached to every airport lookup.
func New(airportBaseURL, countryBaseURL, rapidAPIKey string, timeout time.Duration) *Client {
	airports := resty.New().
		SetBaseURL(airportBaseURL).
		SetTimeout(timeout).
		SetHeader("x-rapidapi-key", rapidAPIKey).
		SetHeader("x-rapidapi-host", rapidAPIHost)

	countries := resty.New().
		SetBaseURL(countryBaseURL).
		SetTimeout(timeout)

	return &Client{
		airports:  airports,
		countries: countries,
	}
}

// AirportByIATA fetches the airport record for the given IATA code.
// The upstream body and status code are returned verbatim.
func (c *Client) AirportByIATA(ctx context.Context, iata string) ([]byte, int, error) {
	resp, err := c.airports.R().
		SetContext(ctx).
		SetQueryParam("iata", iata).
		Get("/airport")
	if err != nil {
		return nil, 0, err
	}

	return resp.Body(), resp.StatusCode(), nil
}

// Countries fetches the country list. The upstream body and status code are
// returned verbatim.
func (c *Client) Countries(ctx context.Context) ([]byte, int, error) {
	resp, err := c.countries.R().
		SetContext(ctx).
		SetQueryParam("fields", "name,cca2").
		Get("/all")
	if err != nil {
		return nil, 0, err
	}

	return resp.Body(), resp.StatusCode(), nil
}
