package ors

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ORSProvider implements ports.RouteProvider against the OpenRouteService
// directions API. It performs exactly one attempt per call and classifies
// every failure into a typed ports.RouteError; retry policy belongs to
// the resolver.
//
// The provider is safe for concurrent use.
type ORSProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
}

// TruckProfile is the single routing profile the analyzer requests.
const TruckProfile = "driving-hgv"

func NewORSProvider(apiKey string) (*ORSProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	return &ORSProvider{
		session: &http.Client{Timeout: 30 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		profile: TruckProfile,
	}, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (o *ORSProvider) do(req *http.Request) (*http.Response, error) {
	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}
