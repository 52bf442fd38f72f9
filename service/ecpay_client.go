package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marelle-logistics/config"
)

// ProviderResult is the normalized outcome of one provider exchange. OK is
// HTTP-level success only; business success lives in Parsed["RtnCode"] and
// is interpreted by the caller, not here.
type ProviderResult struct {
	OK      bool
	Status  int
	RawBody string
	Parsed  map[string]string
}

// ExpressClient talks to the ECPay Express Logistics API.
type ExpressClient struct {
	ProductionBaseURL string
	StageBaseURL      string
	HTTPClient        *http.Client
}

func NewExpressClient(cfg config.ECPayConfig) *ExpressClient {
	client := &http.Client{Timeout: 20 * time.Second}
	return &ExpressClient{
		ProductionBaseURL: cfg.ProductionBaseURL,
		StageBaseURL:      cfg.StageBaseURL,
		HTTPClient:        client,
	}
}

// Endpoint selects the provider URL for one request: host by environment,
// path by direction and logistics type.
func (c *ExpressClient) Endpoint(env Environment, direction Direction, logisticsType LogisticsType) (string, error) {
	if c == nil {
		return "", fmt.Errorf("ecpay client is nil")
	}

	base := c.StageBaseURL
	if env == EnvProduction {
		base = c.ProductionBaseURL
	}

	if direction == DirectionForward {
		return base + "/Express/Create", nil
	}
	switch logisticsType {
	case TypeHome:
		return base + "/Express/ReturnHome", nil
	case TypeCVS:
		return base + "/Express/ReturnCVS", nil
	default:
		return "", fmt.Errorf("no reverse endpoint for logistics type %q", logisticsType)
	}
}

// CreateShipment posts the signed payload as a form body and parses the
// provider's key=value&... plain-text reply. Every payload field is sent,
// absent values as empty strings, because the provider's form parser expects
// all documented fields present.
//
// Transport failures do not surface as errors: they come back as OK=false so
// the caller can persist a terminal failed record (error returns are reserved
// for request construction).
func (c *ExpressClient) CreateShipment(ctx context.Context, env Environment, direction Direction, logisticsType LogisticsType, payload map[string]string) (*ProviderResult, error) {
	if c == nil {
		return nil, fmt.Errorf("ecpay client is nil")
	}

	endpoint, err := c.Endpoint(env, direction, logisticsType)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	for key, value := range payload {
		form.Set(key, value)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		log.Println("❌ ECPay request failed:", err)
		return &ProviderResult{OK: false, Status: 0, Parsed: map[string]string{}}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Println("❌ Failed to read ECPay response:", err)
		return &ProviderResult{OK: false, Status: resp.StatusCode, Parsed: map[string]string{}}, nil
	}

	return &ProviderResult{
		OK:      resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:  resp.StatusCode,
		RawBody: string(body),
		Parsed:  ParseProviderResponse(string(body)),
	}, nil
}

// ParseProviderResponse parses the provider's key=value&key=value reply.
// The format is not contractually guaranteed byte-for-byte, so parsing is
// lenient: tokens without '=' are skipped, values that fail URL-decoding are
// kept raw.
func ParseProviderResponse(body string) map[string]string {
	parsed := make(map[string]string)
	for _, token := range strings.Split(body, "&") {
		if token == "" {
			continue
		}
		parts := strings.SplitN(token, "=", 2)
		if len(parts) != 2 {
			continue
		}
		value, err := url.QueryUnescape(parts[1])
		if err != nil {
			value = parts[1]
		}
		parsed[parts[0]] = value
	}
	return parsed
}

func (c *ExpressClient) httpClient() *http.Client {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	return c.HTTPClient
}
