package fxrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/aasta/aasta-backend/pkg/config"
)

// Upstream fetches rates from an open.er-api.com style endpoint:
// {"result":"success","rates":{"USD":0.012,...}}.
type Upstream struct {
	http  *resty.Client
	url   string
	quote string
}

type upstreamBody struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// NewUpstream builds the fetcher. A nil httpClient gets a fresh resty client.
func NewUpstream(cfg config.FXConfig, httpClient *resty.Client) *Upstream {
	if httpClient == nil {
		httpClient = resty.New()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	httpClient.SetTimeout(timeout)
	return &Upstream{
		http:  httpClient,
		url:   strings.TrimSpace(cfg.URL),
		quote: strings.ToUpper(strings.TrimSpace(cfg.Quote)),
	}
}

func (u *Upstream) Fetch(ctx context.Context) (float64, error) {
	if u.url == "" {
		return 0, fmt.Errorf("fx upstream url is empty")
	}

	var body upstreamBody
	resp, err := u.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(&body).
		Get(u.url)
	if err != nil {
		return 0, fmt.Errorf("fetch fx rate: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("fetch fx rate: status %d", resp.StatusCode())
	}
	if body.Result != "" && body.Result != "success" {
		return 0, fmt.Errorf("fetch fx rate: upstream result %q", body.Result)
	}

	rate, ok := body.Rates[u.quote]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("fetch fx rate: no %s rate in response", u.quote)
	}
	return rate, nil
}
