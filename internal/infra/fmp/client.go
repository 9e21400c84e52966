package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
)

// Client handles Financial Modeling Prep API requests
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new FMP client. An empty apiKey disables the client:
// Enabled reports false and every fetch fails fast.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://financialmodelingprep.com/api/v3"
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Quote is the FMP /quote response entry
type Quote struct {
	Symbol            string   `json:"symbol"`
	Price             *float64 `json:"price"`
	Change            *float64 `json:"change"`
	ChangesPercentage *float64 `json:"changesPercentage"`
	Volume            *int64   `json:"volume"`
	AvgVolume         *int64   `json:"avgVolume"`
	PreviousClose     *float64 `json:"previousClose"`
	Open              *float64 `json:"open"`
	DayLow            *float64 `json:"dayLow"`
	DayHigh           *float64 `json:"dayHigh"`
	YearLow           *float64 `json:"yearLow"`
	YearHigh          *float64 `json:"yearHigh"`
	MarketCap         *float64 `json:"marketCap"`
	PE                *float64 `json:"pe"`
	SharesOutstanding *int64   `json:"sharesOutstanding"`
}

// Profile is the FMP /profile response entry
type Profile struct {
	Symbol      string   `json:"symbol"`
	CompanyName string   `json:"companyName"`
	Sector      string   `json:"sector"`
	Industry    string   `json:"industry"`
	Exchange    string   `json:"exchangeShortName"`
	Country     string   `json:"country"`
	Currency    string   `json:"currency"`
	Website     string   `json:"website"`
	Description string   `json:"description"`
	CEO         string   `json:"ceo"`
	MarketCap   *float64 `json:"mktCap"`
	Beta        *float64 `json:"beta"`
	Image       string   `json:"image"`
}

// RatiosTTM is the FMP /ratios-ttm response entry
type RatiosTTM struct {
	PERatioTTM               *float64 `json:"peRatioTTM"`
	PEGRatioTTM              *float64 `json:"pegRatioTTM"`
	PriceToBookRatioTTM      *float64 `json:"priceToBookRatioTTM"`
	PriceToSalesRatioTTM     *float64 `json:"priceToSalesRatioTTM"`
	DividendYielTTM          *float64 `json:"dividendYielTTM"`
	NetProfitMarginTTM       *float64 `json:"netProfitMarginTTM"`
	OperatingProfitMarginTTM *float64 `json:"operatingProfitMarginTTM"`
	ReturnOnAssetsTTM        *float64 `json:"returnOnAssetsTTM"`
	ReturnOnEquityTTM        *float64 `json:"returnOnEquityTTM"`
}

// FetchQuote fetches the latest quote for a ticker
func (c *Client) FetchQuote(ctx context.Context, ticker string) (*Quote, error) {
	var quotes []Quote
	if err := c.getJSON(ctx, "/quote/"+ticker, &quotes); err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: %s", company.ErrCompanyNotFound, ticker)
	}
	return &quotes[0], nil
}

// FetchProfile fetches the company profile for a ticker
func (c *Client) FetchProfile(ctx context.Context, ticker string) (*Profile, error) {
	var profiles []Profile
	if err := c.getJSON(ctx, "/profile/"+ticker, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: %s", company.ErrCompanyNotFound, ticker)
	}
	return &profiles[0], nil
}

// FetchRatiosTTM fetches trailing-twelve-month ratios for a ticker
func (c *Client) FetchRatiosTTM(ctx context.Context, ticker string) (*RatiosTTM, error) {
	var ratios []RatiosTTM
	if err := c.getJSON(ctx, "/ratios-ttm/"+ticker, &ratios); err != nil {
		return nil, err
	}
	if len(ratios) == 0 {
		return nil, fmt.Errorf("%w: %s", company.ErrCompanyNotFound, ticker)
	}
	return &ratios[0], nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	if !c.Enabled() {
		return fmt.Errorf("%w: fmp api key not configured", company.ErrExternalAPI)
	}

	url := fmt.Sprintf("%s%s?apikey=%s", c.baseURL, path, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status=%d", company.ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status=%d", company.ErrExternalAPI, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
