package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
)

// Client handles Yahoo Finance API requests
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Yahoo Finance client
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Info is the flattened company snapshot assembled from the quoteSummary
// modules. Every field is independently nullable.
type Info struct {
	Name        *string
	Sector      *string
	Industry    *string
	Exchange    *string
	Country     *string
	Currency    *string
	Website     *string
	Description *string
	CEO         *string
	Officers    []company.Officer

	MarketCap         *float64
	SharesOutstanding *int64

	CurrentPrice               *float64
	RegularMarketChange        *float64
	RegularMarketChangePercent *float64
	PreviousClose              *float64
	Open                       *float64
	DayLow                     *float64
	DayHigh                    *float64
	FiftyTwoWeekLow            *float64
	FiftyTwoWeekHigh           *float64
	Volume                     *int64
	AverageVolume              *int64

	TrailingPE    *float64
	ForwardPE     *float64
	PegRatio      *float64
	PriceToBook   *float64
	PriceToSales  *float64
	Beta          *float64
	DividendRate  *float64
	DividendYield *float64

	ProfitMargins    *float64
	OperatingMargins *float64
	ReturnOnAssets   *float64
	ReturnOnEquity   *float64
	RevenueGrowth    *float64
	EarningsGrowth   *float64
}

// IntradayBar is the latest 1-minute bar snapshot used for drift detection
type IntradayBar struct {
	Price  float64
	Volume int64
}

// =============================================================================
// Wire Types
// =============================================================================

// rawValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} number wrapper
type rawValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

func (v *rawValue) float() *float64 {
	if v == nil {
		return nil
	}
	return v.Raw
}

func (v *rawValue) int() *int64 {
	if v == nil || v.Raw == nil {
		return nil
	}
	n := int64(*v.Raw)
	return &n
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *apiError            `json:"error"`
	} `json:"quoteSummary"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type quoteSummaryResult struct {
	AssetProfile *struct {
		Sector              string `json:"sector"`
		Industry            string `json:"industry"`
		Country             string `json:"country"`
		Website             string `json:"website"`
		LongBusinessSummary string `json:"longBusinessSummary"`
		CompanyOfficers     []struct {
			Name  string `json:"name"`
			Title string `json:"title"`
			Age   *int64 `json:"age"`
		} `json:"companyOfficers"`
	} `json:"assetProfile"`

	Price *struct {
		ShortName                  string    `json:"shortName"`
		LongName                   string    `json:"longName"`
		ExchangeName               string    `json:"exchangeName"`
		Currency                   string    `json:"currency"`
		MarketCap                  *rawValue `json:"marketCap"`
		RegularMarketPrice         *rawValue `json:"regularMarketPrice"`
		RegularMarketChange        *rawValue `json:"regularMarketChange"`
		RegularMarketChangePercent *rawValue `json:"regularMarketChangePercent"`
		RegularMarketPreviousClose *rawValue `json:"regularMarketPreviousClose"`
		RegularMarketOpen          *rawValue `json:"regularMarketOpen"`
		RegularMarketDayLow        *rawValue `json:"regularMarketDayLow"`
		RegularMarketDayHigh       *rawValue `json:"regularMarketDayHigh"`
		RegularMarketVolume        *rawValue `json:"regularMarketVolume"`
	} `json:"price"`

	SummaryDetail *struct {
		PreviousClose                *rawValue `json:"previousClose"`
		Open                         *rawValue `json:"open"`
		DayLow                       *rawValue `json:"dayLow"`
		DayHigh                      *rawValue `json:"dayHigh"`
		FiftyTwoWeekLow              *rawValue `json:"fiftyTwoWeekLow"`
		FiftyTwoWeekHigh             *rawValue `json:"fiftyTwoWeekHigh"`
		Volume                       *rawValue `json:"volume"`
		AverageVolume                *rawValue `json:"averageVolume"`
		Beta                         *rawValue `json:"beta"`
		TrailingPE                   *rawValue `json:"trailingPE"`
		ForwardPE                    *rawValue `json:"forwardPE"`
		PriceToSalesTrailing12Months *rawValue `json:"priceToSalesTrailing12Months"`
		DividendRate                 *rawValue `json:"dividendRate"`
		DividendYield                *rawValue `json:"dividendYield"`
		MarketCap                    *rawValue `json:"marketCap"`
	} `json:"summaryDetail"`

	DefaultKeyStatistics *struct {
		PegRatio          *rawValue `json:"pegRatio"`
		PriceToBook       *rawValue `json:"priceToBook"`
		SharesOutstanding *rawValue `json:"sharesOutstanding"`
		ProfitMargins     *rawValue `json:"profitMargins"`
	} `json:"defaultKeyStatistics"`

	FinancialData *struct {
		CurrentPrice     *rawValue `json:"currentPrice"`
		ProfitMargins    *rawValue `json:"profitMargins"`
		OperatingMargins *rawValue `json:"operatingMargins"`
		ReturnOnAssets   *rawValue `json:"returnOnAssets"`
		ReturnOnEquity   *rawValue `json:"returnOnEquity"`
		RevenueGrowth    *rawValue `json:"revenueGrowth"`
		EarningsGrowth   *rawValue `json:"earningsGrowth"`
	} `json:"financialData"`

	IncomeStatementHistory            *statementHistory `json:"incomeStatementHistory"`
	IncomeStatementHistoryQuarterly   *statementHistory `json:"incomeStatementHistoryQuarterly"`
	BalanceSheetHistory               *balanceHistory   `json:"balanceSheetHistory"`
	BalanceSheetHistoryQuarterly      *balanceHistory   `json:"balanceSheetHistoryQuarterly"`
	CashflowStatementHistory          *cashflowHistory  `json:"cashflowStatementHistory"`
	CashflowStatementHistoryQuarterly *cashflowHistory  `json:"cashflowStatementHistoryQuarterly"`
}

// statement rows arrive as arbitrary line-item -> rawValue objects; they are
// decoded generically so new line items need no code change
type statementRow map[string]json.RawMessage

type statementHistory struct {
	IncomeStatementHistory []statementRow `json:"incomeStatementHistory"`
}

type balanceHistory struct {
	BalanceSheetStatements []statementRow `json:"balanceSheetStatements"`
}

type cashflowHistory struct {
	CashflowStatements []statementRow `json:"cashflowStatements"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
			Events *struct {
				Dividends map[string]struct {
					Amount float64 `json:"amount"`
					Date   int64   `json:"date"`
				} `json:"dividends"`
			} `json:"events"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

// =============================================================================
// Public API
// =============================================================================

const infoModules = "assetProfile,price,summaryDetail,defaultKeyStatistics,financialData"

const statementModules = "incomeStatementHistory,incomeStatementHistoryQuarterly," +
	"balanceSheetHistory,balanceSheetHistoryQuarterly," +
	"cashflowStatementHistory,cashflowStatementHistoryQuarterly"

// FetchInfo fetches the company profile, quote and metrics snapshot
func (c *Client) FetchInfo(ctx context.Context, ticker string) (*Info, error) {
	result, err := c.quoteSummary(ctx, ticker, infoModules)
	if err != nil {
		return nil, err
	}
	return convertInfo(result), nil
}

// FetchStatements fetches annual and quarterly financial statements
func (c *Client) FetchStatements(ctx context.Context, ticker string) (*company.FinancialStatements, error) {
	result, err := c.quoteSummary(ctx, ticker, statementModules)
	if err != nil {
		return nil, err
	}

	statements := &company.FinancialStatements{}
	if h := result.IncomeStatementHistory; h != nil {
		statements.IncomeStatement.Annual = convertStatementRows(h.IncomeStatementHistory)
	}
	if h := result.IncomeStatementHistoryQuarterly; h != nil {
		statements.IncomeStatement.Quarterly = convertStatementRows(h.IncomeStatementHistory)
	}
	if h := result.BalanceSheetHistory; h != nil {
		statements.BalanceSheet.Annual = convertStatementRows(h.BalanceSheetStatements)
	}
	if h := result.BalanceSheetHistoryQuarterly; h != nil {
		statements.BalanceSheet.Quarterly = convertStatementRows(h.BalanceSheetStatements)
	}
	if h := result.CashflowStatementHistory; h != nil {
		statements.CashFlowStatement.Annual = convertStatementRows(h.CashflowStatements)
	}
	if h := result.CashflowStatementHistoryQuarterly; h != nil {
		statements.CashFlowStatement.Quarterly = convertStatementRows(h.CashflowStatements)
	}

	return statements, nil
}

// FetchHistory fetches daily bars and dividend events for the given range
// (e.g. "1y", "6mo")
func (c *Client) FetchHistory(ctx context.Context, ticker, period string) ([]company.PricePoint, []company.DividendPoint, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d&events=div", c.baseURL, ticker, period)

	var parsed chartResponse
	if err := c.getJSON(ctx, url, &parsed); err != nil {
		return nil, nil, err
	}
	if parsed.Chart.Error != nil {
		return nil, nil, fmt.Errorf("%w: %s", company.ErrExternalAPI, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, nil, fmt.Errorf("%w: empty chart result for %s", company.ErrInvalidResponse, ticker)
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil, fmt.Errorf("%w: missing quote indicators for %s", company.ErrInvalidResponse, ticker)
	}
	quote := result.Indicators.Quote[0]

	prices := make([]company.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		point := company.PricePoint{
			Date: time.Unix(ts, 0).UTC().Format("2006-01-02"),
		}
		if i < len(quote.Open) {
			point.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			point.High = quote.High[i]
		}
		if i < len(quote.Low) {
			point.Low = quote.Low[i]
		}
		if i < len(quote.Close) {
			point.Close = quote.Close[i]
		}
		if i < len(quote.Volume) {
			point.Volume = quote.Volume[i]
		}
		prices = append(prices, point)
	}

	var dividends []company.DividendPoint
	if result.Events != nil {
		for _, div := range result.Events.Dividends {
			dividends = append(dividends, company.DividendPoint{
				Date:   time.Unix(div.Date, 0).UTC().Format("2006-01-02"),
				Amount: div.Amount,
			})
		}
		sort.Slice(dividends, func(i, j int) bool { return dividends[i].Date < dividends[j].Date })
	}

	return prices, dividends, nil
}

// FetchIntraday fetches the latest 1-minute bar snapshot: last traded price
// and cumulative session volume
func (c *Client) FetchIntraday(ctx context.Context, ticker string) (*IntradayBar, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1m", c.baseURL, ticker)

	var parsed chartResponse
	if err := c.getJSON(ctx, url, &parsed); err != nil {
		return nil, err
	}
	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s", company.ErrExternalAPI, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: empty chart result for %s", company.ErrInvalidResponse, ticker)
	}

	result := parsed.Chart.Result[0]
	bar := &IntradayBar{}

	if result.Meta.RegularMarketPrice != nil {
		bar.Price = *result.Meta.RegularMarketPrice
	}
	if len(result.Indicators.Quote) > 0 {
		quote := result.Indicators.Quote[0]
		for _, v := range quote.Volume {
			if v != nil {
				bar.Volume += *v
			}
		}
		if bar.Price == 0 {
			for i := len(quote.Close) - 1; i >= 0; i-- {
				if quote.Close[i] != nil {
					bar.Price = *quote.Close[i]
					break
				}
			}
		}
	}

	if bar.Price == 0 {
		return nil, fmt.Errorf("%w: no intraday price for %s", company.ErrInvalidResponse, ticker)
	}
	return bar, nil
}

// =============================================================================
// Internal Methods
// =============================================================================

func (c *Client) quoteSummary(ctx context.Context, ticker, modules string) (*quoteSummaryResult, error) {
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s", c.baseURL, ticker, modules)

	var parsed quoteSummaryResponse
	if err := c.getJSON(ctx, url, &parsed); err != nil {
		return nil, err
	}
	if parsed.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("%w: %s", company.ErrExternalAPI, parsed.QuoteSummary.Error.Description)
	}
	if len(parsed.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: empty quoteSummary result for %s", company.ErrInvalidResponse, ticker)
	}
	return &parsed.QuoteSummary.Result[0], nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0")
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
		return fmt.Errorf("%w: status=%d body=%s", company.ErrExternalAPI, resp.StatusCode, truncate(body, 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// convertInfo flattens the module tree into the Info snapshot
func convertInfo(result *quoteSummaryResult) *Info {
	info := &Info{}

	if p := result.AssetProfile; p != nil {
		info.Sector = nonEmpty(p.Sector)
		info.Industry = nonEmpty(p.Industry)
		info.Country = nonEmpty(p.Country)
		info.Website = nonEmpty(p.Website)
		info.Description = nonEmpty(p.LongBusinessSummary)
		for _, officer := range p.CompanyOfficers {
			if officer.Name == "" {
				continue
			}
			entry := company.Officer{Name: officer.Name, Age: officer.Age}
			if officer.Title != "" {
				title := officer.Title
				entry.Title = &title
				// The first CEO-titled officer becomes the record's CEO
				if info.CEO == nil && containsCEO(title) {
					name := officer.Name
					info.CEO = &name
				}
			}
			info.Officers = append(info.Officers, entry)
		}
	}

	if p := result.Price; p != nil {
		if p.LongName != "" {
			info.Name = &p.LongName
		} else {
			info.Name = nonEmpty(p.ShortName)
		}
		info.Exchange = nonEmpty(p.ExchangeName)
		info.Currency = nonEmpty(p.Currency)
		info.MarketCap = p.MarketCap.float()
		info.CurrentPrice = p.RegularMarketPrice.float()
		info.RegularMarketChange = p.RegularMarketChange.float()
		info.RegularMarketChangePercent = p.RegularMarketChangePercent.float()
		info.PreviousClose = p.RegularMarketPreviousClose.float()
		info.Open = p.RegularMarketOpen.float()
		info.DayLow = p.RegularMarketDayLow.float()
		info.DayHigh = p.RegularMarketDayHigh.float()
		info.Volume = p.RegularMarketVolume.int()
	}

	if d := result.SummaryDetail; d != nil {
		if info.PreviousClose == nil {
			info.PreviousClose = d.PreviousClose.float()
		}
		if info.Open == nil {
			info.Open = d.Open.float()
		}
		if info.DayLow == nil {
			info.DayLow = d.DayLow.float()
		}
		if info.DayHigh == nil {
			info.DayHigh = d.DayHigh.float()
		}
		if info.MarketCap == nil {
			info.MarketCap = d.MarketCap.float()
		}
		if info.Volume == nil {
			info.Volume = d.Volume.int()
		}
		info.FiftyTwoWeekLow = d.FiftyTwoWeekLow.float()
		info.FiftyTwoWeekHigh = d.FiftyTwoWeekHigh.float()
		info.AverageVolume = d.AverageVolume.int()
		info.Beta = d.Beta.float()
		info.TrailingPE = d.TrailingPE.float()
		info.ForwardPE = d.ForwardPE.float()
		info.PriceToSales = d.PriceToSalesTrailing12Months.float()
		info.DividendRate = d.DividendRate.float()
		info.DividendYield = d.DividendYield.float()
	}

	if s := result.DefaultKeyStatistics; s != nil {
		info.PegRatio = s.PegRatio.float()
		info.PriceToBook = s.PriceToBook.float()
		info.SharesOutstanding = s.SharesOutstanding.int()
		info.ProfitMargins = s.ProfitMargins.float()
	}

	if f := result.FinancialData; f != nil {
		if info.CurrentPrice == nil {
			info.CurrentPrice = f.CurrentPrice.float()
		}
		if info.ProfitMargins == nil {
			info.ProfitMargins = f.ProfitMargins.float()
		}
		info.OperatingMargins = f.OperatingMargins.float()
		info.ReturnOnAssets = f.ReturnOnAssets.float()
		info.ReturnOnEquity = f.ReturnOnEquity.float()
		info.RevenueGrowth = f.RevenueGrowth.float()
		info.EarningsGrowth = f.EarningsGrowth.float()
	}

	return info
}

// convertStatementRows turns Yahoo statement rows into the line-item ->
// period -> value table. Rows are keyed by their endDate.
func convertStatementRows(rows []statementRow) company.StatementTable {
	if len(rows) == 0 {
		return nil
	}

	table := company.StatementTable{}
	for _, row := range rows {
		period := rowPeriod(row)
		if period == "" {
			continue
		}
		for item, raw := range row {
			if item == "endDate" || item == "maxAge" {
				continue
			}
			var value rawValue
			if err := json.Unmarshal(raw, &value); err != nil || value.Raw == nil {
				continue
			}
			if table[item] == nil {
				table[item] = map[string]float64{}
			}
			table[item][period] = *value.Raw
		}
	}
	if len(table) == 0 {
		return nil
	}
	return table
}

func rowPeriod(row statementRow) string {
	raw, ok := row["endDate"]
	if !ok {
		return ""
	}
	var end struct {
		Raw *int64 `json:"raw"`
		Fmt string `json:"fmt"`
	}
	if err := json.Unmarshal(raw, &end); err != nil {
		return ""
	}
	if end.Fmt != "" {
		return end.Fmt
	}
	if end.Raw != nil {
		return time.Unix(*end.Raw, 0).UTC().Format("2006-01-02")
	}
	return ""
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func containsCEO(title string) bool {
	return strings.Contains(title, "CEO") || strings.Contains(title, "Chief Executive Officer")
}
