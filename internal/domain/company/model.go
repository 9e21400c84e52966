package company

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// =============================================================================
// Data Models (data.companies document)
// =============================================================================

// CompanyRecord is the merged per-ticker document. Every field except Ticker
// is optional: upstream sources fail independently and partial data is the
// normal case, so absence of a field never blocks a write.
type CompanyRecord struct {
	Ticker string `json:"ticker"`

	Profile             *Profile             `json:"profile,omitempty"`
	Quote               *Quote               `json:"quote,omitempty"`
	KeyMetrics          *KeyMetrics          `json:"key_metrics,omitempty"`
	TTMRatios           *TTMRatios           `json:"ttm_ratios,omitempty"`
	FinancialStatements *FinancialStatements `json:"financial_statements,omitempty"`

	// FinancialDataHash is a digest of the serialized statements, used for
	// change detection without re-diffing the full nested structures.
	FinancialDataHash *string `json:"financial_data_hash,omitempty"`

	// MarketStatus is the session phase tag at the time of the last merge,
	// used to detect session transitions.
	MarketStatus *string `json:"market_status,omitempty"`

	// Image is the base64-encoded company logo.
	Image *string `json:"image,omitempty"`

	StockPrices []PricePoint    `json:"stock_prices,omitempty"`
	Dividends   []DividendPoint `json:"dividends,omitempty"`

	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// Profile holds descriptive company attributes
type Profile struct {
	Name        *string   `json:"name,omitempty"`
	Sector      *string   `json:"sector,omitempty"`
	Industry    *string   `json:"industry,omitempty"`
	Exchange    *string   `json:"exchange,omitempty"`
	Country     *string   `json:"country,omitempty"`
	Currency    *string   `json:"currency,omitempty"`
	Website     *string   `json:"website,omitempty"`
	Description *string   `json:"description,omitempty"`
	CEO         *string   `json:"ceo,omitempty"`
	Officers    []Officer `json:"officers,omitempty"`
	MarketCap   *float64  `json:"market_cap,omitempty"`
	SharesOut   *int64    `json:"shares_outstanding,omitempty"`
}

// Officer is a single company officer entry
type Officer struct {
	Name  string  `json:"name"`
	Title *string `json:"title,omitempty"`
	Age   *int64  `json:"age,omitempty"`
}

// Quote holds the last fetched quote snapshot
type Quote struct {
	Price             *float64   `json:"price,omitempty"`
	Change            *float64   `json:"change,omitempty"`
	ChangesPercentage *float64   `json:"changesPercentage,omitempty"`
	Volume            *int64     `json:"volume,omitempty"`
	AvgVolume         *int64     `json:"avgVolume,omitempty"`
	PreviousClose     *float64   `json:"previousClose,omitempty"`
	Open              *float64   `json:"open,omitempty"`
	DayLow            *float64   `json:"dayLow,omitempty"`
	DayHigh           *float64   `json:"dayHigh,omitempty"`
	YearLow           *float64   `json:"yearLow,omitempty"`
	YearHigh          *float64   `json:"yearHigh,omitempty"`
	MarketCap         *float64   `json:"marketCap,omitempty"`
	Timestamp         *time.Time `json:"timestamp,omitempty"`
}

// KeyMetrics holds valuation metrics, each independently nullable
type KeyMetrics struct {
	PERatio       *float64 `json:"pe_ratio,omitempty"`
	ForwardPE     *float64 `json:"forward_pe,omitempty"`
	PEGRatio      *float64 `json:"peg_ratio,omitempty"`
	PriceToBook   *float64 `json:"price_to_book,omitempty"`
	PriceToSales  *float64 `json:"price_to_sales,omitempty"`
	Beta          *float64 `json:"beta,omitempty"`
	DividendRate  *float64 `json:"dividend_rate,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"`
}

// TTMRatios holds trailing-twelve-month profitability ratios
type TTMRatios struct {
	ProfitMargin    *float64 `json:"profit_margin,omitempty"`
	OperatingMargin *float64 `json:"operating_margin,omitempty"`
	ROA             *float64 `json:"roa,omitempty"`
	ROE             *float64 `json:"roe,omitempty"`
	RevenueGrowth   *float64 `json:"revenue_growth,omitempty"`
	EarningsGrowth  *float64 `json:"earnings_growth,omitempty"`
}

// StatementTable maps line item -> period key (e.g. "2024-09-30") -> value
type StatementTable map[string]map[string]float64

// StatementPair holds annual and quarterly variants of one statement
type StatementPair struct {
	Annual    StatementTable `json:"annual,omitempty"`
	Quarterly StatementTable `json:"quarterly,omitempty"`
}

// FinancialStatements is the nested statements block of the document
type FinancialStatements struct {
	IncomeStatement   StatementPair `json:"income_statement,omitempty"`
	BalanceSheet      StatementPair `json:"balance_sheet,omitempty"`
	CashFlowStatement StatementPair `json:"cash_flow_statement,omitempty"`
}

// PricePoint is one daily bar of price history
type PricePoint struct {
	Date   string   `json:"date"` // YYYY-MM-DD
	Open   *float64 `json:"open,omitempty"`
	High   *float64 `json:"high,omitempty"`
	Low    *float64 `json:"low,omitempty"`
	Close  *float64 `json:"close,omitempty"`
	Volume *int64   `json:"volume,omitempty"`
}

// DividendPoint is one dividend payment
type DividendPoint struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Amount float64 `json:"amount"`
}

// =============================================================================
// Helpers
// =============================================================================

// NormalizeTicker uppercases and trims a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// IsEmpty reports whether the statements block carries no data at all
func (f *FinancialStatements) IsEmpty() bool {
	if f == nil {
		return true
	}
	for _, pair := range []StatementPair{f.IncomeStatement, f.BalanceSheet, f.CashFlowStatement} {
		if len(pair.Annual) > 0 || len(pair.Quarterly) > 0 {
			return false
		}
	}
	return true
}

// Hash returns a hex sha256 digest of the serialized statements.
// Map keys serialize in sorted order, so the digest is deterministic.
func (f *FinancialStatements) Hash() (string, error) {
	if f.IsEmpty() {
		return "", nil
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// FieldCount counts the non-null top-level components of the record.
// Records below the minimum threshold are considered junk from total fetch
// failure and are not stored.
func (r *CompanyRecord) FieldCount() int {
	count := 0
	if p := r.Profile; p != nil {
		for _, s := range []*string{p.Name, p.Sector, p.Industry, p.Exchange, p.Country, p.Currency, p.Website, p.Description, p.CEO} {
			if s != nil && *s != "" {
				count++
			}
		}
		if p.MarketCap != nil {
			count++
		}
		if p.SharesOut != nil {
			count++
		}
		if len(p.Officers) > 0 {
			count++
		}
	}
	if r.Quote != nil {
		count++
	}
	if r.KeyMetrics != nil {
		count++
	}
	if r.TTMRatios != nil {
		count++
	}
	if !r.FinancialStatements.IsEmpty() {
		count++
	}
	if r.Image != nil {
		count++
	}
	if len(r.StockPrices) > 0 {
		count++
	}
	if len(r.Dividends) > 0 {
		count++
	}
	return count
}

// Scrub removes NaN and Infinity values from the record in place.
// JSON and the document store cannot represent them, and upstream sources
// produce them routinely.
func (r *CompanyRecord) Scrub() {
	if p := r.Profile; p != nil {
		p.MarketCap = cleanFloat(p.MarketCap)
	}
	if q := r.Quote; q != nil {
		q.Price = cleanFloat(q.Price)
		q.Change = cleanFloat(q.Change)
		q.ChangesPercentage = cleanFloat(q.ChangesPercentage)
		q.PreviousClose = cleanFloat(q.PreviousClose)
		q.Open = cleanFloat(q.Open)
		q.DayLow = cleanFloat(q.DayLow)
		q.DayHigh = cleanFloat(q.DayHigh)
		q.YearLow = cleanFloat(q.YearLow)
		q.YearHigh = cleanFloat(q.YearHigh)
		q.MarketCap = cleanFloat(q.MarketCap)
	}
	if m := r.KeyMetrics; m != nil {
		m.PERatio = cleanFloat(m.PERatio)
		m.ForwardPE = cleanFloat(m.ForwardPE)
		m.PEGRatio = cleanFloat(m.PEGRatio)
		m.PriceToBook = cleanFloat(m.PriceToBook)
		m.PriceToSales = cleanFloat(m.PriceToSales)
		m.Beta = cleanFloat(m.Beta)
		m.DividendRate = cleanFloat(m.DividendRate)
		m.DividendYield = cleanFloat(m.DividendYield)
	}
	if t := r.TTMRatios; t != nil {
		t.ProfitMargin = cleanFloat(t.ProfitMargin)
		t.OperatingMargin = cleanFloat(t.OperatingMargin)
		t.ROA = cleanFloat(t.ROA)
		t.ROE = cleanFloat(t.ROE)
		t.RevenueGrowth = cleanFloat(t.RevenueGrowth)
		t.EarningsGrowth = cleanFloat(t.EarningsGrowth)
	}
	if f := r.FinancialStatements; f != nil {
		scrubPair(f.IncomeStatement)
		scrubPair(f.BalanceSheet)
		scrubPair(f.CashFlowStatement)
	}
	for i := range r.StockPrices {
		p := &r.StockPrices[i]
		p.Open = cleanFloat(p.Open)
		p.High = cleanFloat(p.High)
		p.Low = cleanFloat(p.Low)
		p.Close = cleanFloat(p.Close)
	}
}

func scrubPair(pair StatementPair) {
	scrubTable(pair.Annual)
	scrubTable(pair.Quarterly)
}

func scrubTable(table StatementTable) {
	for _, periods := range table {
		for period, v := range periods {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				delete(periods, period)
			}
		}
	}
}

func cleanFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}
