package company

import "context"

// =============================================================================
// Repository Interfaces
// =============================================================================

// Summary is the projection served by list/search endpoints
type Summary struct {
	Ticker    string   `json:"ticker"`
	Name      *string  `json:"name,omitempty"`
	Sector    *string  `json:"sector,omitempty"`
	Industry  *string  `json:"industry,omitempty"`
	Exchange  *string  `json:"exchange,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`

	// Quote projection, populated by search
	Price             *float64 `json:"price,omitempty"`
	Change            *float64 `json:"change,omitempty"`
	ChangesPercentage *float64 `json:"changesPercentage,omitempty"`
	Volume            *int64   `json:"volume,omitempty"`
}

// SymbolEntry is the minimal ticker listing projection
type SymbolEntry struct {
	Ticker string  `json:"ticker"`
	Name   *string `json:"name,omitempty"`
}

// SectorGroup is one aggregation bucket of companies by sector
type SectorGroup struct {
	Sector    string        `json:"sector"`
	Companies []SectorEntry `json:"companies"`
}

// SectorEntry is one company inside a sector group
type SectorEntry struct {
	Ticker    string   `json:"ticker"`
	Name      *string  `json:"name,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
}

// ScreenFilter holds the declarative screener bounds. Nil means unbounded.
type ScreenFilter struct {
	MarketCapMin     *float64 `json:"market_cap_min,omitempty"`
	MarketCapMax     *float64 `json:"market_cap_max,omitempty"`
	PriceMin         *float64 `json:"price_min,omitempty"`
	PriceMax         *float64 `json:"price_max,omitempty"`
	VolumeMin        *int64   `json:"volume_min,omitempty"`
	VolumeMax        *int64   `json:"volume_max,omitempty"`
	BetaMin          *float64 `json:"beta_min,omitempty"`
	BetaMax          *float64 `json:"beta_max,omitempty"`
	DividendYieldMin *float64 `json:"dividend_yield_min,omitempty"`
	DividendYieldMax *float64 `json:"dividend_yield_max,omitempty"`
	PERatioMin       *float64 `json:"pe_ratio_min,omitempty"`
	PERatioMax       *float64 `json:"pe_ratio_max,omitempty"`
	PriceToBookMin   *float64 `json:"price_to_book_min,omitempty"`
	PriceToBookMax   *float64 `json:"price_to_book_max,omitempty"`
	ProfitMarginMin  *float64 `json:"profit_margin_min,omitempty"`
	ProfitMarginMax  *float64 `json:"profit_margin_max,omitempty"`
	ROEMin           *float64 `json:"roe_min,omitempty"`
	ROEMax           *float64 `json:"roe_max,omitempty"`
	ROAMin           *float64 `json:"roa_min,omitempty"`
	ROAMax           *float64 `json:"roa_max,omitempty"`
	Sectors          []string `json:"sectors,omitempty"`
	Industries       []string `json:"industries,omitempty"`
	Exchanges        []string `json:"exchanges,omitempty"`
}

// ScreenResult is one page of screener output
type ScreenResult struct {
	Companies  []Summary `json:"companies"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
}

// Repository is the document store for merged company records.
// Upserts are idempotent and keyed by ticker; concurrent upserts for distinct
// tickers are safe, same-ticker writes are last-write-wins.
type Repository interface {
	// Upsert writes the full merged document for a ticker
	Upsert(ctx context.Context, record *CompanyRecord) error

	// GetByTicker returns the full document, ErrCompanyNotFound if absent
	GetByTicker(ctx context.Context, ticker string) (*CompanyRecord, error)

	// Tickers returns every stored ticker symbol
	Tickers(ctx context.Context) ([]string, error)

	// Symbols returns the ticker+name listing
	Symbols(ctx context.Context) ([]SymbolEntry, error)

	// ListSummaries returns the basic projection of all companies
	ListSummaries(ctx context.Context) ([]Summary, error)

	// Search matches tickers against a pattern, sorted by market cap descending
	Search(ctx context.Context, query string, limit int) ([]Summary, error)

	// Screen applies declarative filter bounds with sort and pagination
	Screen(ctx context.Context, filter *ScreenFilter, sortBy string, descending bool, limit, page int) (*ScreenResult, error)

	// SectorGroups aggregates companies by sector
	SectorGroups(ctx context.Context) ([]SectorGroup, error)
}
