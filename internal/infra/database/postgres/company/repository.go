package company

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/infra/database/postgres"
)

// Repository is the PostgreSQL store for merged company documents
// (data.companies). The full document lives in a JSONB column; the columns
// used for listing, search and screening are extracted at write time.
type Repository struct {
	pool *postgres.Pool
}

// NewRepository creates the repository
func NewRepository(pool *postgres.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert writes the full merged document for a ticker
func (r *Repository) Upsert(ctx context.Context, record *company.CompanyRecord) error {
	if record == nil || record.Ticker == "" {
		return fmt.Errorf("upsert company: %w", company.ErrInvalidTicker)
	}

	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal company document: %w", err)
	}

	var name, sector, industry, exchange *string
	var marketCap, price *float64
	var volume *int64
	if record.Profile != nil {
		name = record.Profile.Name
		sector = record.Profile.Sector
		industry = record.Profile.Industry
		exchange = record.Profile.Exchange
		marketCap = record.Profile.MarketCap
	}
	if record.Quote != nil {
		price = record.Quote.Price
		volume = record.Quote.Volume
		if marketCap == nil {
			marketCap = record.Quote.MarketCap
		}
	}

	query := `
		INSERT INTO data.companies (ticker, doc, name, sector, industry, exchange, market_cap, price, volume, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (ticker) DO UPDATE SET
			doc = EXCLUDED.doc,
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry,
			exchange = EXCLUDED.exchange,
			market_cap = EXCLUDED.market_cap,
			price = EXCLUDED.price,
			volume = EXCLUDED.volume,
			last_updated = EXCLUDED.last_updated
	`

	_, err = r.pool.Exec(ctx, query,
		record.Ticker, doc, name, sector, industry, exchange,
		marketCap, price, volume, record.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}

	return nil
}

// GetByTicker returns the full document for a ticker
func (r *Repository) GetByTicker(ctx context.Context, ticker string) (*company.CompanyRecord, error) {
	query := `SELECT doc FROM data.companies WHERE ticker = $1`

	var doc []byte
	err := r.pool.QueryRow(ctx, query, ticker).Scan(&doc)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", company.ErrCompanyNotFound, ticker)
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}

	var record company.CompanyRecord
	if err := json.Unmarshal(doc, &record); err != nil {
		return nil, fmt.Errorf("unmarshal company document: %w", err)
	}

	return &record, nil
}

// Tickers returns every stored ticker symbol
func (r *Repository) Tickers(ctx context.Context) ([]string, error) {
	query := `SELECT ticker FROM data.companies ORDER BY ticker`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}

	return tickers, rows.Err()
}

// Symbols returns the ticker+name listing
func (r *Repository) Symbols(ctx context.Context) ([]company.SymbolEntry, error) {
	query := `SELECT ticker, name FROM data.companies ORDER BY ticker`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var entries []company.SymbolEntry
	for rows.Next() {
		var entry company.SymbolEntry
		if err := rows.Scan(&entry.Ticker, &entry.Name); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ListSummaries returns the basic projection of all companies
func (r *Repository) ListSummaries(ctx context.Context) ([]company.Summary, error) {
	query := `
		SELECT ticker, name, sector, industry, exchange, market_cap
		FROM data.companies
		ORDER BY ticker
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []company.Summary
	for rows.Next() {
		var s company.Summary
		if err := rows.Scan(&s.Ticker, &s.Name, &s.Sector, &s.Industry, &s.Exchange, &s.MarketCap); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// Search matches tickers and names against a pattern, sorted by market cap
// descending with NULL caps last
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]company.Summary, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + strings.ToUpper(strings.TrimSpace(query)) + "%"

	sql := `
		SELECT ticker, name, sector, industry, exchange, market_cap,
		       price, (doc #>> '{quote,change}')::float8,
		       (doc #>> '{quote,changesPercentage}')::float8, volume
		FROM data.companies
		WHERE ticker LIKE $1 OR UPPER(COALESCE(name, '')) LIKE $1
		ORDER BY market_cap DESC NULLS LAST
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, sql, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search companies: %w", err)
	}
	defer rows.Close()

	var summaries []company.Summary
	for rows.Next() {
		var s company.Summary
		err := rows.Scan(&s.Ticker, &s.Name, &s.Sector, &s.Industry, &s.Exchange,
			&s.MarketCap, &s.Price, &s.Change, &s.ChangesPercentage, &s.Volume)
		if err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// screenSortColumns maps screener sort keys to SQL expressions. Keys not in
// this map fall back to market_cap.
var screenSortColumns = map[string]string{
	"ticker":         "ticker",
	"name":           "name",
	"market_cap":     "market_cap",
	"price":          "price",
	"volume":         "volume",
	"beta":           "(doc #>> '{key_metrics,beta}')::float8",
	"dividend_yield": "(doc #>> '{key_metrics,dividend_yield}')::float8",
	"pe_ratio":       "(doc #>> '{key_metrics,pe_ratio}')::float8",
	"price_to_book":  "(doc #>> '{key_metrics,price_to_book}')::float8",
	"profit_margin":  "(doc #>> '{ttm_ratios,profit_margin}')::float8",
	"roe":            "(doc #>> '{ttm_ratios,roe}')::float8",
	"roa":            "(doc #>> '{ttm_ratios,roa}')::float8",
}

// Screen applies declarative filter bounds with sort and pagination
func (r *Repository) Screen(ctx context.Context, filter *company.ScreenFilter, sortBy string, descending bool, limit, page int) (*company.ScreenResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	if filter == nil {
		filter = &company.ScreenFilter{}
	}

	where, args := buildScreenWhere(filter)

	countSQL := "SELECT COUNT(*) FROM data.companies" + where
	var total int
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count screen results: %w", err)
	}

	sortExpr, ok := screenSortColumns[sortBy]
	if !ok {
		sortExpr = "market_cap"
	}
	direction := "ASC NULLS LAST"
	if descending {
		direction = "DESC NULLS LAST"
	}

	args = append(args, limit, (page-1)*limit)
	sql := fmt.Sprintf(`
		SELECT ticker, name, sector, industry, exchange, market_cap, price, volume
		FROM data.companies%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, where, sortExpr, direction, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("screen companies: %w", err)
	}
	defer rows.Close()

	companies := make([]company.Summary, 0)
	for rows.Next() {
		var s company.Summary
		err := rows.Scan(&s.Ticker, &s.Name, &s.Sector, &s.Industry, &s.Exchange,
			&s.MarketCap, &s.Price, &s.Volume)
		if err != nil {
			return nil, fmt.Errorf("scan screen result: %w", err)
		}
		companies = append(companies, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &company.ScreenResult{
		Companies:  companies,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
	}, nil
}

// buildScreenWhere renders the filter bounds as a WHERE clause. A NULL metric
// never satisfies a bound, so filtered companies always have the metric set.
func buildScreenWhere(filter *company.ScreenFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(expr string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(expr, len(args)))
	}

	numeric := []struct {
		expr     string
		min, max *float64
	}{
		{"market_cap", filter.MarketCapMin, filter.MarketCapMax},
		{"price", filter.PriceMin, filter.PriceMax},
		{"(doc #>> '{key_metrics,beta}')::float8", filter.BetaMin, filter.BetaMax},
		{"(doc #>> '{key_metrics,dividend_yield}')::float8", filter.DividendYieldMin, filter.DividendYieldMax},
		{"(doc #>> '{key_metrics,pe_ratio}')::float8", filter.PERatioMin, filter.PERatioMax},
		{"(doc #>> '{key_metrics,price_to_book}')::float8", filter.PriceToBookMin, filter.PriceToBookMax},
		{"(doc #>> '{ttm_ratios,profit_margin}')::float8", filter.ProfitMarginMin, filter.ProfitMarginMax},
		{"(doc #>> '{ttm_ratios,roe}')::float8", filter.ROEMin, filter.ROEMax},
		{"(doc #>> '{ttm_ratios,roa}')::float8", filter.ROAMin, filter.ROAMax},
	}
	for _, bound := range numeric {
		if bound.min != nil {
			add(bound.expr+" >= $%d", *bound.min)
		}
		if bound.max != nil {
			add(bound.expr+" <= $%d", *bound.max)
		}
	}

	if filter.VolumeMin != nil {
		add("volume >= $%d", *filter.VolumeMin)
	}
	if filter.VolumeMax != nil {
		add("volume <= $%d", *filter.VolumeMax)
	}

	if len(filter.Sectors) > 0 {
		add("sector = ANY($%d)", filter.Sectors)
	}
	if len(filter.Industries) > 0 {
		add("industry = ANY($%d)", filter.Industries)
	}
	if len(filter.Exchanges) > 0 {
		add("exchange = ANY($%d)", filter.Exchanges)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// SectorGroups aggregates companies by sector, largest caps first within
// each group. Companies without a sector are skipped.
func (r *Repository) SectorGroups(ctx context.Context) ([]company.SectorGroup, error) {
	query := `
		SELECT sector, ticker, name, market_cap
		FROM data.companies
		WHERE sector IS NOT NULL
		ORDER BY sector, market_cap DESC NULLS LAST
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sector groups: %w", err)
	}
	defer rows.Close()

	var groups []company.SectorGroup
	for rows.Next() {
		var sector string
		var entry company.SectorEntry
		if err := rows.Scan(&sector, &entry.Ticker, &entry.Name, &entry.MarketCap); err != nil {
			return nil, fmt.Errorf("scan sector entry: %w", err)
		}

		if len(groups) == 0 || groups[len(groups)-1].Sector != sector {
			groups = append(groups, company.SectorGroup{Sector: sector})
		}
		last := &groups[len(groups)-1]
		last.Companies = append(last.Companies, entry)
	}

	return groups, rows.Err()
}
