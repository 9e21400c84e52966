package updater

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clementklenam/synergyalphaapi/internal/domain/company"
	"github.com/clementklenam/synergyalphaapi/internal/domain/market"
	"github.com/clementklenam/synergyalphaapi/internal/infra/fmp"
	"github.com/clementklenam/synergyalphaapi/internal/infra/yahoo"
	"github.com/clementklenam/synergyalphaapi/internal/service/fetch"
)

// Merger combines company data from the primary provider, the FMP fallback
// and the logo source into one document. Sources fail independently; a
// partial result from one never aborts the others. Overlapping fields are
// resolved by a fixed priority table with the primary provider first.
type Merger struct {
	fetch     *fetch.Service
	clock     *market.Clock
	minFields int
}

// NewMerger creates the merge engine
func NewMerger(fetchSvc *fetch.Service, clock *market.Clock, minFields int) *Merger {
	if minFields <= 0 {
		minFields = 5
	}
	return &Merger{fetch: fetchSvc, clock: clock, minFields: minFields}
}

// sourceData holds whatever each upstream source managed to deliver
type sourceData struct {
	info       *yahoo.Info
	statements *company.FinancialStatements
	prices     []company.PricePoint
	dividends  []company.DividendPoint

	fmpQuote   *fmp.Quote
	fmpProfile *fmp.Profile
	fmpRatios  *fmp.RatiosTTM

	logo string
}

// MergeSymbol fetches all sources for a ticker concurrently and merges them.
// Returns ErrInsufficientData when the combined record carries too few
// fields to be worth storing.
func (m *Merger) MergeSymbol(ctx context.Context, ticker string) (*company.CompanyRecord, error) {
	ticker = company.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, company.ErrInvalidTicker
	}

	data := m.collect(ctx, ticker)
	record := m.assemble(ticker, data)

	record.Scrub()
	if count := record.FieldCount(); count <= m.minFields {
		log.Warn().
			Str("ticker", ticker).
			Int("fields", count).
			Msg("Merged record too sparse, discarding")
		return nil, fmt.Errorf("%w: %s has %d fields", company.ErrInsufficientData, ticker, count)
	}

	now := time.Now().UTC()
	record.LastUpdated = &now
	status := string(m.clock.Now())
	record.MarketStatus = &status

	return record, nil
}

// collect runs the three source groups concurrently. Each group swallows its
// own errors; a total failure just leaves that group's fields nil.
func (m *Merger) collect(ctx context.Context, ticker string) *sourceData {
	data := &sourceData{}
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		info, err := m.fetch.Info(ctx, ticker)
		if err != nil {
			log.Debug().Str("ticker", ticker).Err(err).Msg("Primary info fetch failed")
		} else {
			data.info = info
		}

		statements, err := m.fetch.Statements(ctx, ticker)
		if err != nil {
			log.Debug().Str("ticker", ticker).Err(err).Msg("Statements fetch failed")
		} else if statements != nil && !statements.IsEmpty() {
			data.statements = statements
		}

		prices, dividends, err := m.fetch.History(ctx, ticker, "1y")
		if err != nil {
			log.Debug().Str("ticker", ticker).Err(err).Msg("History fetch failed")
		} else {
			data.prices = prices
			data.dividends = dividends
		}
	}()

	if m.fetch.FMPEnabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			quote, err := m.fetch.FMPQuote(ctx, ticker)
			if err != nil {
				log.Debug().Str("ticker", ticker).Err(err).Msg("FMP quote fetch failed")
			} else {
				data.fmpQuote = quote
			}

			profile, err := m.fetch.FMPProfile(ctx, ticker)
			if err != nil {
				log.Debug().Str("ticker", ticker).Err(err).Msg("FMP profile fetch failed")
			} else {
				data.fmpProfile = profile
			}

			ratios, err := m.fetch.FMPRatios(ctx, ticker)
			if err != nil {
				log.Debug().Str("ticker", ticker).Err(err).Msg("FMP ratios fetch failed")
			} else {
				data.fmpRatios = ratios
			}
		}()
	}

	if m.fetch.LogoEnabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logo, err := m.fetch.Logo(ctx, ticker)
			if err != nil {
				log.Debug().Str("ticker", ticker).Err(err).Msg("Logo fetch failed")
			} else {
				data.logo = logo
			}
		}()
	}

	wg.Wait()
	return data
}

// assemble builds the merged record by applying the field priority tables.
// Each table row lists candidate values in priority order; the first non-nil
// candidate wins, independent of which source finished first.
func (m *Merger) assemble(ticker string, data *sourceData) *company.CompanyRecord {
	record := &company.CompanyRecord{Ticker: ticker}

	info := data.info
	if info == nil {
		info = &yahoo.Info{}
	}

	profile := &company.Profile{}
	quote := &company.Quote{}
	metrics := &company.KeyMetrics{}
	ratios := &company.TTMRatios{}

	stringRules := []struct {
		dst        **string
		candidates []*string
	}{
		{&profile.Name, []*string{info.Name, fmpStr(data.fmpProfile, func(p *fmp.Profile) string { return p.CompanyName })}},
		{&profile.Sector, []*string{info.Sector, fmpStr(data.fmpProfile, func(p *fmp.Profile) string { return p.Sector })}},
		{&profile.Industry, []*string{info.Industry, fmpStr(data.fmpProfile, func(p *fmp.Profile) string { return p.Industry })}},
		{&profile.Exchange, []*string{info.Exchange, fmpStr(data.fmpProfile, func(p *fmp.Profile) string { return p.Exchange })}},
		{&profile.Country, []*string{info.Country, fmpStr(data.fmpProfile, func(p *fmp.Profile) string { return p.Country })}},
		{&profile.Currency, []*string{info.Currency, fmpStr(data.fmpProfile, func(p *fmp.Profile) string { return p.Currency })}},
		{&profile.Website, []*string{info.Website, fmpStr(data.fmpProfile, func(p *fmp.Profile) string { return p.Website })}},
		{&profile.Description, []*string{info.Description, fmpStr(data.fmpProfile, func(p *fmp.Profile) string { return p.Description })}},
		{&profile.CEO, []*string{info.CEO, fmpStr(data.fmpProfile, func(p *fmp.Profile) string { return p.CEO })}},
	}
	for _, rule := range stringRules {
		*rule.dst = firstString(rule.candidates)
	}

	floatRules := []struct {
		dst        **float64
		candidates []*float64
	}{
		{&profile.MarketCap, []*float64{info.MarketCap, fmpFloat(data.fmpQuote, func(q *fmp.Quote) *float64 { return q.MarketCap }), fmpProfileFloat(data.fmpProfile, func(p *fmp.Profile) *float64 { return p.MarketCap })}},
		{&quote.Price, []*float64{info.CurrentPrice, fmpFloat(data.fmpQuote, func(q *fmp.Quote) *float64 { return q.Price })}},
		{&quote.Change, []*float64{info.RegularMarketChange, fmpFloat(data.fmpQuote, func(q *fmp.Quote) *float64 { return q.Change })}},
		{&quote.ChangesPercentage, []*float64{info.RegularMarketChangePercent, fmpFloat(data.fmpQuote, func(q *fmp.Quote) *float64 { return q.ChangesPercentage })}},
		{&quote.PreviousClose, []*float64{info.PreviousClose, fmpFloat(data.fmpQuote, func(q *fmp.Quote) *float64 { return q.PreviousClose })}},
		{&quote.Open, []*float64{info.Open, fmpFloat(data.fmpQuote, func(q *fmp.Quote) *float64 { return q.Open })}},
		{&quote.DayLow, []*float64{info.DayLow, fmpFloat(data.fmpQuote, func(q *fmp.Quote) *float64 { return q.DayLow })}},
		{&quote.DayHigh, []*float64{info.DayHigh, fmpFloat(data.fmpQuote, func(q *fmp.Quote) *float64 { return q.DayHigh })}},
		{&quote.YearLow, []*float64{info.FiftyTwoWeekLow, fmpFloat(data.fmpQuote, func(q *fmp.Quote) *float64 { return q.YearLow })}},
		{&quote.YearHigh, []*float64{info.FiftyTwoWeekHigh, fmpFloat(data.fmpQuote, func(q *fmp.Quote) *float64 { return q.YearHigh })}},
		{&quote.MarketCap, []*float64{info.MarketCap, fmpFloat(data.fmpQuote, func(q *fmp.Quote) *float64 { return q.MarketCap })}},
		{&metrics.PERatio, []*float64{info.TrailingPE, fmpRatioFloat(data.fmpRatios, func(r *fmp.RatiosTTM) *float64 { return r.PERatioTTM })}},
		{&metrics.ForwardPE, []*float64{info.ForwardPE}},
		{&metrics.PEGRatio, []*float64{info.PegRatio, fmpRatioFloat(data.fmpRatios, func(r *fmp.RatiosTTM) *float64 { return r.PEGRatioTTM })}},
		{&metrics.PriceToBook, []*float64{info.PriceToBook, fmpRatioFloat(data.fmpRatios, func(r *fmp.RatiosTTM) *float64 { return r.PriceToBookRatioTTM })}},
		{&metrics.PriceToSales, []*float64{info.PriceToSales, fmpRatioFloat(data.fmpRatios, func(r *fmp.RatiosTTM) *float64 { return r.PriceToSalesRatioTTM })}},
		{&metrics.Beta, []*float64{info.Beta, fmpProfileFloat(data.fmpProfile, func(p *fmp.Profile) *float64 { return p.Beta })}},
		{&metrics.DividendRate, []*float64{info.DividendRate}},
		{&metrics.DividendYield, []*float64{info.DividendYield, fmpRatioFloat(data.fmpRatios, func(r *fmp.RatiosTTM) *float64 { return r.DividendYielTTM })}},
		{&ratios.ProfitMargin, []*float64{info.ProfitMargins, fmpRatioFloat(data.fmpRatios, func(r *fmp.RatiosTTM) *float64 { return r.NetProfitMarginTTM })}},
		{&ratios.OperatingMargin, []*float64{info.OperatingMargins, fmpRatioFloat(data.fmpRatios, func(r *fmp.RatiosTTM) *float64 { return r.OperatingProfitMarginTTM })}},
		{&ratios.ROA, []*float64{info.ReturnOnAssets, fmpRatioFloat(data.fmpRatios, func(r *fmp.RatiosTTM) *float64 { return r.ReturnOnAssetsTTM })}},
		{&ratios.ROE, []*float64{info.ReturnOnEquity, fmpRatioFloat(data.fmpRatios, func(r *fmp.RatiosTTM) *float64 { return r.ReturnOnEquityTTM })}},
		{&ratios.RevenueGrowth, []*float64{info.RevenueGrowth}},
		{&ratios.EarningsGrowth, []*float64{info.EarningsGrowth}},
	}
	for _, rule := range floatRules {
		*rule.dst = firstFloat(rule.candidates)
	}

	intRules := []struct {
		dst        **int64
		candidates []*int64
	}{
		{&profile.SharesOut, []*int64{info.SharesOutstanding, fmpInt(data.fmpQuote, func(q *fmp.Quote) *int64 { return q.SharesOutstanding })}},
		{&quote.Volume, []*int64{info.Volume, fmpInt(data.fmpQuote, func(q *fmp.Quote) *int64 { return q.Volume })}},
		{&quote.AvgVolume, []*int64{info.AverageVolume, fmpInt(data.fmpQuote, func(q *fmp.Quote) *int64 { return q.AvgVolume })}},
	}
	for _, rule := range intRules {
		*rule.dst = firstInt(rule.candidates)
	}

	profile.Officers = info.Officers

	if !isEmptyProfile(profile) {
		record.Profile = profile
	}
	if !isEmptyQuote(quote) {
		now := time.Now().UTC()
		quote.Timestamp = &now
		record.Quote = quote
	}
	if !isEmptyMetrics(metrics) {
		record.KeyMetrics = metrics
	}
	if !isEmptyRatios(ratios) {
		record.TTMRatios = ratios
	}

	if data.statements != nil {
		record.FinancialStatements = data.statements
		if hash, err := data.statements.Hash(); err == nil && hash != "" {
			record.FinancialDataHash = &hash
		}
	}
	record.StockPrices = data.prices
	record.Dividends = data.dividends

	if data.logo != "" {
		record.Image = &data.logo
	} else if data.fmpProfile != nil && data.fmpProfile.Image != "" {
		image := data.fmpProfile.Image
		record.Image = &image
	}

	return record
}

// =============================================================================
// Priority Helpers
// =============================================================================

func firstString(candidates []*string) *string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return c
		}
	}
	return nil
}

func firstFloat(candidates []*float64) *float64 {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func firstInt(candidates []*int64) *int64 {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func fmpStr(p *fmp.Profile, pick func(*fmp.Profile) string) *string {
	if p == nil {
		return nil
	}
	v := pick(p)
	if v == "" {
		return nil
	}
	return &v
}

func fmpFloat(q *fmp.Quote, pick func(*fmp.Quote) *float64) *float64 {
	if q == nil {
		return nil
	}
	return pick(q)
}

func fmpProfileFloat(p *fmp.Profile, pick func(*fmp.Profile) *float64) *float64 {
	if p == nil {
		return nil
	}
	return pick(p)
}

func fmpRatioFloat(r *fmp.RatiosTTM, pick func(*fmp.RatiosTTM) *float64) *float64 {
	if r == nil {
		return nil
	}
	return pick(r)
}

func fmpInt(q *fmp.Quote, pick func(*fmp.Quote) *int64) *int64 {
	if q == nil {
		return nil
	}
	return pick(q)
}

func isEmptyProfile(p *company.Profile) bool {
	return p.Name == nil && p.Sector == nil && p.Industry == nil && p.Exchange == nil &&
		p.Country == nil && p.Currency == nil && p.Website == nil && p.Description == nil &&
		p.CEO == nil && len(p.Officers) == 0 && p.MarketCap == nil && p.SharesOut == nil
}

func isEmptyQuote(q *company.Quote) bool {
	return q.Price == nil && q.Change == nil && q.ChangesPercentage == nil && q.Volume == nil &&
		q.AvgVolume == nil && q.PreviousClose == nil && q.Open == nil && q.DayLow == nil &&
		q.DayHigh == nil && q.YearLow == nil && q.YearHigh == nil && q.MarketCap == nil
}

func isEmptyMetrics(m *company.KeyMetrics) bool {
	return m.PERatio == nil && m.ForwardPE == nil && m.PEGRatio == nil && m.PriceToBook == nil &&
		m.PriceToSales == nil && m.Beta == nil && m.DividendRate == nil && m.DividendYield == nil
}

func isEmptyRatios(r *company.TTMRatios) bool {
	return r.ProfitMargin == nil && r.OperatingMargin == nil && r.ROA == nil && r.ROE == nil &&
		r.RevenueGrowth == nil && r.EarningsGrowth == nil
}
