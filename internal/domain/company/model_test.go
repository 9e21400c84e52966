package company

import (
	"math"
	"testing"
)

func fp(f float64) *float64 { return &f }
func sp(s string) *string   { return &s }

func statementsFixture(revenue float64) *FinancialStatements {
	return &FinancialStatements{
		IncomeStatement: StatementPair{
			Annual: StatementTable{
				"totalRevenue": {"2024-09-30": revenue, "2023-09-30": revenue * 0.9},
				"netIncome":    {"2024-09-30": revenue * 0.25},
			},
		},
		BalanceSheet: StatementPair{
			Quarterly: StatementTable{
				"totalAssets": {"2024-09-30": revenue * 3},
			},
		},
	}
}

func TestScrub(t *testing.T) {
	t.Run("removes NaN and Inf from quote fields", func(t *testing.T) {
		record := &CompanyRecord{
			Ticker: "AAPL",
			Quote: &Quote{
				Price:             fp(195.3),
				Change:            fp(math.NaN()),
				ChangesPercentage: fp(math.Inf(1)),
				DayLow:            fp(math.Inf(-1)),
			},
		}
		record.Scrub()

		if record.Quote.Price == nil || *record.Quote.Price != 195.3 {
			t.Error("finite price should survive the scrub")
		}
		if record.Quote.Change != nil {
			t.Error("NaN change should be nulled")
		}
		if record.Quote.ChangesPercentage != nil {
			t.Error("+Inf changesPercentage should be nulled")
		}
		if record.Quote.DayLow != nil {
			t.Error("-Inf dayLow should be nulled")
		}
	})

	t.Run("removes non-finite entries from statement tables", func(t *testing.T) {
		statements := &FinancialStatements{
			IncomeStatement: StatementPair{
				Annual: StatementTable{
					"totalRevenue": {
						"2024-09-30": 391035000000,
						"2023-09-30": math.NaN(),
					},
					"netIncome": {
						"2024-09-30": math.Inf(1),
					},
				},
			},
		}
		record := &CompanyRecord{Ticker: "AAPL", FinancialStatements: statements}
		record.Scrub()

		revenue := statements.IncomeStatement.Annual["totalRevenue"]
		if _, ok := revenue["2024-09-30"]; !ok {
			t.Error("finite revenue period should survive the scrub")
		}
		if _, ok := revenue["2023-09-30"]; ok {
			t.Error("NaN revenue period should be deleted")
		}
		if len(statements.IncomeStatement.Annual["netIncome"]) != 0 {
			t.Error("Inf netIncome period should be deleted")
		}
	})

	t.Run("cleans price history bars", func(t *testing.T) {
		record := &CompanyRecord{
			Ticker: "AAPL",
			StockPrices: []PricePoint{
				{Date: "2024-09-30", Open: fp(math.NaN()), Close: fp(230.1)},
			},
		}
		record.Scrub()

		if record.StockPrices[0].Open != nil {
			t.Error("NaN open should be nulled")
		}
		if record.StockPrices[0].Close == nil {
			t.Error("finite close should survive the scrub")
		}
	})
}

func TestFieldCount(t *testing.T) {
	t.Run("empty record counts zero", func(t *testing.T) {
		record := &CompanyRecord{Ticker: "AAPL"}
		if got := record.FieldCount(); got != 0 {
			t.Errorf("FieldCount() = %d, want 0", got)
		}
	})

	t.Run("counts profile fields and sections independently", func(t *testing.T) {
		image := "data:image/png;base64,xxxx"
		record := &CompanyRecord{
			Ticker: "AAPL",
			Profile: &Profile{
				Name:   sp("Apple Inc."),
				Sector: sp("Technology"),
			},
			Quote:               &Quote{Price: fp(195.3)},
			KeyMetrics:          &KeyMetrics{Beta: fp(1.2)},
			FinancialStatements: statementsFixture(391035000000),
			Image:               &image,
		}
		// name, sector, quote, key metrics, statements, image
		if got := record.FieldCount(); got != 6 {
			t.Errorf("FieldCount() = %d, want 6", got)
		}
	})

	t.Run("empty strings and empty statements do not count", func(t *testing.T) {
		record := &CompanyRecord{
			Ticker:              "AAPL",
			Profile:             &Profile{Name: sp("")},
			FinancialStatements: &FinancialStatements{},
		}
		if got := record.FieldCount(); got != 0 {
			t.Errorf("FieldCount() = %d, want 0", got)
		}
	})
}

func TestFinancialStatementsIsEmpty(t *testing.T) {
	var nilStatements *FinancialStatements
	if !nilStatements.IsEmpty() {
		t.Error("nil statements should be empty")
	}
	if !new(FinancialStatements).IsEmpty() {
		t.Error("zero-value statements should be empty")
	}
	if statementsFixture(100).IsEmpty() {
		t.Error("populated statements should not be empty")
	}
}

func TestFinancialStatementsHash(t *testing.T) {
	t.Run("identical statements hash equal", func(t *testing.T) {
		a, err := statementsFixture(391035000000).Hash()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := statementsFixture(391035000000).Hash()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a == "" {
			t.Fatal("expected a non-empty digest")
		}
		if a != b {
			t.Errorf("digests differ for identical statements: %s vs %s", a, b)
		}
	})

	t.Run("changed line item changes the digest", func(t *testing.T) {
		a, err := statementsFixture(391035000000).Hash()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := statementsFixture(400000000000).Hash()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a == b {
			t.Error("digest should change when a line item changes")
		}
	})

	t.Run("empty statements hash to the empty string", func(t *testing.T) {
		hash, err := new(FinancialStatements).Hash()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hash != "" {
			t.Errorf("Hash() = %q, want empty", hash)
		}
	})

	t.Run("scrubbed statements marshal cleanly", func(t *testing.T) {
		statements := statementsFixture(391035000000)
		statements.IncomeStatement.Annual["totalRevenue"]["2022-09-30"] = math.NaN()
		record := &CompanyRecord{Ticker: "AAPL", FinancialStatements: statements}
		record.Scrub()

		hash, err := statements.Hash()
		if err != nil {
			t.Fatalf("unexpected error after scrub: %v", err)
		}
		if hash == "" {
			t.Error("expected a digest for scrubbed statements")
		}
	})
}
