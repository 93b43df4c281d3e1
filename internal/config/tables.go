package config

import (
	"fmt"
	"os"
	"time"

	"github.com/aristath/marketadvisor/internal/domain"
	"gopkg.in/yaml.v3"
)

// Instrument is a named ticker
type Instrument struct {
	Name   string `yaml:"name" json:"name"`
	Symbol string `yaml:"symbol" json:"symbol"`
}

// TechnicalParams holds indicator periods and thresholds
type TechnicalParams struct {
	RSIPeriod     int     `yaml:"rsi_period" json:"rsi_period"`
	RSIOverbought float64 `yaml:"rsi_overbought" json:"rsi_overbought"`
	RSIOversold   float64 `yaml:"rsi_oversold" json:"rsi_oversold"`
	MACDFast      int     `yaml:"macd_fast" json:"macd_fast"`
	MACDSlow      int     `yaml:"macd_slow" json:"macd_slow"`
	MACDSignal    int     `yaml:"macd_signal" json:"macd_signal"`
	SMAShort      int     `yaml:"sma_short" json:"sma_short"`
	SMALong       int     `yaml:"sma_long" json:"sma_long"`
	EMAShort      int     `yaml:"ema_short" json:"ema_short"`
	EMALong       int     `yaml:"ema_long" json:"ema_long"`
	BBPeriod      int     `yaml:"bb_period" json:"bb_period"`
	BBStdDev      float64 `yaml:"bb_std_dev" json:"bb_std_dev"`
}

// CacheSettings are freshness windows in seconds, keyed like the cache tables
type CacheSettings struct {
	MarketData          int `yaml:"market_data" json:"market_data"`
	NewsData            int `yaml:"news_data" json:"news_data"`
	TechnicalIndicators int `yaml:"technical_indicators" json:"technical_indicators"`
	PortfolioAnalysis   int `yaml:"portfolio_analysis" json:"portfolio_analysis"`
}

// TTL converts a seconds value to a duration
func (c CacheSettings) TTL(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// Tables is the static reference data driving the calculators.
// Every field has a literal default; a YAML file may overlay any subset.
type Tables struct {
	RiskLevels          map[domain.RiskLevel]domain.AssetAllocation `yaml:"risk_levels"`
	Horizons            map[domain.Horizon]int                      `yaml:"horizons"`
	Sectors             []Instrument                                `yaml:"sectors"`
	CorrelationBasket   []string                                    `yaml:"correlation_basket"`
	LookbackPeriod      string                                      `yaml:"lookback_period"`
	MarketQueries       []string                                    `yaml:"market_queries"`
	MarketSentimentDays int                                         `yaml:"market_sentiment_days"`
	MarketIndices       []Instrument                                `yaml:"market_indices"`
	Commodities         []Instrument                                `yaml:"commodities"`
	ForexPairs          []Instrument                                `yaml:"forex_pairs"`
	Technical           TechnicalParams                             `yaml:"technical"`
	Cache               CacheSettings                               `yaml:"cache"`
	RiskFreeRate        float64                                     `yaml:"risk_free_rate"`
	DefaultAllocation   domain.AssetAllocation                      `yaml:"default_allocation"`
	DefaultSectorWeight float64                                     `yaml:"default_sector_weight"`
	ShortHorizonMonths  int                                         `yaml:"short_horizon_months"`
	LongHorizonMonths   int                                         `yaml:"long_horizon_months"`
}

// DefaultTables returns the built-in reference data
func DefaultTables() Tables {
	return Tables{
		RiskLevels: map[domain.RiskLevel]domain.AssetAllocation{
			domain.RiskLow:    {Equity: 0.3, Commodities: 0.2, Forex: 0.2, FixedIncome: 0.3},
			domain.RiskMedium: {Equity: 0.5, Commodities: 0.2, Forex: 0.2, FixedIncome: 0.1},
			domain.RiskHigh:   {Equity: 0.7, Commodities: 0.15, Forex: 0.15, FixedIncome: 0.0},
		},
		Horizons: map[domain.Horizon]int{
			domain.HorizonShort:  3,
			domain.HorizonMedium: 12,
			domain.HorizonLong:   60,
		},
		Sectors: []Instrument{
			{Name: "Technology", Symbol: "XLK"},
			{Name: "Healthcare", Symbol: "XLV"},
			{Name: "Finance", Symbol: "XLF"},
			{Name: "Energy", Symbol: "XLE"},
			{Name: "Consumer Goods", Symbol: "XLP"},
			{Name: "Industrial", Symbol: "XLI"},
			{Name: "Materials", Symbol: "XLB"},
			{Name: "Utilities", Symbol: "XLU"},
			{Name: "Real Estate", Symbol: "XLRE"},
			{Name: "Communication Services", Symbol: "XLC"},
		},
		CorrelationBasket:   []string{"SPY", "GLD", "TLT", "UUP", "DBC"},
		LookbackPeriod:      "1y",
		MarketQueries:       []string{"stock market", "economy", "inflation", "interest rates", "federal reserve"},
		MarketSentimentDays: 3,
		MarketIndices: []Instrument{
			{Name: "S&P 500", Symbol: "^GSPC"},
			{Name: "Dow Jones", Symbol: "^DJI"},
			{Name: "NASDAQ", Symbol: "^IXIC"},
			{Name: "Russell 2000", Symbol: "^RUT"},
		},
		Commodities: []Instrument{
			{Name: "Gold", Symbol: "GC=F"},
			{Name: "Silver", Symbol: "SI=F"},
			{Name: "Crude Oil", Symbol: "CL=F"},
			{Name: "Natural Gas", Symbol: "NG=F"},
			{Name: "Copper", Symbol: "HG=F"},
			{Name: "Platinum", Symbol: "PL=F"},
			{Name: "Palladium", Symbol: "PA=F"},
		},
		ForexPairs: []Instrument{
			{Name: "EUR/USD", Symbol: "EURUSD=X"},
			{Name: "GBP/USD", Symbol: "GBPUSD=X"},
			{Name: "USD/JPY", Symbol: "USDJPY=X"},
			{Name: "USD/CHF", Symbol: "USDCHF=X"},
			{Name: "AUD/USD", Symbol: "AUDUSD=X"},
			{Name: "USD/CAD", Symbol: "USDCAD=X"},
		},
		Technical: TechnicalParams{
			RSIPeriod:     14,
			RSIOverbought: 70,
			RSIOversold:   30,
			MACDFast:      12,
			MACDSlow:      26,
			MACDSignal:    9,
			SMAShort:      20,
			SMALong:       50,
			EMAShort:      20,
			EMALong:       50,
			BBPeriod:      20,
			BBStdDev:      2,
		},
		Cache: CacheSettings{
			MarketData:          300,
			NewsData:            900,
			TechnicalIndicators: 300,
			PortfolioAnalysis:   3600,
		},
		RiskFreeRate:        0.02,
		DefaultAllocation:   domain.AssetAllocation{Equity: 0.4, Commodities: 0.2, Forex: 0.2, FixedIncome: 0.2},
		DefaultSectorWeight: 0.1,
		ShortHorizonMonths:  3,
		LongHorizonMonths:   60,
	}
}

// LoadTables returns DefaultTables overlaid with the YAML file at path.
// An empty path returns the defaults unchanged.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tables, fmt.Errorf("failed to read tables file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return tables, fmt.Errorf("failed to parse tables file %s: %w", path, err)
	}
	if err := tables.Validate(); err != nil {
		return tables, fmt.Errorf("invalid tables file %s: %w", path, err)
	}
	return tables, nil
}

// Validate checks the structural assumptions the calculators rely on
func (t Tables) Validate() error {
	for _, level := range domain.RiskLevels {
		a, ok := t.RiskLevels[level]
		if !ok {
			return fmt.Errorf("risk level %s missing", level)
		}
		if s := a.Sum(); s < 0.999 || s > 1.001 {
			return fmt.Errorf("risk level %s allocation sums to %.4f", level, s)
		}
	}
	for _, h := range domain.Horizons {
		if t.Horizons[h] <= 0 {
			return fmt.Errorf("horizon %s must have a positive month count", h)
		}
	}
	if len(t.Sectors) == 0 {
		return fmt.Errorf("at least one sector is required")
	}
	seen := make(map[string]bool, len(t.Sectors))
	for _, s := range t.Sectors {
		if s.Name == "" || s.Symbol == "" {
			return fmt.Errorf("sector entries need both name and symbol")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate sector %q", s.Name)
		}
		seen[s.Name] = true
	}
	if len(t.CorrelationBasket) == 0 {
		return fmt.Errorf("correlation basket is empty")
	}
	return nil
}

// SectorNames returns the configured sector names in order
func (t Tables) SectorNames() []string {
	names := make([]string, len(t.Sectors))
	for i, s := range t.Sectors {
		names[i] = s.Name
	}
	return names
}

// SectorSymbol returns the ETF for a sector name
func (t Tables) SectorSymbol(name string) (string, bool) {
	for _, s := range t.Sectors {
		if s.Name == name {
			return s.Symbol, true
		}
	}
	return "", false
}
