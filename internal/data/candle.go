package data

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Candle is the canonical OHLCV record exchanged between the ETL side and the
// research core. Field names mirror the JSON schema used by the data lake.
type Candle struct {
	Timestamp  time.Time `json:"timestamp"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	Volume     float64   `json:"volume"`
	TradeCount *int64    `json:"trade_count,omitempty"`
	VWAP       *float64  `json:"vwap,omitempty"`
	Exchange   string    `json:"exchange"`
	Symbol     string    `json:"symbol"`
	Timeframe  string    `json:"timeframe"`
	Source     string    `json:"source"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Validate enforces the required fields of the canonical candle schema.
func (c Candle) Validate() error {
	if c.Timestamp.IsZero() {
		return fmt.Errorf("candle missing timestamp")
	}
	if c.FetchedAt.IsZero() {
		return fmt.Errorf("candle missing fetched_at")
	}
	for name, v := range map[string]string{
		"exchange":  c.Exchange,
		"symbol":    c.Symbol,
		"timeframe": c.Timeframe,
		"source":    c.Source,
	} {
		if v == "" {
			return fmt.Errorf("candle missing %s", name)
		}
	}
	for name, v := range map[string]float64{
		"open":   c.Open,
		"high":   c.High,
		"low":    c.Low,
		"close":  c.Close,
		"volume": c.Volume,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("candle %s is not a finite number", name)
		}
	}
	if c.High < c.Low {
		return fmt.Errorf("candle high %.8f below low %.8f", c.High, c.Low)
	}
	return nil
}

// PartitionPath computes the data-lake partition path for a candle batch, e.g.
// "data/ohlcv/binance/BTC-USDT/1m/year=2025/month=08/day=06".
func PartitionPath(exchange, symbol, timeframe string, t time.Time) string {
	sanitized := strings.ReplaceAll(symbol, "/", "-")
	return fmt.Sprintf("data/ohlcv/%s/%s/%s/year=%d/month=%02d/day=%02d",
		exchange, sanitized, timeframe, t.Year(), int(t.Month()), t.Day())
}
