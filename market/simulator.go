package market

import (
	"fmt"
	"math"
	"math/rand"

	"finlit-api/models"
)

// Per-symbol price ranges for the simulation. Anything unknown falls
// into the generic range.
var priceRanges = map[string][2]float64{
	"AAPL": {150, 180},
	"GOOG": {100, 130},
	"MSFT": {250, 300},
}

var genericRange = [2]float64{10, 50}

var eventTypes = []string{
	"Interest Rate Change",
	"Tech Sector Boom",
	"Global Recession Fear",
	"Major Company Earnings",
	"Oil Price Spike",
	"Geopolitical Tension",
}

var sentiments = []string{"positive", "negative", "neutral"}

var sectors = []string{"tech", "finance", "energy", "all"}

// CurrentPrice returns a price drawn uniformly from the symbol's
// range, rounded to two decimals. Draws are independent; this is
// deliberately not a time series.
func CurrentPrice(symbol string) float64 {
	r, ok := priceRanges[symbol]
	if !ok {
		r = genericRange
	}
	price := r[0] + rand.Float64()*(r[1]-r[0])
	return math.Round(price*100) / 100
}

// PortfolioValue is cash plus the sum of a fresh price draw per
// holding. Two consecutive calls with the same inputs return different
// values; callers wanting a stable valuation must snapshot it.
func PortfolioValue(holdings map[string]int, cash float64) float64 {
	total := cash
	for symbol, quantity := range holdings {
		total += CurrentPrice(symbol) * float64(quantity)
	}
	return total
}

// GenerateEvent produces a simulated market event with a random type,
// sentiment and one or two distinct affected sectors.
func GenerateEvent() models.MarketEvent {
	eventType := eventTypes[rand.Intn(len(eventTypes))]

	n := 1 + rand.Intn(2)
	perm := rand.Perm(len(sectors))
	affected := make([]string, 0, n)
	for _, idx := range perm[:n] {
		affected = append(affected, sectors[idx])
	}

	return models.MarketEvent{
		EventType:   eventType,
		Description: fmt.Sprintf("Simulated event: %s impacting market sentiments.", eventType),
		Impact: models.EventImpact{
			"overall_sentiment": sentiments[rand.Intn(len(sentiments))],
			"sectors_affected":  affected,
		},
	}
}
