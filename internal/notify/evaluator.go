// Package notify implements the server-side counterpart of the
// cheapest-window search: it reruns the identical, deterministic
// search over next-day prices and decides, per subscription, whether
// the cheapest hour beats the user's threshold. Delivery of the
// resulting payloads is out of scope.
package notify

import (
	"errors"
	"time"

	"github.com/spotwindow/spotwindow/internal/engine"
	"github.com/spotwindow/spotwindow/internal/store"
)

// Payload is the notification content produced for one subscription
// whose threshold was undercut
type Payload struct {
	SubscriptionID    string    `json:"subscription_id"`
	ThresholdPrice    float64   `json:"threshold_price"`
	CheapestHourPrice float64   `json:"cheapest_hour_price"`
	CheapestHourStart time.Time `json:"cheapest_hour_start"`
}

// Evaluate runs the one-interval cheapest-window search over the given
// next-day points for every subscription and returns a payload for
// each whose cheapest hour is priced strictly below its threshold.
// Prices in the payload are presentation-rounded; the threshold
// comparison uses full precision.
func Evaluate(points []engine.PricePoint, subs []store.Subscription, now time.Time) ([]Payload, error) {
	series, err := engine.NewSeries(points, now)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyResult) {
			return nil, nil
		}
		return nil, err
	}

	lo, hi, ok := series.Bounds()
	if !ok {
		return nil, nil
	}

	payloads := []Payload{}
	for _, sub := range subs {
		req := engine.Request{
			Mode:       engine.ModeDuration,
			Duration:   series.Width(),
			Scope:      engine.Custom(lo, hi),
			VATEnabled: sub.VATEnabled,
			Region:     sub.Region,
		}
		res, err := engine.CheapestWindow(series, req, now)
		if err != nil {
			// A gapped or short series just means no notification for
			// this subscription.
			continue
		}
		if res.AveragePrice >= sub.Threshold {
			continue
		}
		payloads = append(payloads, Payload{
			SubscriptionID:    sub.ID,
			ThresholdPrice:    engine.RoundPrice(sub.Threshold),
			CheapestHourPrice: engine.RoundPrice(res.AveragePrice),
			CheapestHourStart: res.Start,
		})
	}

	return payloads, nil
}
