// Package stats folds consumption records into a window summary.
package stats

import "github.com/smallbiznis/gridpulse/internal/consumption/domain"

// Aggregate computes totals, the per-home average and the highest consumer.
// Records are expected in the order the store returned them; the highest
// consumer is the first home to reach the maximum in that order, and a home
// only wins with a strictly positive sum.
func Aggregate(records []*domain.ConsumptionRecord) domain.Statistics {
	var (
		total float64
		order []string
		sums  = make(map[string]float64)
	)
	for _, record := range records {
		if record == nil {
			continue
		}
		if _, seen := sums[record.HomeID]; !seen {
			order = append(order, record.HomeID)
		}
		sums[record.HomeID] += record.Power
		total += record.Power
	}

	out := domain.Statistics{TotalConsumption: total}
	if len(order) == 0 {
		return out
	}
	out.AverageByHome = total / float64(len(order))

	for _, homeID := range order {
		if sums[homeID] > out.HighestConsumer.Consumption {
			id := homeID
			out.HighestConsumer = domain.HighestConsumer{HomeID: &id, Consumption: sums[homeID]}
		}
	}
	return out
}
