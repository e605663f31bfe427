// Package mood computes rolling statistics over a user's mood history.
package mood

import (
	"sort"

	"github.com/mycelian/mycelian-journal/internal/model"
)

const (
	// BaselineScore stands in for the average when no scores are present.
	BaselineScore = 50.0

	trendWindow    = 7
	trendMinPoints = 3
	trendThreshold = 10.0
	topEmotions    = 3
)

// AnalyzeHistory summarizes records ordered newest first. Records without a
// mood score are left out of the average and the trend.
func AnalyzeHistory(records []model.MoodRecord) model.UserHistorySummary {
	summary := model.UserHistorySummary{
		AvgMoodScore:   BaselineScore,
		CommonEmotions: []string{},
		RecentTrend:    model.TrendInsufficientData,
	}
	if len(records) == 0 {
		return summary
	}

	scores := make([]float64, 0, len(records))
	for _, r := range records {
		if r.MoodScore != nil {
			scores = append(scores, float64(*r.MoodScore))
		}
	}
	if len(scores) > 0 {
		summary.AvgMoodScore = mean(scores)
	}
	summary.CommonEmotions = commonEmotions(records)
	summary.RecentTrend = recentTrend(scores)
	return summary
}

// commonEmotions sums each label across records and returns the top labels.
// Ties keep first-seen order; within one record labels are visited in
// lexical order so the result does not depend on map iteration.
func commonEmotions(records []model.MoodRecord) []string {
	totals := map[string]float64{}
	var order []string
	for _, r := range records {
		labels := make([]string, 0, len(r.Emotions))
		for l := range r.Emotions {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		for _, l := range labels {
			if _, seen := totals[l]; !seen {
				order = append(order, l)
			}
			totals[l] += r.Emotions[l]
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return totals[order[i]] > totals[order[j]] })
	if len(order) > topEmotions {
		order = order[:topEmotions]
	}
	if order == nil {
		return []string{}
	}
	return order
}

// recentTrend compares the newest week with the week before when two full
// weeks of scores exist. Otherwise it splits the newest scores (at most a
// week) chronologically and compares the newer half with the older half.
func recentTrend(newestFirst []float64) model.Trend {
	var diff float64
	if len(newestFirst) >= 2*trendWindow {
		diff = mean(newestFirst[:trendWindow]) - mean(newestFirst[trendWindow:2*trendWindow])
	} else {
		n := len(newestFirst)
		if n > trendWindow {
			n = trendWindow
		}
		if n < trendMinPoints {
			return model.TrendInsufficientData
		}
		chrono := make([]float64, n)
		for i := 0; i < n; i++ {
			chrono[i] = newestFirst[n-1-i]
		}
		half := n / 2
		diff = mean(chrono[half:]) - mean(chrono[:half])
	}

	switch {
	case diff > trendThreshold:
		return model.TrendImproving
	case diff < -trendThreshold:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// RecordsFromEntries projects journal entries onto the aggregator input.
func RecordsFromEntries(entries []*model.JournalEntry) []model.MoodRecord {
	out := make([]model.MoodRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.MoodRecord{
			MoodScore:    e.MoodScore,
			Emotions:     e.Emotions,
			CreationTime: e.CreationTime,
		})
	}
	return out
}

// ChronologicalScores returns the present scores of newest-first entries,
// oldest first.
func ChronologicalScores(entries []*model.JournalEntry) []int {
	out := make([]int, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if s := entries[i].MoodScore; s != nil {
			out = append(out, *s)
		}
	}
	return out
}
