// Package stats aggregates request history into a usage dashboard:
// outcomes, latency to the first token and generation speed per model.
package stats

import (
	"time"

	"github.com/arin/ndstream/internal/history"
)

// Summary is the aggregated stats dashboard.
type Summary struct {
	TotalRequests int     `json:"total_requests"`
	Completed     int     `json:"completed"`
	Cancelled     int     `json:"cancelled"`
	Failed        int     `json:"failed"`
	SuccessRate   float64 `json:"success_rate"`

	AvgFirstTokenMs int64   `json:"avg_first_token_ms"`
	AvgTotalMs      int64   `json:"avg_total_ms"`
	AvgTokensPerSec float64 `json:"avg_tokens_per_sec"`

	ModelBreakdown map[string]int `json:"model_breakdown"`
	TopModels      []ModelCount   `json:"top_models"`
	TopErrors      []ErrorCount   `json:"top_errors"`
	TodayCount     int            `json:"today_count"`
	ThisWeekCount  int            `json:"this_week_count"`
}

// ModelCount pairs a model with its usage count.
type ModelCount struct {
	Model string `json:"model"`
	Count int    `json:"count"`
}

// ErrorCount pairs a failure message with how often it occurred.
type ErrorCount struct {
	Error string `json:"error"`
	Count int    `json:"count"`
}

// Summarize computes aggregated stats from history entries.
func Summarize(entries []history.Entry) Summary {
	return summarizeAt(entries, time.Now())
}

func summarizeAt(entries []history.Entry, now time.Time) Summary {
	s := Summary{
		TotalRequests:  len(entries),
		ModelBreakdown: map[string]int{},
	}
	if len(entries) == 0 {
		return s
	}

	var (
		firstTokenTotal, totalMs int64
		firstTokenN             int
		tpsTotal                float64
		tpsN                    int
		errFreq                 = map[string]int{}
	)
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	weekAgo := now.AddDate(0, 0, -7)

	for _, e := range entries {
		switch e.Outcome {
		case history.OutcomeCompleted:
			s.Completed++
		case history.OutcomeCancelled:
			s.Cancelled++
		case history.OutcomeFailed:
			s.Failed++
			if e.Error != "" {
				errFreq[e.Error]++
			}
		}
		if e.Model != "" {
			s.ModelBreakdown[e.Model]++
		}
		totalMs += e.TotalMs
		if e.FirstTokenMs > 0 {
			firstTokenTotal += e.FirstTokenMs
			firstTokenN++
		}
		if tps := e.TokensPerSecond(); tps > 0 {
			tpsTotal += tps
			tpsN++
		}
		if !e.Timestamp.Before(today) {
			s.TodayCount++
		}
		if e.Timestamp.After(weekAgo) {
			s.ThisWeekCount++
		}
	}

	s.SuccessRate = float64(s.Completed) / float64(len(entries)) * 100
	s.AvgTotalMs = totalMs / int64(len(entries))
	if firstTokenN > 0 {
		s.AvgFirstTokenMs = firstTokenTotal / int64(firstTokenN)
	}
	if tpsN > 0 {
		s.AvgTokensPerSec = tpsTotal / float64(tpsN)
	}

	for _, kv := range topN(s.ModelBreakdown, 5) {
		s.TopModels = append(s.TopModels, ModelCount{Model: kv.key, Count: kv.count})
	}
	for _, kv := range topN(errFreq, 3) {
		s.TopErrors = append(s.TopErrors, ErrorCount{Error: kv.key, Count: kv.count})
	}
	return s
}

type keyCount struct {
	key   string
	count int
}

func topN(freq map[string]int, n int) []keyCount {
	var all []keyCount
	for k, count := range freq {
		all = append(all, keyCount{key: k, count: count})
	}
	// Simple selection sort for small N. Ties break by key so output is stable.
	for i := 0; i < len(all) && i < n; i++ {
		maxIdx := i
		for j := i + 1; j < len(all); j++ {
			if all[j].count > all[maxIdx].count ||
				(all[j].count == all[maxIdx].count && all[j].key < all[maxIdx].key) {
				maxIdx = j
			}
		}
		all[i], all[maxIdx] = all[maxIdx], all[i]
	}
	if len(all) > n {
		all = all[:n]
	}
	return all
}
