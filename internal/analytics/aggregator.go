package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"health-concierge/backend/internal/models"
	"health-concierge/backend/internal/repository"
	"health-concierge/backend/pkg/logger"
)

// WordsPerSecond is the reading-speed constant used to convert generated
// words into time spent.
const WordsPerSecond = 1.5

// SpecialistStat aggregates one specialist's output
type SpecialistStat struct {
	SpecialistName  string         `json:"specialist_name"`
	TotalWords      int            `json:"total_words_generated"`
	TotalMessages   int            `json:"total_messages_sent"`
	LastActivity    time.Time      `json:"last_activity"`
	DailyWordCounts map[string]int `json:"daily_word_counts"`
}

// DayTime is one day of derived engagement time
type DayTime struct {
	Date                string         `json:"date"`
	DisplayDate         string         `json:"display_date"`
	TotalWords          int            `json:"total_words"`
	TimeSpentMinutes    float64        `json:"time_spent_minutes"`
	TimeSpentSeconds    float64        `json:"time_spent_seconds"`
	SpecialistBreakdown map[string]int `json:"specialist_breakdown"`
}

// TimeSummary totals the window covered by TimeSpent
type TimeSummary struct {
	TotalTimeMinutes     float64        `json:"total_time_minutes"`
	TotalWordsGenerated  int            `json:"total_words_generated"`
	AverageDailyMinutes  float64        `json:"average_daily_time_minutes"`
	DaysWithActivity     int            `json:"days_with_activity"`
	SpecialistWordTotals map[string]int `json:"specialist_word_totals"`
}

// TrendPoint is one day of one specialist's word output
type TrendPoint struct {
	Date        string  `json:"date"`
	DisplayDate string  `json:"display_date"`
	Words       int     `json:"words"`
	TimeMinutes float64 `json:"time_minutes"`
}

// SpecialistTotal is a compact per-specialist rollup for trend charts
type SpecialistTotal struct {
	SpecialistName string     `json:"specialist_name"`
	TotalWords     int        `json:"total_words"`
	TotalMessages  int        `json:"total_messages"`
	LastActivity   *time.Time `json:"last_activity"`
}

// Aggregator derives usage analytics from stored assistant messages.
// Word counts are always computed from message content, never stored.
type Aggregator struct {
	messages repository.MessageRepository
	cache    StatsCache
	log      *logger.Logger
}

// NewAggregator creates an analytics aggregator
func NewAggregator(messages repository.MessageRepository, cache StatsCache, log *logger.Logger) *Aggregator {
	if cache == nil {
		cache = nopStatsCache{}
	}
	return &Aggregator{messages: messages, cache: cache, log: log}
}

const statsCacheKey = "analytics:specialist-stats"

// SpecialistStats aggregates word and message counts per specialist.
// When name is non-empty only that specialist's stats are returned.
func (a *Aggregator) SpecialistStats(ctx context.Context, name string) ([]SpecialistStat, error) {
	stats, ok := a.cache.GetStats(statsCacheKey)
	if !ok {
		computed, err := a.computeStats(ctx)
		if err != nil {
			return nil, err
		}
		stats = computed
		a.cache.SetStats(statsCacheKey, stats)
	}

	if name == "" {
		return stats, nil
	}
	for _, s := range stats {
		if s.SpecialistName == name {
			return []SpecialistStat{s}, nil
		}
	}
	return []SpecialistStat{}, nil
}

func (a *Aggregator) computeStats(ctx context.Context) ([]SpecialistStat, error) {
	msgs, err := a.messages.ListAssistantSince(ctx, time.Time{})
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*SpecialistStat)
	for i := range msgs {
		m := &msgs[i]
		speaker := m.Speaker
		if speaker == "" {
			continue
		}

		stat, ok := byName[speaker]
		if !ok {
			stat = &SpecialistStat{
				SpecialistName:  speaker,
				DailyWordCounts: make(map[string]int),
			}
			byName[speaker] = stat
		}

		words := m.WordCount()
		stat.TotalWords += words
		stat.TotalMessages++
		stat.DailyWordCounts[m.CreatedAt.UTC().Format(models.DateLayout)] += words
		if m.CreatedAt.After(stat.LastActivity) {
			stat.LastActivity = m.CreatedAt
		}
	}

	stats := make([]SpecialistStat, 0, len(byName))
	for _, stat := range byName {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].SpecialistName < stats[j].SpecialistName
	})
	return stats, nil
}

// TimeSpent derives per-day engagement time for the seven days ending at
// ref, oldest day first.
func (a *Aggregator) TimeSpent(ctx context.Context, ref time.Time) ([]DayTime, TimeSummary, error) {
	stats, err := a.SpecialistStats(ctx, "")
	if err != nil {
		return nil, TimeSummary{}, err
	}

	days := make([]DayTime, 0, 7)
	for i := 6; i >= 0; i-- {
		date := ref.UTC().AddDate(0, 0, -i)
		dateStr := date.Format(models.DateLayout)

		totalWords := 0
		breakdown := make(map[string]int)
		for _, stat := range stats {
			if words := stat.DailyWordCounts[dateStr]; words > 0 {
				totalWords += words
				breakdown[stat.SpecialistName] = words
			}
		}

		seconds := float64(totalWords) / WordsPerSecond
		days = append(days, DayTime{
			Date:                dateStr,
			DisplayDate:         date.Format("Jan 02"),
			TotalWords:          totalWords,
			TimeSpentMinutes:    round1(seconds / 60),
			TimeSpentSeconds:    round1(seconds),
			SpecialistBreakdown: breakdown,
		})
	}

	summary := TimeSummary{SpecialistWordTotals: make(map[string]int)}
	for _, day := range days {
		summary.TotalTimeMinutes += day.TimeSpentMinutes
		summary.TotalWordsGenerated += day.TotalWords
		if day.TotalWords > 0 {
			summary.DaysWithActivity++
		}
		for specialist, words := range day.SpecialistBreakdown {
			summary.SpecialistWordTotals[specialist] += words
		}
	}
	summary.TotalTimeMinutes = round1(summary.TotalTimeMinutes)
	// The average counts only days the user actually engaged
	if summary.DaysWithActivity > 0 {
		summary.AverageDailyMinutes = round1(summary.TotalTimeMinutes / float64(summary.DaysWithActivity))
	}

	return days, summary, nil
}

// WordTrends produces per-specialist daily word series over the seven
// days ending at ref. Days without output carry explicit zeroes so every
// series has the same length; specialists with no output anywhere in the
// window are left out of the series map entirely.
func (a *Aggregator) WordTrends(ctx context.Context, ref time.Time) (map[string][]TrendPoint, []SpecialistTotal, error) {
	stats, err := a.SpecialistStats(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	days, _, err := a.TimeSpent(ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	trends := make(map[string][]TrendPoint)
	for _, stat := range stats {
		series := make([]TrendPoint, 0, len(days))
		windowWords := 0
		for _, day := range days {
			words := stat.DailyWordCounts[day.Date]
			windowWords += words
			series = append(series, TrendPoint{
				Date:        day.Date,
				DisplayDate: day.DisplayDate,
				Words:       words,
				TimeMinutes: round1(float64(words) / WordsPerSecond / 60),
			})
		}
		// Specialists silent for the whole window get no series at all
		if windowWords == 0 {
			continue
		}
		trends[stat.SpecialistName] = series
	}

	totals := make([]SpecialistTotal, 0, len(stats))
	for _, stat := range stats {
		total := SpecialistTotal{
			SpecialistName: stat.SpecialistName,
			TotalWords:     stat.TotalWords,
			TotalMessages:  stat.TotalMessages,
		}
		if !stat.LastActivity.IsZero() {
			t := stat.LastActivity
			total.LastActivity = &t
		}
		totals = append(totals, total)
	}

	return trends, totals, nil
}

// Invalidate drops cached stats, called after new assistant messages
func (a *Aggregator) Invalidate() {
	a.cache.Invalidate(statsCacheKey)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
