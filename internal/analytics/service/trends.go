package service

import (
	"context"
	"fmt"
	"time"

	"doctrack/internal/analytics/models"
	"doctrack/pkg/domerrors"
	"doctrack/pkg/requestcontext"
)

// TrendQuery selects the trend series to compute.
type TrendQuery struct {
	Period   models.Period
	Months   int
	Office   string
	Category string
}

// Validate checks the query shape.
func (q TrendQuery) Validate() error {
	if !models.ValidPeriod(q.Period) {
		return domerrors.New(domerrors.CodeValidation, "period must be daily, weekly or monthly")
	}
	if q.Months < 0 {
		return domerrors.New(domerrors.CodeValidation, "months must be positive")
	}
	return nil
}

// Trends buckets documents by upload date and reports per-bucket throughput
// plus the direction of the two most recent populated buckets.
func (s *Service) Trends(ctx context.Context, q TrendQuery) (*models.TrendReport, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.Months == 0 {
		q.Months = defaultMonths
	}

	all, err := s.docs.List(ctx)
	if err != nil {
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "failed to list documents")
	}
	now := requestcontext.Now(ctx)
	docs := s.windowDocs(all, now, q.Months, q.Office, q.Category)

	keys, index := bucketSeries(q.Period, now.AddDate(0, -q.Months, 0), now)
	for _, doc := range docs {
		uploaded := doc.DateUploaded
		if uploaded.IsZero() {
			uploaded = now
		}
		bucket, ok := index[bucketKey(q.Period, uploaded)]
		if !ok {
			continue
		}
		bucket.Total++
		if doc.IsDelayed {
			bucket.Delayed++
		}
		if completed(doc.Status) {
			bucket.Completed++
		} else {
			bucket.Pending++
		}
		bucket.TotalProcessingTime += doc.TotalProcessingHours()
	}

	report := &models.TrendReport{Period: q.Period}
	bucketed := 0
	for _, key := range keys {
		bucket := index[key]
		if bucket.Total > 0 {
			bucket.AverageProcessingTime = round1(bucket.TotalProcessingTime / float64(max(bucket.Completed, 1)))
			bucket.DelayRate = round1(float64(bucket.Delayed) / float64(bucket.Total) * 100)
			bucket.CompletionRate = round1(float64(bucket.Completed) / float64(bucket.Total) * 100)
		}
		bucket.TotalProcessingTime = round1(bucket.TotalProcessingTime)
		bucketed += bucket.Total
		report.Buckets = append(report.Buckets, *bucket)
	}

	// A document whose upload date falls outside the generated series (seen
	// with timezone-skewed historical data) is counted in the corpus but in
	// no bucket. Log the mismatch; do not repair the bucketing.
	if bucketed != len(docs) {
		s.logger.WarnContext(ctx, "trend buckets do not sum to corpus count",
			"bucketed", bucketed, "corpus", len(docs), "period", q.Period)
	}

	report.ProcessingTime, report.DelayRate = trendDirections(report.Buckets)
	return report, nil
}

// trendDirections compares the two most recent populated buckets. Processing
// time moves on a ±2 hour band; delay rate on ±5 points. Lower is better for
// both, so a negative change is the improving direction.
func trendDirections(buckets []models.TrendBucket) (processing, delay models.Trend) {
	processing = models.Trend{Status: models.DirectionStable}
	delay = models.Trend{Status: models.DirectionStable}

	var recent []models.TrendBucket
	for _, b := range buckets {
		if b.Total > 0 {
			recent = append(recent, b)
		}
	}
	if len(recent) < 2 {
		return processing, delay
	}
	prev, last := recent[len(recent)-2], recent[len(recent)-1]

	processing.Change = round1(last.AverageProcessingTime - prev.AverageProcessingTime)
	switch {
	case processing.Change < -2:
		processing.Status = models.DirectionImproving
	case processing.Change > 2:
		processing.Status = models.DirectionDeclining
	}

	delay.Change = round1(last.DelayRate - prev.DelayRate)
	switch {
	case delay.Change < -5:
		delay.Status = models.DirectionImproving
	case delay.Change > 5:
		delay.Status = models.DirectionDeclining
	}
	return processing, delay
}

// bucketSeries generates the ordered bucket keys covering [start, now] and an
// index of empty buckets by key.
func bucketSeries(period models.Period, start, now time.Time) ([]string, map[string]*models.TrendBucket) {
	var keys []string
	index := make(map[string]*models.TrendBucket)
	add := func(t time.Time) {
		key := bucketKey(period, t)
		if _, dup := index[key]; dup {
			return
		}
		keys = append(keys, key)
		index[key] = &models.TrendBucket{Period: key}
	}

	switch period {
	case models.PeriodDaily:
		for t := start; !t.After(now); t = t.AddDate(0, 0, 1) {
			add(t)
		}
	case models.PeriodWeekly:
		for t := start; !t.After(now); t = t.AddDate(0, 0, 7) {
			add(t)
		}
	case models.PeriodMonthly:
		for t := start; !t.After(now); t = t.AddDate(0, 1, 0) {
			add(t)
		}
	}
	add(now)
	return keys, index
}

func bucketKey(period models.Period, t time.Time) string {
	switch period {
	case models.PeriodDaily:
		return t.Format("2006-01-02")
	case models.PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return t.Format("2006-01")
	}
}
