package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"doctrack/internal/analytics/models"
	docmodels "doctrack/internal/document/models"
	"doctrack/pkg/domerrors"
	"doctrack/pkg/requestcontext"
)

// Detection thresholds. A grouping below its minimum document count is never
// flagged regardless of ratio.
const (
	recurringMinDocs   = 3
	recurringRatio     = 0.3
	recurringHighRatio = 0.5
	bottleneckMinDocs  = 5
	bottleneckRatio    = 0.3
	bottleneckAvgHours = 48.0
	slowOfficeFactor   = 1.5
)

// groupStats accumulates ledger-derived figures for one grouping key.
type groupStats struct {
	docs    int
	delayed int
	hours   float64
}

// Patterns scans the corpus for recurring (office, category) delay patterns,
// bottleneck offices and problematic categories, and renders an insight per
// finding.
func (s *Service) Patterns(ctx context.Context, months int) (*models.PatternReport, error) {
	if months < 0 {
		return nil, domerrors.New(domerrors.CodeValidation, "months must be positive")
	}
	if months == 0 {
		months = defaultMonths
	}

	all, err := s.docs.List(ctx)
	if err != nil {
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "failed to list documents")
	}
	now := requestcontext.Now(ctx)
	docs := s.windowDocs(all, now, months, "", "")

	offices := make(map[string]*groupStats)
	pairs := make(map[[2]string]*groupStats)
	categories := make(map[string]*groupStats)

	for i := range docs {
		doc := &docs[i]
		for office, hours := range officeHours(doc) {
			stat := upsert(offices, office)
			stat.docs++
			stat.hours += hours
			if doc.IsDelayed {
				stat.delayed++
			}
			if doc.Category != "" {
				pair := upsert(pairs, [2]string{office, doc.Category})
				pair.docs++
				pair.hours += hours
				if doc.IsDelayed {
					pair.delayed++
				}
			}
		}
		if doc.Category != "" {
			stat := upsert(categories, doc.Category)
			stat.docs++
			stat.hours += doc.TotalProcessingHours()
			if doc.IsDelayed {
				stat.delayed++
			}
		}
	}

	report := &models.PatternReport{}

	for key, stat := range pairs {
		ratio := delayRatio(stat)
		if stat.docs < recurringMinDocs || ratio <= recurringRatio {
			continue
		}
		severity := models.SeverityMedium
		if ratio > recurringHighRatio {
			severity = models.SeverityHigh
		}
		report.Patterns = append(report.Patterns, models.RecurringPattern{
			Office:     key[0],
			Category:   key[1],
			Documents:  stat.docs,
			DelayRatio: round2(ratio),
			Severity:   severity,
		})
	}

	for office, stat := range offices {
		ratio := delayRatio(stat)
		avg := stat.hours / float64(stat.docs)
		if stat.docs < bottleneckMinDocs || (ratio <= bottleneckRatio && avg <= bottleneckAvgHours) {
			continue
		}
		report.Bottlenecks = append(report.Bottlenecks, models.Bottleneck{
			Office:       office,
			Documents:    stat.docs,
			DelayRatio:   round2(ratio),
			AverageHours: round1(avg),
		})
	}

	for category, stat := range categories {
		ratio := delayRatio(stat)
		if stat.docs < bottleneckMinDocs || ratio <= bottleneckRatio {
			continue
		}
		report.ProblematicCategories = append(report.ProblematicCategories, models.ProblematicCategory{
			Category:   category,
			Documents:  stat.docs,
			DelayRatio: round2(ratio),
		})
	}

	sortReport(report)
	report.Insights = buildInsights(report, offices)
	return report, nil
}

// officeHours sums ledger processing time per office the document passed
// through.
func officeHours(doc *docmodels.Document) map[string]float64 {
	out := make(map[string]float64)
	for _, entry := range doc.RoutingHistory {
		if entry.Office == "" {
			continue
		}
		out[entry.Office] += entry.ProcessingTime
	}
	return out
}

func upsert[K comparable](m map[K]*groupStats, key K) *groupStats {
	stat, ok := m[key]
	if !ok {
		stat = &groupStats{}
		m[key] = stat
	}
	return stat
}

func delayRatio(stat *groupStats) float64 {
	if stat.docs == 0 {
		return 0
	}
	return float64(stat.delayed) / float64(stat.docs)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func sortReport(report *models.PatternReport) {
	sort.Slice(report.Patterns, func(i, j int) bool {
		a, b := report.Patterns[i], report.Patterns[j]
		if a.DelayRatio != b.DelayRatio {
			return a.DelayRatio > b.DelayRatio
		}
		if a.Office != b.Office {
			return a.Office < b.Office
		}
		return a.Category < b.Category
	})
	sort.Slice(report.Bottlenecks, func(i, j int) bool {
		a, b := report.Bottlenecks[i], report.Bottlenecks[j]
		if a.DelayRatio != b.DelayRatio {
			return a.DelayRatio > b.DelayRatio
		}
		return a.Office < b.Office
	})
	sort.Slice(report.ProblematicCategories, func(i, j int) bool {
		a, b := report.ProblematicCategories[i], report.ProblematicCategories[j]
		if a.DelayRatio != b.DelayRatio {
			return a.DelayRatio > b.DelayRatio
		}
		return a.Category < b.Category
	})
}

// buildInsights renders one insight per finding plus one per office whose
// average stage time exceeds 1.5x the average across all offices.
func buildInsights(report *models.PatternReport, offices map[string]*groupStats) []models.Insight {
	var insights []models.Insight

	for _, p := range report.Patterns {
		insights = append(insights, models.Insight{
			Kind:    "recurring_pattern",
			Subject: fmt.Sprintf("%s / %s", p.Office, p.Category),
			Message: fmt.Sprintf("%.0f%% of %s documents passing through %s are delayed (%d documents).",
				p.DelayRatio*100, p.Category, p.Office, p.Documents),
			Recommendation: fmt.Sprintf("Review the handling steps for %s documents at %s.", p.Category, p.Office),
		})
	}
	for _, b := range report.Bottlenecks {
		insights = append(insights, models.Insight{
			Kind:    "bottleneck",
			Subject: b.Office,
			Message: fmt.Sprintf("%s averages %.1f hours per document with a %.0f%% delay ratio (%d documents).",
				b.Office, b.AverageHours, b.DelayRatio*100, b.Documents),
			Recommendation: fmt.Sprintf("Rebalance workload or staffing at %s.", b.Office),
		})
	}
	for _, c := range report.ProblematicCategories {
		insights = append(insights, models.Insight{
			Kind:    "problematic_category",
			Subject: c.Category,
			Message: fmt.Sprintf("%.0f%% of %s documents are delayed (%d documents).",
				c.DelayRatio*100, c.Category, c.Documents),
			Recommendation: fmt.Sprintf("Revisit the expected processing time for %s documents.", c.Category),
		})
	}

	var totalHours float64
	var totalDocs int
	for _, stat := range offices {
		totalHours += stat.hours
		totalDocs += stat.docs
	}
	if totalDocs == 0 {
		return insights
	}
	corpusAvg := totalHours / float64(totalDocs)

	slow := make([]string, 0)
	for office, stat := range offices {
		if stat.hours/float64(stat.docs) > slowOfficeFactor*corpusAvg {
			slow = append(slow, office)
		}
	}
	sort.Strings(slow)
	for _, office := range slow {
		stat := offices[office]
		insights = append(insights, models.Insight{
			Kind:    "slow_office",
			Subject: office,
			Message: fmt.Sprintf("%s averages %.1f hours per document against a corpus average of %.1f.",
				office, stat.hours/float64(stat.docs), corpusAvg),
			Recommendation: fmt.Sprintf("Investigate why documents sit longer than usual at %s.", office),
		})
	}
	return insights
}
