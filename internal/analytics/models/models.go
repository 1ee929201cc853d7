// Package models defines the analytics report shapes: time-series trends over
// document throughput and detected delay patterns.
package models

// Period selects the trend bucket width.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ValidPeriod reports whether p is a known bucket width.
func ValidPeriod(p Period) bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// Direction labels how a metric moved between the two most recent buckets.
type Direction string

const (
	DirectionImproving Direction = "improving"
	DirectionDeclining Direction = "declining"
	DirectionStable    Direction = "stable"
)

// TrendBucket aggregates the documents uploaded within one period.
type TrendBucket struct {
	Period                string  `json:"period"`
	Total                 int     `json:"total"`
	Delayed               int     `json:"delayed"`
	Completed             int     `json:"completed"`
	Pending               int     `json:"pending"`
	TotalProcessingTime   float64 `json:"totalProcessingTime"`
	AverageProcessingTime float64 `json:"averageProcessingTime"`
	DelayRate             float64 `json:"delayRate"`
	CompletionRate        float64 `json:"completionRate"`
}

// Trend reports one metric's movement between the two most recent buckets.
type Trend struct {
	Status Direction `json:"status"`
	Change float64   `json:"change"`
}

// TrendReport is the full time-series answer.
type TrendReport struct {
	Period         Period        `json:"period"`
	Buckets        []TrendBucket `json:"buckets"`
	ProcessingTime Trend         `json:"processingTime"`
	DelayRate      Trend         `json:"delayRate"`
}

// Severity grades a detected pattern.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RecurringPattern flags an (office, category) pair with a sustained delay
// ratio.
type RecurringPattern struct {
	Office     string   `json:"office"`
	Category   string   `json:"category"`
	Documents  int      `json:"documents"`
	DelayRatio float64  `json:"delayRatio"`
	Severity   Severity `json:"severity"`
}

// Bottleneck flags an office that delays documents or holds them too long.
type Bottleneck struct {
	Office       string  `json:"office"`
	Documents    int     `json:"documents"`
	DelayRatio   float64 `json:"delayRatio"`
	AverageHours float64 `json:"averageHours"`
}

// ProblematicCategory flags a document category with a sustained delay ratio.
type ProblematicCategory struct {
	Category   string  `json:"category"`
	Documents  int     `json:"documents"`
	DelayRatio float64 `json:"delayRatio"`
}

// Insight is a natural-language finding with a recommendation.
type Insight struct {
	Kind           string `json:"kind"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
}

// PatternReport is the full pattern-detection answer.
type PatternReport struct {
	Patterns              []RecurringPattern    `json:"patterns"`
	Bottlenecks           []Bottleneck          `json:"bottlenecks"`
	ProblematicCategories []ProblematicCategory `json:"problematicCategories"`
	Insights              []Insight             `json:"insights"`
}
