// Package service computes throughput trends and delay-pattern reports over
// the document corpus. Both computations are pure reads: they scan every
// document and its routing ledger on demand, nothing is precomputed.
package service

import (
	"log/slog"
	"math"
	"strings"
	"time"

	docmodels "doctrack/internal/document/models"
	docstore "doctrack/internal/document/store"
)

// Service answers analytics queries from the document store.
type Service struct {
	docs   docstore.DocumentStore
	logger *slog.Logger
}

// New constructs the analytics service.
func New(docs docstore.DocumentStore, logger *slog.Logger) *Service {
	return &Service{docs: docs, logger: logger}
}

const defaultMonths = 6

// windowDocs returns the documents uploaded within the last months months,
// optionally filtered by current office and category. A document without an
// upload date is treated as uploaded now rather than dropped.
func (s *Service) windowDocs(docs []docmodels.Document, now time.Time, months int, office, category string) []docmodels.Document {
	start := now.AddDate(0, -months, 0)
	out := make([]docmodels.Document, 0, len(docs))
	for _, doc := range docs {
		uploaded := doc.DateUploaded
		if uploaded.IsZero() {
			uploaded = now
		}
		if uploaded.Before(start) || uploaded.After(now) {
			continue
		}
		if office != "" && !strings.EqualFold(doc.CurrentOffice, office) {
			continue
		}
		if category != "" && !strings.EqualFold(doc.Category, category) {
			continue
		}
		out = append(out, doc)
	}
	return out
}

// completed reports whether the document reached a reviewed outcome.
// A returned document is terminal but not an outcome; it counts as pending.
func completed(status docmodels.Status) bool {
	return status == docmodels.StatusApproved || status == docmodels.StatusRejected
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
