package fanout

import (
	"fmt"
	"regexp"
	"strings"

	docmodels "doctrack/internal/document/models"
	"doctrack/internal/notification/models"
)

func eventTitle(event models.Type) string {
	switch event {
	case models.TypeUploaded:
		return "Document Uploaded"
	case models.TypeUpdated:
		return "Document Updated"
	case models.TypeAssigned:
		return "Document Assigned"
	case models.TypeForwarded:
		return "Document Forwarded"
	case models.TypeApproved:
		return "Document Approved"
	case models.TypeRejected:
		return "Document Rejected"
	case models.TypeFileUpdated:
		return "File Updated"
	}
	return "Document Notification"
}

// ownerMessage is the concise variant sent to the document's submitter.
func ownerMessage(doc *docmodels.Document, event models.Type) string {
	switch event {
	case models.TypeUploaded:
		return fmt.Sprintf("Your document %s was received by %s.", doc.Code, doc.CurrentOffice)
	case models.TypeForwarded:
		return fmt.Sprintf("Your document %s was forwarded to %s.", doc.Code, forwardTarget(doc))
	case models.TypeApproved:
		return fmt.Sprintf("Your document %s was approved by %s.", doc.Code, doc.Reviewer)
	case models.TypeRejected:
		return fmt.Sprintf("Your document %s was rejected by %s.", doc.Code, doc.Reviewer)
	case models.TypeAssigned:
		return fmt.Sprintf("Your document %s was assigned to a handler.", doc.Code)
	}
	return fmt.Sprintf("Your document %s was updated.", doc.Code)
}

// recipientMessage is sent to the routing targets. It names the person who
// moved the document so the receiving office knows who to ask.
func recipientMessage(doc *docmodels.Document, event models.Type, forwarder string) string {
	switch event {
	case models.TypeUploaded:
		return fmt.Sprintf("Document %s was submitted by %s for your office.", doc.Code, forwarder)
	case models.TypeForwarded:
		return fmt.Sprintf("Document %s was forwarded to your office by %s.", doc.Code, forwarder)
	}
	return fmt.Sprintf("Document %s requires your attention.", doc.Code)
}

// broadcastMessage is the generic copy for audience-wide notices.
func broadcastMessage(doc *docmodels.Document, event models.Type) string {
	switch event {
	case models.TypeUploaded:
		return fmt.Sprintf("New document %s (%s) is now in the system.", doc.Code, doc.Category)
	case models.TypeForwarded:
		return fmt.Sprintf("Document %s was forwarded to %s.", doc.Code, forwardTarget(doc))
	}
	return fmt.Sprintf("Document %s was updated.", doc.Code)
}

// decisionMessage informs routing targets that a decision already landed.
func decisionMessage(doc *docmodels.Document, event models.Type) string {
	verb := "decided"
	switch event {
	case models.TypeApproved:
		verb = "approved"
	case models.TypeRejected:
		verb = "rejected"
	}
	return fmt.Sprintf("Document %s routed to you has already been %s by %s.", doc.Code, verb, doc.Reviewer)
}

func forwardTarget(doc *docmodels.Document) string {
	if doc.NextOffice != "" {
		return doc.NextOffice
	}
	return doc.CurrentOffice
}

var commentsByPattern = regexp.MustCompile(`(?i)\bby\s+([A-Za-z][A-Za-z.' -]*[A-Za-z.])`)

// latestForwarder names who last moved the document: the handler on the most
// recent forward entry, else a "by <name>" mention in that entry's comments,
// else the original submitter.
func latestForwarder(doc *docmodels.Document) string {
	var latest *docmodels.RoutingEntry
	for i := range doc.RoutingHistory {
		entry := &doc.RoutingHistory[i]
		if !strings.Contains(string(entry.Action), "forward") {
			continue
		}
		if latest == nil || entry.Timestamp.After(latest.Timestamp) {
			latest = entry
		}
	}
	if latest == nil {
		return doc.SubmittedBy
	}
	if handler := strings.TrimSpace(latest.Handler); handler != "" {
		return handler
	}
	if m := commentsByPattern.FindStringSubmatch(latest.Comments); m != nil {
		return strings.TrimSpace(m[1])
	}
	return doc.SubmittedBy
}
