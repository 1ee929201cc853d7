// Package fanout turns a completed lifecycle transition into a batch of
// persisted notifications.
//
// Every event notifies the document's owner when the owner resolves. Who else
// hears about it is decided by a per-event audience policy so that adding a
// new event kind is a table entry, not another branch in the delivery loop.
// Delivery is best effort: resolution misses and persistence failures are
// logged and never surfaced to the lifecycle transition that triggered them.
package fanout

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	dirmodels "doctrack/internal/directory/models"
	dirstore "doctrack/internal/directory/store"
	docmodels "doctrack/internal/document/models"
	"doctrack/internal/identity"
	"doctrack/internal/notification/metrics"
	"doctrack/internal/notification/models"
	"doctrack/internal/notification/store"
	"doctrack/pkg/requestcontext"
)

// Publisher emits lifecycle events onto the external stream. A nil publisher
// disables streaming.
type Publisher interface {
	Publish(ctx context.Context, doc *docmodels.Document, event models.Type)
}

// broadcastScope names who, beyond the owner and routing targets, hears about
// an event.
type broadcastScope int

const (
	broadcastNone broadcastScope = iota
	broadcastEveryone
	broadcastAdmins
	broadcastDecision
)

// audiencePolicy is the per-event delivery rule.
type audiencePolicy struct {
	// nextRecipients emits a routing message to the document's current
	// handler and next-office members.
	nextRecipients bool
	broadcast      broadcastScope
}

// policies maps each event kind to its audience. Events not listed notify the
// owner only.
var policies = map[models.Type]audiencePolicy{
	models.TypeUploaded:  {nextRecipients: true, broadcast: broadcastEveryone},
	models.TypeForwarded: {nextRecipients: true, broadcast: broadcastAdmins},
	models.TypeApproved:  {broadcast: broadcastDecision},
	models.TypeRejected:  {broadcast: broadcastDecision},
}

// Engine fans lifecycle events out to their audience.
type Engine struct {
	resolver  *identity.Resolver
	accounts  dirstore.AccountStore
	store     store.NotificationStore
	unread    *store.UnreadCache
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	adminRole string
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithUnreadCache attaches the Redis unread-counter cache.
func WithUnreadCache(cache *store.UnreadCache) Option {
	return func(e *Engine) { e.unread = cache }
}

// WithPublisher attaches the lifecycle event stream publisher.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics attaches fan-out metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New constructs the fan-out engine. adminRole names the account role that
// receives forwarded-document broadcasts.
func New(resolver *identity.Resolver, accounts dirstore.AccountStore, notifications store.NotificationStore, adminRole string, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		resolver:  resolver,
		accounts:  accounts,
		store:     notifications,
		adminRole: adminRole,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fanout builds and persists the notification batch for one lifecycle event.
// It never returns an error: delivery is a side channel and must not block
// the transition that produced the event.
func (e *Engine) Fanout(ctx context.Context, doc *docmodels.Document, event models.Type) {
	now := requestcontext.Now(ctx)

	var batch []models.Notification
	seen := make(map[uuid.UUID]struct{})
	add := func(account dirmodels.Account, message string) {
		if _, dup := seen[account.ID]; dup {
			return
		}
		seen[account.ID] = struct{}{}
		batch = append(batch, models.Notification{
			ID:         uuid.New(),
			Recipient:  account.ID,
			Type:       event,
			Title:      eventTitle(event),
			Message:    message,
			DocumentID: doc.ID,
			CreatedAt:  now,
			Metadata:   map[string]string{"documentCode": doc.Code},
		})
	}

	owner, ownerOK := e.resolver.Resolve(ctx, doc.SubmittedBy)
	if ownerOK {
		add(*owner, ownerMessage(doc, event))
	} else {
		e.metrics.RecordResolutionMiss()
		e.logger.WarnContext(ctx, "document owner did not resolve",
			"document", doc.Code, "submittedBy", doc.SubmittedBy)
	}

	policy := policies[event]
	if policy.nextRecipients {
		message := recipientMessage(doc, event, latestForwarder(doc))
		for _, account := range e.resolver.NextRecipients(ctx, doc) {
			add(account, message)
		}
	}

	e.broadcast(ctx, doc, event, policy.broadcast, add)

	if len(batch) == 0 {
		return
	}
	if err := e.store.CreateBatch(ctx, batch); err != nil {
		e.metrics.RecordPersistFailure()
		e.logger.ErrorContext(ctx, "failed to persist notification batch",
			"document", doc.Code, "event", event, "count", len(batch), "error", err)
		return
	}
	e.metrics.RecordCreated(string(event), len(batch))
	for _, n := range batch {
		e.unread.Add(ctx, n.Recipient, 1)
	}
	if e.publisher != nil {
		e.publisher.Publish(ctx, doc, event)
	}
}

func (e *Engine) broadcast(ctx context.Context, doc *docmodels.Document, event models.Type, scope broadcastScope, add func(dirmodels.Account, string)) {
	switch scope {
	case broadcastEveryone:
		accounts, err := e.accounts.List(ctx)
		if err != nil {
			e.logger.WarnContext(ctx, "failed to list accounts for broadcast",
				"document", doc.Code, "error", err)
			return
		}
		message := broadcastMessage(doc, event)
		for _, account := range accounts {
			add(account, message)
		}
	case broadcastAdmins:
		admins, err := e.accounts.ListByRole(ctx, e.adminRole)
		if err != nil {
			e.logger.WarnContext(ctx, "failed to list admin accounts",
				"document", doc.Code, "error", err)
			return
		}
		message := broadcastMessage(doc, event)
		for _, account := range admins {
			add(account, message)
		}
	case broadcastDecision:
		message := decisionMessage(doc, event)
		for _, account := range e.resolver.NextRecipients(ctx, doc) {
			add(account, message)
		}
	}
}
