package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/ledger"
	"github.com/procura/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SourceItem is the ledger-relevant projection of one source document line
// (receipt line, issue line, count line, opening-balance line). Quantity is the
// unsigned magnitude from the source document; the sign convention is applied
// from the transaction type when the ledger entry is built.
type SourceItem struct {
	ItemID          uuid.UUID
	TransactionType ledger.TransactionType
	TransactionDate time.Time
	ProductID       uuid.UUID
	WarehouseID     *uuid.UUID
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	ActorID         uuid.UUID
}

// ParentDocument is the resolved owning document of a source item, used for
// denormalized filtering columns on the ledger entry.
type ParentDocument struct {
	Reference   string
	WarehouseID *uuid.UUID
}

// ParentResolver resolves a source item's owning document. Document tables are
// external collaborators; the web layer supplies an implementation per source
// kind. A missing parent for a live source item is a correctness bug, so
// resolution failures abort the sync rather than being skipped.
type ParentResolver interface {
	ResolveParent(ctx context.Context, item SourceItem) (*ParentDocument, error)
}

// ParentResolverFunc adapts a plain function to the ParentResolver interface
type ParentResolverFunc func(ctx context.Context, item SourceItem) (*ParentDocument, error)

// ResolveParent calls f
func (f ParentResolverFunc) ResolveParent(ctx context.Context, item SourceItem) (*ParentDocument, error) {
	return f(ctx, item)
}

// Syncer keeps ledger entries in 1:1 correspondence with source line items.
// It only maintains the append-only log; running balances are derived at read
// time by the valuation engine.
type Syncer struct {
	scope          TransactionScope
	parents        ParentResolver
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSyncer creates a new ledger Syncer
func NewSyncer(scope TransactionScope, parents ParentResolver, logger *zap.Logger) *Syncer {
	return &Syncer{
		scope:   scope,
		parents: parents,
		logger:  logger,
	}
}

// SetEventPublisher sets the publisher used for fire-and-forget ledger events
func (s *Syncer) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// OnCreate inserts exactly one ledger entry for a newly created source item
func (s *Syncer) OnCreate(ctx context.Context, item SourceItem) error {
	entry, err := s.buildEntry(ctx, item)
	if err != nil {
		return err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return repos.EntryRepo().Create(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, ledger.NewLedgerEntryRecordedEvent(entry))
	return nil
}

// OnUpdate replaces the ledger entry of an updated source item. The existing
// entry is matched by the item's previous field values so a changed identity
// never orphans a row, then a fresh entry reflecting the new values is
// inserted. The delete must run before the insert inside one transaction to
// avoid a uniqueness conflict on (item_id, transaction_type).
func (s *Syncer) OnUpdate(ctx context.Context, prev, next SourceItem) error {
	entry, err := s.buildEntry(ctx, next)
	if err != nil {
		return err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		removed, err := repos.EntryRepo().DeleteByItem(ctx, prev.ItemID, prev.TransactionType)
		if err != nil {
			return err
		}
		if removed == 0 {
			s.logger.Error("ledger entry missing for updated source item",
				zap.String("item_id", prev.ItemID.String()),
				zap.String("transaction_type", prev.TransactionType.String()),
			)
			return fmt.Errorf("%w: no ledger entry for item %s", shared.ErrConsistency, prev.ItemID)
		}
		return repos.EntryRepo().Create(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.publish(ctx,
		ledger.NewLedgerEntryRemovedEvent(prev.ItemID, prev.TransactionType, prev.ProductID),
		ledger.NewLedgerEntryRecordedEvent(entry),
	)
	return nil
}

// OnDelete removes the ledger entry of a deleted (or soft-deleted) source item.
// The transaction type is validated up front: a zero-rows delete must mean the
// counterpart entry is genuinely missing, not that the caller asked for a type
// that can never match.
func (s *Syncer) OnDelete(ctx context.Context, item SourceItem) error {
	if !item.TransactionType.IsValid() {
		return fmt.Errorf("%w: invalid transaction type %q", shared.ErrInvalidInput, item.TransactionType)
	}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		removed, err := repos.EntryRepo().DeleteByItem(ctx, item.ItemID, item.TransactionType)
		if err != nil {
			return err
		}
		if removed == 0 {
			s.logger.Error("ledger entry missing for deleted source item",
				zap.String("item_id", item.ItemID.String()),
				zap.String("transaction_type", item.TransactionType.String()),
			)
			return fmt.Errorf("%w: no ledger entry for item %s", shared.ErrConsistency, item.ItemID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, ledger.NewLedgerEntryRemovedEvent(item.ItemID, item.TransactionType, item.ProductID))
	return nil
}

// OnRestore re-inserts the ledger entry of a restored source item from its
// current field values. Restore is modeled as equivalent to create.
func (s *Syncer) OnRestore(ctx context.Context, item SourceItem) error {
	return s.OnCreate(ctx, item)
}

// buildEntry validates the source item, resolves its parent document and
// constructs the ledger entry
func (s *Syncer) buildEntry(ctx context.Context, item SourceItem) (*ledger.LedgerEntry, error) {
	entry, err := ledger.NewLedgerEntry(
		item.ItemID,
		item.TransactionType,
		item.TransactionDate,
		item.ProductID,
		item.WarehouseID,
		item.Quantity,
		item.UnitPrice,
		item.ActorID,
	)
	if err != nil {
		return nil, err
	}

	parent, err := s.parents.ResolveParent(ctx, item)
	if err != nil {
		s.logger.Error("parent document could not be resolved for source item",
			zap.String("item_id", item.ItemID.String()),
			zap.String("transaction_type", item.TransactionType.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: parent document for item %s: %v", shared.ErrConsistency, item.ItemID, err)
	}

	entry.WithParent(parent.Reference, parent.WarehouseID)
	return entry, nil
}

// publish sends events fire-and-forget; failures are the bus's concern
func (s *Syncer) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}
