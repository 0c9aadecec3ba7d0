package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/vendorcredit/internal/cache"
	"github.com/smallbiznis/vendorcredit/internal/clock"
	"github.com/smallbiznis/vendorcredit/internal/config"
	"github.com/smallbiznis/vendorcredit/internal/events"
	"github.com/smallbiznis/vendorcredit/internal/lock"
	"github.com/smallbiznis/vendorcredit/internal/observability/metrics"
	"github.com/smallbiznis/vendorcredit/internal/observability/tracing"
	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ConfigLockKey guards every write to the tier configuration of both kinds.
const ConfigLockKey = "tier-config"

const (
	lockTTL            = 30 * time.Second
	lockAcquireTimeout = 10 * time.Second
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Repo          tierdomain.Repository
	Locker        lock.Locker
	Cache         cache.TierSnapshotCache
	Policy        *config.CreditPolicyHolder
	Publisher     events.Publisher
	Clock         clock.Clock
	Metrics       *metrics.Metrics       `optional:"true"`
	CreditMetrics *metrics.CreditMetrics `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	repo          tierdomain.Repository
	locker        lock.Locker
	cache         cache.TierSnapshotCache
	policy        *config.CreditPolicyHolder
	publisher     events.Publisher
	clock         clock.Clock
	metrics       *metrics.Metrics
	creditMetrics *metrics.CreditMetrics
}

func New(p Params) tierdomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("tier.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		locker:        p.Locker,
		cache:         p.Cache,
		policy:        p.Policy,
		publisher:     p.Publisher,
		clock:         p.Clock,
		metrics:       p.Metrics,
		creditMetrics: p.CreditMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req tierdomain.CreateRequest) (*tierdomain.Response, error) {
	entity, err := s.candidateFromRequest(req)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	entity.ID = s.genID.Generate()
	entity.CreatedBy = req.Actor
	entity.UpdatedBy = req.Actor
	entity.CreatedAt = now
	entity.UpdatedAt = now

	var result tierdomain.ValidationResult
	err = s.withConfigLock(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			result, err = s.validateInTx(ctx, tx, entity, 0)
			if err != nil {
				return err
			}
			tierdomain.Normalize(entity)
			return s.repo.Insert(ctx, tx, entity)
		})
	})
	if err != nil {
		s.logWriteFailure("create", entity, err)
		return nil, err
	}

	s.afterWrite(ctx, entity, tierdomain.ActionCreated, req.Actor)
	resp := s.toResponse(entity)
	resp.Warnings = result.Warnings
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req tierdomain.UpdateRequest) (*tierdomain.Response, error) {
	if !req.Kind.Valid() {
		return nil, tierdomain.ErrInvalidKind
	}
	id, err := parseID(req.ID)
	if err != nil {
		return nil, tierdomain.ErrInvalidID
	}

	var (
		updated tierdomain.Tier
		result  tierdomain.ValidationResult
	)
	err = s.withConfigLock(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			existing, err := s.repo.FindByID(ctx, tx, req.Kind, id)
			if err != nil {
				return err
			}
			if existing == nil {
				return tierdomain.ErrNotFound
			}

			candidate := *existing
			if err := applyUpdate(&candidate, req); err != nil {
				return err
			}
			candidate.UpdatedBy = req.Actor
			candidate.UpdatedAt = s.clock.Now()

			if req.AffectsSchedule() {
				result, err = s.validateInTx(ctx, tx, &candidate, id)
				if err != nil {
					return err
				}
			} else if strings.TrimSpace(candidate.Name) == "" {
				return &tierdomain.ValidationError{Result: tierdomain.ValidationResult{
					Errors:   []string{"Tier name is required"},
					Warnings: []string{},
				}}
			}

			tierdomain.Normalize(&candidate)
			if err := s.repo.Update(ctx, tx, &candidate); err != nil {
				return err
			}
			updated = candidate
			return nil
		})
	})
	if err != nil {
		s.logWriteFailure("update", &tierdomain.Tier{ID: id, Kind: req.Kind}, err)
		return nil, err
	}

	s.afterWrite(ctx, &updated, tierdomain.ActionUpdated, req.Actor)
	resp := s.toResponse(&updated)
	resp.Warnings = result.Warnings
	return resp, nil
}

// Deactivate disables a tier. Tiers are never deleted so past repayments keep
// a reference to the rule that priced them.
func (s *Service) Deactivate(ctx context.Context, kind tierdomain.Kind, id string, actor string) (*tierdomain.Response, error) {
	if !kind.Valid() {
		return nil, tierdomain.ErrInvalidKind
	}
	tierID, err := parseID(id)
	if err != nil {
		return nil, tierdomain.ErrInvalidID
	}

	var updated tierdomain.Tier
	err = s.withConfigLock(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			existing, err := s.repo.FindByID(ctx, tx, kind, tierID)
			if err != nil {
				return err
			}
			if existing == nil {
				return tierdomain.ErrNotFound
			}
			existing.IsActive = false
			existing.UpdatedBy = actor
			existing.UpdatedAt = s.clock.Now()
			if err := s.repo.Update(ctx, tx, existing); err != nil {
				return err
			}
			updated = *existing
			return nil
		})
	})
	if err != nil {
		s.logWriteFailure("deactivate", &tierdomain.Tier{ID: tierID, Kind: kind}, err)
		return nil, err
	}

	s.afterWrite(ctx, &updated, tierdomain.ActionDeactivated, actor)
	return s.toResponse(&updated), nil
}

func (s *Service) Get(ctx context.Context, kind tierdomain.Kind, id string) (*tierdomain.Response, error) {
	if !kind.Valid() {
		return nil, tierdomain.ErrInvalidKind
	}
	tierID, err := parseID(id)
	if err != nil {
		return nil, tierdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, kind, tierID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, tierdomain.ErrNotFound
	}
	return s.toResponse(entity), nil
}

func (s *Service) List(ctx context.Context, kind tierdomain.Kind, active *bool) ([]tierdomain.Response, error) {
	if !kind.Valid() {
		return nil, tierdomain.ErrInvalidKind
	}

	items, err := s.repo.List(ctx, s.db, kind, active)
	if err != nil {
		return nil, err
	}

	resp := make([]tierdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Validate(ctx context.Context, req tierdomain.ValidateRequest) (tierdomain.ValidationResult, error) {
	candidate, err := s.candidateFromRequest(req.CreateRequest)
	if err != nil {
		return tierdomain.ValidationResult{}, err
	}

	var excludeID snowflake.ID
	if strings.TrimSpace(req.ExcludeID) != "" {
		if excludeID, err = parseID(req.ExcludeID); err != nil {
			return tierdomain.ValidationResult{}, tierdomain.ErrInvalidID
		}
	}

	snapshot, err := s.loadSnapshot(ctx, s.db)
	if err != nil {
		return tierdomain.ValidationResult{}, err
	}

	result := tierdomain.ValidateCandidate(*candidate, snapshot, excludeID, s.validationPolicy())
	s.metrics.RecordTierValidation(ctx, string(candidate.Kind), result.Valid)
	return result, nil
}

// Resolve finds the tier applying to days using the cached snapshot.
// Negative days resolve to nothing.
func (s *Service) Resolve(ctx context.Context, kind tierdomain.Kind, days int) (*tierdomain.Tier, error) {
	if !kind.Valid() {
		return nil, tierdomain.ErrInvalidKind
	}
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return tierdomain.Resolve(snapshot.Of(kind), kind, days), nil
}

func (s *Service) Snapshot(ctx context.Context) (tierdomain.Snapshot, error) {
	if snapshot, ok := s.cache.Get(); ok {
		s.creditMetrics.RecordSnapshotLookup(true)
		return snapshot, nil
	}
	s.creditMetrics.RecordSnapshotLookup(false)

	snapshot, err := s.loadSnapshot(ctx, s.db)
	if err != nil {
		return tierdomain.Snapshot{}, err
	}
	s.cache.Set(snapshot, s.policy.Get().Tiers.SnapshotTTL)
	return snapshot, nil
}

func (s *Service) ValidateSeparation(ctx context.Context) (tierdomain.SeparationReport, error) {
	lastDiscount, err := s.repo.ListActiveSorted(ctx, s.db, tierdomain.KindDiscount, tierdomain.SortByPeriodEnd, true, 1)
	if err != nil {
		return tierdomain.SeparationReport{}, err
	}
	firstInterest, err := s.repo.ListActiveSorted(ctx, s.db, tierdomain.KindInterest, tierdomain.SortByPeriodStart, false, 1)
	if err != nil {
		return tierdomain.SeparationReport{}, err
	}
	return tierdomain.Separation(first(lastDiscount), first(firstInterest)), nil
}

func (s *Service) SystemStatus(ctx context.Context) (*tierdomain.SystemStatus, error) {
	discounts, err := s.repo.ListActiveSorted(ctx, s.db, tierdomain.KindDiscount, tierdomain.SortByPeriodStart, false, 0)
	if err != nil {
		return nil, err
	}
	interests, err := s.repo.ListActiveSorted(ctx, s.db, tierdomain.KindInterest, tierdomain.SortByPeriodStart, false, 0)
	if err != nil {
		return nil, err
	}
	separation, err := s.ValidateSeparation(ctx)
	if err != nil {
		return nil, err
	}

	status := tierdomain.BuildSystemStatus(discounts, interests, separation)
	return &status, nil
}

func (s *Service) withConfigLock(ctx context.Context, fn func(ctx context.Context) error) error {
	start := time.Now()
	acquireCtx, cancel := context.WithTimeout(ctx, lockAcquireTimeout)
	release, err := s.locker.Acquire(acquireCtx, ConfigLockKey, lockTTL)
	cancel()
	if err != nil {
		if ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, lock.ErrAcquireTimeout)) {
			return tierdomain.ErrConfigLockTimeout
		}
		return err
	}
	defer release()
	s.creditMetrics.ObserveLockWait(metrics.LockTierConfig, time.Since(start))

	return fn(ctx)
}

// validateInTx checks candidate against the active tiers read inside tx, so
// the check and the following write see the same configuration.
func (s *Service) validateInTx(ctx context.Context, tx *gorm.DB, candidate *tierdomain.Tier, excludeID snowflake.ID) (tierdomain.ValidationResult, error) {
	ctx, span := tracing.StartSpan(ctx, "tier.validate", attribute.String("tier.kind", string(candidate.Kind)))
	defer span.End()

	snapshot, err := s.loadSnapshot(ctx, tx)
	if err != nil {
		return tierdomain.ValidationResult{}, err
	}

	result := tierdomain.ValidateCandidate(*candidate, snapshot, excludeID, s.validationPolicy())
	s.metrics.RecordTierValidation(ctx, string(candidate.Kind), result.Valid)
	if !result.Valid {
		return result, &tierdomain.ValidationError{Result: result}
	}
	return result, nil
}

func (s *Service) loadSnapshot(ctx context.Context, db *gorm.DB) (tierdomain.Snapshot, error) {
	discounts, err := s.repo.ListActive(ctx, db, tierdomain.KindDiscount)
	if err != nil {
		return tierdomain.Snapshot{}, err
	}
	interests, err := s.repo.ListActive(ctx, db, tierdomain.KindInterest)
	if err != nil {
		return tierdomain.Snapshot{}, err
	}
	return tierdomain.Snapshot{Discount: discounts, Interest: interests}, nil
}

func (s *Service) afterWrite(ctx context.Context, tier *tierdomain.Tier, action, actor string) {
	s.cache.Invalidate()

	s.log.Info("tier "+action,
		zap.String("tier_id", tier.ID.String()),
		zap.String("kind", string(tier.Kind)),
		zap.String("period", tier.PeriodLabel()),
		zap.String("rate", tier.Rate.String()),
		zap.Bool("is_active", tier.IsActive),
	)

	err := s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeTierChanged,
		Key:        tier.ID.String(),
		OccurredAt: s.clock.Now(),
		Payload: tierdomain.ChangedEvent{
			TierID:   tier.ID.String(),
			Kind:     tier.Kind,
			Action:   action,
			IsActive: tier.IsActive,
			Actor:    actor,
		},
	})
	if err != nil {
		s.log.Warn("publish tier event failed", zap.String("tier_id", tier.ID.String()), zap.Error(err))
	}
}

func (s *Service) logWriteFailure(op string, tier *tierdomain.Tier, err error) {
	var verr *tierdomain.ValidationError
	switch {
	case errors.As(err, &verr):
		s.log.Info("tier "+op+" rejected",
			zap.String("kind", string(tier.Kind)),
			zap.Strings("errors", verr.Result.Errors),
		)
	case errors.Is(err, tierdomain.ErrNotFound), errors.Is(err, tierdomain.ErrInvalidPeriod):
	default:
		s.log.Error("tier "+op+" failed",
			zap.String("tier_id", tier.ID.String()),
			zap.String("kind", string(tier.Kind)),
			zap.Error(err),
		)
	}
}

func (s *Service) validationPolicy() tierdomain.ValidationPolicy {
	p := s.policy.Get().Tiers
	return tierdomain.ValidationPolicy{
		DiscountWarnRate: decimal.NewFromFloat(p.DiscountWarnRate),
		InterestWarnRate: decimal.NewFromFloat(p.InterestWarnRate),
	}
}

func (s *Service) candidateFromRequest(req tierdomain.CreateRequest) (*tierdomain.Tier, error) {
	if !req.Kind.Valid() {
		return nil, tierdomain.ErrInvalidKind
	}

	name := strings.TrimSpace(req.Name)
	entity := &tierdomain.Tier{
		Kind:        req.Kind,
		Code:        slug.Make(name),
		Name:        name,
		PeriodStart: req.PeriodStart,
		Rate:        req.Rate,
		IsActive:    true,
		IsOpenEnded: req.IsOpenEnded,
		Description: strings.TrimSpace(req.Description),
	}
	switch {
	case req.PeriodEnd != nil:
		entity.PeriodEnd = *req.PeriodEnd
	case !req.IsOpenEnded:
		return nil, tierdomain.ErrInvalidPeriod
	}
	if req.IsActive != nil {
		entity.IsActive = *req.IsActive
	}
	if req.Metadata != nil {
		entity.Metadata = datatypes.JSONMap(req.Metadata)
	}
	return entity, nil
}

func applyUpdate(t *tierdomain.Tier, req tierdomain.UpdateRequest) error {
	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
		t.Code = slug.Make(t.Name)
	}
	if req.PeriodStart != nil {
		t.PeriodStart = *req.PeriodStart
	}
	if req.IsOpenEnded != nil {
		if t.IsOpenEnded && !*req.IsOpenEnded && req.PeriodEnd == nil {
			return tierdomain.ErrInvalidPeriod
		}
		t.IsOpenEnded = *req.IsOpenEnded
	}
	if req.PeriodEnd != nil {
		t.PeriodEnd = *req.PeriodEnd
	}
	if req.Rate != nil {
		t.Rate = *req.Rate
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if req.Description != nil {
		t.Description = strings.TrimSpace(*req.Description)
	}
	if req.Metadata != nil {
		t.Metadata = datatypes.JSONMap(req.Metadata)
	}
	return nil
}

func (s *Service) toResponse(t *tierdomain.Tier) *tierdomain.Response {
	resp := &tierdomain.Response{
		ID:          t.ID.String(),
		Kind:        t.Kind,
		Code:        t.Code,
		Name:        t.Name,
		PeriodStart: t.PeriodStart,
		Period:      t.PeriodLabel(),
		Rate:        t.Rate,
		IsActive:    t.IsActive,
		IsOpenEnded: t.IsOpenEnded,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		UpdatedBy:   t.UpdatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if !t.IsOpenEnded {
		end := t.PeriodEnd
		resp.PeriodEnd = &end
	}
	if t.Metadata != nil {
		resp.Metadata = map[string]any(t.Metadata)
	}
	return resp
}

func first(tiers []tierdomain.Tier) *tierdomain.Tier {
	if len(tiers) == 0 {
		return nil
	}
	return &tiers[0]
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
