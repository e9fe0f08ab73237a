package service

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/clock"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/config"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/domain"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   domain.Repository
	Policy *config.WebhookPolicyHolder
	Users  domain.UserResolver `optional:"true"`
	Plans  domain.PlanResolver `optional:"true"`
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   domain.Repository
	policy *config.WebhookPolicyHolder
	users  domain.UserResolver
	plans  domain.PlanResolver
}

func NewService(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("ledger.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		policy: p.Policy,
		users:  p.Users,
		plans:  p.Plans,
	}
}

// RecordNotification persists a provider notification exactly once. A replay
// of an already-recorded external payment id returns the existing entry
// untouched. Only structural defects fail; user and plan linkage is best
// effort.
func (s *Service) RecordNotification(ctx context.Context, rawPayload []byte) (*domain.PaymentLedgerEntry, error) {
	note, err := parseNotification(rawPayload)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByExternalID(ctx, s.db, note.externalPaymentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.log.Info("duplicate notification",
			zap.String("external_payment_id", note.externalPaymentID),
			zap.String("event_name", note.eventName),
		)
		return existing, nil
	}

	status, known := MapProviderStatus(note.providerStatus())
	if !known {
		s.log.Warn("unknown provider status",
			zap.String("external_payment_id", note.externalPaymentID),
			zap.String("provider_status", note.providerStatus()),
		)
	}

	customData := note.customData()
	now := s.clock.Now().UTC()

	var metadata datatypes.JSON
	if len(customData) > 0 {
		if encoded, err := json.Marshal(customData); err == nil {
			metadata = datatypes.JSON(encoded)
		}
	}

	entry := &domain.PaymentLedgerEntry{
		ID:                s.genID.Generate(),
		ExternalPaymentID: note.externalPaymentID,
		EventName:         note.eventName,
		Status:            status,
		PaymentType:       PaymentTypeForEvent(note.eventName),
		Amount:            note.amount(),
		Currency:          note.currency(),
		UserID:            s.resolveUser(ctx, customData),
		PlanID:            s.resolvePlan(ctx, customData, note.variantID()),
		CustomerEmail:     note.customerEmail(),
		IsTestMode:        note.testMode,
		RawPayload:        datatypes.JSON(rawPayload),
		Metadata:          metadata,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	inserted, err := s.repo.Insert(ctx, s.db, entry)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Another delivery won the unique-constraint race between our lookup
		// and this insert. Theirs is the record of truth.
		stored, err := s.repo.FindByExternalID(ctx, s.db, note.externalPaymentID)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return nil, domain.ErrEntryNotFound
		}
		return stored, nil
	}

	s.log.Info("notification recorded",
		zap.String("external_payment_id", entry.ExternalPaymentID),
		zap.String("event_name", entry.EventName),
		zap.String("status", string(entry.Status)),
		zap.Float64("amount", entry.Amount),
	)
	return entry, nil
}

func (s *Service) FindByExternalID(ctx context.Context, externalPaymentID string) (*domain.PaymentLedgerEntry, error) {
	return s.repo.FindByExternalID(ctx, s.db, externalPaymentID)
}

func (s *Service) MarkProcessed(ctx context.Context, id snowflake.ID) error {
	return s.repo.MarkProcessed(ctx, s.db, id, s.clock.Now().UTC())
}

func (s *Service) MarkFailed(ctx context.Context, id snowflake.ID, reason string) error {
	return s.repo.MarkFailed(ctx, s.db, id, reason, s.clock.Now().UTC())
}

// CanRetry reports whether the external retry job may reprocess the entry.
func (s *Service) CanRetry(entry *domain.PaymentLedgerEntry) bool {
	if entry == nil {
		return false
	}
	return entry.Status == domain.StatusFailed && entry.RetryCount < s.policy.Current().MaxRetries
}

func (s *Service) ListRetryable(ctx context.Context, limit int) ([]domain.PaymentLedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListRetryable(ctx, s.db, s.policy.Current().MaxRetries, limit)
}

func (s *Service) resolveUser(ctx context.Context, customData map[string]string) *int64 {
	raw, ok := customData["user_id"]
	if !ok {
		return nil
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.log.Warn("non-numeric user_id in custom data", zap.String("user_id", raw))
		return nil
	}
	if s.users != nil {
		exists, err := s.users.UserExists(ctx, userID)
		if err != nil {
			s.log.Warn("user lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		} else if !exists {
			s.log.Warn("notification references unknown user", zap.Int64("user_id", userID))
			return nil
		}
	}
	return &userID
}

func (s *Service) resolvePlan(ctx context.Context, customData map[string]string, variantID string) *int64 {
	planID := customData["plan_id"]
	if planID == "" && variantID == "" {
		return nil
	}
	if s.plans == nil {
		if planID == "" {
			return nil
		}
		parsed, err := strconv.ParseInt(planID, 10, 64)
		if err != nil {
			return nil
		}
		return &parsed
	}

	resolved, err := s.plans.ResolvePlanID(ctx, planID, variantID)
	if err != nil {
		s.log.Warn("plan lookup failed",
			zap.String("plan_id", planID),
			zap.String("variant_id", variantID),
			zap.Error(err),
		)
		return nil
	}
	return resolved
}
