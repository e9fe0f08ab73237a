package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/clock"
	gatewaydomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/gateway/domain"
	ledgerdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/ledger/domain"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/notifier"
	plandomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/plan/domain"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/subscription/domain"
	userdomain "github.com/fahadsubzwari924/ats-fit-backend-sub000/internal/user/domain"
	"github.com/fahadsubzwari924/ats-fit-backend-sub000/pkg/db"
)

// Event names that flip a subscription into the active state.
var activationEvents = map[string]struct{}{
	"subscription_created":         {},
	"subscription_payment_success": {},
	"subscription_resumed":         {},
	"subscription_unpaused":        {},
}

// Deactivation events and the local status each one leaves behind.
var deactivationEvents = map[string]string{
	"subscription_cancelled": domain.StatusCancelled,
	"subscription_expired":   domain.StatusExpired,
	"subscription_paused":    domain.StatusPaused,
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Plans    plandomain.Service
	Users    userdomain.Service
	Gateway  gatewaydomain.Service
	Notifier notifier.Provider `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	plans    plandomain.Service
	users    userdomain.Service
	gateway  gatewaydomain.Service
	notifier notifier.Provider
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("subscription.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		plans:    p.Plans,
		users:    p.Users,
		gateway:  p.Gateway,
		notifier: p.Notifier,
	}
}

// CreateCheckout runs plan validation and the single-active-subscription
// guard before the provider is ever contacted.
func (s *Service) CreateCheckout(ctx context.Context, userID int64, planID int64, email string) (gatewaydomain.CheckoutSession, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return gatewaydomain.CheckoutSession{}, err
	}
	if !plan.IsActive {
		return gatewaydomain.CheckoutSession{}, plandomain.ErrPlanInactive
	}

	if err := s.EnsureNoActive(ctx, userID); err != nil {
		return gatewaydomain.CheckoutSession{}, err
	}

	if email == "" {
		if user, err := s.users.GetByID(ctx, userID); err == nil {
			email = user.Email
		}
	}

	session, err := s.gateway.CreateCheckout(ctx, gatewaydomain.CheckoutRequest{
		VariantID:     plan.VariantID,
		CustomerEmail: email,
		CustomData: map[string]string{
			"user_id": strconv.FormatInt(userID, 10),
			"plan_id": strconv.FormatInt(plan.ID, 10),
			"email":   email,
		},
	})
	if err != nil {
		return gatewaydomain.CheckoutSession{}, err
	}

	s.log.Info("checkout opened",
		zap.Int64("user_id", userID),
		zap.Int64("plan_id", plan.ID),
		zap.String("checkout_id", session.CheckoutID),
	)
	return session, nil
}

// EnsureNoActive rejects a second concurrent subscription for the user. The
// partial unique index on the subscriptions table backs this up at the
// database level.
func (s *Service) EnsureNoActive(ctx context.Context, userID int64) error {
	active, err := s.repo.HasActive(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if active {
		return domain.ErrActiveSubscriptionExist
	}
	return nil
}

// Reconcile applies one recorded notification to local subscription state.
// Returns whether a subscription row changed.
func (s *Service) Reconcile(ctx context.Context, entry *ledgerdomain.PaymentLedgerEntry, eventName string) (bool, error) {
	if entry == nil || entry.ExternalPaymentID == "" {
		return false, nil
	}

	now := s.clock.Now().UTC()

	if _, ok := activationEvents[eventName]; ok {
		return s.activate(ctx, entry, now)
	}
	if status, ok := deactivationEvents[eventName]; ok {
		return s.deactivate(ctx, entry, eventName, status, now)
	}

	s.log.Info("event does not affect subscription state",
		zap.String("event_name", eventName),
		zap.String("external_payment_id", entry.ExternalPaymentID),
	)
	return false, nil
}

func (s *Service) activate(ctx context.Context, entry *ledgerdomain.PaymentLedgerEntry, now time.Time) (bool, error) {
	externalID := entry.ExternalPaymentID

	existing, err := s.repo.FindByExternalID(ctx, s.db, externalID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if existing.IsActive && !existing.IsCancelled {
			return false, nil
		}
		if err := s.repo.Activate(ctx, s.db, externalID, now); err != nil {
			return false, err
		}
		s.log.Info("subscription reactivated", zap.String("external_subscription_id", externalID))
		return true, nil
	}

	if entry.UserID == nil {
		s.log.Warn("activation without user linkage, skipping",
			zap.String("external_subscription_id", externalID),
			zap.String("event_name", entry.EventName),
		)
		return false, nil
	}

	sub := &domain.Subscription{
		ID:                     s.genID.Generate(),
		ExternalSubscriptionID: externalID,
		UserID:                 *entry.UserID,
		PlanID:                 entry.PlanID,
		Status:                 domain.StatusActive,
		IsActive:               true,
		StartsAt:               now,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	inserted, err := s.repo.Insert(ctx, s.db, sub)
	if err != nil {
		// The partial unique index fires when the user already holds an
		// active subscription under a different external id.
		if db.IsDuplicateKeyErr(err) {
			return false, domain.ErrActiveSubscriptionExist
		}
		return false, err
	}
	if !inserted {
		// Lost the insert race to a concurrent delivery; make sure the row
		// ends up active either way.
		if err := s.repo.Activate(ctx, s.db, externalID, now); err != nil {
			return false, err
		}
		return true, nil
	}

	s.log.Info("subscription activated",
		zap.String("external_subscription_id", externalID),
		zap.Int64("user_id", sub.UserID),
	)
	s.sendActivationEmail(ctx, entry, sub)
	return true, nil
}

func (s *Service) deactivate(ctx context.Context, entry *ledgerdomain.PaymentLedgerEntry, eventName string, status string, now time.Time) (bool, error) {
	externalID := entry.ExternalPaymentID

	existing, err := s.repo.FindByExternalID(ctx, s.db, externalID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		s.log.Warn("deactivation for unknown subscription",
			zap.String("external_subscription_id", externalID),
			zap.String("event_name", eventName),
		)
		return false, nil
	}

	if status == domain.StatusCancelled {
		if existing.IsCancelled {
			return false, nil
		}
		if err := s.repo.MarkCancelled(ctx, s.db, externalID, now); err != nil {
			return false, err
		}
	} else {
		if err := s.repo.Deactivate(ctx, s.db, externalID, status, now); err != nil {
			return false, err
		}
	}

	s.log.Info("subscription deactivated",
		zap.String("external_subscription_id", externalID),
		zap.String("status", status),
	)
	return true, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Subscription, error) {
	sub, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]domain.Subscription, error) {
	return s.repo.ListByUser(ctx, s.db, userID)
}

func (s *Service) sendActivationEmail(ctx context.Context, entry *ledgerdomain.PaymentLedgerEntry, sub *domain.Subscription) {
	if s.notifier == nil || entry.CustomerEmail == "" {
		return
	}

	planName := "subscription"
	if sub.PlanID != nil {
		if plan, err := s.plans.GetByID(ctx, *sub.PlanID); err == nil {
			planName = plan.Name
		}
	}
	if err := s.notifier.SendSubscriptionActivated(ctx, entry.CustomerEmail, planName); err != nil {
		s.log.Warn("activation email failed",
			zap.String("external_subscription_id", sub.ExternalSubscriptionID),
			zap.Error(err),
		)
	}
}
