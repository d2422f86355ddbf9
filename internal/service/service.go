package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"studioledger/backend/internal/domain"
	"studioledger/backend/internal/logging"
	"studioledger/backend/internal/period"
	"studioledger/backend/internal/store"
	"studioledger/backend/internal/validation"
)

// ErrValidation marks a request that is well formed but breaks a ledger rule,
// such as a share table that does not total 100.
var ErrValidation = errors.New("validation failed")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo store.Repository
	log  logrus.FieldLogger
	now  func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for defaults such as today's date
// and the previous-month report period.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(repo store.Repository, logger logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		log:  logging.Component(logger, "service"),
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() string {
	return period.Today(s.now())
}

// checkRequest runs struct validation and reports failures as invalid records.
func checkRequest(req any) error {
	if err := validation.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidRecord, err)
	}
	return nil
}

func actorLabel(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor.Email
	}
	return ""
}

func trim(value string) string {
	return strings.TrimSpace(value)
}

// value dereferences a request amount. checkRequest rejects nil amounts, so
// the zero fallback only guards direct callers.
func value(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
