package service

import (
	"context"
	"errors"

	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shinyyama/bargain-backend/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BargainSettingsInput carries a partial update; nil fields are left as stored.
type BargainSettingsInput struct {
	EnableAutoAccept         *bool
	AutoAcceptThreshold      *decimal.Decimal
	EnableAutoReject         *bool
	AutoRejectThreshold      *decimal.Decimal
	EnableAutoCounter        *bool
	CounterOfferPercentage   *decimal.Decimal
	DefaultResponseTimeHours *int
}

type BargainSettingsService interface {
	Get(ctx context.Context, sellerUID string) (*model.BargainSettings, error)
	Update(ctx context.Context, sellerUID string, in BargainSettingsInput) (*model.BargainSettings, error)
}

type bargainSettingsService struct {
	repo  repository.BargainSettingsRepository
	users repository.UserRepository
}

func NewBargainSettingsService(repo repository.BargainSettingsRepository, users repository.UserRepository) BargainSettingsService {
	return &bargainSettingsService{repo: repo, users: users}
}

func (s *bargainSettingsService) Get(ctx context.Context, sellerUID string) (*model.BargainSettings, error) {
	if err := s.requireSeller(ctx, sellerUID); err != nil {
		return nil, err
	}
	return s.repo.FindOrCreate(ctx, sellerUID)
}

func (s *bargainSettingsService) Update(ctx context.Context, sellerUID string, in BargainSettingsInput) (*model.BargainSettings, error) {
	if err := s.requireSeller(ctx, sellerUID); err != nil {
		return nil, err
	}
	for name, v := range map[string]*decimal.Decimal{
		"auto accept threshold":    in.AutoAcceptThreshold,
		"auto reject threshold":    in.AutoRejectThreshold,
		"counter offer percentage": in.CounterOfferPercentage,
	} {
		if v != nil && (v.IsNegative() || v.GreaterThan(hundred)) {
			return nil, failf(ErrValidation, "%s must be between 0 and 100", name)
		}
	}
	if in.DefaultResponseTimeHours != nil && (*in.DefaultResponseTimeHours < 1 || *in.DefaultResponseTimeHours > 720) {
		return nil, failf(ErrValidation, "response time must be between 1 and 720 hours")
	}

	st, err := s.repo.FindOrCreate(ctx, sellerUID)
	if err != nil {
		return nil, err
	}
	if in.EnableAutoAccept != nil {
		st.EnableAutoAccept = *in.EnableAutoAccept
	}
	if in.AutoAcceptThreshold != nil {
		st.AutoAcceptThreshold = in.AutoAcceptThreshold
	}
	if in.EnableAutoReject != nil {
		st.EnableAutoReject = *in.EnableAutoReject
	}
	if in.AutoRejectThreshold != nil {
		st.AutoRejectThreshold = in.AutoRejectThreshold
	}
	if in.EnableAutoCounter != nil {
		st.EnableAutoCounter = *in.EnableAutoCounter
	}
	if in.CounterOfferPercentage != nil {
		st.CounterOfferPercentage = in.CounterOfferPercentage
	}
	if in.DefaultResponseTimeHours != nil {
		st.DefaultResponseTimeHours = *in.DefaultResponseTimeHours
	}
	if st.EnableAutoAccept && st.AutoAcceptThreshold == nil {
		return nil, failf(ErrValidation, "auto accept needs a threshold")
	}
	if st.EnableAutoReject && st.AutoRejectThreshold == nil {
		return nil, failf(ErrValidation, "auto reject needs a threshold")
	}
	if st.EnableAutoCounter && st.CounterOfferPercentage == nil {
		return nil, failf(ErrValidation, "auto counter needs a percentage")
	}
	if err := s.repo.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *bargainSettingsService) requireSeller(ctx context.Context, uid string) error {
	if uid == "" {
		return failf(ErrForbidden, "sign in required")
	}
	u, err := s.users.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failf(ErrForbidden, "only sellers can configure bargaining")
		}
		return err
	}
	if u.UserType != model.UserTypeSeller {
		return failf(ErrForbidden, "only sellers can configure bargaining")
	}
	return nil
}
