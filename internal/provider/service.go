package provider

import (
	"context"
	"time"

	"speakbook/internal/slot"
)

type Service interface {
	ListApproved(ctx context.Context) ([]Provider, error)
	ListApprovedWithSlots(ctx context.Context) ([]ProviderWithSlots, error)
	OpenSlots(ctx context.Context, providerID int) ([]slot.Slot, error)
	ListForAdmin(ctx context.Context, approved *bool) ([]Provider, error)
	Approve(ctx context.Context, id int) (*Provider, error)
	ForUser(ctx context.Context, userID int) (*Provider, error)
}

type service struct {
	repo     Repository
	slotRepo slot.Repository
	now      func() time.Time
}

func NewService(repo Repository, slotRepo slot.Repository) Service {
	return &service{
		repo:     repo,
		slotRepo: slotRepo,
		now:      time.Now,
	}
}

func (s *service) ListApproved(ctx context.Context) ([]Provider, error) {
	approved := true
	return s.repo.List(ctx, &approved)
}

func (s *service) ListApprovedWithSlots(ctx context.Context) ([]ProviderWithSlots, error) {
	providers, err := s.ListApproved(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ProviderWithSlots, 0, len(providers))
	for _, p := range providers {
		slots, err := s.slotRepo.ListByProvider(ctx, p.ID, s.now(), true)
		if err != nil {
			return nil, err
		}
		out = append(out, ProviderWithSlots{Provider: p, Slots: slots})
	}
	return out, nil
}

// OpenSlots lists future open slots of an approved provider. Unapproved
// providers are reported as not found.
func (s *service) OpenSlots(ctx context.Context, providerID int) ([]slot.Slot, error) {
	p, err := s.repo.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !p.IsApproved {
		return nil, ErrProviderNotFound
	}
	return s.slotRepo.ListByProvider(ctx, providerID, s.now(), true)
}

func (s *service) ListForAdmin(ctx context.Context, approved *bool) ([]Provider, error) {
	return s.repo.List(ctx, approved)
}

func (s *service) Approve(ctx context.Context, id int) (*Provider, error) {
	return s.repo.Approve(ctx, id)
}

// ForUser returns the profile owned by a provider identity, approved or not.
func (s *service) ForUser(ctx context.Context, userID int) (*Provider, error) {
	return s.repo.GetByUserID(ctx, userID)
}
