package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finplan/internal/core"
	"finplan/internal/store"

	"github.com/google/uuid"
)

// ProfileInput is the client-writable part of a profile.
type ProfileInput struct {
	Name          string     `json:"name"`
	DOB           *core.Date `json:"dob"`
	RetirementAge *int       `json:"retirementAge"`
}

func (in ProfileInput) apply(p *core.Profile) {
	p.Name = in.Name
	p.DOB = in.DOB
	p.RetirementAge = in.RetirementAge
}

type ProfileService struct {
	store store.ProfileStore

	now   func() time.Time
	newID func() string
}

func NewProfileService(st store.ProfileStore) *ProfileService {
	return &ProfileService{store: st, now: time.Now, newID: uuid.NewString}
}

func (s *ProfileService) List(ctx context.Context) ([]core.Profile, error) {
	list, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return list, nil
}

func (s *ProfileService) Get(ctx context.Context, id string) (core.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) Create(ctx context.Context, in ProfileInput) (core.Profile, error) {
	now := s.now()
	p := core.Profile{ID: s.newID(), CreatedAt: now, UpdatedAt: now}
	in.apply(&p)
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return core.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	slog.InfoContext(ctx, "Created profile", "id", p.ID)
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, id string, in ProfileInput) (core.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	in.apply(&p)
	p.UpdatedAt = s.now()
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return core.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	slog.InfoContext(ctx, "Updated profile", "id", id)
	return p, nil
}

func (s *ProfileService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteProfile(ctx, id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	slog.InfoContext(ctx, "Deleted profile", "id", id)
	return nil
}

// AgeOn returns the age on day of the oldest profile that has a DOB.
func (s *ProfileService) AgeOn(ctx context.Context, day core.Date) (float64, bool, error) {
	list, err := s.store.ListProfiles(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("list profiles: %w", err)
	}
	for _, p := range list {
		if age, ok := p.AgeAt(day); ok {
			return age, true, nil
		}
	}
	return 0, false, nil
}
