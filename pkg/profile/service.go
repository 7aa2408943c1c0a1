package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/directory/pkg/id"
	"github.com/dmitrymomot/directory/pkg/logger"
	"github.com/dmitrymomot/directory/pkg/override"
	"github.com/dmitrymomot/directory/pkg/slug"
)

// DefaultBackfillBatch is how many profiles Backfill loads per round.
const DefaultBackfillBatch = 100

// Service creates profiles and keeps their slugs unique and in sync with their labels.
type Service struct {
	repo          Repository
	logger        *slog.Logger
	fallback      func() string
	slugRetries   int
	backfillBatch int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSlugRetries sets how many times a write is retried after a concurrent slug conflict.
func WithSlugRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.slugRetries = n
		}
	}
}

// WithFallbackBase sets the slug base generator for profiles without a usable label.
// Defaults to "profile-" followed by a short id.
func WithFallbackBase(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.fallback = fn
		}
	}
}

// WithBackfillBatch sets the Backfill page size.
func WithBackfillBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.backfillBatch = n
		}
	}
}

// NewService creates a Service on top of repo.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		logger:        logger.NewNope(),
		fallback:      func() string { return id.Fallback("profile") },
		slugRetries:   slug.DefaultRetryAttempts,
		backfillBatch: DefaultBackfillBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new profile with a unique slug.
func (s *Service) Create(ctx context.Context, in CreateInput) (Profile, error) {
	if !in.Kind.Valid() {
		return Profile{}, fmt.Errorf("%w: %q", ErrInvalidKind, in.Kind)
	}

	p := Profile{
		Kind:         in.Kind,
		BusinessName: strings.TrimSpace(in.BusinessName),
		PersonalName: strings.TrimSpace(in.PersonalName),
	}
	manual := strings.TrimSpace(in.Slug) != ""

	var created Profile
	err := s.retry(ctx, "create", func(ctx context.Context) error {
		return s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			existing, err := tx.ListSlugs(ctx)
			if err != nil {
				return err
			}

			candidate := p
			if manual {
				candidate.Slug, err = slug.Unique(in.Slug, existing)
			} else {
				candidate.Slug, err = slug.Unique(p.Label(), existing, slug.Fallback(s.fallback()))
			}
			if err != nil {
				return err
			}

			if created, err = tx.Create(ctx, candidate); err != nil {
				return err
			}
			if manual {
				if err := tx.MarkManual(ctx, created.ID); err != nil {
					return err
				}
				created.ManualSlug = true
			}
			return nil
		})
	})
	if err != nil {
		return Profile{}, err
	}

	s.logger.InfoContext(ctx, "profile created",
		slog.String("profile_id", created.ID.String()),
		slog.String("slug", created.Slug),
	)
	return created, nil
}

// UpdateLabel replaces the profile's names. The slug is re-derived from the label unless
// it is frozen.
func (s *Service) UpdateLabel(ctx context.Context, profileID uuid.UUID, in LabelInput) (Profile, error) {
	return s.mutate(ctx, "update_label", profileID, func(ctx context.Context, tx Tx, p *Profile) error {
		manual, err := tx.IsManual(ctx, p.ID)
		if err != nil {
			return err
		}

		p.BusinessName = strings.TrimSpace(in.BusinessName)
		p.PersonalName = strings.TrimSpace(in.PersonalName)
		p.ManualSlug = manual

		if override.Decide(manual, true) == override.Regenerate {
			return s.resolve(ctx, tx, p)
		}
		return nil
	})
}

// SetSlug assigns a caller-chosen slug and freezes it.
func (s *Service) SetSlug(ctx context.Context, profileID uuid.UUID, value string) (Profile, error) {
	return s.mutate(ctx, "set_slug", profileID, func(ctx context.Context, tx Tx, p *Profile) error {
		existing, err := tx.ListSlugs(ctx)
		if err != nil {
			return err
		}
		if p.Slug, err = slug.Unique(value, existing, slug.Exclude(p.Slug)); err != nil {
			return err
		}
		p.ManualSlug = true
		return tx.MarkManual(ctx, p.ID)
	})
}

// RegenerateSlug clears the override and derives the slug from the current label.
func (s *Service) RegenerateSlug(ctx context.Context, profileID uuid.UUID) (Profile, error) {
	return s.mutate(ctx, "regenerate_slug", profileID, func(ctx context.Context, tx Tx, p *Profile) error {
		if err := tx.Clear(ctx, p.ID); err != nil {
			return err
		}
		p.ManualSlug = false
		return s.resolve(ctx, tx, p)
	})
}

// ChangeKind switches the profile between business and individual. The primary label
// changes with the kind, so the override is cleared and the slug derived again.
func (s *Service) ChangeKind(ctx context.Context, profileID uuid.UUID, kind Kind) (Profile, error) {
	if !kind.Valid() {
		return Profile{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	return s.mutate(ctx, "change_kind", profileID, func(ctx context.Context, tx Tx, p *Profile) error {
		if p.Kind == kind {
			return nil
		}
		p.Kind = kind
		if err := tx.Clear(ctx, p.ID); err != nil {
			return err
		}
		p.ManualSlug = false
		return s.resolve(ctx, tx, p)
	})
}

// CheckSlug reports whether value is free and what a new profile asking for it would get.
func (s *Service) CheckSlug(ctx context.Context, value string) (Availability, error) {
	normalized := slug.Make(value)
	if normalized == "" {
		return Availability{}, slug.ErrInvalidBase
	}

	var a Availability
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		existing, err := tx.ListSlugs(ctx)
		if err != nil {
			return err
		}
		suggestion, err := slug.Unique(normalized, existing)
		if err != nil {
			return err
		}
		a = Availability{
			Slug:       normalized,
			Suggestion: suggestion,
			Taken:      existing.Has(normalized),
		}
		return nil
	})
	return a, err
}

// Get returns the profile with the given id.
func (s *Service) Get(ctx context.Context, profileID uuid.UUID) (Profile, error) {
	var p Profile
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		p, err = tx.Get(ctx, profileID)
		return err
	})
	return p, err
}

// GetBySlug normalizes value and returns the matching profile.
func (s *Service) GetBySlug(ctx context.Context, value string) (Profile, error) {
	normalized := slug.Make(value)
	if normalized == "" {
		return Profile{}, ErrNotFound
	}

	var p Profile
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		p, err = tx.GetBySlug(ctx, normalized)
		return err
	})
	return p, err
}

// Backfill assigns slugs to profiles stored without one and returns how many it updated.
// The slug base is the business name, then the personal name, then "profile-" with the
// first block of the id. Each profile is written in its own transaction; the first
// failure stops the run.
func (s *Service) Backfill(ctx context.Context) (int, error) {
	updated := 0
	for {
		var batch []uuid.UUID
		err := s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			var err error
			batch, err = tx.ListWithoutSlug(ctx, s.backfillBatch)
			return err
		})
		if err != nil {
			return updated, err
		}
		if len(batch) == 0 {
			break
		}

		for _, profileID := range batch {
			changed, err := s.backfillOne(ctx, profileID)
			if err != nil {
				s.logger.ErrorContext(ctx, "profile slug backfill failed",
					slog.String("profile_id", profileID.String()),
					slog.Any("error", err),
				)
				return updated, fmt.Errorf("backfill profile %s: %w", profileID, err)
			}
			if changed {
				updated++
			}
		}
	}

	s.logger.InfoContext(ctx, "profile slug backfill finished", slog.Int("updated", updated))
	return updated, nil
}

func (s *Service) backfillOne(ctx context.Context, profileID uuid.UUID) (bool, error) {
	changed := false
	err := s.retry(ctx, "backfill", func(ctx context.Context) error {
		changed = false
		return s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			p, err := tx.Get(ctx, profileID)
			if err != nil {
				return err
			}
			if p.Slug != "" {
				return nil
			}

			existing, err := tx.ListSlugs(ctx)
			if err != nil {
				return err
			}

			base := p.BusinessName
			if strings.TrimSpace(base) == "" {
				base = p.PersonalName
			}
			p.Slug, err = slug.Unique(base, existing, slug.Fallback(BackfillFallback(p.ID)))
			if err != nil {
				return err
			}

			if _, err := tx.Update(ctx, p); err != nil {
				return err
			}
			changed = true
			return nil
		})
	})
	return changed, err
}

// BackfillFallback is the slug base used by Backfill for a profile without any name.
func BackfillFallback(profileID uuid.UUID) string {
	return "profile-" + profileID.String()[:8]
}

// MarkManual freezes the profile's slug.
func (s *Service) MarkManual(ctx context.Context, profileID uuid.UUID) error {
	return s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.MarkManual(ctx, profileID)
	})
}

// Clear returns the profile's slug to automatic maintenance without regenerating it.
func (s *Service) Clear(ctx context.Context, profileID uuid.UUID) error {
	return s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Clear(ctx, profileID)
	})
}

// IsManual reports whether the profile's slug is frozen.
func (s *Service) IsManual(ctx context.Context, profileID uuid.UUID) (bool, error) {
	var manual bool
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		manual, err = tx.IsManual(ctx, profileID)
		return err
	})
	return manual, err
}

var _ override.Tracker = (*Service)(nil)

// mutate loads the profile, applies fn and stores the result in one transaction,
// retrying on slug conflicts.
func (s *Service) mutate(ctx context.Context, op string, profileID uuid.UUID, fn func(ctx context.Context, tx Tx, p *Profile) error) (Profile, error) {
	var updated Profile
	err := s.retry(ctx, op, func(ctx context.Context) error {
		return s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			p, err := tx.Get(ctx, profileID)
			if err != nil {
				return err
			}
			if err := fn(ctx, tx, &p); err != nil {
				return err
			}
			manual := p.ManualSlug
			if updated, err = tx.Update(ctx, p); err != nil {
				return err
			}
			updated.ManualSlug = manual
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, slug.ErrInvalidBase) {
			s.logger.ErrorContext(ctx, "profile change failed",
				slog.String("op", op),
				slog.String("profile_id", profileID.String()),
				slog.Any("error", err),
			)
		}
		return Profile{}, err
	}
	return updated, nil
}

// resolve derives p.Slug from the label, keeping the current slug when the label has no
// usable characters.
func (s *Service) resolve(ctx context.Context, tx Tx, p *Profile) error {
	existing, err := tx.ListSlugs(ctx)
	if err != nil {
		return err
	}
	fallback := p.Slug
	if fallback == "" {
		fallback = s.fallback()
	}
	p.Slug, err = slug.Unique(p.Label(), existing, slug.Exclude(p.Slug), slug.Fallback(fallback))
	return err
}

func (s *Service) retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempt := 0
	return slug.Retry(ctx, s.slugRetries, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if errors.Is(err, slug.ErrTaken) {
			s.logger.WarnContext(ctx, "profile slug taken concurrently, retrying",
				slog.String("op", op),
				slog.Int("attempt", attempt),
			)
		}
		return err
	})
}
