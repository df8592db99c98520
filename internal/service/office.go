package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/praxis-suite/praxis/internal/domain"
	"github.com/praxis-suite/praxis/internal/domain/access"
	"github.com/praxis-suite/praxis/internal/domain/office"
	"github.com/praxis-suite/praxis/internal/domain/user"
	"github.com/praxis-suite/praxis/internal/port/cache"
	"github.com/praxis-suite/praxis/internal/port/database"
)

// OfficeService manages offices and their memberships. Reads go through a
// short-TTL cache; every membership mutation invalidates the office entry
// so access checks never run against stale membership for long.
type OfficeService struct {
	store    database.Store
	cache    cache.Cache
	log      *slog.Logger
	cacheTTL time.Duration
}

// NewOfficeService creates an OfficeService. cache may be nil.
func NewOfficeService(store database.Store, c cache.Cache, log *slog.Logger, cacheTTL time.Duration) *OfficeService {
	if log == nil {
		log = slog.Default()
	}
	return &OfficeService{store: store, cache: c, log: log, cacheTTL: cacheTTL}
}

func officeCacheKey(id string) string { return "office:" + id }

// Create creates an office and enrolls the owner as an admin member. The
// owner's power comes from ownership itself; the membership row only makes
// the owner visible in the team list.
func (s *OfficeService) Create(ctx context.Context, req *office.CreateRequest) (*office.Office, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	o := &office.Office{
		ID:        uuid.New().String(),
		Handle:    req.Handle,
		Name:      req.Name,
		OwnerID:   req.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
		Members: []office.Membership{{
			UserID:    req.OwnerID,
			Role:      office.RoleAdmin,
			CreatedAt: now,
		}},
	}
	o.Members[0].OfficeID = o.ID
	if err := s.store.CreateOffice(ctx, o); err != nil {
		return nil, fmt.Errorf("create office: %w", err)
	}
	s.log.Info("office created", "office_id", o.ID, "handle", o.Handle, "owner_id", o.OwnerID)
	return o, nil
}

// Get loads an office with its full membership list, via the cache.
func (s *OfficeService) Get(ctx context.Context, id string) (*office.Office, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, officeCacheKey(id)); err == nil && ok {
			var o office.Office
			if err := json.Unmarshal(data, &o); err == nil {
				return &o, nil
			}
		}
	}
	o, err := s.store.GetOffice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get office: %w", err)
	}
	s.cacheOffice(ctx, o)
	return o, nil
}

// GetByHandle loads an office by its globally unique handle.
func (s *OfficeService) GetByHandle(ctx context.Context, handle string) (*office.Office, error) {
	if err := office.ValidateHandle(handle); err != nil {
		return nil, err
	}
	o, err := s.store.GetOfficeByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("get office by handle: %w", err)
	}
	s.cacheOffice(ctx, o)
	return o, nil
}

// ListForUser returns the offices the user belongs to or owns.
func (s *OfficeService) ListForUser(ctx context.Context, userID string) ([]office.Office, error) {
	offices, err := s.store.ListOfficesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list offices: %w", err)
	}
	return offices, nil
}

// AddMember enrolls a user in the office with a role and override flags.
func (s *OfficeService) AddMember(ctx context.Context, officeID string, req *office.AddMemberRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	m := &office.Membership{
		OfficeID:  officeID,
		UserID:    req.UserID,
		Role:      req.Role,
		Overrides: req.Overrides,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AddMember(ctx, m); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	s.invalidate(ctx, officeID)
	s.log.Info("member added", "office_id", officeID, "user_id", req.UserID, "role", req.Role)
	return nil
}

// RemoveMember drops a user's membership. Removing the owner's membership
// row does not strip the owner's access.
func (s *OfficeService) RemoveMember(ctx context.Context, officeID, userID string) error {
	if err := s.store.RemoveMember(ctx, officeID, userID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	s.invalidate(ctx, officeID)
	s.log.Info("member removed", "office_id", officeID, "user_id", userID)
	return nil
}

// SetOverrides replaces a member's override flags wholesale.
func (s *OfficeService) SetOverrides(ctx context.Context, officeID, userID string, ov office.Overrides) error {
	if err := s.store.UpdateMemberOverrides(ctx, officeID, userID, ov); err != nil {
		return fmt.Errorf("set overrides: %w", err)
	}
	s.invalidate(ctx, officeID)
	return nil
}

// SetRole changes a member's role.
func (s *OfficeService) SetRole(ctx context.Context, officeID, userID string, role office.Role) error {
	if !office.ValidRoles[role] {
		return fmt.Errorf("%w: invalid role %q", domain.ErrValidation, role)
	}
	if err := s.store.UpdateMemberRole(ctx, officeID, userID, role); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	s.invalidate(ctx, officeID)
	return nil
}

// Membership resolves the actor's membership in the office, nil when none.
func (s *OfficeService) Membership(ctx context.Context, officeID, userID string) (*office.Membership, error) {
	o, err := s.Get(ctx, officeID)
	if err != nil {
		return nil, err
	}
	return o.Member(userID), nil
}

// Explain evaluates an access decision for the actor against a live
// office record.
func (s *OfficeService) Explain(ctx context.Context, u *user.User, officeID string, resource access.Resource, action access.Action) (access.Decision, error) {
	o, err := s.Get(ctx, officeID)
	if err != nil {
		return access.Decision{}, err
	}
	return access.Explain(u, o, resource, action), nil
}

func (s *OfficeService) cacheOffice(ctx context.Context, o *office.Office) {
	if s.cache == nil || o == nil {
		return
	}
	data, err := json.Marshal(o)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, officeCacheKey(o.ID), data, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache office", "office_id", o.ID, "error", err)
	}
}

func (s *OfficeService) invalidate(ctx context.Context, officeID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, officeCacheKey(officeID)); err != nil {
		s.log.Warn("failed to invalidate office cache", "office_id", officeID, "error", err)
	}
}
