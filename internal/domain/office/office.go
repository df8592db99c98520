// Package office defines the tenant domain model: an isolated firm owning
// its own clients, cases and records, scoped by membership.
package office

import (
	"fmt"
	"regexp"
	"time"

	"github.com/praxis-suite/praxis/internal/domain"
)

// Role is the job function determining a member's baseline permissions.
// The set is closed; an unknown role never resolves to permissions.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleLawyer  Role = "lawyer"
	RoleIntern  Role = "intern"
	RoleFinance Role = "finance"
)

// ValidRoles is the set of all valid member roles.
var ValidRoles = map[Role]bool{
	RoleAdmin:   true,
	RoleLawyer:  true,
	RoleIntern:  true,
	RoleFinance: true,
}

// Overrides are per-member boolean flags granting supplemental view access
// beyond the role's baseline. Only these four resources carry a flag;
// clients and team have none.
type Overrides struct {
	Financial bool `json:"financial"`
	Cases     bool `json:"cases"`
	Documents bool `json:"documents"`
	Settings  bool `json:"settings"`
}

// Membership binds one user to one office with exactly one role plus
// override flags. A user holds at most one membership per office.
type Membership struct {
	OfficeID  string    `json:"office_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Overrides Overrides `json:"overrides"`
	CreatedAt time.Time `json:"created_at"`
}

// Office is the isolation boundary. The owner is implicitly all-powerful
// regardless of any membership entry.
type Office struct {
	ID        string       `json:"id"`
	Handle    string       `json:"handle"` // globally unique, "@" + 3-20 lowercase alphanumerics/underscore
	Name      string       `json:"name"`
	OwnerID   string       `json:"owner_id"`
	Members   []Membership `json:"members"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Member returns the membership record for the given user, or nil when the
// user is not a member. Linear scan: per-office member lists are practice
// staff, not end customers.
func (o *Office) Member(userID string) *Membership {
	if o == nil || userID == "" {
		return nil
	}
	for i := range o.Members {
		if o.Members[i].UserID == userID {
			return &o.Members[i]
		}
	}
	return nil
}

var handleRegex = regexp.MustCompile(`^@[a-z0-9_]{3,20}$`)

// ValidateHandle checks the office handle format: "@" followed by 3-20
// lowercase alphanumerics or underscores. Uniqueness is enforced at
// creation time by the store.
func ValidateHandle(h string) error {
	if !handleRegex.MatchString(h) {
		return fmt.Errorf("%w: handle %q must match @[a-z0-9_]{3,20}", domain.ErrValidation, h)
	}
	return nil
}

// CreateRequest holds the fields required to create a new office.
type CreateRequest struct {
	Handle  string `json:"handle"`
	Name    string `json:"name"`
	OwnerID string `json:"-"`
}

// Validate checks the CreateRequest.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: office name is required", domain.ErrValidation)
	}
	return ValidateHandle(r.Handle)
}

// AddMemberRequest is the input for joining a user to an office.
type AddMemberRequest struct {
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	Overrides Overrides `json:"overrides"`
}

// Validate checks the AddMemberRequest.
func (r *AddMemberRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: user_id is required", domain.ErrValidation)
	}
	if !ValidRoles[r.Role] {
		return fmt.Errorf("%w: invalid role %q", domain.ErrValidation, r.Role)
	}
	return nil
}
