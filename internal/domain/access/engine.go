package access

import (
	"fmt"

	"github.com/praxis-suite/praxis/internal/domain/office"
	"github.com/praxis-suite/praxis/internal/domain/user"
)

// Reason identifies which precedence step produced a decision.
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonNoOffice        Reason = "no_office"
	ReasonOwner           Reason = "owner"
	ReasonNotMember       Reason = "not_member"
	ReasonRole            Reason = "permitted_by_role"
	ReasonOverride        Reason = "permitted_by_override"
	ReasonDenied          Reason = "denied_by_role"
)

// Decision is the outcome of an access evaluation, for audit and debug
// surfaces. Can is the boolean projection of the same evaluation.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason"`
	Detail  string `json:"detail"`
}

// String returns the human-readable explanation.
func (d Decision) String() string { return d.Detail }

// Can reports whether actor u may perform action on resource within office
// o. It is a pure function over its inputs: no I/O, no side effects, safe
// for unsynchronized concurrent use and cheap enough to call on every
// check. Denial is a normal high-frequency outcome, not an error.
func Can(u *user.User, o *office.Office, resource Resource, action Action) bool {
	return Explain(u, o, resource, action).Allowed
}

// Explain evaluates the same precedence order as Can and returns the
// matched step. Order, first match wins:
//
//  1. nil actor or nil office: deny
//  2. office owner: allow unconditionally, bypassing the matrix
//  3. no membership: deny
//  4. matrix grants the action for the member's role: allow
//  5. action is view and the member's override flag for the resource is
//     set: allow
//  6. deny
func Explain(u *user.User, o *office.Office, resource Resource, action Action) Decision {
	if u == nil {
		return Decision{Allowed: false, Reason: ReasonUnauthenticated, Detail: "no authenticated actor"}
	}
	if o == nil {
		return Decision{Allowed: false, Reason: ReasonNoOffice, Detail: "no active office context"}
	}
	// The creator of an office must never be lockable out of their own
	// data, regardless of role-table changes.
	if o.OwnerID == u.ID {
		return Decision{
			Allowed: true,
			Reason:  ReasonOwner,
			Detail:  fmt.Sprintf("%s owns office %s", u.ID, o.Handle),
		}
	}
	m := o.Member(u.ID)
	if m == nil {
		return Decision{
			Allowed: false,
			Reason:  ReasonNotMember,
			Detail:  fmt.Sprintf("%s is not a member of office %s", u.ID, o.Handle),
		}
	}
	if roleAllows(m.Role, resource, action) {
		return Decision{
			Allowed: true,
			Reason:  ReasonRole,
			Detail:  fmt.Sprintf("role %s permits %s on %s", m.Role, action, resource),
		}
	}
	if action == ActionView && overrideFlag(m, resource) {
		return Decision{
			Allowed: true,
			Reason:  ReasonOverride,
			Detail:  fmt.Sprintf("member override grants view on %s", resource),
		}
	}
	return Decision{
		Allowed: false,
		Reason:  ReasonDenied,
		Detail:  fmt.Sprintf("role %s does not permit %s on %s", m.Role, action, resource),
	}
}

// ResolveMembership returns the actor's membership record within the
// office, or nil. Absence is a legitimate terminal state consumed by the
// engine as deny; no implicit membership is ever created.
func ResolveMembership(u *user.User, o *office.Office) *office.Membership {
	if u == nil || o == nil {
		return nil
	}
	return o.Member(u.ID)
}

// ResolveRole returns the actor's role within the office, or "" when the
// actor is not a member.
func ResolveRole(u *user.User, o *office.Office) office.Role {
	m := ResolveMembership(u, o)
	if m == nil {
		return ""
	}
	return m.Role
}
