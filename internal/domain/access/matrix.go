// Package access implements the office-scoped access decision engine:
// a static role/resource permission matrix plus the Can/Explain
// evaluation with owner bypass and per-member view overrides.
package access

import "github.com/praxis-suite/praxis/internal/domain/office"

// Resource is a closed enumeration of protected record categories.
type Resource string

const (
	ResourceFinancial Resource = "financial"
	ResourceCases     Resource = "cases"
	ResourceClients   Resource = "clients"
	ResourceDocuments Resource = "documents"
	ResourceSettings  Resource = "settings"
	ResourceTeam      Resource = "team"
)

// ValidResources is the set of all valid resources.
var ValidResources = map[Resource]bool{
	ResourceFinancial: true,
	ResourceCases:     true,
	ResourceClients:   true,
	ResourceDocuments: true,
	ResourceSettings:  true,
	ResourceTeam:      true,
}

// Action is a closed enumeration of operations on a resource.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

// ValidActions is the set of all valid actions.
var ValidActions = map[Action]bool{
	ActionView:   true,
	ActionCreate: true,
	ActionEdit:   true,
	ActionDelete: true,
	ActionExport: true,
}

type actionSet map[Action]bool

func actions(as ...Action) actionSet {
	set := make(actionSet, len(as))
	for _, a := range as {
		set[a] = true
	}
	return set
}

// none is an explicit empty entry: the pair is defined, nothing is allowed.
var none = actionSet{}

// matrix is the baseline permission table, exhaustively defined for every
// (role, resource) pair. It is process-wide, immutable and read-only.
var matrix = map[office.Role]map[Resource]actionSet{
	office.RoleAdmin: {
		ResourceFinancial: actions(ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport),
		ResourceCases:     actions(ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport),
		ResourceClients:   actions(ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport),
		ResourceDocuments: actions(ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport),
		ResourceSettings:  actions(ActionView, ActionEdit),
		ResourceTeam:      actions(ActionView, ActionCreate, ActionEdit, ActionDelete),
	},
	office.RoleLawyer: {
		ResourceFinancial: actions(ActionView),
		ResourceCases:     actions(ActionView, ActionCreate, ActionEdit, ActionExport),
		ResourceClients:   actions(ActionView, ActionCreate, ActionEdit, ActionExport),
		ResourceDocuments: actions(ActionView, ActionCreate, ActionEdit),
		ResourceSettings:  none,
		ResourceTeam:      actions(ActionView),
	},
	office.RoleIntern: {
		ResourceFinancial: none,
		ResourceCases:     actions(ActionView, ActionCreate),
		ResourceClients:   actions(ActionView),
		ResourceDocuments: actions(ActionView, ActionCreate),
		ResourceSettings:  none,
		ResourceTeam:      none,
	},
	office.RoleFinance: {
		ResourceFinancial: actions(ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport),
		ResourceCases:     actions(ActionView),
		ResourceClients:   actions(ActionView),
		ResourceDocuments: actions(ActionView),
		ResourceSettings:  none,
		ResourceTeam:      none,
	},
}

// roleAllows reports whether the matrix grants action on resource for role.
// Unknown roles or resources resolve to false.
func roleAllows(role office.Role, resource Resource, action Action) bool {
	perResource, ok := matrix[role]
	if !ok {
		return false
	}
	return perResource[resource][action]
}

// Allowed returns the matrix entry for (role, resource) in canonical action
// order. An empty slice is a defined entry, not an absence.
func Allowed(role office.Role, resource Resource) []Action {
	set := matrix[role][resource]
	out := make([]Action, 0, len(set))
	for _, a := range []Action{ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport} {
		if set[a] {
			out = append(out, a)
		}
	}
	return out
}

// overrideFlag returns the member's supplemental view flag for resource.
// Clients and team carry no override flag.
func overrideFlag(m *office.Membership, resource Resource) bool {
	switch resource {
	case ResourceFinancial:
		return m.Overrides.Financial
	case ResourceCases:
		return m.Overrides.Cases
	case ResourceDocuments:
		return m.Overrides.Documents
	case ResourceSettings:
		return m.Overrides.Settings
	default:
		return false
	}
}
