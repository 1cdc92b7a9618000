package rbac

import (
	"context"
	"fmt"

	"crimetrack/core/store"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Permission names follow "<section>.<action>", e.g. cases.status.
type Permission string

const rbacModel = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && regexMatch(r.act, p.act)
`

// Role matrix: admin does everything; viewer reads; officer reads and files
// incidents; investigator reads and mutates case material (object-level
// ownership is checked separately via CanMutateCase).
var rolePolicies = [][]string{
	{string(store.RoleAdmin), `.*`},
	{string(store.RoleViewer), `^(incidents|cases|people|reports)\.view$`},
	{string(store.RoleOfficer), `^(incidents|cases|people|reports)\.view$`},
	{string(store.RoleOfficer), `^incidents\.create$`},
	{string(store.RoleInvestigator), `^(incidents|cases|people|reports)\.view$`},
	{string(store.RoleInvestigator), `^incidents\.(create|escalate)$`},
	{string(store.RoleInvestigator), `^cases\.(edit|status|close|people|evidence)$`},
	{string(store.RoleInvestigator), `^people\.create$`},
}

type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	if _, err := e.AddPolicies(rolePolicies); err != nil {
		return nil, fmt.Errorf("rbac policies: %w", err)
	}
	return &Policy{enforcer: e}, nil
}

// Allowed answers the action-level question: may this role perform perm at
// all. Object-level restrictions are layered on top by CanMutateCase.
func (p *Policy) Allowed(role store.UserRole, perm Permission) bool {
	if p == nil || p.enforcer == nil {
		return false
	}
	ok, err := p.enforcer.Enforce(string(role), string(perm))
	if err != nil {
		return false
	}
	return ok
}

// CanMutateCase enforces the object-level rule for case mutations: admins
// always may; investigators only when they lead the case or hold an
// assignment on it; everyone else never.
func (p *Policy) CanMutateCase(ctx context.Context, user *store.User, c *store.Case, cases store.CasesStore) (bool, error) {
	if user == nil || c == nil {
		return false, nil
	}
	switch user.Role {
	case store.RoleAdmin:
		return true, nil
	case store.RoleInvestigator:
		if c.LeadInvestigatorID != nil && *c.LeadInvestigatorID == user.ID {
			return true, nil
		}
		return cases.HasAssignment(ctx, c.ID, user.ID)
	default:
		return false, nil
	}
}
