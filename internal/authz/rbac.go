package authz

import "fmt"

// EvaluateLegacyRBAC implements the in-process fallback path used when the
// policy engine is unreachable (spec.md §4.9 point 4, §9 Open Questions:
// "deny-by-default → admin → owner → group-member (read only) → explicit
// permission → deny").
func EvaluateLegacyRBAC(req Request) *Decision {
	if req.Principal.hasRole("admin") {
		return allow("admin", true)
	}

	if req.Resource.OwnerID != "" && req.Resource.OwnerID == req.Principal.UserID {
		return allow("owner", true)
	}

	if req.Action == ActionRead && req.Resource.isMember(req.Principal.UserID) {
		return allow("group_member_read", true)
	}

	permission := fmt.Sprintf("%s:%s", req.Resource.Type, req.Action)
	if req.Principal.hasPermission(permission) {
		return allow("permission:"+permission, true)
	}

	return deny("not_owner", true)
}
