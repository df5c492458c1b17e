package rbac

// Ownership policy for mutating actions on a specific resource
// instance. The coarse permission check happens in the route guard;
// these functions decide the fine-grained, per-resource outcome.

// CanModify reports whether the principal may edit the resource.
// Edits are owner-absolute: no permission grants editing another
// user's resource.
func CanModify(p *Principal, authorID int64) bool {
	return p != nil && p.ID == authorID
}

// CanDelete reports whether the principal may delete the resource.
// The owner needs ownPerm; anyPerm bypasses ownership so an
// administrator can remove content without claiming it.
func CanDelete(p *Principal, authorID int64, ownPerm, anyPerm string) bool {
	if p == nil {
		return false
	}
	if anyPerm != "" && p.HasPermission(anyPerm) {
		return true
	}
	return p.ID == authorID && p.HasPermission(ownPerm)
}
