package permissions

import "strings"

// Matches decides whether a permission set grants the required permission.
// Priority is evaluated before set membership so a high-privilege role is
// never blocked by an incomplete grant list. First match wins:
//
//  1. priority at or above owner level grants everything
//  2. exact match against the set
//  3. category wildcard ("orders:*" covers "orders:create")
//  4. super-admin wildcard ("*:*" or "*")
func Matches(userPerms []string, required string, priority int) bool {
	if priority >= PriorityOwner {
		return true
	}
	if required == "" {
		return false
	}
	set := make(map[string]struct{}, len(userPerms))
	for _, p := range userPerms {
		set[p] = struct{}{}
	}
	if _, ok := set[required]; ok {
		return true
	}
	if idx := strings.Index(required, ":"); idx > 0 {
		if _, ok := set[required[:idx]+":*"]; ok {
			return true
		}
	}
	if _, ok := set["*:*"]; ok {
		return true
	}
	if _, ok := set["*"]; ok {
		return true
	}
	return false
}

// MatchesAny reports whether any of the required permissions would be granted.
func MatchesAny(userPerms []string, required []string, priority int) bool {
	if priority >= PriorityOwner {
		return true
	}
	for _, perm := range required {
		if Matches(userPerms, perm, priority) {
			return true
		}
	}
	return false
}
