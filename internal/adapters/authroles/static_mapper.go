// Package authroles maps identity provider groups to admin roles.
package authroles

import (
	domainauth "github.com/target/newsletter-api/internal/domain/auth"
)

// StaticRoleMapper grants RoleAdmin to members of AdminGroup and RoleViewer to members of
// ViewerGroup. Everyone else is a guest. Group names compare case-sensitively.
type StaticRoleMapper struct {
	AdminGroup  string
	ViewerGroup string
}

// Map returns the highest role any of groups grants.
func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	role := domainauth.RoleGuest
	for _, g := range groups {
		switch {
		case m.AdminGroup != "" && g == m.AdminGroup:
			return domainauth.RoleAdmin
		case m.ViewerGroup != "" && g == m.ViewerGroup:
			role = domainauth.RoleViewer
		}
	}
	return role
}
