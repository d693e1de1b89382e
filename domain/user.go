package domain

import (
	"strings"
	"time"
)

// AdminRole is the organizational role attached to a staff account. Roles
// gate what a staff member may publish; plain membership accounts carry
// RoleNone.
type AdminRole string

const (
	RoleNone               AdminRole = "none"
	RoleUnionPresident     AdminRole = "union_president"
	RoleUnionVicePresident AdminRole = "union_vice_president"
	RoleMediaAdmin         AdminRole = "media_admin"
	RoleOperationsAdmin    AdminRole = "operations_admin"
	RoleCommitteeLead      AdminRole = "committee_lead"
	RoleDevAdmin           AdminRole = "dev_admin"
)

var validRoles = map[AdminRole]struct{}{
	RoleNone:               {},
	RoleUnionPresident:     {},
	RoleUnionVicePresident: {},
	RoleMediaAdmin:         {},
	RoleOperationsAdmin:    {},
	RoleCommitteeLead:      {},
	RoleDevAdmin:           {},
}

// NormalizeRole maps unknown role strings to RoleNone before persistence.
func NormalizeRole(raw string) AdminRole {
	role := AdminRole(strings.TrimSpace(strings.ToLower(raw)))
	if _, ok := validRoles[role]; ok {
		return role
	}
	return RoleNone
}

// User is a portal account. PasswordHash never leaves the storage/auth layer.
type User struct {
	ID           int64
	Username     string
	FullName     string
	FirstName    string
	LastName     string
	Phone        string
	AdminRole    AdminRole
	IsStaff      bool
	PasswordHash string
	CreatedAt    time.Time
}

// DisplayName resolves the human-facing label for an account: the free-form
// full name, then the formatted account name, then the login identifier.
// It never returns an empty string for a persisted user.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName)); name != "" {
		return name
	}
	return u.Username
}

// Capabilities is the full enumerated capability set for a caller. Handlers
// consume these booleans and never re-derive policy from roles.
type Capabilities struct {
	ViewAdminHub bool
	PublishTasks bool
	PublishMedia bool
}

// CapabilitiesFor resolves the capability set for a user. Tasks are published
// only by the union presidency; media additionally by media admins. Every
// staff account can enter the admin hub.
func CapabilitiesFor(u User) Capabilities {
	if !u.IsStaff {
		return Capabilities{}
	}
	caps := Capabilities{ViewAdminHub: true}
	switch u.AdminRole {
	case RoleUnionPresident, RoleUnionVicePresident:
		caps.PublishTasks = true
		caps.PublishMedia = true
	case RoleMediaAdmin:
		caps.PublishMedia = true
	}
	return caps
}
