package models

// Role is a named rank assigned to a user. Ranks are ordered; a higher rank
// never loses a capability held by a lower one.
type Role string

const (
	// RoleMember is the default rank for new accounts.
	RoleMember Role = "member"
	// RoleApprenticeContributor may upload content, subject to review.
	RoleApprenticeContributor Role = "apprentice_contributor"
	// RoleSeniorContributor may upload (subject to review) and moderate comments.
	RoleSeniorContributor Role = "senior_contributor"
	// RoleGroupLeader publishes directly without review.
	RoleGroupLeader Role = "group_leader"
	// RoleModerator administers users in addition to moderation.
	RoleModerator Role = "moderator"
	// RoleOwner has full site control.
	RoleOwner Role = "owner"
)

// AllRoles lists every role in rank order, lowest first.
func AllRoles() []Role {
	return []Role{
		RoleMember,
		RoleApprenticeContributor,
		RoleSeniorContributor,
		RoleGroupLeader,
		RoleModerator,
		RoleOwner,
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleApprenticeContributor, RoleSeniorContributor,
		RoleGroupLeader, RoleModerator, RoleOwner:
		return true
	}
	return false
}

// Label returns the display name used in user-facing notification messages.
func (r Role) Label() string {
	switch r {
	case RoleMember:
		return "Member"
	case RoleApprenticeContributor:
		return "Apprentice Contributor"
	case RoleSeniorContributor:
		return "Senior Contributor"
	case RoleGroupLeader:
		return "Group Leader"
	case RoleModerator:
		return "Moderator"
	case RoleOwner:
		return "Site Owner"
	}
	return string(r)
}

// Capabilities is the fixed set of booleans a role grants.
type Capabilities struct {
	CanRead             bool `json:"can_read"`
	CanComment          bool `json:"can_comment"`
	CanFavorite         bool `json:"can_favorite"`
	CanUpload           bool `json:"can_upload"`
	CanModerateComments bool `json:"can_moderate_comments"`
	CanAdminister       bool `json:"can_administer"`
}

// rolePermissions is the static capability matrix. It is total: every role
// maps to a fully populated record.
var rolePermissions = map[Role]Capabilities{
	RoleMember: {
		CanRead:     true,
		CanComment:  true,
		CanFavorite: true,
	},
	RoleApprenticeContributor: {
		CanRead:     true,
		CanComment:  true,
		CanFavorite: true,
		CanUpload:   true, // requires approval
	},
	RoleSeniorContributor: {
		CanRead:             true,
		CanComment:          true,
		CanFavorite:         true,
		CanUpload:           true, // requires approval
		CanModerateComments: true,
	},
	RoleGroupLeader: {
		CanRead:             true,
		CanComment:          true,
		CanFavorite:         true,
		CanUpload:           true, // publishes directly
		CanModerateComments: true,
	},
	RoleModerator: {
		CanRead:             true,
		CanComment:          true,
		CanFavorite:         true,
		CanUpload:           true,
		CanModerateComments: true,
		CanAdminister:       true,
	},
	RoleOwner: {
		CanRead:             true,
		CanComment:          true,
		CanFavorite:         true,
		CanUpload:           true,
		CanModerateComments: true,
		CanAdminister:       true,
	},
}

// PermissionsFor returns the capability set granted by a role. It is a pure
// lookup; an unknown role yields the zero Capabilities (everything denied),
// which only happens on a programming error since Role is a closed enum.
func PermissionsFor(role Role) Capabilities {
	return rolePermissions[role]
}

// UploadRequiresApproval reports whether content uploaded by this role must
// pass moderator review before it reaches the catalog. Group leaders and
// above publish directly.
func UploadRequiresApproval(role Role) bool {
	switch role {
	case RoleApprenticeContributor, RoleSeniorContributor:
		return true
	}
	return false
}
