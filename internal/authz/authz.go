// Package authz is the single authorization decision point. Every endpoint
// funnels its permission check through Can instead of branching on roles
// locally, so the rules live in exactly one place.
package authz

// Action identifies an operation a caller wants to perform.
type Action string

const (
	ActionPredict         Action = "predict"
	ActionViewOwnLogs     Action = "view_own_logs"
	ActionViewAnyLogs     Action = "view_any_logs"
	ActionDeleteOwnLogs   Action = "delete_own_logs"
	ActionDeleteAnyLogs   Action = "delete_any_logs"
	ActionManageUsers     Action = "manage_users"
	ActionTriggerTraining Action = "trigger_training"
)

// RoleAdmin mirrors models.RoleAdmin; authz stays dependency-free so both
// middleware and services can import it.
const RoleAdmin = "admin"

// Claims is the authorization-relevant slice of a verified token: identity,
// role, and the permission flags snapshotted at issuance. The snapshot is
// trusted for the token's whole lifetime; a flag change on the user record
// takes effect only for tokens issued afterwards.
type Claims struct {
	UserID           uint
	Role             string
	CanDeleteOwnLogs bool
}

// Resource identifies the owner of an owner-scoped resource. A nil
// *Resource means the action has no resource (e.g. predict).
type Resource struct {
	OwnerUserID uint
}

// Can decides whether the claims permit the action on the resource. It is
// total: any input yields a boolean, and unknown actions deny (fail-closed).
// Rules, first match wins:
//
//  1. Admins may do everything.
//  2. delete_own_logs requires ownership plus the snapshotted
//     can_delete_own_logs flag.
//  3. predict and view_own_logs require an authenticated caller whose
//     identity matches the resource owner (or the action has no resource).
//  4. Everything else is denied.
func Can(claims Claims, action Action, resource *Resource) bool {
	if claims.Role == RoleAdmin {
		return true
	}
	if claims.UserID == 0 {
		return false
	}
	switch action {
	case ActionDeleteOwnLogs:
		return resource != nil && resource.OwnerUserID == claims.UserID && claims.CanDeleteOwnLogs
	case ActionPredict, ActionViewOwnLogs:
		return resource == nil || resource.OwnerUserID == claims.UserID
	default:
		return false
	}
}
