// Package auth derives a request-scoped identity from headers asserted by
// the upstream gateway. The service never sees an end-user credential; the
// gateway authenticates and this package only trusts its headers, failing
// closed (no identity) when they are absent and the caller is not flagged
// internal.
package auth

import (
	"errors"
	"net/http"
	"strings"
)

// Headers set by the gateway when a valid token was presented, plus the
// flags marking trusted service-to-service traffic.
const (
	HeaderUserID       = "X-User-ID"
	HeaderUserEmail    = "X-User-Email"
	HeaderUserRole     = "X-User-Role"
	HeaderUserPrograms = "X-User-Programs"
	HeaderInternal     = "X-Internal-Request"
	HeaderServiceReq   = "X-Service-Request"
)

const (
	RoleAdmin       = "ADMIN"
	RoleCoordinator = "COORDINATOR"

	// WildcardProgram in an access set grants access to every program.
	WildcardProgram = "*"

	// SystemUserID identifies the synthetic identity injected for internal
	// calls that carry no end user.
	SystemUserID = "system"
)

var ErrAuthenticationRequired = errors.New("authentication required")
var ErrAuthorizationDenied = errors.New("insufficient permissions")

// Identity is the authenticated actor for one request. It is immutable
// after construction and discarded with the request context, so no teardown
// is needed on any exit path.
type Identity struct {
	UserID   string
	Email    string
	Role     string
	Programs map[string]struct{}
}

// SystemIdentity returns the admin-equivalent identity used for trusted
// internal requests without an explicit end user.
func SystemIdentity() *Identity {
	return &Identity{
		UserID:   SystemUserID,
		Email:    "system@local",
		Role:     RoleAdmin,
		Programs: map[string]struct{}{WildcardProgram: {}},
	}
}

// FromHeaders builds the identity for a request, or nil when the request is
// unauthenticated:
//
//  1. no user id + internal/service flag "true" → system identity
//  2. no user id, no flag → nil
//  3. otherwise an identity with the role as asserted (empty when absent)
//     and the comma-separated program list parsed into a set.
func FromHeaders(h http.Header) *Identity {
	userID := strings.TrimSpace(h.Get(HeaderUserID))

	internal := strings.EqualFold(strings.TrimSpace(h.Get(HeaderInternal)), "true") ||
		strings.EqualFold(strings.TrimSpace(h.Get(HeaderServiceReq)), "true")

	if userID == "" {
		if internal {
			return SystemIdentity()
		}
		return nil
	}

	programs := make(map[string]struct{})
	for _, p := range strings.Split(h.Get(HeaderUserPrograms), ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			programs[p] = struct{}{}
		}
	}

	return &Identity{
		UserID:   userID,
		Email:    strings.TrimSpace(h.Get(HeaderUserEmail)),
		Role:     strings.TrimSpace(h.Get(HeaderUserRole)),
		Programs: programs,
	}
}

func (id *Identity) IsAdmin() bool {
	return strings.EqualFold(id.Role, RoleAdmin)
}

func (id *Identity) IsCoordinator() bool {
	return strings.EqualFold(id.Role, RoleCoordinator)
}

// IsSystem reports whether this is the synthetic internal-call identity.
func (id *Identity) IsSystem() bool {
	return id.UserID == SystemUserID
}

// HasAccessToProgram reports whether the access set contains the program id
// or the wildcard marker. An empty set grants nothing.
func (id *Identity) HasAccessToProgram(programID string) bool {
	if len(id.Programs) == 0 {
		return false
	}
	if _, ok := id.Programs[WildcardProgram]; ok {
		return true
	}
	_, ok := id.Programs[programID]
	return ok
}
