package handler

import (
	"context"
	"fmt"

	"github.com/unibague-gradework/orion-program/internal/core/auth"
)

// requireProgramManager admits admins, and coordinators whose access set
// covers the program. Used for every mutation below program deletion.
func requireProgramManager(ctx context.Context, programID string) (*auth.Identity, error) {
	id, err := auth.RequireAuthentication(ctx)
	if err != nil {
		return nil, err
	}
	if id.IsAdmin() {
		return id, nil
	}
	if id.IsCoordinator() && id.HasAccessToProgram(programID) {
		return id, nil
	}
	return nil, fmt.Errorf("no permission to manage program %s: %w", programID, auth.ErrAuthorizationDenied)
}

// requireProgramReader admits admins and coordinators unconditionally, and
// any other authenticated user whose access set covers the program.
func requireProgramReader(ctx context.Context, programID string) (*auth.Identity, error) {
	id, err := auth.RequireAuthentication(ctx)
	if err != nil {
		return nil, err
	}
	if id.IsAdmin() || id.IsCoordinator() || id.HasAccessToProgram(programID) {
		return id, nil
	}
	return nil, fmt.Errorf("no access to program %s: %w", programID, auth.ErrAuthorizationDenied)
}

// requireElevated admits admins and coordinators only.
func requireElevated(ctx context.Context) (*auth.Identity, error) {
	id, err := auth.RequireAuthentication(ctx)
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin() && !id.IsCoordinator() {
		return nil, fmt.Errorf("coordinator or administrator role required: %w", auth.ErrAuthorizationDenied)
	}
	return id, nil
}
