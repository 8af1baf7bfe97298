package auth

import (
	"context"
	"errors"

	"notebookService/internal/apperr"
	"notebookService/models"
	"notebookService/repository"
)

var errNoUsers = errors.New("users repository not configured")

// ResolveUser loads the stored user named by the principal in ctx.
func ResolveUser(ctx context.Context, users repository.UserRepositoryI) (*models.User, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		return nil, apperr.Internal(errNoUsers, "resolve user")
	}
	u, err := users.GetByUsername(ctx, p.Name)
	if err != nil {
		return nil, apperr.Internal(err, "get user")
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}
