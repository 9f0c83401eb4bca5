package handler

import (
	"context"

	"github.com/google/uuid"

	"wedding-site/internal/models"
	"wedding-site/internal/storage"
)

// RoleGuard answers role questions straight from user_roles. Nothing is
// cached so a revoked role takes effect on the next request.
type RoleGuard struct {
	storage *storage.Storage
}

func NewRoleGuard(s *storage.Storage) *RoleGuard {
	return &RoleGuard{storage: s}
}

func (g *RoleGuard) IsAdmin(ctx context.Context, guestID uuid.UUID) (bool, error) {
	return g.storage.HasRole(ctx, guestID, models.RoleAdmin)
}
