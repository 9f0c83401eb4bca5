package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wedding-site/internal/models"
)

// GetRSVP retrieves the RSVP of a guest
func (s *Storage) GetRSVP(ctx context.Context, guestID uuid.UUID) (*models.RSVP, error) {
	var r models.RSVP
	if err := s.conn(ctx).Where("guest_id = ?", guestID).Take(&r).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// FamilyMembers returns the family members registered by a guest
func (s *Storage) FamilyMembers(ctx context.Context, guestID uuid.UUID) ([]models.FamilyMember, error) {
	var members []models.FamilyMember
	if err := s.conn(ctx).Where("guest_id = ?", guestID).Order("id").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}
	return members, nil
}

// SaveRSVP updates the guest's RSVP or inserts it when missing, and replaces
// the family member set, all in one transaction.
func (s *Storage) SaveRSVP(ctx context.Context, rsvp *models.RSVP, family []models.FamilyMember) error {
	return s.WithTx(ctx, func(tx *Storage) error {
		db := tx.conn(ctx)

		var existing models.RSVP
		err := db.Where("guest_id = ?", rsvp.GuestID).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := db.Create(rsvp).Error; err != nil {
				return fmt.Errorf("failed to create RSVP: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to load RSVP: %w", err)
		default:
			err := db.Model(&existing).Updates(map[string]interface{}{
				"attending":            rsvp.Attending,
				"including_trek":       rsvp.IncludingTrek,
				"dietary_requirements": rsvp.DietaryRequirements,
				"plus_one":             rsvp.PlusOne,
				"plus_one_name":        rsvp.PlusOneName,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to update RSVP: %w", err)
			}
			rsvp.ID = existing.ID
			rsvp.CreatedAt = existing.CreatedAt
			rsvp.UpdatedAt = existing.UpdatedAt
		}

		if err := db.Where("guest_id = ?", rsvp.GuestID).Delete(&models.FamilyMember{}).Error; err != nil {
			return fmt.Errorf("failed to clear family members: %w", err)
		}
		if len(family) == 0 {
			return nil
		}
		for i := range family {
			family[i].ID = 0
			family[i].GuestID = rsvp.GuestID
		}
		if err := db.Create(&family).Error; err != nil {
			return fmt.Errorf("failed to save family members: %w", err)
		}
		return nil
	})
}
