package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wedding-site/internal/models"
)

// CreateGuest inserts a guest together with its invitation rows. The phone
// number must already be normalized.
func (s *Storage) CreateGuest(ctx context.Context, guest *models.Guest, invited []models.EventType) error {
	return s.WithTx(ctx, func(tx *Storage) error {
		exists, err := tx.PhoneExists(ctx, guest.Phone)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrDuplicatePhone, guest.Phone)
		}
		if err := tx.conn(ctx).Create(guest).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrDuplicatePhone, guest.Phone)
			}
			return fmt.Errorf("failed to create guest: %w", err)
		}
		return tx.SetInvitations(ctx, guest.ID, invited)
	})
}

// UpdateGuest saves the guest's editable fields. When invited is non-nil the
// invitation set is replaced as well.
func (s *Storage) UpdateGuest(ctx context.Context, guest *models.Guest, invited []models.EventType) error {
	return s.WithTx(ctx, func(tx *Storage) error {
		var other models.Guest
		err := tx.conn(ctx).Where("phone = ? AND id <> ?", guest.Phone, guest.ID).Take(&other).Error
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", ErrDuplicatePhone, guest.Phone)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to check phone: %w", err)
		}

		res := tx.conn(ctx).Model(&models.Guest{}).Where("id = ?", guest.ID).Updates(map[string]interface{}{
			"name":     guest.Name,
			"phone":    guest.Phone,
			"email":    guest.Email,
			"category": guest.Category,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to update guest: %w", translate(res.Error))
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if invited != nil {
			return tx.SetInvitations(ctx, guest.ID, invited)
		}
		return nil
	})
}

// DeleteGuest removes a guest and every row keyed by it
func (s *Storage) DeleteGuest(ctx context.Context, id uuid.UUID) error {
	return s.WithTx(ctx, func(tx *Storage) error {
		guest, err := tx.GetGuest(ctx, id)
		if err != nil {
			return err
		}
		db := tx.conn(ctx)
		for _, m := range []interface{}{
			&models.EventInvitation{}, &models.RSVP{}, &models.FamilyMember{}, &models.UserRole{},
		} {
			if err := db.Where("guest_id = ?", id).Delete(m).Error; err != nil {
				return fmt.Errorf("failed to delete guest rows: %w", err)
			}
		}
		if err := db.Delete(&models.Guest{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete guest: %w", err)
		}
		if guest.UserID != nil {
			if err := db.Delete(&models.Identity{}, "id = ?", *guest.UserID).Error; err != nil {
				return fmt.Errorf("failed to delete identity: %w", err)
			}
		}
		return nil
	})
}

// GetGuest retrieves a guest by id
func (s *Storage) GetGuest(ctx context.Context, id uuid.UUID) (*models.Guest, error) {
	var g models.Guest
	if err := s.conn(ctx).Where("id = ?", id).Take(&g).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// GetGuestByPhone retrieves a guest by normalized phone number
func (s *Storage) GetGuestByPhone(ctx context.Context, phone string) (*models.Guest, error) {
	var g models.Guest
	if err := s.conn(ctx).Where("phone = ?", phone).Take(&g).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// PhoneExists reports whether a guest already uses the phone number
func (s *Storage) PhoneExists(ctx context.Context, phone string) (bool, error) {
	var n int64
	if err := s.conn(ctx).Model(&models.Guest{}).Where("phone = ?", phone).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check phone: %w", err)
	}
	return n > 0, nil
}

// ListGuests returns all guests ordered by name
func (s *Storage) ListGuests(ctx context.Context) ([]models.Guest, error) {
	var guests []models.Guest
	if err := s.conn(ctx).Order("name, created_at").Find(&guests).Error; err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	return guests, nil
}

// GuestDetails returns every guest joined with RSVP, family members and
// invitations.
func (s *Storage) GuestDetails(ctx context.Context) ([]models.GuestDetail, error) {
	guests, err := s.ListGuests(ctx)
	if err != nil {
		return nil, err
	}

	var rsvps []models.RSVP
	if err := s.conn(ctx).Find(&rsvps).Error; err != nil {
		return nil, fmt.Errorf("failed to list rsvps: %w", err)
	}
	var family []models.FamilyMember
	if err := s.conn(ctx).Order("id").Find(&family).Error; err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}
	var invitations []models.EventInvitation
	if err := s.conn(ctx).Order("id").Find(&invitations).Error; err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	rsvpByGuest := make(map[uuid.UUID]*models.RSVP, len(rsvps))
	for i := range rsvps {
		rsvpByGuest[rsvps[i].GuestID] = &rsvps[i]
	}
	familyByGuest := make(map[uuid.UUID][]models.FamilyMember)
	for _, f := range family {
		familyByGuest[f.GuestID] = append(familyByGuest[f.GuestID], f)
	}
	rowsByGuest := make(map[uuid.UUID]int)
	invitedByGuest := make(map[uuid.UUID][]models.EventType)
	for _, inv := range invitations {
		rowsByGuest[inv.GuestID]++
		if inv.Invited {
			invitedByGuest[inv.GuestID] = append(invitedByGuest[inv.GuestID], inv.EventType)
		}
	}

	details := make([]models.GuestDetail, 0, len(guests))
	for _, g := range guests {
		members := familyByGuest[g.ID]
		if members == nil {
			members = []models.FamilyMember{}
		}
		invited := invitedByGuest[g.ID]
		if invited == nil {
			invited = []models.EventType{}
		}
		details = append(details, models.GuestDetail{
			Guest:         g,
			RSVP:          rsvpByGuest[g.ID],
			FamilyMembers: members,
			Unrestricted:  rowsByGuest[g.ID] == 0,
			Invitations:   invited,
			HasPassword:   g.UserID != nil,
		})
	}
	return details, nil
}

// Invitations returns every invitation row of a guest
func (s *Storage) Invitations(ctx context.Context, guestID uuid.UUID) ([]models.EventInvitation, error) {
	var rows []models.EventInvitation
	if err := s.conn(ctx).Where("guest_id = ?", guestID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return rows, nil
}

// SetInvitations makes the guest's invitation rows match the selection. Rows
// are upserted in place so the set is never observed empty.
func (s *Storage) SetInvitations(ctx context.Context, guestID uuid.UUID, invited []models.EventType) error {
	rows := models.InvitationRows(guestID, invited)
	return s.WithTx(ctx, func(tx *Storage) error {
		err := tx.conn(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guest_id"}, {Name: "event_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"invited"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to save invitations: %w", err)
		}
		return nil
	})
}

// LinkIdentity stores a new identity and links it to the guest
func (s *Storage) LinkIdentity(ctx context.Context, guestID uuid.UUID, identity *models.Identity) error {
	return s.WithTx(ctx, func(tx *Storage) error {
		guest, err := tx.GetGuest(ctx, guestID)
		if err != nil {
			return err
		}
		if guest.UserID != nil {
			return ErrAlreadyLinked
		}
		if err := tx.conn(ctx).Create(identity).Error; err != nil {
			return fmt.Errorf("failed to create identity: %w", err)
		}
		res := tx.conn(ctx).Model(&models.Guest{}).
			Where("id = ? AND user_id IS NULL", guestID).
			Update("user_id", identity.ID)
		if res.Error != nil {
			return fmt.Errorf("failed to link identity: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyLinked
		}
		guest.UserID = &identity.ID
		return nil
	})
}

// GetIdentity retrieves an identity by id
func (s *Storage) GetIdentity(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	var identity models.Identity
	if err := s.conn(ctx).Where("id = ?", id).Take(&identity).Error; err != nil {
		return nil, translate(err)
	}
	return &identity, nil
}

// UnlinkIdentity deletes the guest's identity and clears the link. It reports
// false when the guest had no identity.
func (s *Storage) UnlinkIdentity(ctx context.Context, guestID uuid.UUID) (bool, error) {
	unlinked := false
	err := s.WithTx(ctx, func(tx *Storage) error {
		guest, err := tx.GetGuest(ctx, guestID)
		if err != nil {
			return err
		}
		if guest.UserID == nil {
			return nil
		}
		if err := tx.conn(ctx).Delete(&models.Identity{}, "id = ?", *guest.UserID).Error; err != nil {
			return fmt.Errorf("failed to delete identity: %w", err)
		}
		if err := tx.conn(ctx).Model(&models.Guest{}).Where("id = ?", guestID).Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("failed to clear identity link: %w", err)
		}
		unlinked = true
		return nil
	})
	return unlinked, err
}

// HasRole reports whether the guest holds the role
func (s *Storage) HasRole(ctx context.Context, guestID uuid.UUID, role string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.UserRole{}).Where("guest_id = ? AND role = ?", guestID, role).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return n > 0, nil
}

// GrantRole gives the guest a role; granting twice is a no-op
func (s *Storage) GrantRole(ctx context.Context, guestID uuid.UUID, role string) error {
	if _, err := s.GetGuest(ctx, guestID); err != nil {
		return err
	}
	err := s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserRole{GuestID: guestID, Role: role}).Error
	if err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}
	return nil
}

// RevokeRole removes a role from the guest
func (s *Storage) RevokeRole(ctx context.Context, guestID uuid.UUID, role string) error {
	err := s.conn(ctx).Where("guest_id = ? AND role = ?", guestID, role).Delete(&models.UserRole{}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	return nil
}
