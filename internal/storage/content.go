package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"wedding-site/internal/models"
)

// Slides returns every slide ordered by page number
func (s *Storage) Slides(ctx context.Context) ([]models.Slide, error) {
	var slides []models.Slide
	if err := s.conn(ctx).Order("page_number").Find(&slides).Error; err != nil {
		return nil, fmt.Errorf("failed to list slides: %w", err)
	}
	return slides, nil
}

func (s *Storage) GetSlide(ctx context.Context, id uint) (*models.Slide, error) {
	var slide models.Slide
	if err := s.conn(ctx).Where("id = ?", id).Take(&slide).Error; err != nil {
		return nil, translate(err)
	}
	return &slide, nil
}

func (s *Storage) CreateSlide(ctx context.Context, slide *models.Slide) error {
	if err := s.conn(ctx).Create(slide).Error; err != nil {
		return fmt.Errorf("failed to create slide: %w", translate(err))
	}
	return nil
}

func (s *Storage) UpdateSlide(ctx context.Context, slide *models.Slide) error {
	res := s.conn(ctx).Model(&models.Slide{}).Where("id = ?", slide.ID).Updates(map[string]interface{}{
		"page_number":     slide.PageNumber,
		"event_type":      slide.EventType,
		"title":           slide.Title,
		"subtitle":        slide.Subtitle,
		"description":     slide.Description,
		"icon_emoji":      slide.IconEmoji,
		"background_url":  slide.BackgroundURL,
		"background_type": slide.BackgroundType,
		"event_date":      slide.EventDate,
		"event_time":      slide.EventTime,
		"venue":           slide.Venue,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update slide: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteSlide(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&models.Slide{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete slide: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedSlides inserts the given deck when no slides exist yet
func (s *Storage) SeedSlides(ctx context.Context, slides []models.Slide) error {
	return s.WithTx(ctx, func(tx *Storage) error {
		var n int64
		if err := tx.conn(ctx).Model(&models.Slide{}).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to count slides: %w", err)
		}
		if n > 0 || len(slides) == 0 {
			return nil
		}
		if err := tx.conn(ctx).Create(&slides).Error; err != nil {
			return fmt.Errorf("failed to seed slides: %w", err)
		}
		tx.log.Info().Str("component", "Storage").Int("count", len(slides)).Msg("Seeded default slides")
		return nil
	})
}

// TravelInfo returns the travel page blocks in display order
func (s *Storage) TravelInfo(ctx context.Context) ([]models.TravelInfo, error) {
	var items []models.TravelInfo
	if err := s.conn(ctx).Order("display_order, id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list travel info: %w", err)
	}
	return items, nil
}

func (s *Storage) GetTravel(ctx context.Context, id uint) (*models.TravelInfo, error) {
	var item models.TravelInfo
	if err := s.conn(ctx).Where("id = ?", id).Take(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Storage) CreateTravel(ctx context.Context, item *models.TravelInfo) error {
	if err := s.conn(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create travel info: %w", translate(err))
	}
	return nil
}

func (s *Storage) UpdateTravel(ctx context.Context, item *models.TravelInfo) error {
	res := s.conn(ctx).Model(&models.TravelInfo{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"section_type":    item.SectionType,
		"title":           item.Title,
		"subtitle":        item.Subtitle,
		"content":         item.Content,
		"icon":            item.Icon,
		"display_order":   item.DisplayOrder,
		"background_url":  item.BackgroundURL,
		"background_type": item.BackgroundType,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update travel info: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteTravel(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&models.TravelInfo{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete travel info: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Settings returns all site settings as a map
func (s *Storage) Settings(ctx context.Context) (map[string]string, error) {
	var rows []models.SiteSetting
	if err := s.conn(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// PutSetting creates or overwrites a setting
func (s *Storage) PutSetting(ctx context.Context, key, value string) error {
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.SiteSetting{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// SeedSettings stores defaults for keys that have no value yet
func (s *Storage) SeedSettings(ctx context.Context, defaults map[string]string) error {
	for k, v := range defaults {
		err := s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.SiteSetting{Key: k, Value: v}).Error
		if err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", k, err)
		}
	}
	return nil
}
