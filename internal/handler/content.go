package handler

import (
	"context"
	"fmt"
	"io"
	"strings"

	"wedding-site/internal/media"
	"wedding-site/internal/models"
)

// SlideInput is the slide editor form
type SlideInput struct {
	PageNumber  int    `json:"page_number" validate:"min=0"`
	EventType   string `json:"event_type" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Subtitle    string `json:"subtitle" validate:"max=200"`
	Description string `json:"description" validate:"max=4000"`
	IconEmoji   string `json:"icon_emoji" validate:"max=16"`
	EventDate   string `json:"event_date" validate:"max=100"`
	EventTime   string `json:"event_time" validate:"max=100"`
	Venue       string `json:"venue" validate:"max=200"`
}

// TravelInput is the travel block editor form
type TravelInput struct {
	SectionType  string `json:"section_type" validate:"required,max=50"`
	Title        string `json:"title" validate:"required,max=200"`
	Subtitle     string `json:"subtitle" validate:"max=200"`
	Content      string `json:"content" validate:"max=8000"`
	Icon         string `json:"icon" validate:"max=16"`
	DisplayOrder int    `json:"display_order"`
}

// Upload is a background file sent by the admin
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

func (in SlideInput) apply(slide *models.Slide) error {
	in.Title = strings.TrimSpace(in.Title)
	if err := Validate(in); err != nil {
		return err
	}
	e, err := models.ParseEventType(in.EventType)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	slide.PageNumber = in.PageNumber
	slide.EventType = e
	slide.Title = in.Title
	slide.Subtitle = in.Subtitle
	slide.Description = in.Description
	slide.IconEmoji = in.IconEmoji
	slide.EventDate = in.EventDate
	slide.EventTime = in.EventTime
	slide.Venue = in.Venue
	return nil
}

func (in TravelInput) apply(item *models.TravelInfo) error {
	in.Title = strings.TrimSpace(in.Title)
	in.SectionType = strings.TrimSpace(in.SectionType)
	if err := Validate(in); err != nil {
		return err
	}
	item.SectionType = in.SectionType
	item.Title = in.Title
	item.Subtitle = in.Subtitle
	item.Content = in.Content
	item.Icon = in.Icon
	item.DisplayOrder = in.DisplayOrder
	return nil
}

func (h *AdminHandler) ListSlides(ctx context.Context) ([]models.Slide, error) {
	return h.storage.Slides(ctx)
}

func (h *AdminHandler) CreateSlide(ctx context.Context, in SlideInput) (*models.Slide, error) {
	slide := &models.Slide{}
	if err := in.apply(slide); err != nil {
		return nil, err
	}
	if err := h.storage.CreateSlide(ctx, slide); err != nil {
		return nil, err
	}
	return slide, nil
}

// UpdateSlide edits the slide text. The background is changed only through
// SetSlideBackground.
func (h *AdminHandler) UpdateSlide(ctx context.Context, id uint, in SlideInput) (*models.Slide, error) {
	slide, err := h.storage.GetSlide(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(slide); err != nil {
		return nil, err
	}
	if err := h.storage.UpdateSlide(ctx, slide); err != nil {
		return nil, err
	}
	return slide, nil
}

func (h *AdminHandler) DeleteSlide(ctx context.Context, id uint) error {
	slide, err := h.storage.GetSlide(ctx, id)
	if err != nil {
		return err
	}
	if err := h.storage.DeleteSlide(ctx, id); err != nil {
		return err
	}
	h.removeMedia(ctx, slide.BackgroundURL)
	return nil
}

// SetSlideBackground stores an image or video and makes it the slide's
// background
func (h *AdminHandler) SetSlideBackground(ctx context.Context, id uint, up Upload) (*models.Slide, error) {
	slide, err := h.storage.GetSlide(ctx, id)
	if err != nil {
		return nil, err
	}
	url, kind, err := h.putMedia(ctx, "slides", up)
	if err != nil {
		return nil, err
	}
	previous := slide.BackgroundURL
	slide.BackgroundURL = url
	slide.BackgroundType = kind
	if err := h.storage.UpdateSlide(ctx, slide); err != nil {
		h.removeMedia(ctx, url)
		return nil, err
	}
	h.removeMedia(ctx, previous)
	h.log.Info().Uint("slide_id", id).Str("kind", string(kind)).Msg("Slide background updated")
	return slide, nil
}

func (h *AdminHandler) ListTravel(ctx context.Context) ([]models.TravelInfo, error) {
	return h.storage.TravelInfo(ctx)
}

func (h *AdminHandler) CreateTravel(ctx context.Context, in TravelInput) (*models.TravelInfo, error) {
	item := &models.TravelInfo{}
	if err := in.apply(item); err != nil {
		return nil, err
	}
	if err := h.storage.CreateTravel(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (h *AdminHandler) UpdateTravel(ctx context.Context, id uint, in TravelInput) (*models.TravelInfo, error) {
	item, err := h.storage.GetTravel(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(item); err != nil {
		return nil, err
	}
	if err := h.storage.UpdateTravel(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (h *AdminHandler) DeleteTravel(ctx context.Context, id uint) error {
	item, err := h.storage.GetTravel(ctx, id)
	if err != nil {
		return err
	}
	if err := h.storage.DeleteTravel(ctx, id); err != nil {
		return err
	}
	h.removeMedia(ctx, item.BackgroundURL)
	return nil
}

func (h *AdminHandler) SetTravelBackground(ctx context.Context, id uint, up Upload) (*models.TravelInfo, error) {
	item, err := h.storage.GetTravel(ctx, id)
	if err != nil {
		return nil, err
	}
	url, kind, err := h.putMedia(ctx, "travel", up)
	if err != nil {
		return nil, err
	}
	previous := item.BackgroundURL
	item.BackgroundURL = url
	item.BackgroundType = kind
	if err := h.storage.UpdateTravel(ctx, item); err != nil {
		h.removeMedia(ctx, url)
		return nil, err
	}
	h.removeMedia(ctx, previous)
	return item, nil
}

func (h *AdminHandler) putMedia(ctx context.Context, prefix string, up Upload) (string, models.MediaKind, error) {
	kind, err := media.KindOf(up.ContentType)
	if err != nil {
		return "", models.MediaNone, err
	}
	body := up.Body
	if h.maxBytes > 0 {
		body = media.LimitReader(body, h.maxBytes)
	}
	url, err := h.media.Put(ctx, media.ObjectKey(prefix, up.Filename), body, up.ContentType)
	if err != nil {
		return "", models.MediaNone, err
	}
	return url, kind, nil
}

// removeMedia deletes an object this site uploaded. Failures only leave an
// orphaned file behind, so they are logged.
func (h *AdminHandler) removeMedia(ctx context.Context, url string) {
	key, ok := media.KeyOf(h.media, url)
	if !ok {
		return
	}
	if err := h.media.Delete(ctx, key); err != nil {
		h.log.Warn().Err(err).Str("key", key).Msg("Failed to delete media")
	}
}
