package models

import "time"

// MediaKind tells the page how to render a background
type MediaKind string

const (
	MediaNone  MediaKind = ""
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Slide is one page of the itinerary
type Slide struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PageNumber     int       `gorm:"uniqueIndex;not null" json:"page_number"`
	EventType      EventType `gorm:"not null" json:"event_type"`
	Title          string    `json:"title"`
	Subtitle       string    `json:"subtitle,omitempty"`
	Description    string    `json:"description,omitempty"`
	IconEmoji      string    `json:"icon_emoji,omitempty"`
	BackgroundURL  string    `json:"background_url,omitempty"`
	BackgroundType MediaKind `json:"background_type,omitempty"`
	EventDate      string    `json:"event_date,omitempty"`
	EventTime      string    `json:"event_time,omitempty"`
	Venue          string    `json:"venue,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Slide) TableName() string { return "wedding_slides" }

// TravelInfo is a content block on the travel page
type TravelInfo struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SectionType    string    `gorm:"not null" json:"section_type"`
	Title          string    `gorm:"not null" json:"title"`
	Subtitle       string    `json:"subtitle,omitempty"`
	Content        string    `json:"content,omitempty"`
	Icon           string    `json:"icon,omitempty"`
	DisplayOrder   int       `gorm:"index" json:"display_order"`
	BackgroundURL  string    `json:"background_url,omitempty"`
	BackgroundType MediaKind `json:"background_type,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (TravelInfo) TableName() string { return "travel_info" }

// DefaultSlides is the deck seeded into an empty database
func DefaultSlides() []Slide {
	return []Slide{
		{PageNumber: 0, EventType: EventWelcome, Title: "Welcome", IconEmoji: "💌"},
		{PageNumber: 1, EventType: EventMehndi, Title: "Mehndi", IconEmoji: "🌿"},
		{PageNumber: 2, EventType: EventNikah, Title: "Nikah", IconEmoji: "💍"},
		{PageNumber: 3, EventType: EventHaldi, Title: "Haldi", IconEmoji: "🌼"},
		{PageNumber: 4, EventType: EventReception, Title: "Reception", IconEmoji: "🎉"},
		{PageNumber: 5, EventType: EventTrek, Title: "Trek", IconEmoji: "🏔️"},
	}
}
