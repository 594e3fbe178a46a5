// Package domain defines the portal records, value types, and rule
// evaluation primitives used by heritagecore.
package domain

import (
	"slices"
	"time"
)

// EntityType identifies the type of record handled by the portal.
type EntityType string

// Supported entity type identifiers used in Change records and audit entries.
const (
	// EntityHeritageItem identifies an archived heritage record.
	EntityHeritageItem EntityType = "heritage_item"
	// EntitySession identifies a login session.
	EntitySession EntityType = "session"
	// EntityAncestor identifies a lineage slot entry.
	EntityAncestor EntityType = "ancestor"
	// EntityMessage identifies a community chat message.
	EntityMessage EntityType = "community_message"
	// EntityMedia identifies an uploaded media object.
	EntityMedia EntityType = "media"
)

// Role is the coarse authorization level attached to a session.
type Role string

// Roles recognised by the portal.
const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// MediaType classifies a heritage item's primary media.
type MediaType string

// Media types accepted for heritage items.
const (
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
	MediaText  MediaType = "text"
	MediaImage MediaType = "image"
)

// Valid reports whether m is a known media type.
func (m MediaType) Valid() bool {
	switch m {
	case MediaVideo, MediaAudio, MediaText, MediaImage:
		return true
	default:
		return false
	}
}

// AllVillages is the pseudo-village selecting every village at once. It is
// never gated.
const AllVillages = "All"

var villages = []string{
	"Adunu", "Ammale", "Dakalo", "Ishau", "Kurmin Iya",
	"Kwakware", "Birnya", "Bishini", "Kurmin Giwa",
	"Kateri", "Katchia", "Kajuru", "Kasuwan Magani",
}

// Villages returns the enumerated Adara villages in display order.
func Villages() []string {
	return slices.Clone(villages)
}

// IsVillage reports whether v is a member of the enumerated village list.
func IsVillage(v string) bool {
	return slices.Contains(villages, v)
}

// IsSelectable reports whether v may be selected in the village filter.
func IsSelectable(v string) bool {
	return v == AllVillages || IsVillage(v)
}

// Tab identifies one of the portal views.
type Tab string

// Portal tabs. Gallery and chat render village-scoped content.
const (
	TabDashboard Tab = "dashboard"
	TabLineage   Tab = "lineage"
	TabLanguage  Tab = "language"
	TabGallery   Tab = "gallery"
	TabChat      Tab = "chat"
)

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	switch t {
	case TabDashboard, TabLineage, TabLanguage, TabGallery, TabChat:
		return true
	default:
		return false
	}
}

// VillageScoped reports whether the tab shows content that is gated per village.
func (t Tab) VillageScoped() bool {
	return t == TabGallery || t == TabChat
}

// Session is the identity and role of the user on one device.
type Session struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Village string `json:"village"`
	Role    Role   `json:"role"`
}

// IsAdmin reports whether the session carries the admin role.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// Valid reports whether the session is well formed enough to be trusted.
func (s Session) Valid() bool {
	return s.ID != "" && s.Role.Valid()
}

// HeritageItem is one archived cultural artifact. Timestamp is in Unix
// milliseconds.
type HeritageItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        MediaType `json:"type"`
	URL         string    `json:"url"`
	Village     string    `json:"village"`
	Author      string    `json:"author"`
	Timestamp   int64     `json:"timestamp"`
}

// Time returns the item timestamp as a time.Time.
func (i HeritageItem) Time() time.Time { return time.UnixMilli(i.Timestamp).UTC() }

// CommunityMessage is a chat line posted to a village room.
type CommunityMessage struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
	Village    string `json:"village"`
}

// Outcome reports whether an update or removal matched an existing record.
type Outcome string

// Possible outcomes of id-addressed mutations.
const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
)

// Found reports whether the outcome matched a record.
func (o Outcome) Found() bool { return o == OutcomeFound }
