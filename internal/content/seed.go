package content

import (
	"time"

	"heritagecore/pkg/domain"
)

// SeedItems returns the archive records every fresh portal starts with,
// timestamped relative to now.
func SeedItems(now time.Time) []domain.HeritageItem {
	at := func(ago time.Duration) int64 { return now.Add(-ago).UnixMilli() }
	return []domain.HeritageItem{
		{
			ID:          "1",
			Title:       "Adara Traditional Dance",
			Description: "The energetic rhythm and flow of the Adara people during the annual harvest festival.",
			Type:        domain.MediaVideo,
			Village:     "Katchia",
			Author:      "Chief Archivist",
			Timestamp:   at(5000 * time.Second),
		},
		{
			ID:          "2",
			Title:       "Adunu Hill Artifacts",
			Description: "Pre-colonial pottery discovered at the base of the Adunu hills.",
			Type:        domain.MediaImage,
			URL:         "https://picsum.photos/seed/adunu/800/600",
			Village:     "Adunu",
			Author:      "Heritage Team",
			Timestamp:   at(10000 * time.Second),
		},
		{
			ID:          "3",
			Title:       "Oral History: The Migration",
			Description: "An elder from Kateri recounts the migration patterns of the Adara ancestors.",
			Type:        domain.MediaAudio,
			Village:     "Kateri",
			Author:      "Cultural Dept",
			Timestamp:   at(2000 * time.Second),
		},
	}
}

// NewSeededRepository returns a repository preloaded with SeedItems.
func NewSeededRepository(now time.Time) *Repository {
	return NewRepository(SeedItems(now)...)
}
