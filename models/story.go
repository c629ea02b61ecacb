package models

// StoryUpdate edits title and excerpt and adds/removes photo URLs.
type StoryUpdate struct {
	Title         string   `json:"title"`
	Excerpt       string   `json:"excerpt"`
	NewPhotos     []string `json:"newPhotos"`
	RemovedPhotos []string `json:"removedPhotos"`
}
