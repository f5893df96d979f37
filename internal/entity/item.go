package entity

import "time"

// Item mirrors the `items` table. ID is assigned by the classifieds site.
type Item struct {
	ID              int64
	URL             string
	Title           string // carried for notifications, not persisted
	UploadTimestamp time.Time
	ParentTargetID  int64
}

// ItemDetails are the fields read from an item page.
type ItemDetails struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Page is a fetched document.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}
