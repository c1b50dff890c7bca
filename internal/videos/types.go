package videos

import (
	"time"

	"github.com/google/uuid"
)

// Comment is one append-only entry on a video. Comments are never edited,
// reordered, or individually deleted; only whole-video deletion cascades.
type Comment struct {
	ID            uuid.UUID `json:"id"`
	Author        string    `json:"author"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
	PostedAsAdmin bool      `json:"posted_as_admin"`
}

// Record is the metadata document describing one uploaded video, excluding
// its raw bytes. It is created exactly once during a successful upload and
// never mutated afterwards except by appending comments.
type Record struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	OriginalName string    `json:"original_name"`
	StoredName   string    `json:"stored_name"`
	SizeBytes    int64     `json:"size_bytes"`
	MimeType     string    `json:"mime_type"`
	UploadedAt   time.Time `json:"uploaded_at"`
	Thumbnail    string    `json:"thumbnail"`
	Tags         []string  `json:"tags"`
	Comments     []Comment `json:"comments"`
}

// normalize guarantees tags and comments are present sequences, never nil.
func (r *Record) normalize() {
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Comments == nil {
		r.Comments = []Comment{}
	}
}
