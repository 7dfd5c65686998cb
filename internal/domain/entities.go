package domain

import "time"

// Blueprint is a reusable token preset. Spawned tokens share the
// blueprint's image, so ImageID ownership is tracked by the blob
// manager rather than by the blueprint itself.
type Blueprint struct {
	ID        string    `bson:"_id" json:"_id"`
	SessionID string    `bson:"session_id" json:"session_id"`
	Name      string    `bson:"name" json:"name"`
	ImageID   string    `bson:"image_id" json:"image_id"`
	CreatedBy string    `bson:"created_by" json:"created_by"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Scene is a playable map inside a session.
type Scene struct {
	ID        string    `bson:"_id" json:"_id"`
	SessionID string    `bson:"session_id" json:"session_id"`
	Name      string    `bson:"name" json:"name"`
	ImageID   string    `bson:"image_id" json:"image_id"`
	GridSize  int       `bson:"grid_size" json:"grid_size"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// JournalEntry lives in a per-user journal tree, independent of any
// session.
type JournalEntry struct {
	ID        string    `bson:"_id" json:"_id"`
	OwnerID   string    `bson:"owner_id" json:"owner_id"`
	Title     string    `bson:"title" json:"title"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
