package types

import "time"

// Project is the metadata row; the JSON payload itself lives in object
// storage at StoragePath.
type Project struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Name          string    `db:"name" json:"name"`
	AppName       string    `db:"app_name" json:"app_name"`
	StoragePath   string    `db:"storage_path" json:"storage_path"`
	ThumbnailPath *string   `db:"thumbnail_path" json:"thumbnail_path,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
