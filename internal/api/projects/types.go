package projects

import "encoding/json"

// Request DTOs
type CreateProjectRequest struct {
	Name          string          `json:"name"`
	AppName       string          `json:"app_name"`
	Data          json.RawMessage `json:"data"`
	ThumbnailPath *string         `json:"thumbnail_path,omitempty"`
}

// Response DTOs
type CreateProjectResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

type DeleteProjectResponse struct {
	Success bool `json:"success"`
}
