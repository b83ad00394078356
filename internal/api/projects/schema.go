package projects

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func ValidateCreateProjectRequest(r *CreateProjectRequest) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(r.AppName) == "" {
		return fmt.Errorf("app_name is required")
	}
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return fmt.Errorf("data is required")
	}
	if !json.Valid(r.Data) {
		return fmt.Errorf("data must be valid JSON")
	}
	return nil
}

// ValidateProjectID rejects anything that is not a UUID before it
// reaches the database or a storage key.
func ValidateProjectID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid project id")
	}
	return nil
}
