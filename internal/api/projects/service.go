package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dataviz-jp/account-api/internal/storage"
	"github.com/dataviz-jp/account-api/internal/types"
	"github.com/dataviz-jp/account-api/internal/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotEntitled means the user has no active or trialing plan.
	ErrNotEntitled = errors.New("subscription required")
	// ErrNotFound covers both a missing project and one owned by
	// somebody else; callers must not tell the two apart.
	ErrNotFound = errors.New("project not found")
)

// ProjectStore is the metadata side of the project service.
type ProjectStore interface {
	ListProjects(ctx context.Context, userID, appName string) ([]types.Project, error)
	GetProject(ctx context.Context, id, userID string) (*types.Project, error)
	InsertProject(ctx context.Context, p *types.Project) error
	DeleteProject(ctx context.Context, id, userID string) (bool, error)
}

// Entitlements answers whether a user may create and open projects.
type Entitlements interface {
	Entitled(ctx context.Context, userID string) (bool, error)
}

type Service struct {
	db           ProjectStore
	objects      storage.ObjectStore
	entitlements Entitlements
	cleaner      *Cleaner
}

func NewService(db ProjectStore, objects storage.ObjectStore, entitlements Entitlements, cleaner *Cleaner) *Service {
	return &Service{
		db:           db,
		objects:      objects,
		entitlements: entitlements,
		cleaner:      cleaner,
	}
}

func (s *Service) List(ctx context.Context, userID, appName string) ([]types.Project, error) {
	return s.db.ListProjects(ctx, userID, appName)
}

// Create uploads the payload first and inserts metadata second, so a
// project row never points at a missing object. If the insert fails the
// uploaded object is handed to the cleaner.
func (s *Service) Create(ctx context.Context, userID string, req *CreateProjectRequest) (string, error) {
	entitled, err := s.entitlements.Entitled(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to check entitlement: %w", err)
	}
	if !entitled {
		return "", ErrNotEntitled
	}

	id := uuid.New().String()
	storagePath := fmt.Sprintf("%s/%s.json", userID, id)

	if err := s.objects.Upload(ctx, storagePath, req.Data, "application/json"); err != nil {
		return "", fmt.Errorf("failed to store project data: %w", err)
	}

	project := &types.Project{
		ID:            id,
		UserID:        userID,
		Name:          req.Name,
		AppName:       req.AppName,
		StoragePath:   storagePath,
		ThumbnailPath: req.ThumbnailPath,
	}
	if err := s.db.InsertProject(ctx, project); err != nil {
		if ok := s.cleaner.Enqueue(CleanupJob{ProjectID: id, Keys: []string{storagePath}}); !ok {
			utils.Zlog.Warn("Cleanup queue full, orphaned object left behind",
				zap.String("projectId", id),
				zap.String("key", storagePath))
		}
		return "", fmt.Errorf("failed to save project metadata: %w", err)
	}
	return id, nil
}

// Get returns the stored payload. Storage and decode failures surface
// as errors distinct from ErrNotFound; the row says the object should
// exist.
func (s *Service) Get(ctx context.Context, userID, id string) (json.RawMessage, error) {
	entitled, err := s.entitlements.Entitled(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check entitlement: %w", err)
	}
	if !entitled {
		return nil, ErrNotEntitled
	}

	project, err := s.db.GetProject(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotFound
	}

	data, err := s.objects.Download(ctx, project.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load project data: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("project %s holds corrupt data", id)
	}
	return data, nil
}

// Delete removes the metadata row and hands storage cleanup to the
// background worker. The row is authoritative: once it is gone the
// delete succeeded, whatever happens to the objects.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	project, err := s.db.GetProject(ctx, id, userID)
	if err != nil {
		return err
	}
	if project == nil {
		return ErrNotFound
	}

	existed, err := s.db.DeleteProject(ctx, id, userID)
	if err != nil {
		return err
	}
	if !existed {
		return ErrNotFound
	}

	keys := []string{project.StoragePath}
	if project.ThumbnailPath != nil && *project.ThumbnailPath != "" {
		keys = append(keys, *project.ThumbnailPath)
	}
	if ok := s.cleaner.Enqueue(CleanupJob{ProjectID: id, Keys: keys}); !ok {
		utils.Zlog.Warn("Cleanup queue full, orphaned objects left behind",
			zap.String("projectId", id),
			zap.Strings("keys", keys))
	}
	return nil
}
