package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dataviz-jp/account-api/internal/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu        sync.Mutex
	projects  map[string]*types.Project
	insertErr error
	listErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{projects: map[string]*types.Project{}}
}

func (f *fakeStore) ListProjects(ctx context.Context, userID, appName string) ([]types.Project, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []types.Project{}
	for _, p := range f.projects {
		if p.UserID != userID {
			continue
		}
		if appName != "" && p.AppName != appName {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) GetProject(ctx context.Context, id, userID string) (*types.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) InsertProject(ctx context.Context, p *types.Project) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.projects[p.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteProject(ctx context.Context, id, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok || p.UserID != userID {
		return false, nil
	}
	delete(f.projects, id)
	return true, nil
}

type fakeObjects struct {
	mu          sync.Mutex
	files       map[string][]byte
	uploadErr   error
	downloadErr error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{files: map[string][]byte{}}
}

func (f *fakeObjects) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = append([]byte(nil), body...)
	return nil
}

func (f *fakeObjects) Download(ctx context.Context, key string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (f *fakeObjects) Remove(ctx context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.files, key)
	}
	return nil
}

type fakeEntitlements struct {
	entitled bool
	err      error
}

func (f *fakeEntitlements) Entitled(ctx context.Context, userID string) (bool, error) {
	return f.entitled, f.err
}

func newTestService(store *fakeStore, objects *fakeObjects, entitled bool) (*Service, *Cleaner) {
	// The cleaner is never started in tests; jobs stay queued so the
	// test can inspect them.
	cleaner := NewCleaner(1, 10, objects)
	svc := NewService(store, objects, &fakeEntitlements{entitled: entitled}, cleaner)
	return svc, cleaner
}

func TestCreateStoresObjectAndMetadata(t *testing.T) {
	store := newFakeStore()
	objects := newFakeObjects()
	svc, _ := newTestService(store, objects, true)

	req := &CreateProjectRequest{
		Name:    "Population map",
		AppName: "kepler-gl",
		Data:    json.RawMessage(`{"layers":[]}`),
	}
	id, err := svc.Create(context.Background(), "user-1", req)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	key := fmt.Sprintf("user-1/%s.json", id)
	assert.Equal(t, []byte(`{"layers":[]}`), objects.files[key])

	p := store.projects[id]
	require.NotNil(t, p)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, "kepler-gl", p.AppName)
	assert.Equal(t, key, p.StoragePath)
}

func TestCreateRejectsWithoutEntitlement(t *testing.T) {
	store := newFakeStore()
	objects := newFakeObjects()
	svc, _ := newTestService(store, objects, false)

	_, err := svc.Create(context.Background(), "user-1", &CreateProjectRequest{
		Name:    "x",
		AppName: "rawgraphs",
		Data:    json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, ErrNotEntitled)
	assert.Empty(t, objects.files, "nothing should be uploaded")
}

func TestCreateEnqueuesCleanupWhenInsertFails(t *testing.T) {
	store := newFakeStore()
	store.insertErr = errors.New("constraint violation")
	objects := newFakeObjects()
	svc, cleaner := newTestService(store, objects, true)

	_, err := svc.Create(context.Background(), "user-1", &CreateProjectRequest{
		Name:    "x",
		AppName: "rawgraphs",
		Data:    json.RawMessage(`{}`),
	})
	require.Error(t, err)

	require.Len(t, cleaner.jobs, 1)
	job := <-cleaner.jobs
	require.Len(t, job.Keys, 1)
	assert.Contains(t, job.Keys[0], "user-1/")
}

func TestGetReturnsStoredPayload(t *testing.T) {
	store := newFakeStore()
	objects := newFakeObjects()
	svc, _ := newTestService(store, objects, true)

	id, err := svc.Create(context.Background(), "user-1", &CreateProjectRequest{
		Name:    "x",
		AppName: "rawgraphs",
		Data:    json.RawMessage(`{"chart":"bar"}`),
	})
	require.NoError(t, err)

	data, err := svc.Get(context.Background(), "user-1", id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"chart":"bar"}`, string(data))
}

func TestGetHidesOtherUsersProjects(t *testing.T) {
	store := newFakeStore()
	objects := newFakeObjects()
	svc, _ := newTestService(store, objects, true)

	id, err := svc.Create(context.Background(), "owner", &CreateProjectRequest{
		Name:    "x",
		AppName: "rawgraphs",
		Data:    json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "intruder", id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReportsStorageFailureDistinctly(t *testing.T) {
	store := newFakeStore()
	objects := newFakeObjects()
	svc, _ := newTestService(store, objects, true)

	id, err := svc.Create(context.Background(), "user-1", &CreateProjectRequest{
		Name:    "x",
		AppName: "rawgraphs",
		Data:    json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	objects.downloadErr = errors.New("bucket unreachable")
	_, err = svc.Get(context.Background(), "user-1", id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestGetRejectsCorruptPayload(t *testing.T) {
	store := newFakeStore()
	objects := newFakeObjects()
	svc, _ := newTestService(store, objects, true)

	id, err := svc.Create(context.Background(), "user-1", &CreateProjectRequest{
		Name:    "x",
		AppName: "rawgraphs",
		Data:    json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	objects.files[fmt.Sprintf("user-1/%s.json", id)] = []byte("not json at all")
	_, err = svc.Get(context.Background(), "user-1", id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesRowAndQueuesStorageCleanup(t *testing.T) {
	store := newFakeStore()
	objects := newFakeObjects()
	svc, cleaner := newTestService(store, objects, true)

	thumb := "user-1/thumb.png"
	id, err := svc.Create(context.Background(), "user-1", &CreateProjectRequest{
		Name:          "x",
		AppName:       "rawgraphs",
		Data:          json.RawMessage(`{}`),
		ThumbnailPath: &thumb,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "user-1", id))
	assert.Nil(t, store.projects[id])

	require.Len(t, cleaner.jobs, 1)
	job := <-cleaner.jobs
	assert.ElementsMatch(t, []string{fmt.Sprintf("user-1/%s.json", id), thumb}, job.Keys)
}

func TestDeleteDoesNotRequireEntitlement(t *testing.T) {
	store := newFakeStore()
	objects := newFakeObjects()
	svc, _ := newTestService(store, objects, true)

	id, err := svc.Create(context.Background(), "user-1", &CreateProjectRequest{
		Name:    "x",
		AppName: "rawgraphs",
		Data:    json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	// A canceled user can still clean up their data.
	svcNoPlan := NewService(store, objects, &fakeEntitlements{entitled: false}, NewCleaner(1, 10, objects))
	assert.NoError(t, svcNoPlan.Delete(context.Background(), "user-1", id))
}

func TestDeleteMissingProject(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), newFakeObjects(), true)
	err := svc.Delete(context.Background(), "user-1", uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersByApp(t *testing.T) {
	store := newFakeStore()
	objects := newFakeObjects()
	svc, _ := newTestService(store, objects, true)

	for _, app := range []string{"rawgraphs", "kepler-gl"} {
		_, err := svc.Create(context.Background(), "user-1", &CreateProjectRequest{
			Name:    "p-" + app,
			AppName: app,
			Data:    json.RawMessage(`{}`),
		})
		require.NoError(t, err)
	}

	all, err := svc.List(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.List(context.Background(), "user-1", "kepler-gl")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "kepler-gl", filtered[0].AppName)
}
