package attachment

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
	"github.com/furkanakkurt/taskmanager/internal/database"
	"github.com/furkanakkurt/taskmanager/internal/models"
	"github.com/furkanakkurt/taskmanager/internal/testutil"
)

const owner = "alice"

// ============================================================================
// TEST HELPERS
// ============================================================================

// failingRepo forces record writes to fail
type failingRepo struct {
	*database.Repository
	createErr error
	deleteErr error
}

func (r *failingRepo) CreateAttachment(ctx context.Context, a models.TaskAttachment) (models.TaskAttachment, error) {
	if r.createErr != nil {
		return models.TaskAttachment{}, r.createErr
	}
	return r.Repository.CreateAttachment(ctx, a)
}

func (r *failingRepo) DeleteAttachment(ctx context.Context, id, ownerID string) (models.TaskAttachment, error) {
	if r.deleteErr != nil {
		return models.TaskAttachment{}, r.deleteErr
	}
	return r.Repository.DeleteAttachment(ctx, id, ownerID)
}

type fixture struct {
	svc   Service
	repo  *failingRepo
	store *testutil.FakeBlobStore
	task  models.Task
}

func setup(t *testing.T, cfg Config) fixture {
	t.Helper()
	clock := testutil.NewFakeClock()
	repo := &failingRepo{Repository: testutil.SetupTestRepo(t, database.WithClock(clock.Now))}
	store := testutil.NewFakeBlobStore()

	svc, err := NewService(repo, store, cfg, nil)
	require.NoError(t, err)

	task, err := repo.CreateTask(context.Background(), models.Task{
		Title: "Draft plan", Status: models.StatusPending, Priority: models.PriorityMedium, UserID: owner,
	})
	require.NoError(t, err)

	return fixture{svc: svc, repo: repo, store: store, task: task}
}

func upload(name, body string, taskID string) UploadRequest {
	return UploadRequest{
		OwnerID:  owner,
		TaskID:   taskID,
		FileName: name,
		Size:     int64(len(body)),
		Body:     strings.NewReader(body),
	}
}

// ============================================================================
// UPLOAD
// ============================================================================

func TestUpload(t *testing.T) {
	t.Parallel()
	f := setup(t, Config{})

	a, err := f.svc.Upload(context.Background(), upload("Meeting Notes.TXT", "hello world", f.task.ID))
	require.NoError(t, err)

	wantPath := owner + "/" + f.task.ID + "/meeting-notes.txt"
	assert.Equal(t, wantPath, a.FilePath)
	assert.Equal(t, "Meeting Notes.TXT", a.FileName)
	assert.Equal(t, int64(11), a.FileSize)
	assert.Equal(t, "text/plain; charset=utf-8", a.FileType)
	assert.Equal(t, "https://blobs.test/signed/"+wantPath+"?ttl=3600", a.URL)

	data, contentType, ok := f.store.Content(wantPath)
	require.True(t, ok)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, a.FileType, contentType)
}

func TestUploadKeepsDeclaredContentType(t *testing.T) {
	t.Parallel()
	f := setup(t, Config{})

	req := upload("report.pdf", "%PDF-1.4 fake", f.task.ID)
	req.ContentType = "application/pdf"
	a, err := f.svc.Upload(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", a.FileType)
}

func TestUploadSizeCeiling(t *testing.T) {
	t.Parallel()
	f := setup(t, Config{MaxUploadBytes: 8})
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, upload("big.txt", "123456789", f.task.ID))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	// A body longer than it claims is cut off at the ceiling
	lying := upload("big.txt", "123456789", f.task.ID)
	lying.Size = 4
	_, err = f.svc.Upload(ctx, lying)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	puts, _ := f.store.Calls()
	assert.Zero(t, puts, "nothing is stored for rejected uploads")
}

func TestUploadRejectsBeforeAnyRemoteCall(t *testing.T) {
	t.Parallel()
	f := setup(t, Config{MaxUploadBytes: 8})

	tests := []struct {
		name string
		req  UploadRequest
		want error
	}{
		{"missing owner", UploadRequest{TaskID: f.task.ID, FileName: "a.txt", Body: strings.NewReader("x")}, ErrOwnerRequired},
		{"bad task id", UploadRequest{OwnerID: owner, TaskID: "1", FileName: "a.txt", Body: strings.NewReader("x")}, ErrInvalidTaskID},
		{"empty name", UploadRequest{OwnerID: owner, TaskID: f.task.ID, FileName: " ", Body: strings.NewReader("x")}, ErrEmptyFileName},
		{"no body", UploadRequest{OwnerID: owner, TaskID: f.task.ID, FileName: "a.txt"}, ErrMissingBody},
		{"empty body", upload("a.txt", "", f.task.ID), ErrEmptyFile},
		{"declared too large", UploadRequest{OwnerID: owner, TaskID: f.task.ID, FileName: "a.txt", Size: 9, Body: strings.NewReader("x")}, ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Upload(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	puts, removes := f.store.Calls()
	assert.Zero(t, puts)
	assert.Zero(t, removes)
}

func TestUploadSizeMismatch(t *testing.T) {
	t.Parallel()
	f := setup(t, Config{})

	req := upload("a.txt", "abc", f.task.ID)
	req.Size = 5
	_, err := f.svc.Upload(context.Background(), req)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestUploadUnknownTask(t *testing.T) {
	t.Parallel()
	f := setup(t, Config{})

	_, err := f.svc.Upload(context.Background(), upload("a.txt", "abc", "00000000-0000-4000-8000-999999999999"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Zero(t, f.store.Len())
}

func TestUploadBlobFailure(t *testing.T) {
	t.Parallel()
	f := setup(t, Config{})
	f.store.PutErr = errors.New("bucket unavailable")

	_, err := f.svc.Upload(context.Background(), upload("a.txt", "abc", f.task.ID))
	assert.ErrorIs(t, err, apperr.ErrAccess)

	list, err := f.repo.ListAttachments(context.Background(), f.task.ID, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// A failed record insert either leaves no blob behind or reports the leak
func TestUploadRecordFailure(t *testing.T) {
	t.Parallel()

	t.Run("blob removed", func(t *testing.T) {
		f := setup(t, Config{})
		f.repo.createErr = apperr.Access("create attachment", errors.New("insert rejected"))

		_, err := f.svc.Upload(context.Background(), upload("a.txt", "abc", f.task.ID))
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrAccess)
		assert.NotErrorIs(t, err, apperr.ErrPartial)

		ok, _ := f.store.Exists(context.Background(), owner+"/"+f.task.ID+"/a.txt")
		assert.False(t, ok)
	})

	t.Run("blob leaked", func(t *testing.T) {
		f := setup(t, Config{})
		f.repo.createErr = apperr.Access("create attachment", errors.New("insert rejected"))
		f.store.RemoveErr = errors.New("remove timed out")

		_, err := f.svc.Upload(context.Background(), upload("a.txt", "abc", f.task.ID))

		var partial *apperr.PartialError
		require.ErrorAs(t, err, &partial)
		assert.True(t, partial.BlobLeaked)
		assert.Equal(t, owner+"/"+f.task.ID+"/a.txt", partial.Path)
		assert.Equal(t, apperr.KindPartial, apperr.KindOf(err))

		ok, _ := f.store.Exists(context.Background(), partial.Path)
		assert.True(t, ok, "the leaked blob is still at the reported path")
	})
}

func TestUploadSameNameOverwrites(t *testing.T) {
	t.Parallel()
	f := setup(t, Config{})
	ctx := context.Background()

	first, err := f.svc.Upload(ctx, upload("a.txt", "one", f.task.ID))
	require.NoError(t, err)

	// A failed second upload must not remove the blob the first record uses
	f.repo.createErr = apperr.Access("create attachment", errors.New("insert rejected"))
	_, err = f.svc.Upload(ctx, upload("a.txt", "two", f.task.ID))
	require.Error(t, err)
	ok, _ := f.store.Exists(ctx, first.FilePath)
	assert.True(t, ok)

	f.repo.createErr = nil
	second, err := f.svc.Upload(ctx, upload("a.txt", "three", f.task.ID))
	require.NoError(t, err)
	assert.Equal(t, first.FilePath, second.FilePath)

	data, _, _ := f.store.Content(first.FilePath)
	assert.Equal(t, "three", string(data))
}

// ============================================================================
// LIST / URL
// ============================================================================

func TestListAttachmentsNewestFirst(t *testing.T) {
	t.Parallel()
	f := setup(t, Config{URLMode: URLPublic})
	ctx := context.Background()

	a, err := f.svc.Upload(ctx, upload("a.txt", "a", f.task.ID))
	require.NoError(t, err)
	b, err := f.svc.Upload(ctx, upload("b.txt", "b", f.task.ID))
	require.NoError(t, err)

	list, err := f.svc.ListAttachments(ctx, f.task.ID, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
	assert.Equal(t, "https://blobs.test/public/"+b.FilePath, list[0].URL)

	other, err := f.svc.ListAttachments(ctx, f.task.ID, "bob")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestResolveURLIsNotCached(t *testing.T) {
	t.Parallel()
	f := setup(t, Config{})

	first, err := f.svc.ResolveURL(context.Background(), "p/t/a.txt")
	require.NoError(t, err)
	second, err := f.svc.ResolveURL(context.Background(), "p/t/a.txt")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	f.store.SignErr = errors.New("signing disabled")
	_, err = f.svc.ResolveURL(context.Background(), "p/t/a.txt")
	assert.ErrorIs(t, err, apperr.ErrAccess)
}

func TestNewServiceRejectsUnknownURLMode(t *testing.T) {
	t.Parallel()
	_, err := NewService(nil, testutil.NewFakeBlobStore(), Config{URLMode: "cdn"}, nil)
	assert.Error(t, err)
}

// ============================================================================
// DELETE
// ============================================================================

func TestDeleteAttachment(t *testing.T) {
	t.Parallel()
	f := setup(t, Config{})
	ctx := context.Background()

	a, err := f.svc.Upload(ctx, upload("a.txt", "abc", f.task.ID))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteAttachment(ctx, a.ID, "bob"), apperr.ErrNotFound)
	require.NoError(t, f.svc.DeleteAttachment(ctx, a.ID, owner))

	ok, _ := f.store.Exists(ctx, a.FilePath)
	assert.False(t, ok)
	assert.ErrorIs(t, f.svc.DeleteAttachment(ctx, a.ID, owner), apperr.ErrNotFound)
}

func TestDeleteAttachmentBlobFailureKeepsRecord(t *testing.T) {
	t.Parallel()
	f := setup(t, Config{})
	ctx := context.Background()

	a, err := f.svc.Upload(ctx, upload("a.txt", "abc", f.task.ID))
	require.NoError(t, err)
	f.store.RemoveErr = errors.New("remove failed")

	err = f.svc.DeleteAttachment(ctx, a.ID, owner)
	assert.ErrorIs(t, err, apperr.ErrAccess)

	_, err = f.svc.GetAttachment(ctx, a.ID, owner)
	assert.NoError(t, err)
}

func TestDeleteAttachmentRecordFailureIsPartial(t *testing.T) {
	t.Parallel()
	f := setup(t, Config{})
	ctx := context.Background()

	a, err := f.svc.Upload(ctx, upload("a.txt", "abc", f.task.ID))
	require.NoError(t, err)
	f.repo.deleteErr = apperr.Access("delete attachment", io.ErrUnexpectedEOF)

	err = f.svc.DeleteAttachment(ctx, a.ID, owner)
	var partial *apperr.PartialError
	require.ErrorAs(t, err, &partial)
	assert.False(t, partial.BlobLeaked)
	assert.Equal(t, a.FilePath, partial.Path)
}

func TestPurgeTaskAttachments(t *testing.T) {
	t.Parallel()
	f := setup(t, Config{})
	ctx := context.Background()

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		_, err := f.svc.Upload(ctx, upload(name, name, f.task.ID))
		require.NoError(t, err)
	}

	n, err := f.svc.PurgeTaskAttachments(ctx, f.task.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Zero(t, f.store.Len())

	list, err := f.repo.ListAttachments(ctx, f.task.ID, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}
