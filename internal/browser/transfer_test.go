package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore/memstore"
	"github.com/koustreak/s3nav/internal/objpath"
	"github.com/koustreak/s3nav/internal/transcode"
)

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a/b/report.CSV":     "text/csv",
		"data.json":          "application/json",
		"photo.JPeG":         "image/jpeg",
		"table.parquet":      "application/vnd.apache.parquet",
		"logs/app.log.gz":    "application/gzip",
		"config.yml":         "application/x-yaml",
		"no-extension":       DefaultContentType,
		"weird.unknownext":   DefaultContentType,
		"folder/":            DefaultContentType,
		"dotted.dir/readme":  DefaultContentType,
		"dotted.dir/read.md": "text/markdown",
	}
	for key, want := range tests {
		assert.Equal(t, want, ContentType(key), key)
	}
}

func TestPutAndGetBytes(t *testing.T) {
	h := activeHarness(t)
	h.mem.CreateBucket("b")
	ctx := context.Background()

	require.NoError(t, h.client.PutBytes(ctx, "b", "reports/q1.csv", []byte("a,b\n1,2\n")))

	data, err := h.client.GetBytes(ctx, "b", "reports/q1.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))

	meta, err := h.client.Metadata(ctx, "b", "reports/q1.csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", meta.ContentType)

	_, err = h.client.GetBytes(ctx, "b", "missing")
	assert.True(t, errs.IsNotFound(err))
}

func TestTextThroughClient(t *testing.T) {
	h := activeHarness(t)
	h.mem.CreateBucket("b")
	ctx := context.Background()
	text := transcode.NewText(h.client)

	require.NoError(t, text.Write(ctx, "b", "events.json.gz", `{"ok":true}`))

	raw, err := h.client.GetBytes(ctx, "b", "events.json.gz")
	require.NoError(t, err)
	assert.NotEqual(t, `{"ok":true}`, string(raw))

	got, err := text.Read(ctx, "b", "events.json.gz")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, got)
}

func TestCreateFolder(t *testing.T) {
	h := activeHarness(t)
	h.mem.CreateBucket("b")
	ctx := context.Background()

	key, err := h.client.CreateFolder(ctx, "b", "reports/2024")
	require.NoError(t, err)
	assert.Equal(t, "reports/2024/", key)
	assert.Equal(t, []string{"reports/2024/"}, h.mem.Keys("b"))

	page, err := h.client.ListObjects(ctx, "b", ListOptions{Prefix: "reports/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/2024/"}, keysOf(page.Folders))

	_, err = h.client.CreateFolder(ctx, "b", "")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestRenameFile(t *testing.T) {
	h := activeHarness(t)
	h.mem.Seed("b", "old.txt", []byte("body"))
	ctx := context.Background()

	require.NoError(t, h.client.RenameFile(ctx, "b", "old.txt", "new.txt"))
	assert.Equal(t, []string{"new.txt"}, h.mem.Keys("b"))

	data, err := h.client.GetBytes(ctx, "b", "new.txt")
	require.NoError(t, err)
	assert.Equal(t, "body", string(data))
}

func TestRenameFile_CopyFailureLeavesSource(t *testing.T) {
	h := activeHarness(t)
	h.mem.Seed("b", "old.txt", []byte("body"))
	h.mem.FailOn(memstore.OpCopy, "", errs.New(errs.ErrKindPermissionDenied, "AccessDenied"))

	err := h.client.RenameFile(context.Background(), "b", "old.txt", "new.txt")
	assert.True(t, errs.IsPermissionDenied(err))
	assert.Equal(t, []string{"old.txt"}, h.mem.Keys("b"))
	assert.Zero(t, h.mem.CallCount(memstore.OpDelete))
}

func TestRenameFile_DeleteFailureReported(t *testing.T) {
	h := activeHarness(t)
	h.mem.Seed("b", "old.txt", []byte("body"))
	h.mem.FailOn(memstore.OpDelete, "old.txt", errs.New(errs.ErrKindPermissionDenied, "AccessDenied"))

	err := h.client.RenameFile(context.Background(), "b", "old.txt", "new.txt")
	require.Error(t, err)
	assert.True(t, errs.IsPermissionDenied(err))
	assert.Equal(t, []string{"new.txt", "old.txt"}, h.mem.Keys("b"))
}

func TestCopyFile(t *testing.T) {
	h := activeHarness(t)
	h.mem.Seed("src", "a/file.bin", []byte{1, 2, 3})
	h.mem.CreateBucket("dst")
	ctx := context.Background()

	src := objpath.Location{Bucket: "src", Key: "a/file.bin"}
	require.NoError(t, h.client.CopyFile(ctx, src, objpath.Location{Bucket: "dst", Key: "copy.bin"}))
	assert.Equal(t, []string{"a/file.bin"}, h.mem.Keys("src"))
	assert.Equal(t, []string{"copy.bin"}, h.mem.Keys("dst"))

	err := h.client.CopyFile(ctx, src, src)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestUploadFiles(t *testing.T) {
	h := activeHarness(t)
	h.mem.CreateBucket("b")
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	j := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(a, []byte("alpha"), 0o600))
	require.NoError(t, os.WriteFile(j, []byte(`{}`), 0o600))
	missing := filepath.Join(dir, "missing.txt")

	var calls []progressCall
	out, err := h.client.UploadFiles(context.Background(), "b", "up", []string{a, missing, j}, func(done, total int) {
		calls = append(calls, progressCall{done, total})
	})
	require.NoError(t, err)

	assert.Equal(t, 2, out.UploadedCount)
	assert.Equal(t, 1, out.FailedCount)
	assert.False(t, out.Success)
	assert.Equal(t, []progressCall{{1, 3}, {2, 3}, {3, 3}}, calls)
	assert.Equal(t, []string{"up/a.txt", "up/b.json"}, h.mem.Keys("b"))
	assert.Equal(t, "up/missing.txt", out.Results[1].Key)
	assert.False(t, out.Results[1].Success)

	meta, err := h.client.Metadata(context.Background(), "b", "up/b.json")
	require.NoError(t, err)
	assert.Equal(t, "application/json", meta.ContentType)
	assert.EqualValues(t, 2, meta.Size)
}

func TestUploadFiles_Cancelled(t *testing.T) {
	h := activeHarness(t)
	h.mem.CreateBucket("b")
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(a, []byte("alpha"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := h.client.UploadFiles(ctx, "b", "", []string{a}, nil)
	require.NoError(t, err)
	assert.True(t, out.Aborted)
	assert.False(t, out.Success)
	assert.Zero(t, h.mem.CallCount(memstore.OpPut))
}

func TestDownloadFile(t *testing.T) {
	h := activeHarness(t)
	h.mem.Seed("b", "dir/report.csv", []byte("x,y\n"))
	dir := t.TempDir()

	path, n, err := h.client.DownloadFile(context.Background(), "b", "dir/report.csv", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.csv"), path)
	assert.EqualValues(t, 4, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x,y\n", string(data))

	_, _, err = h.client.DownloadFile(context.Background(), "b", "dir/missing.csv", dir)
	assert.True(t, errs.IsNotFound(err))
	_, statErr := os.Stat(filepath.Join(dir, "missing.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestMetadata(t *testing.T) {
	h := activeHarness(t)
	h.mem.Seed("b", "k.txt", []byte("hello"))
	h.mem.SetTags("b", "k.txt", map[string]string{"team": "core"})

	meta, err := h.client.Metadata(context.Background(), "b", "k.txt")
	require.NoError(t, err)
	assert.Equal(t, "k.txt", meta.Key)
	assert.EqualValues(t, 5, meta.Size)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", meta.ETag)
	assert.Equal(t, map[string]string{"team": "core"}, meta.Tags)
	assert.NotNil(t, meta.UserMetadata)
}

func TestMetadata_TagsDeniedStillSucceeds(t *testing.T) {
	h := activeHarness(t)
	h.mem.Seed("b", "k.txt", []byte("hello"))
	h.mem.FailOn(memstore.OpTags, "", errs.New(errs.ErrKindPermissionDenied, "AccessDenied"))

	meta, err := h.client.Metadata(context.Background(), "b", "k.txt")
	require.NoError(t, err)
	assert.Empty(t, meta.Tags)
	assert.NotNil(t, meta.Tags)
}

func TestMetadata_MissingKey(t *testing.T) {
	h := activeHarness(t)
	h.mem.CreateBucket("b")
	_, err := h.client.Metadata(context.Background(), "b", "nope")
	assert.True(t, errs.IsNotFound(err))
}

func TestWhoAmI_UnsupportedStore(t *testing.T) {
	h := activeHarness(t)
	_, err := h.client.WhoAmI(context.Background())
	assert.True(t, errs.IsInvalidInput(err))
}
