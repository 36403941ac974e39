package local

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"testing"

	"github.com/bleitz/meditai/storage"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	return s
}

func TestUploadDownload(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t)

	if err := s.Upload(ctx, "clips/a.mp3", strings.NewReader("ID3")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	rc, err := s.Download(ctx, "clips/a.mp3")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "ID3" {
		t.Errorf("unexpected content %q", data)
	}

	ok, err := s.Exists(ctx, "clips/a.mp3")
	if err != nil || !ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
}

func TestDownload_NotFound(t *testing.T) {
	_, err := newStorage(t).Download(context.Background(), "clips/missing.mp3")
	if !stderrors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestKeysCannotEscape(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t)
	if err := s.Upload(ctx, "../../etc/evil", strings.NewReader("x")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	files, _ := s.List(ctx, "")
	if len(files) != 1 || files[0].Path != "etc/evil" {
		t.Errorf("traversal key was not confined: %+v", files)
	}
}

func TestDeleteAndList(t *testing.T) {
	ctx := context.Background()
	s := newStorage(t)
	for _, key := range []string{"clips/b.mp3", "clips/a.mp3", "clips/a.ssml.zst", "other/c.txt"} {
		if err := s.Upload(ctx, key, strings.NewReader(key)); err != nil {
			t.Fatalf("Upload %s: %v", key, err)
		}
	}

	files, err := s.List(ctx, "clips/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 3 || files[0].Path != "clips/a.mp3" || files[0].ContentType != "audio/mpeg" {
		t.Errorf("unexpected listing %+v", files)
	}

	if err := s.Delete(ctx, "clips/a.mp3"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "clips/a.mp3"); err != nil {
		t.Errorf("deleting a missing key must not fail: %v", err)
	}
	if ok, _ := s.Exists(ctx, "clips/a.mp3"); ok {
		t.Error("object still exists after delete")
	}
}

func TestURL(t *testing.T) {
	s := newStorage(t)
	u, err := s.URL(context.Background(), "clips/a.mp3")
	if err != nil || !strings.HasPrefix(u, "file://") || !strings.HasSuffix(u, "/clips/a.mp3") {
		t.Errorf("URL = %q, %v", u, err)
	}
}

func TestFactoryRegistered(t *testing.T) {
	s, err := storage.New(context.Background(), storage.Config{Provider: storage.ProviderLocal, BasePath: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if _, ok := s.(*Storage); !ok {
		t.Errorf("unexpected backend %T", s)
	}
}
