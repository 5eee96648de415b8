package images

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	collyfetcher "github.com/Bharath-2002/Agentic-Jewelry-Intelligence-Framework/internal/fetcher/colly"
)

type fakeGetter struct {
	responses map[string]collyfetcher.Response
	errs      map[string]error
}

func (f *fakeGetter) Get(_ context.Context, url string) (collyfetcher.Response, error) {
	if err, ok := f.errs[url]; ok {
		return collyfetcher.Response{}, err
	}
	if resp, ok := f.responses[url]; ok {
		return resp, nil
	}
	return collyfetcher.Response{StatusCode: 404}, nil
}

type recordingBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newRecordingBlobStore() *recordingBlobStore {
	return &recordingBlobStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (s *recordingBlobStore) PutObject(_ context.Context, path string, contentType string, data io.Reader) (string, error) {
	body, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = body
	s.types[path] = contentType
	return "file:///" + path, nil
}

func TestDownloadStoresImagesUnderStableDir(t *testing.T) {
	t.Parallel()

	getter := &fakeGetter{responses: map[string]collyfetcher.Response{
		"https://gems.example/img/a.jpg": {StatusCode: 200, Body: []byte("jpeg-a"), ContentType: "image/jpeg"},
		"https://gems.example/img/b":     {StatusCode: 200, Body: []byte("png-b"), ContentType: "image/png; charset=binary"},
	}}
	blobs := newRecordingBlobStore()
	store, err := New(getter, blobs, nil)
	require.NoError(t, err)

	sourceURL := "https://gems.example/ring-1"
	dir, count := store.Download(context.Background(), sourceURL, []string{
		"https://gems.example/img/a.jpg",
		"https://gems.example/img/b",
	})
	require.Equal(t, 2, count)
	require.Len(t, dir, 16)
	require.Equal(t, store.DirKey(sourceURL), dir)

	require.Equal(t, []byte("jpeg-a"), blobs.objects[dir+"/01.jpg"])
	require.Equal(t, []byte("png-b"), blobs.objects[dir+"/02.png"])
	require.Equal(t, "image/png", blobs.types[dir+"/02.png"])
}

func TestDownloadSkipsFailuresAndKeepsGoing(t *testing.T) {
	t.Parallel()

	getter := &fakeGetter{
		responses: map[string]collyfetcher.Response{
			"https://gems.example/img/ok.jpg":   {StatusCode: 200, Body: []byte("ok"), ContentType: "image/jpeg"},
			"https://gems.example/img/gone.jpg": {StatusCode: 404},
			"https://gems.example/img/empty":    {StatusCode: 200, Body: nil, ContentType: "image/jpeg"},
		},
		errs: map[string]error{
			"https://gems.example/img/boom.jpg": fmt.Errorf("connection reset"),
		},
	}
	blobs := newRecordingBlobStore()
	store, err := New(getter, blobs, nil)
	require.NoError(t, err)

	dir, count := store.Download(context.Background(), "https://gems.example/ring-2", []string{
		"https://gems.example/img/boom.jpg",
		"https://gems.example/img/gone.jpg",
		"https://gems.example/img/empty",
		"https://gems.example/img/ok.jpg",
	})
	require.Equal(t, 1, count)
	// Sequence numbers follow input order, so the sole success is 04.
	require.Equal(t, []byte("ok"), blobs.objects[dir+"/04.jpg"])
	require.Len(t, blobs.objects, 1)
}

func TestDownloadFallsBackToURLExtension(t *testing.T) {
	t.Parallel()

	getter := &fakeGetter{responses: map[string]collyfetcher.Response{
		"https://gems.example/img/c.webp": {StatusCode: 200, Body: []byte("webp-c"), ContentType: "application/octet-stream"},
		"https://gems.example/img/d.bin":  {StatusCode: 200, Body: []byte("mystery"), ContentType: "application/octet-stream"},
	}}
	blobs := newRecordingBlobStore()
	store, err := New(getter, blobs, nil)
	require.NoError(t, err)

	dir, count := store.Download(context.Background(), "https://gems.example/ring-3", []string{
		"https://gems.example/img/c.webp",
		"https://gems.example/img/d.bin",
	})
	require.Equal(t, 1, count)
	require.Contains(t, blobs.objects, dir+"/01.webp")
}

func TestDownloadStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	getter := &fakeGetter{responses: map[string]collyfetcher.Response{
		"https://gems.example/img/a.jpg": {StatusCode: 200, Body: []byte("a"), ContentType: "image/jpeg"},
	}}
	store, err := New(getter, newRecordingBlobStore(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, count := store.Download(ctx, "https://gems.example/ring-4", []string{"https://gems.example/img/a.jpg"})
	require.Zero(t, count)
}

func TestNewValidatesDependencies(t *testing.T) {
	t.Parallel()

	_, err := New(nil, newRecordingBlobStore(), nil)
	require.Error(t, err)
	_, err = New(&fakeGetter{}, nil, nil)
	require.Error(t, err)
}
