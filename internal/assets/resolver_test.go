package assets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"infinitetalk/internal/domain"
	"infinitetalk/internal/infra"
)

func testResolver(t *testing.T, client *http.Client) *Resolver {
	t.Helper()
	return NewResolver(t.TempDir(), client, infra.NewLogger("test"))
}

func TestValidateMissingRoles(t *testing.T) {
	r := testResolver(t, nil)

	cases := []struct {
		name string
		req  Request
		ok   bool
	}{
		{"both missing", Request{}, false},
		{"audio missing", Request{ImageURL: "https://example.com/a.png"}, false},
		{"visual missing", Request{AudioPath: "/data/a.wav"}, false},
		{"paths given", Request{AudioPath: "/data/a.wav", ImagePath: "/data/b.png"}, true},
		{"urls given", Request{AudioURL: "https://example.com/a.wav", ImageURL: "https://example.com/b.png"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := r.Validate(tc.req)
			if tc.ok && err != nil {
				t.Fatalf("validate: %v", err)
			}
			if !tc.ok && !errors.Is(err, domain.ErrMissingInput) {
				t.Fatalf("err = %v, want ErrMissingInput", err)
			}
		})
	}
}

func TestKindForSource(t *testing.T) {
	cases := []struct {
		source string
		want   domain.MediaKind
	}{
		{"https://cdn.example.com/clip.webm", domain.MediaKindVideo},
		{"https://cdn.example.com/clip.MP4", domain.MediaKindVideo},
		{"https://cdn.example.com/clip.mov?token=abc", domain.MediaKindVideo},
		{"/data/in.avi", domain.MediaKindVideo},
		{"https://cdn.example.com/face.png", domain.MediaKindImage},
		{"/data/portrait.JPEG", domain.MediaKindImage},
		{"https://cdn.example.com/no-extension", domain.MediaKindImage},
		{"weird.xyz", domain.MediaKindImage},
	}
	for _, tc := range cases {
		if got := KindForSource(tc.source); got != tc.want {
			t.Errorf("KindForSource(%q) = %q, want %q", tc.source, got, tc.want)
		}
	}
}

func TestResolveDownloadsRemoteInputs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/voice.wav":
			_, _ = w.Write([]byte("RIFFaudio"))
		case "/face.png":
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		default:
			http.NotFound(w, req)
		}
	}))
	defer srv.Close()

	r := testResolver(t, srv.Client())
	got, err := r.Resolve(context.Background(), "job-1", Request{
		AudioURL: srv.URL + "/voice.wav",
		ImageURL: srv.URL + "/face.png",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if filepath.Base(got.AudioPath) != "job-1_audio.wav" {
		t.Fatalf("audio path = %q", got.AudioPath)
	}
	if filepath.Base(got.VisualPath) != "job-1_input.jpg" {
		t.Fatalf("visual path = %q", got.VisualPath)
	}
	if got.VisualKind != domain.MediaKindImage {
		t.Fatalf("kind = %q, want image", got.VisualKind)
	}
	data, err := os.ReadFile(got.AudioPath)
	if err != nil {
		t.Fatalf("read audio: %v", err)
	}
	if string(data) != "RIFFaudio" {
		t.Fatalf("audio bytes = %q", data)
	}
}

func TestResolveKeepsVideoExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte("bytes"))
	}))
	defer srv.Close()

	r := testResolver(t, srv.Client())
	got, err := r.Resolve(context.Background(), "job-2", Request{
		AudioPath: "/data/a.wav",
		ImageURL:  srv.URL + "/clip.webm",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.VisualKind != domain.MediaKindVideo {
		t.Fatalf("kind = %q, want video", got.VisualKind)
	}
	if filepath.Base(got.VisualPath) != "job-2_input.webm" {
		t.Fatalf("visual path = %q", got.VisualPath)
	}
	if got.AudioPath != "/data/a.wav" {
		t.Fatalf("audio path = %q, want passthrough", got.AudioPath)
	}
}

func TestResolveFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	r := testResolver(t, srv.Client())
	_, err := r.Resolve(context.Background(), "job-3", Request{
		AudioURL:  srv.URL + "/voice.wav",
		ImagePath: "/data/b.png",
	})
	if !errors.Is(err, domain.ErrDownloadFailed) {
		t.Fatalf("err = %v, want ErrDownloadFailed", err)
	}
}
