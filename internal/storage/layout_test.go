package storage

import (
	"os"
	"path/filepath"
	"testing"

	"infinitetalk/internal/infra"
)

func TestNewLayoutPrefersMountedVolume(t *testing.T) {
	volume := t.TempDir()
	fallback := t.TempDir()

	l, err := NewLayout(volume, fallback, infra.NewLogger("test"))
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if l.Root != volume {
		t.Fatalf("root = %q, want volume %q", l.Root, volume)
	}
	for _, dir := range []string{l.JobsDir, l.OutputsDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("dir %s not created: %v", dir, err)
		}
	}
	if filepath.Base(l.OutputsDir) != "outputs" {
		t.Fatalf("outputs dir = %q", l.OutputsDir)
	}
}

func TestNewLayoutFallsBackWhenVolumeAbsent(t *testing.T) {
	fallback := t.TempDir()
	missing := filepath.Join(fallback, "does-not-exist")

	l, err := NewLayout(missing, fallback, infra.NewLogger("test"))
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if l.Root != fallback {
		t.Fatalf("root = %q, want fallback %q", l.Root, fallback)
	}
}

func TestNewBucketStoreRequiresEndpoint(t *testing.T) {
	if _, err := NewBucketStore(BucketOptions{Bucket: "b"}); err == nil {
		t.Fatalf("expected error for missing endpoint")
	}
	if _, err := NewBucketStore(BucketOptions{EndpointURL: "https://s3.example.com"}); err == nil {
		t.Fatalf("expected error for missing bucket")
	}
	if _, err := NewBucketStore(BucketOptions{EndpointURL: "://bad", Bucket: "b"}); err == nil {
		t.Fatalf("expected error for malformed endpoint")
	}
}
