package store

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGet_RoundTrip(t *testing.T) {
	db := openTestDB(t)

	content := []byte(`{"nd_Main":{}}`)
	digest, err := db.Put(KindScript, "scene.json", content)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if len(digest) != 64 {
		t.Errorf("digest length = %d, want 64", len(digest))
	}

	a, err := db.Get(digest)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if a.Kind != KindScript || a.Name != "scene.json" {
		t.Errorf("artifact = %s %s, want script scene.json", a.Kind, a.Name)
	}
	if string(a.Content) != string(content) {
		t.Errorf("content = %s, want %s", a.Content, content)
	}
	if a.CreatedAt == 0 {
		t.Error("artifact has no creation time")
	}
}

func TestPut_Idempotent(t *testing.T) {
	db := openTestDB(t)

	d1, err := db.Put(KindScript, "first.json", []byte("same"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	d2, err := db.Put(KindScript, "second.json", []byte("same"))
	if err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
	if d1 != d2 {
		t.Errorf("same content produced digests %s and %s", d1, d2)
	}

	a, err := db.Get(d1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if a.Name != "first.json" {
		t.Errorf("name = %s, want the first insert kept", a.Name)
	}
}

func TestGet_PrefixLookup(t *testing.T) {
	db := openTestDB(t)

	digest, err := db.Put(KindDiff, "d.json", []byte("diff content"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	a, err := db.Get(digest[:12])
	if err != nil {
		t.Fatalf("prefix Get failed: %v", err)
	}
	if a.Digest != digest {
		t.Errorf("prefix resolved to %s, want %s", a.Digest, digest)
	}
}

func TestGet_TooShortPrefix(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Get("abc"); err == nil {
		t.Error("three-character prefix did not return an error")
	}
}

func TestGet_NotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Get("0000deadbeef"); err == nil {
		t.Error("unknown digest did not return an error")
	}
}

func TestList_FiltersByKindNewestFirst(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Put(KindScript, "s.json", []byte("script")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := db.Put(KindDiff, "d.json", []byte("diff")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := db.Put(KindMerge, "m.json", []byte("merge")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	all, err := db.List("")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List(\"\") returned %d artifacts, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].CreatedAt < all[i].CreatedAt {
			t.Error("artifacts are not ordered newest first")
		}
	}
	if all[0].Content != nil {
		t.Error("List returned content, want metadata only")
	}

	diffs, err := db.List(KindDiff)
	if err != nil {
		t.Fatalf("List(diff) failed: %v", err)
	}
	if len(diffs) != 1 || diffs[0].Name != "d.json" {
		t.Errorf("List(diff) = %+v, want only d.json", diffs)
	}
}
