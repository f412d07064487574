package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/himanishpuri/RiffScout/pkg/apperr"
	"github.com/himanishpuri/RiffScout/pkg/models"
)

// Helper function to create a temporary test database
func setupTestDB(t *testing.T) (*DBClient, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_riffscout.sqlite3")
	client, err := NewDBClientWithPath(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test DB client: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client, dbPath
}

func strPtr(s string) *string { return &s }

func TestNewDBClientWithPath(t *testing.T) {
	client, dbPath := setupTestDB(t)

	if client.DB == nil || client.db == nil {
		t.Fatal("Expected non-nil database handles")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at %s", dbPath)
	}
}

func TestNewDBClientCreatesParentDir(t *testing.T) {
	customPath := filepath.Join(t.TempDir(), "subdir", "custom.db")
	client, err := NewDBClientWithPath(customPath)
	if err != nil {
		t.Fatalf("Failed to create DB with custom path: %v", err)
	}
	defer client.Close()

	if _, err := os.Stat(customPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at custom path %s", customPath)
	}
}

func TestCreateVideoDuplicateID(t *testing.T) {
	client, _ := setupTestDB(t)

	if _, err := client.CreateVideo(&Video{ID: "dup", Title: "First"}); err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}
	_, err := client.CreateVideo(&Video{ID: "dup", Title: "Second"})
	if !errors.Is(err, apperr.ErrDocumentExists) {
		t.Fatalf("expected ErrDocumentExists, got %v", err)
	}

	v, err := client.GetVideo("dup")
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if v.Title != "First" {
		t.Errorf("duplicate insert overwrote the document: %+v", v)
	}
}

func TestCreateAndGetVideo(t *testing.T) {
	client, _ := setupTestDB(t)

	id, err := client.CreateVideo(&Video{
		Title:      "Wonderwall",
		Artist:     "Oasis",
		YouTubeID:  "bx1Bh8ZvH84",
		MP3URL:     "http://localhost:8080/media/x.mp3",
		DurationMs: 258000,
	})
	if err != nil {
		t.Fatalf("CreateVideo failed: %v", err)
	}
	if id == "" {
		t.Fatal("Expected generated ID")
	}

	v, err := client.GetVideo(id)
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if v.Title != "Wonderwall" || v.Artist != "Oasis" || v.MP3URL == "" || v.DurationMs != 258000 {
		t.Errorf("unexpected video: %+v", v)
	}
	if v.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if v.UpdatedAt != nil {
		t.Error("UpdatedAt should stay empty until resources are applied")
	}
	if v.GuitarproURL != nil {
		t.Error("GuitarproURL should be NULL")
	}
}

func TestCreateVideoKeepsExplicitID(t *testing.T) {
	client, _ := setupTestDB(t)

	id, err := client.CreateVideo(&Video{ID: "doc-123", Title: "Blackbird"})
	if err != nil {
		t.Fatal(err)
	}
	if id != "doc-123" {
		t.Errorf("expected doc-123, got %s", id)
	}

	if _, err := client.CreateVideo(&Video{ID: "doc-123", Title: "Other"}); err == nil {
		t.Error("duplicate ID should be rejected")
	}
}

func TestGetVideoNotFound(t *testing.T) {
	client, _ := setupTestDB(t)

	_, err := client.GetVideo("missing")
	if !errors.Is(err, apperr.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestApplyResources(t *testing.T) {
	client, _ := setupTestDB(t)

	id, err := client.CreateVideo(&Video{Title: "Wonderwall", Artist: "Oasis", MP3URL: "http://x/a.mp3"})
	if err != nil {
		t.Fatal(err)
	}

	update := models.ResourceUpdate{
		Tabs: []models.Tab{{Difficulty: "intermediate", Rating: "4.8/5", Title: "Wonderwall Chords", Type: "chords", URL: "https://tabs.example/1"}},
		Tutorials: []models.StoredTutorial{{
			ChannelName: "Marty Music", Title: "Lesson", URL: "https://youtu.be/bx1Bh8ZvH84",
			ViewCount: "5M views", YouTubeID: "bx1Bh8ZvH84", IsBestMatch: true,
		}},
		GuitarproURL: strPtr("https://tabs.example/gp"),
	}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := client.ApplyResources(id, update, at); err != nil {
		t.Fatalf("ApplyResources failed: %v", err)
	}

	v, err := client.GetVideo(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Tabs) != 1 || v.Tabs[0] != update.Tabs[0] {
		t.Errorf("tabs not persisted: %+v", v.Tabs)
	}
	if len(v.Tutorials) != 1 || v.Tutorials[0] != update.Tutorials[0] {
		t.Errorf("tutorials not persisted: %+v", v.Tutorials)
	}
	if v.GuitarproURL == nil || *v.GuitarproURL != "https://tabs.example/gp" {
		t.Errorf("guitarpro url not persisted: %v", v.GuitarproURL)
	}
	if v.UpdatedAt == nil || !v.UpdatedAt.Equal(at) {
		t.Errorf("expected UpdatedAt %v, got %v", at, v.UpdatedAt)
	}
	// untouched columns
	if v.Title != "Wonderwall" || v.Artist != "Oasis" || v.MP3URL != "http://x/a.mp3" {
		t.Errorf("partial update clobbered other fields: %+v", v)
	}
}

func TestApplyResourcesIsIdempotent(t *testing.T) {
	client, _ := setupTestDB(t)

	id, err := client.CreateVideo(&Video{Title: "Blackbird"})
	if err != nil {
		t.Fatal(err)
	}
	update := models.ResourceUpdate{
		Tabs:      []models.Tab{{URL: "https://tabs.example/1"}},
		Tutorials: []models.StoredTutorial{{URL: "https://youtu.be/abcdefghijk"}},
	}
	for i := 0; i < 3; i++ {
		if err := client.ApplyResources(id, update, time.Now()); err != nil {
			t.Fatal(err)
		}
	}

	v, err := client.GetVideo(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Tabs) != 1 || len(v.Tutorials) != 1 {
		t.Errorf("arrays grew on repeated writes: %d tabs, %d tutorials", len(v.Tabs), len(v.Tutorials))
	}
}

func TestApplyResourcesClearsGuitarpro(t *testing.T) {
	client, _ := setupTestDB(t)

	id, _ := client.CreateVideo(&Video{Title: "x"})
	if err := client.ApplyResources(id, models.ResourceUpdate{GuitarproURL: strPtr("https://gp")}, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := client.ApplyResources(id, models.ResourceUpdate{}, time.Now()); err != nil {
		t.Fatal(err)
	}
	v, _ := client.GetVideo(id)
	if v.GuitarproURL != nil {
		t.Errorf("expected NULL guitarpro url, got %q", *v.GuitarproURL)
	}
	if v.Tabs == nil || len(v.Tabs) != 0 {
		t.Errorf("expected empty tabs, got %#v", v.Tabs)
	}
}

func TestApplyResourcesMissingVideo(t *testing.T) {
	client, _ := setupTestDB(t)

	err := client.ApplyResources("missing", models.ResourceUpdate{}, time.Now())
	if !errors.Is(err, apperr.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
	if n, _ := client.CountVideos(); n != 0 {
		t.Errorf("update must not create documents, found %d", n)
	}
}

func TestListAndDeleteVideos(t *testing.T) {
	client, _ := setupTestDB(t)

	for _, title := range []string{"one", "two", "three"} {
		if _, err := client.CreateVideo(&Video{Title: title}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	all, err := client.ListVideos(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 videos, got %d", len(all))
	}
	if all[0].Title != "three" {
		t.Errorf("expected newest first, got %s", all[0].Title)
	}

	page, err := client.ListVideos(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].Title != "two" {
		t.Errorf("unexpected page: %+v", page)
	}

	if err := client.DeleteVideo(all[0].ID); err != nil {
		t.Fatalf("DeleteVideo failed: %v", err)
	}
	if n, _ := client.CountVideos(); n != 2 {
		t.Errorf("expected 2 videos after delete, got %d", n)
	}
	if err := client.DeleteVideo(all[0].ID); !errors.Is(err, apperr.ErrDocumentNotFound) {
		t.Errorf("second delete should report not found, got %v", err)
	}
}

func TestNilClient(t *testing.T) {
	var client *DBClient
	if _, err := client.GetVideo("x"); err == nil {
		t.Error("expected error from nil client")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close on nil client should be a no-op, got %v", err)
	}
}
