package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/tasks"
	th "github.com/desertthunder/nowplaying/internal/testing"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func credentials() []*models.Credential {
	return []*models.Credential{
		{UserID: "alice", AccessToken: "access-alice", RefreshToken: "refresh-alice", ExpiresAt: now.Add(time.Hour)},
		{UserID: "bob", AccessToken: "access-bob", RefreshToken: "refresh-bob", ExpiresAt: now.Add(-time.Minute)},
	}
}

func TestExporters(t *testing.T) {
	t.Run("CredentialsToCSV", func(t *testing.T) {
		data, err := CredentialsToCSV(credentials(), now)
		if err != nil {
			t.Fatalf("CredentialsToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "User,Access Token,Expires At,Status") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "alice,acce********,2025-03-01T13:00:00Z,valid") {
			t.Errorf("CSV missing alice row, got: %s", output)
		}
		if !strings.Contains(output, "bob,acce********,2025-03-01T11:59:00Z,refresh due") {
			t.Errorf("CSV missing bob row, got: %s", output)
		}
		if strings.Contains(output, "access-alice") {
			t.Error("CSV must not contain raw tokens")
		}
	})

	t.Run("CredentialsToJSON", func(t *testing.T) {
		data, err := CredentialsToJSON(credentials(), now, false)
		if err != nil {
			t.Fatalf("CredentialsToJSON failed: %v", err)
		}

		var records []map[string]any
		if err := json.Unmarshal(data, &records); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0]["user_id"] != "alice" || records[1]["status"] != StatusRefreshDue {
			t.Errorf("unexpected records %v", records)
		}
		if strings.Contains(string(data), "refresh-bob") {
			t.Error("JSON must not contain raw tokens")
		}
	})

	t.Run("CredentialsToJSON Keeps Ampersands", func(t *testing.T) {
		creds := []*models.Credential{{UserID: "rock&roll", AccessToken: "a", RefreshToken: "r", ExpiresAt: now.Add(time.Hour)}}

		for _, pretty := range []bool{false, true} {
			data, err := CredentialsToJSON(creds, now, pretty)
			if err != nil {
				t.Fatalf("CredentialsToJSON failed: %v", err)
			}
			if !strings.Contains(string(data), "rock&roll") || strings.Contains(string(data), `\u0026`) {
				t.Errorf("expected unescaped user id, got %s", data)
			}
			if bytes.HasSuffix(data, []byte("\n")) {
				t.Errorf("expected no trailing newline, got %q", data)
			}
		}
	})

	t.Run("CredentialsToText", func(t *testing.T) {
		data, err := CredentialsToText(credentials(), now)
		if err != nil {
			t.Fatalf("CredentialsToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Users: 2") {
			t.Errorf("Text missing user count")
		}
		if !strings.Contains(output, "1. alice (valid)") {
			t.Errorf("Text missing alice, got: %s", output)
		}
		if !strings.Contains(output, "2. bob (refresh due)") {
			t.Errorf("Text missing bob, got: %s", output)
		}
	})

	t.Run("Empty Listing", func(t *testing.T) {
		data, err := CredentialsToJSON(nil, now, false)
		if err != nil {
			t.Fatalf("CredentialsToJSON failed: %v", err)
		}
		if string(data) != "[]" {
			t.Errorf("expected empty array, got %s", data)
		}
	})

	t.Run("CredentialStatus Boundary", func(t *testing.T) {
		c := &models.Credential{UserID: "u", ExpiresAt: now}
		if got := CredentialStatus(c, now); got != StatusRefreshDue {
			t.Errorf("expected expiry at now to be due, got %s", got)
		}
	})
}

func testBadge() *tasks.Badge {
	return &tasks.Badge{
		SVG:     []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`),
		Track:   &models.TrackSnapshot{TrackName: "Song", ArtistNames: []string{"A", "B"}, TrackURI: "spotify:track:1"},
		Palette: models.Palette{{R: 255}, {B: 255}},
	}
}

func TestBadgeToMetadataJSON(t *testing.T) {
	data, err := BadgeToMetadataJSON("alice", testBadge(), now)
	if err != nil {
		t.Fatalf("BadgeToMetadataJSON failed: %v", err)
	}

	output := string(data)
	for _, want := range []string{`"user_id": "alice"`, `"track": "Song"`, `"artists": "A & B"`, `"#ff0000"`, `"#0000ff"`} {
		if !strings.Contains(output, want) {
			t.Errorf("metadata missing %s, got: %s", want, output)
		}
	}

	if _, err := BadgeToMetadataJSON("alice", nil, now); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestWriters(t *testing.T) {
	t.Run("WriteBadgeExport", func(t *testing.T) {
		t.Run("with explicit path", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "out", "badge.svg")

			result, err := WriteBadgeExport("alice", testBadge(), base, now)
			if err != nil {
				t.Fatalf("WriteBadgeExport failed: %v", err)
			}

			if result.BadgeFile != strings.TrimSuffix(base, ".svg")+".svg" {
				t.Errorf("unexpected badge path %s", result.BadgeFile)
			}
			th.AssertFileExists(t, result.BadgeFile)
			th.AssertFileExists(t, result.MetadataFile)

			if content := th.MustReadFile(t, result.BadgeFile); !strings.HasPrefix(content, "<svg") {
				t.Errorf("unexpected badge content %q", content)
			}
			if content := th.MustReadFile(t, result.MetadataFile); !strings.Contains(content, `"track": "Song"`) {
				t.Errorf("unexpected metadata %q", content)
			}
		})

		t.Run("defaults to user id", func(t *testing.T) {
			dir := t.TempDir()
			result, err := WriteBadgeExport("alice", testBadge(), filepath.Join(dir, "alice"), now)
			if err != nil {
				t.Fatalf("WriteBadgeExport failed: %v", err)
			}
			if filepath.Base(result.BadgeFile) != "alice.svg" || filepath.Base(result.MetadataFile) != "alice_metadata.json" {
				t.Errorf("unexpected file names %+v", result)
			}
		})

		t.Run("nil badge", func(t *testing.T) {
			if _, err := WriteBadgeExport("alice", nil, "", now); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})
}
