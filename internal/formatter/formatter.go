// package formatter renders stored credentials and rendered badges for the CLI (CSV, JSON, plain text, files)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/tasks"
)

// Credential states shown in listings.
const (
	StatusValid      = "valid"
	StatusRefreshDue = "refresh due"
)

// CredentialStatus reports whether the credential's access token is still usable at now.
func CredentialStatus(c *models.Credential, now time.Time) string {
	if c.Expired(now) {
		return StatusRefreshDue
	}
	return StatusValid
}

// credentialRecord is the listing view of a credential; tokens are masked.
type credentialRecord struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Status       string    `json:"status"`
}

func record(c *models.Credential, now time.Time) credentialRecord {
	return credentialRecord{
		UserID:       c.UserID,
		AccessToken:  shared.MaskSecret(c.AccessToken),
		RefreshToken: shared.MaskSecret(c.RefreshToken),
		ExpiresAt:    c.ExpiresAt.UTC(),
		Status:       CredentialStatus(c, now),
	}
}

// CredentialRows returns one display row per credential: user, masked access token, expiry, status.
func CredentialRows(creds []*models.Credential, now time.Time) [][]string {
	rows := make([][]string, 0, len(creds))
	for _, c := range creds {
		r := record(c, now)
		rows = append(rows, []string{r.UserID, r.AccessToken, r.ExpiresAt.Format(time.RFC3339), r.Status})
	}
	return rows
}

// CredentialHeaders names the columns of [CredentialRows].
var CredentialHeaders = []string{"User", "Access Token", "Expires At", "Status"}

// CredentialsToCSV converts credentials to CSV with columns: User, Access Token, Expires At, Status
func CredentialsToCSV(creds []*models.Credential, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(CredentialHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range CredentialRows(creds, now) {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// CredentialsToJSON converts credentials to a JSON array with masked tokens.
func CredentialsToJSON(creds []*models.Credential, now time.Time, pretty bool) ([]byte, error) {
	records := make([]credentialRecord, 0, len(creds))
	for _, c := range creds {
		records = append(records, record(c, now))
	}
	return marshal(records, pretty)
}

// CredentialsToText converts credentials to a numbered plain text listing.
func CredentialsToText(creds []*models.Credential, now time.Time) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Users: %d\n\n", len(creds)))
	for i, row := range CredentialRows(creds, now) {
		buf.WriteString(fmt.Sprintf("%d. %s (%s) expires %s\n", i+1, row[0], row[3], row[2]))
	}

	return buf.Bytes(), nil
}

// badgeMetadata describes a rendered badge without its document.
type badgeMetadata struct {
	UserID    string    `json:"user_id"`
	Track     string    `json:"track"`
	Artists   string    `json:"artists,omitempty"`
	TrackURI  string    `json:"track_uri,omitempty"`
	Offline   bool      `json:"offline"`
	Degraded  bool      `json:"degraded"`
	Palette   []string  `json:"palette"`
	Rendered  time.Time `json:"rendered_at"`
	SizeBytes int       `json:"size_bytes"`
}

// BadgeToMetadataJSON generates a JSON description of badge (track, palette, degraded flag).
func BadgeToMetadataJSON(userID string, badge *tasks.Badge, rendered time.Time) ([]byte, error) {
	if badge == nil {
		return nil, fmt.Errorf("%w: badge", shared.ErrMissingArgument)
	}

	meta := badgeMetadata{
		UserID:    userID,
		Degraded:  badge.Degraded,
		Palette:   badge.Palette.Hex(),
		Rendered:  rendered.UTC(),
		SizeBytes: len(badge.SVG),
	}
	if t := badge.Track; t != nil {
		meta.Track = t.TrackName
		meta.Artists = t.Artists()
		meta.TrackURI = t.TrackURI
		meta.Offline = t.Offline
	}
	return marshal(meta, true)
}

// BadgeExportResult contains the paths of files created by WriteBadgeExport
type BadgeExportResult struct {
	BadgeFile    string
	MetadataFile string
}

// WriteBadgeExport writes the badge document and a metadata JSON file next to it.
//
// Defaults to the user id as the base filename & creates {base}.svg and {base}_metadata.json
func WriteBadgeExport(userID string, badge *tasks.Badge, basePath string, rendered time.Time) (*BadgeExportResult, error) {
	if badge == nil {
		return nil, fmt.Errorf("%w: badge", shared.ErrMissingArgument)
	}
	if basePath == "" {
		basePath = userID
	}
	basePath = strings.TrimSuffix(basePath, filepath.Ext(basePath))

	if dir := filepath.Dir(basePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	badgeFile := basePath + ".svg"
	if err := os.WriteFile(badgeFile, badge.SVG, 0644); err != nil {
		return nil, fmt.Errorf("failed to write badge file: %w", err)
	}

	metadataJSON, err := BadgeToMetadataJSON(userID, badge, rendered)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := basePath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &BadgeExportResult{BadgeFile: badgeFile, MetadataFile: metadataFile}, nil
}

// marshal encodes v without HTML escaping so track and artist names stay readable.
func marshal(v any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
