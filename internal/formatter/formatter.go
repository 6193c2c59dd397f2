// package formatter renders sync run reports in various formats (CSV, Markdown, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/likesync/internal/models"
	"github.com/desertthunder/likesync/internal/shared"
	"github.com/desertthunder/likesync/internal/tasks"
)

// ReportFormats lists the accepted values for the sync --report flag.
var ReportFormats = []string{"csv", "markdown", "json"}

// ValidFormat reports whether name is a supported report format.
// "md" is accepted as an alias for "markdown".
func ValidFormat(name string) bool {
	if strings.EqualFold(name, "md") {
		return true
	}
	for _, format := range ReportFormats {
		if strings.EqualFold(name, format) {
			return true
		}
	}
	return false
}

// RenderReport dispatches to the renderer for the named format.
func RenderReport(result *tasks.SyncRunResult, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "csv":
		return ReportToCSV(result)
	case "markdown", "md":
		return ReportToMarkdown(result)
	case "json":
		return ReportToJSON(result)
	default:
		return nil, fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, format)
	}
}

// ReportToCSV renders one row per reconciled track with columns:
// SpotifyID, Track, AddedAt, Outcome, MatchedTrack, LikeKey, Error
func ReportToCSV(result *tasks.SyncRunResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"SpotifyID", "Track", "AddedAt", "Outcome", "MatchedTrack", "LikeKey", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range result.Results {
		matched, key := candidateColumns(item.Candidate)
		errText := ""
		if item.Err != nil {
			errText = item.Err.Error()
		}

		record := []string{
			item.Track.ID,
			item.Track.Label(),
			models.FormatTimestamp(item.Track.AddedAt),
			item.Outcome.String(),
			matched,
			key,
			errText,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown renders a summary header plus a per-track table.
func ReportToMarkdown(result *tasks.SyncRunResult) ([]byte, error) {
	var buf bytes.Buffer

	title := "Sync Report"
	if result.DryRun {
		title = "Sync Report (dry run)"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))

	buf.WriteString(fmt.Sprintf("**New tracks**: %d\n", result.Total))
	buf.WriteString(fmt.Sprintf("**Liked**: %d\n", result.Liked))
	buf.WriteString(fmt.Sprintf("**Skipped**: %d\n", result.Skipped))
	buf.WriteString(fmt.Sprintf("**Not found**: %d\n", result.NotFound))
	buf.WriteString(fmt.Sprintf("**Failed**: %d\n", result.Failed))
	if !result.Watermark.IsZero() {
		buf.WriteString(fmt.Sprintf("**Watermark**: %s\n", models.FormatTimestamp(result.Watermark)))
	}

	if len(result.Results) == 0 {
		buf.WriteString("\nNothing to do.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("\n| # | Track | Outcome | Match |\n")
	buf.WriteString("|---|-------|---------|-------|\n")
	for i, item := range result.Results {
		matched, key := candidateColumns(item.Candidate)
		if key != "" {
			matched = fmt.Sprintf("%s (`%s`)", matched, key)
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n",
			i+1,
			escapePipes(item.Track.Label()),
			item.Outcome.String(),
			escapePipes(matched),
		))
	}

	return buf.Bytes(), nil
}

// reportJSON is the serialized shape of a sync report.
type reportJSON struct {
	DryRun    bool             `json:"dry_run"`
	Total     int              `json:"total"`
	Liked     int              `json:"liked"`
	Skipped   int              `json:"skipped"`
	NotFound  int              `json:"not_found"`
	Failed    int              `json:"failed"`
	Watermark string           `json:"watermark,omitempty"`
	Tracks    []reportItemJSON `json:"tracks"`
}

type reportItemJSON struct {
	SpotifyID    string `json:"spotify_id"`
	Track        string `json:"track"`
	AddedAt      string `json:"added_at,omitempty"`
	Outcome      string `json:"outcome"`
	MatchedTrack string `json:"matched_track,omitempty"`
	LikeKey      string `json:"like_key,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ReportToJSON renders the report as indented JSON.
func ReportToJSON(result *tasks.SyncRunResult) ([]byte, error) {
	report := reportJSON{
		DryRun:   result.DryRun,
		Total:    result.Total,
		Liked:    result.Liked,
		Skipped:  result.Skipped,
		NotFound: result.NotFound,
		Failed:   result.Failed,
		Tracks:   []reportItemJSON{},
	}
	if !result.Watermark.IsZero() {
		report.Watermark = models.FormatTimestamp(result.Watermark)
	}

	for _, item := range result.Results {
		matched, key := candidateColumns(item.Candidate)
		entry := reportItemJSON{
			SpotifyID:    item.Track.ID,
			Track:        item.Track.Label(),
			Outcome:      item.Outcome.String(),
			MatchedTrack: matched,
			LikeKey:      key,
		}
		if !item.Track.AddedAt.IsZero() {
			entry.AddedAt = models.FormatTimestamp(item.Track.AddedAt)
		}
		if item.Err != nil {
			entry.Error = item.Err.Error()
		}
		report.Tracks = append(report.Tracks, entry)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	return data, nil
}

// WriteReport renders the report and writes it to path with 0644 permissions.
func WriteReport(result *tasks.SyncRunResult, format, path string) error {
	data, err := RenderReport(result, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func candidateColumns(candidate *models.MatchCandidate) (label, key string) {
	if candidate == nil {
		return "", ""
	}
	label = candidate.Label()
	if k := candidate.Key(); k.Valid() {
		key = k.String()
	}
	return label, key
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
