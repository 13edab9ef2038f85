// package formatter renders conversion results and playlist listings for the terminal and exports misses to CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/shared"
)

func serviceName(s string) string {
	if svc, err := models.ParseService(s); err == nil {
		return svc.DisplayName()
	}
	return s
}

// OutcomeMessage describes a terminal outcome in one sentence.
//
// Failures name the service involved and distinguish an expired session from exhausted quota.
func OutcomeMessage(job models.ConversionJob, outcome models.ConversionOutcome) string {
	dest := job.Destination.DisplayName()

	if outcome.Succeeded() {
		msg := fmt.Sprintf("Created %q on %s with %d tracks.", job.PlaylistTitle, dest, outcome.HitCount)
		if outcome.MissCount > 0 {
			msg = fmt.Sprintf("%s %d could not be matched.", msg, outcome.MissCount)
		}
		return msg
	}

	reason := outcome.Reason
	if reason == nil {
		reason = shared.NewFailure(shared.Transient, string(job.Destination), "", 0, nil)
	}
	svc := serviceName(reason.Service)

	var cause string
	switch reason.Kind {
	case shared.Unauthorized:
		cause = fmt.Sprintf("Your %s session has expired. Sign in to %s again and retry.", svc, svc)
	case shared.QuotaExceeded:
		cause = fmt.Sprintf("The %s usage quota has been exceeded. Try again later.", svc)
	case shared.NotFound:
		if outcome.Stage == models.StageSearch {
			cause = fmt.Sprintf("None of the tracks could be found on %s.", dest)
		} else {
			cause = fmt.Sprintf("%s could not find the requested resource.", svc)
		}
	default:
		cause = fmt.Sprintf("%s returned an unexpected error.", svc)
	}

	switch outcome.Status {
	case models.StatusAborted:
		return "Conversion stopped. " + cause
	case models.StatusRolledBack:
		if outcome.Orphaned() {
			return fmt.Sprintf("Adding tracks to %s failed and the new playlist (ID %s) could not be removed; delete it manually. %s",
				dest, outcome.PlaylistID, cause)
		}
		return fmt.Sprintf("Adding tracks to %s failed, so the new playlist was removed. %s", dest, cause)
	}

	switch outcome.Stage {
	case models.StageCreate:
		return fmt.Sprintf("Could not create the playlist on %s. %s", dest, cause)
	case models.StageSearch:
		if reason.Kind == shared.NotFound {
			return cause
		}
		return fmt.Sprintf("Could not search %s. %s", dest, cause)
	default:
		return cause
	}
}

// RenderOutcome writes a styled summary of the outcome followed by the unmatched tracks.
func RenderOutcome(w io.Writer, job models.ConversionJob, outcome models.ConversionOutcome) error {
	var b strings.Builder

	headline := OutcomeMessage(job, outcome)
	if outcome.Succeeded() {
		b.WriteString(styles.ok.Render("✓ " + headline))
	} else {
		b.WriteString(styles.err.Render("✗ " + headline))
	}
	b.WriteString("\n")

	if outcome.Succeeded() || outcome.Status == models.StatusRolledBack {
		b.WriteString(styles.help.Render(fmt.Sprintf("Matched %d of %d tracks", outcome.HitCount, outcome.HitCount+outcome.MissCount)))
		b.WriteString("\n")
	}

	if len(outcome.Misses) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.title.Render("Not found"))
		b.WriteString("\n")
		for _, miss := range outcome.Misses {
			line := fmt.Sprintf("  %d. %s", miss.Index+1, miss.Descriptor)
			if miss.Reason != shared.NotFound {
				line += styles.warn.Render(fmt.Sprintf(" (%s)", miss.Reason))
			}
			b.WriteString(line + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderPlaylists writes a playlist listing as a table.
//
// A non-zero fetchedAt marks the listing as served from cache.
func RenderPlaylists(w io.Writer, svc models.Service, playlists []models.Playlist, fetchedAt time.Time) error {
	header := fmt.Sprintf("%s playlists (%d)", svc.DisplayName(), len(playlists))

	rows := make([][]string, len(playlists))
	for i, p := range playlists {
		rows[i] = []string{p.ID, p.Name, strconv.Itoa(p.TrackCount), visibility(p.Public)}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.help).
		Headers("ID", "NAME", "TRACKS", "VISIBILITY").
		Rows(rows...)

	out := styles.title.Render(header) + "\n" + t.String() + "\n"
	if !fetchedAt.IsZero() {
		out += styles.help.Render(fmt.Sprintf("cached %s, use --refresh to update", fetchedAt.Local().Format(time.DateTime))) + "\n"
	}

	_, err := io.WriteString(w, out)
	return err
}

func visibility(public bool) string {
	if public {
		return "public"
	}
	return "private"
}

// MissesToCSV converts misses to CSV with columns: Position, Title, Artist, Reason
func MissesToCSV(misses []models.Miss) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "Title", "Artist", "Reason"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, miss := range misses {
		record := []string{
			strconv.Itoa(miss.Index + 1),
			miss.Descriptor.Title,
			miss.Descriptor.Artist,
			miss.Reason.String(),
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

// WriteMissesCSV writes misses to path.
func WriteMissesCSV(path string, misses []models.Miss) error {
	data, err := MissesToCSV(misses)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return nil
}
