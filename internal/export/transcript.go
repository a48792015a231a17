package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cleared-dev/fidash/internal/model"
)

// TranscriptHeader is the CSV header of a chat transcript.
const TranscriptHeader = "timestamp,role,message_id,content"

// MarshalMessage converts a chat Message to a CSV row.
func MarshalMessage(m model.Message) []string {
	return []string{m.CreatedAt.UTC().Format(time.RFC3339), string(m.Role), m.ID, m.Content}
}

// AppendTranscript appends msgs to the CSV file at path, creating it with a header if needed.
func AppendTranscript(path string, msgs []model.Message) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating transcript directory: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(TranscriptHeader, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, m := range msgs {
		if err := cw.Write(MarshalMessage(m)); err != nil {
			return fmt.Errorf("writing message %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}
