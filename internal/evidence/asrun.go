// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package evidence

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Fixed-width column widths for an .asrun body line.
const (
	colActual  = 8
	colDur     = 8
	colStatus  = 10
	colType    = 8
	colEventID = 32
)

func ljust(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func formatAsRunLine(actual, dur, status, typ, eventID, notes string) string {
	return ljust(actual, colActual) + " " +
		ljust(dur, colDur) + " " +
		ljust(status, colStatus) + " " +
		ljust(typ, colType) + " " +
		ljust(eventID, colEventID) + " " +
		notes
}

func msToHHMMSS(ms int64) string {
	s := ms / 1000
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

func epochMSToISO8601(epochMS int64) string {
	if epochMS <= 0 {
		return ""
	}
	t := time.UnixMilli(epochMS).UTC()
	return t.Format("2006-01-02T15:04:05.000") + "Z"
}

// AsRunWriter writes the fixed-width .asrun body and its .asrun.jsonl
// companion for one channel's current broadcast day. Only called from one
// goroutine per stream — the evidence server serializes all writes for a
// given stream through its own processing loop.
type AsRunWriter struct {
	channelID       string
	dayStartEpochMS int64

	asrunPath string
	jsonlPath string
	asrunFile *os.File
	jsonlFile *os.File
}

// NewAsRunWriter opens (creating if necessary) today's .asrun and
// .asrun.jsonl files under <asrunDir>/<channelID>/, writing the header
// block on first creation.
func NewAsRunWriter(channelID, asrunDir string, now time.Time) (*AsRunWriter, error) {
	today := now.UTC().Format("2006-01-02")
	dayStart := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)

	base := filepath.Join(asrunDir, channelID)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create asrun dir %s: %w", base, err)
	}

	asrunPath := filepath.Join(base, today+".asrun")
	jsonlPath := filepath.Join(base, today+".asrun.jsonl")

	if info, err := os.Stat(asrunPath); err != nil || info.Size() == 0 {
		header := "# RETROVUE AS-RUN LOG\n" +
			"# CHANNEL: " + channelID + "\n" +
			"# DATE: " + today + "\n" +
			"# OPENED_UTC: " + now.UTC().Format(time.RFC3339) + "\n" +
			"# ASRUN_LOG_ID: " + channelID + "-" + today + "\n" +
			"# VERSION: 2\n"
		f, err := os.OpenFile(asrunPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("create asrun header %s: %w", asrunPath, err)
		}
		if _, err := f.WriteString(header); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return nil, err
		}
		f.Close()
	}

	asrunFile, err := os.OpenFile(asrunPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open asrun %s: %w", asrunPath, err)
	}
	jsonlFile, err := os.OpenFile(jsonlPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		asrunFile.Close()
		return nil, fmt.Errorf("open asrun jsonl %s: %w", jsonlPath, err)
	}

	return &AsRunWriter{
		channelID:       channelID,
		dayStartEpochMS: dayStart.UnixMilli(),
		asrunPath:       asrunPath,
		jsonlPath:       jsonlPath,
		asrunFile:       asrunFile,
		jsonlFile:       jsonlFile,
	}, nil
}

// Close releases the open file descriptors.
func (w *AsRunWriter) Close() error {
	err1 := w.asrunFile.Close()
	err2 := w.jsonlFile.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// DisplayTime converts epoch_ms to a broadcast-day-relative HH:MM:SS.
// Hours may exceed 23 for events crossing midnight.
func (w *AsRunWriter) DisplayTime(epochMS int64) string {
	if epochMS <= 0 {
		return "00:00:00"
	}
	offsetS := (epochMS - w.dayStartEpochMS) / 1000
	if offsetS < 0 {
		return time.UnixMilli(epochMS).UTC().Format("15:04:05")
	}
	h := offsetS / 3600
	m := (offsetS % 3600) / 60
	s := offsetS % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// WriteAndFlush appends one line to each file, then flushes and fsyncs
// both — ACK is only sent to the caller after this returns
// (ACK implies durability).
func (w *AsRunWriter) WriteAndFlush(asrunLine string, jsonlRecord map[string]any) error {
	if _, err := w.asrunFile.WriteString(asrunLine + "\n"); err != nil {
		return fmt.Errorf("write asrun line: %w", err)
	}
	if err := w.asrunFile.Sync(); err != nil {
		return fmt.Errorf("fsync asrun: %w", err)
	}

	encoded, err := json.Marshal(jsonlRecord)
	if err != nil {
		return fmt.Errorf("marshal jsonl record: %w", err)
	}
	if _, err := w.jsonlFile.Write(append(encoded, '\n')); err != nil {
		return fmt.Errorf("write jsonl line: %w", err)
	}
	if err := w.jsonlFile.Sync(); err != nil {
		return fmt.Errorf("fsync jsonl: %w", err)
	}
	return nil
}
