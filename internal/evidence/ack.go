// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package evidence

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// AckStore tracks the highest durably-committed sequence per
// (channel, playout_session), for cross-stream replay dedup.
type AckStore interface {
	Get(channelID, sessionID string) int64
	Update(channelID, sessionID string, seq int64)
}

// FileAckStore persists acks to <ackDir>/<channel_id>/<session_id>.ack,
// two lines: "acked_sequence=N" and "updated_utc=...Z", written atomically
// via a .ack.tmp file and rename.
type FileAckStore struct {
	dir string
	mu  sync.Mutex
	acks map[string]int64
}

// NewFileAckStore returns an ack store rooted at dir.
func NewFileAckStore(dir string) *FileAckStore {
	return &FileAckStore{dir: dir, acks: map[string]int64{}}
}

func ackKey(channelID, sessionID string) string { return channelID + "/" + sessionID }

func (s *FileAckStore) ackPath(channelID, sessionID string) string {
	return filepath.Join(s.dir, channelID, sessionID+".ack")
}

// Get returns the durable high-water mark, loading from disk on first
// access and caching thereafter.
func (s *FileAckStore) Get(channelID, sessionID string) int64 {
	key := ackKey(channelID, sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.acks[key]; ok {
		return v
	}
	v := s.loadFromDisk(channelID, sessionID)
	s.acks[key] = v
	return v
}

func (s *FileAckStore) loadFromDisk(channelID, sessionID string) int64 {
	f, err := os.Open(s.ackPath(channelID, sessionID))
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if rest, ok := strings.CutPrefix(line, "acked_sequence="); ok {
			if n, err := strconv.ParseInt(rest, 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

// Update advances the durable high-water mark if seq is newer, persisting
// via write-tmp-then-rename so a crash mid-write never corrupts the file
// readers observe.
func (s *FileAckStore) Update(channelID, sessionID string, seq int64) {
	key := ackKey(channelID, sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.acks[key]
	if seq <= current {
		return
	}
	s.acks[key] = seq
	s.persistToDisk(channelID, sessionID, seq)
}

func (s *FileAckStore) persistToDisk(channelID, sessionID string, seq int64) {
	path := s.ackPath(channelID, sessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	nowUTC := time.Now().UTC().Format("2006-01-02T15:04:05.000") + "Z"
	content := fmt.Sprintf("acked_sequence=%d\nupdated_utc=%s\n", seq, nowUTC)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, path)
}
