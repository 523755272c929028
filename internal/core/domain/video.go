package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type IndexStatus string

const (
	IndexPending    IndexStatus = "pending"
	IndexProcessing IndexStatus = "processing"
	IndexReady      IndexStatus = "ready"
	IndexFailed     IndexStatus = "failed"
	IndexDeleted    IndexStatus = "deleted"
)

// VideoIndex tracks the indexing lifecycle of one video's transcript.
type VideoIndex struct {
	VideoID      string      `json:"video_id"`
	Namespace    string      `json:"namespace,omitempty"`
	Status       IndexStatus `json:"status"`
	ChunkSize    int         `json:"chunk_size"`
	ChunkOverlap int         `json:"chunk_overlap"`
	NumChunks    int         `json:"num_chunks"`
	Error        string      `json:"error,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// YouTube video ids are exactly 11 characters of letters, digits, hyphen and
// underscore.
var videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ValidateVideoID trims and checks a video id, returning the cleaned id.
func ValidateVideoID(videoID string) (string, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", WrapError(ErrInvalidInput, "validate video id", errors.New("video id is empty"))
	}
	if !videoIDPattern.MatchString(videoID) {
		return "", WrapError(ErrInvalidInput, "validate video id",
			fmt.Errorf("invalid video id %q: must be 11 characters of letters, digits, - or _", videoID))
	}
	return videoID, nil
}
