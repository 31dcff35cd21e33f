// Package model contains domain models passed between layers.
package model

import (
	"encoding/base64"
	"time"
)

// Detection represents one detected sub-image and its similarity score,
// produced by the upstream detection/embedding collaborator. The pipeline
// iteration owns a Detection until it is handed to the leaderboard store or
// the escalation queue.
type Detection struct {
	Image      []byte    // JPEG payload of the cropped sub-image
	Score      float64   // similarity score in [0, 1]
	ZScore     float64   // normalized anomaly score, set once assessed
	CapturedAt time.Time // capture timestamp of the originating frame
}

// Frame groups the detections of a single captured frame.
type Frame struct {
	Detections []Detection
	CapturedAt time.Time
}

// DataURI encodes a JPEG payload as a data-URI string for wire transport.
func DataURI(jpeg []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
}
