// Package store persists recording metadata once a session finalizes.
package store

import "time"

// MetadataStore is consulted by the Recording Session after the encoder
// flushes; failures here don't delete the output file, they surface as an
// EncoderFailure-adjacent error from end().
type MetadataStore interface {
	RecordVideo(filename, divisionID string, at time.Time) (videoID string, err error)
}
