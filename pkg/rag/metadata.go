package rag

import (
	"regexp"

	"github.com/recaplabs/recap/pkg/vector"
)

// Chunk text carries inline tags in two literal forms: "[Speaker:<digits>]"
// and "[HH:MM:SS]". Tags are matched per chunk independently; a tag split
// across a chunk boundary by the overlap window is not detected by either
// side. That is an accepted limitation of the chunking policy.
var (
	speakerTagRe   = regexp.MustCompile(`\[Speaker:(\d+)\]`)
	timestampTagRe = regexp.MustCompile(`\[(\d{2}:\d{2}:\d{2})\]`)
)

// extractMetadata pulls the first speaker and timestamp tags out of a chunk.
// Absent tags leave the corresponding field empty; citation-time defaults
// are applied by the answer path, never here.
func extractMetadata(chunk string) vector.ChunkMetadata {
	var metadata vector.ChunkMetadata

	if m := speakerTagRe.FindStringSubmatch(chunk); m != nil {
		metadata.Speaker = "Speaker " + m[1]
	}

	if m := timestampTagRe.FindStringSubmatch(chunk); m != nil {
		metadata.Timestamp = m[1]
	}

	return metadata
}
