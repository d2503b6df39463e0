package features

import "errors"

// Sentinel kinds for feature extraction errors.
var (
	// ErrUndecodable means the upload is not a readable image. This is
	// the only fatal error in the analysis pipeline.
	ErrUndecodable = errors.New("undecodable image")
)
