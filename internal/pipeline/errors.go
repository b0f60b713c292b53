package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyDocument means normalization and segmentation left no speakable
// text, for example a document that is only images and code blocks.
var ErrEmptyDocument = errors.New("document contains no speakable text")

// SynthesisError reports which chunk failed, so a failure deep into a long
// document can be located without re-reading the whole input.
type SynthesisError struct {
	Chunk int // 1-based
	Total int
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed for chunk %d/%d: %v", e.Chunk, e.Total, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
