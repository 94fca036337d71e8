package stack

import(
	"errors"
	"fmt"
)

var(
	ErrDirectoryNotFound    = errors.New("directory not found")
	ErrSettingsFileNotFound = errors.New("no print_settings*.json file")
)

// MissingImageWarning is reported, not returned; the image is skipped and
// the load carries on.
type MissingImageWarning struct {
	Path string
}

func (w MissingImageWarning)Error() string {
	return fmt.Sprintf("Warning: Image file not found: %s", w.Path)
}

// EmptyLayerDiscarded is reported when none of a layer's images survived.
type EmptyLayerDiscarded struct {
	SequenceIndex int
}

func (w EmptyLayerDiscarded)Error() string {
	return fmt.Sprintf("Warning: layer %d has no images, discarded", w.SequenceIndex)
}

// UnreadableImageWarning is reported when a file exists but does not decode.
type UnreadableImageWarning struct {
	Path string
	Err  error
}

func (w UnreadableImageWarning)Error() string {
	return fmt.Sprintf("Warning: could not decode '%s': %v", w.Path, w.Err)
}
func (w UnreadableImageWarning)Unwrap() error { return w.Err }
