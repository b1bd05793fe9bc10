package render

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/synthtext/pkg/geom"
)

var ErrInvalidInstance = errors.New("invalid render instance")

// Instance is one successful placement of text onto a background image.
// Text holds one string per word, in the same order as WordBB.
// CharBB holds one quad per non-whitespace character, across all words, in reading order.
type Instance struct {
	Image  *cimg.Image
	CharBB []geom.Quad
	WordBB []geom.Quad
	Text   []string
}

// CharCount returns the number of characters that should have a bounding box
func (i *Instance) CharCount() int {
	n := 0
	for _, w := range i.Text {
		for _, r := range w {
			if !unicode.IsSpace(r) {
				n++
			}
		}
	}
	return n
}

// Validate checks that the image is packed RGB, and that the box counts match the text
func (i *Instance) Validate() error {
	if i.Image == nil || i.Image.Width <= 0 || i.Image.Height <= 0 {
		return fmt.Errorf("%w: no image", ErrInvalidInstance)
	}
	if i.Image.NChan() != 3 {
		return fmt.Errorf("%w: image is not RGB (%v channels)", ErrInvalidInstance, i.Image.NChan())
	}
	if len(i.WordBB) != len(i.Text) {
		return fmt.Errorf("%w: %v word boxes for %v words", ErrInvalidInstance, len(i.WordBB), len(i.Text))
	}
	if nc := i.CharCount(); len(i.CharBB) != nc {
		return fmt.Errorf("%w: %v char boxes for %v characters", ErrInvalidInstance, len(i.CharBB), nc)
	}
	return nil
}
