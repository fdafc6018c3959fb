package models

import (
	"image"
)

// Slice represents a single 2D image plane of a slice-stack volume
type Slice struct {
	// Image is the decoded plane
	Image image.Image

	// Index is the position of this slice in the sorted sequence
	Index int

	// Filename is the original filename of the slice
	Filename string
}
