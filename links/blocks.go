package links

import "github.com/wudi/pdfview/source"

// BlockAt maps a vertical coordinate to the content block whose midpoint
// band contains it. Blocks must be pre-sorted by top coordinate and y must be
// in the same space as the block boxes. The first block matches everything
// above the midpoint between blocks 1 and 2, the last block everything at or
// below the midpoint between the last two, and interior blocks the band
// between their neighboring midpoints; a single-block page always matches.
// Returns nil when the page has no blocks.
func BlockAt(blocks []source.ContentBlock, y float64) *source.ContentBlock {
	n := len(blocks)
	if n == 0 {
		return nil
	}
	for i := 0; i < n-1; i++ {
		mid := (blocks[i].BBox.Y0 + blocks[i+1].BBox.Y0) / 2
		if y < mid {
			return &blocks[i]
		}
	}
	return &blocks[n-1]
}
