// Package geometric implements the Geometric Strategy (C6d): it
// groups visible page blocks by size and alignment to find a list
// region and an associated podium, independent of any CSS class or
// DOM structure, per spec.md §4.6.4.
//
// Geometry comes from the live rendered page (computed bounding
// boxes), which only the browser driver can produce; this package
// takes that measurement as a plain input (Block) so the grouping
// logic itself is independent of go-rod and fully unit-testable,
// mirroring how engine/page_health.go keeps its scoring math separate
// from the CDP calls that feed it.
package geometric

import (
	"sort"

	"github.com/use-agent/leaderboard-scout/internal/model"
	"github.com/use-agent/leaderboard-scout/internal/strategy/dom"
)

// Block is one visible element's measured geometry and text, as
// captured by the browser driver.
type Block struct {
	X, Y          float64
	Width, Height float64
	Text          string
}

const (
	minWidth  = 50
	minHeight = 20
	maxWidthFraction = 0.95

	sizeTolerance = 0.15
	xAlignTolerancePx = 10
	minListGroupSize  = 5
	podiumAreaRatio   = 1.2
)

// Extract groups blocks by (width, height) similarity, picks the
// x-aligned group of >= 5 that starts highest on the page as the list,
// finds a smaller group
// of 2-4 elements above it with larger average area as the podium, and
// parses each element's text with the same row parser the DOM
// strategy uses.
func Extract(blocks []Block, viewportWidth float64) []model.Entry {
	visible := filterVisible(blocks, viewportWidth)
	if len(visible) == 0 {
		return nil
	}

	groups := groupBySize(visible)
	list, listGroupKey := pickListGroup(groups)
	if list == nil {
		return nil
	}

	podium := pickPodiumGroup(groups, list, listGroupKey)

	var entries []model.Entry
	for i, b := range podium {
		if e, ok := dom.ParseBlockText(b.Text); ok {
			e.Rank = i + 1
			entries = append(entries, e)
		}
	}
	for _, b := range list {
		if e, ok := dom.ParseBlockText(b.Text); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func filterVisible(blocks []Block, viewportWidth float64) []Block {
	var out []Block
	maxWidth := viewportWidth * maxWidthFraction
	for _, b := range blocks {
		if b.Width < minWidth || b.Height < minHeight {
			continue
		}
		if viewportWidth > 0 && b.Width > maxWidth {
			continue
		}
		out = append(out, b)
	}
	return out
}

type sizeKey struct {
	w, h int // bucketed into sizeTolerance (15%) bands so near-equal sizes collapse together
}

func bucket(v float64) int {
	if v <= 0 {
		return 0
	}
	// Logarithmic-ish bucketing within sizeTolerance bands.
	band := 0
	cur := 1.0
	for cur*(1+sizeTolerance) < v {
		cur *= 1 + sizeTolerance
		band++
	}
	return band
}

func groupBySize(blocks []Block) map[sizeKey][]Block {
	groups := make(map[sizeKey][]Block)
	for _, b := range blocks {
		key := sizeKey{w: bucket(b.Width), h: bucket(b.Height)}
		groups[key] = append(groups[key], b)
	}
	return groups
}

// pickListGroup finds, among groups of >= 5 elements sharing an x
// coordinate within 10px, the one with the lowest top-y (i.e. starts
// highest on the page).
func pickListGroup(groups map[sizeKey][]Block) ([]Block, sizeKey) {
	var best []Block
	var bestKey sizeKey
	bestTopY := -1.0
	first := true

	for key, blocks := range groups {
		aligned := largestXAlignedSubset(blocks)
		if len(aligned) < minListGroupSize {
			continue
		}
		topY := lowestY(aligned)
		if first || topY < bestTopY {
			best = aligned
			bestKey = key
			bestTopY = topY
			first = false
		}
	}
	sort.Slice(best, func(i, j int) bool { return best[i].Y < best[j].Y })
	return best, bestKey
}

// largestXAlignedSubset returns the largest subset of blocks whose X
// coordinates fall within xAlignTolerancePx of each other.
func largestXAlignedSubset(blocks []Block) []Block {
	sorted := make([]Block, len(blocks))
	copy(sorted, blocks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	bestStart, bestEnd := 0, 0
	start := 0
	for end := range sorted {
		for sorted[end].X-sorted[start].X > xAlignTolerancePx {
			start++
		}
		if end-start > bestEnd-bestStart {
			bestStart, bestEnd = start, end
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	return sorted[bestStart : bestEnd+1]
}

func lowestY(blocks []Block) float64 {
	if len(blocks) == 0 {
		return 0
	}
	min := blocks[0].Y
	for _, b := range blocks[1:] {
		if b.Y < min {
			min = b.Y
		}
	}
	return min
}

func medianArea(blocks []Block) float64 {
	if len(blocks) == 0 {
		return 0
	}
	areas := make([]float64, len(blocks))
	for i, b := range blocks {
		areas[i] = b.Width * b.Height
	}
	sort.Float64s(areas)
	return areas[len(areas)/2]
}

// pickPodiumGroup finds a smaller group (2-4 elements) situated above
// the list group whose average area is >= 1.2x the list's median
// element area, sorted left-to-right.
func pickPodiumGroup(groups map[sizeKey][]Block, list []Block, listKey sizeKey) []Block {
	if len(list) == 0 {
		return nil
	}
	listTopY := lowestY(list)
	listMedianArea := medianArea(list)

	var best []Block
	bestAvgArea := 0.0

	for key, blocks := range groups {
		if key == listKey {
			continue
		}
		if len(blocks) < 2 || len(blocks) > 4 {
			continue
		}
		above := true
		totalArea := 0.0
		for _, b := range blocks {
			if b.Y >= listTopY {
				above = false
				break
			}
			totalArea += b.Width * b.Height
		}
		if !above {
			continue
		}
		avgArea := totalArea / float64(len(blocks))
		if avgArea < listMedianArea*podiumAreaRatio {
			continue
		}
		if avgArea > bestAvgArea {
			bestAvgArea = avgArea
			best = blocks
		}
	}

	sort.Slice(best, func(i, j int) bool { return best[i].X < best[j].X })
	return best
}
