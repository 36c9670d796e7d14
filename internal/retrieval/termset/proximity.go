package termset

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Engine/internal/index"
)

// countOccurrences counts proximity windows per document. postings[0] is the
// anchor term. Only documents holding every term are examined.
func countOccurrences(postings []index.Postings, proximity int) map[int]int {
	counts := make(map[int]int)
	if len(postings) == 0 {
		return counts
	}
	for docID, anchor := range postings[0] {
		lists := make([][]int, 0, len(postings)-1)
		complete := true
		for _, p := range postings[1:] {
			positions, ok := p[docID]
			if !ok || len(positions) == 0 {
				complete = false
				break
			}
			lists = append(lists, positions)
		}
		if !complete {
			continue
		}
		n := 0
		for _, start := range anchor {
			if fitsWindow(start, start, lists, proximity) {
				n++
			}
		}
		if n > 0 {
			counts[docID] = n
		}
	}
	return counts
}

// fitsWindow reports whether one position from each list can join [lo, hi]
// without the span exceeding proximity. Positions are tried in order and
// abandoned as soon as they leave no room.
func fitsWindow(lo, hi int, lists [][]int, proximity int) bool {
	if len(lists) == 0 {
		return true
	}
	positions := lists[0]
	for i := sort.SearchInts(positions, hi-proximity); i < len(positions); i++ {
		p := positions[i]
		if p > lo+proximity {
			break
		}
		if fitsWindow(min(lo, p), max(hi, p), lists[1:], proximity) {
			return true
		}
	}
	return false
}
