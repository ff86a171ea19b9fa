package store

import "slices"

// Page applies cursor-window pagination to an ordered (oldest-first)
// id list and returns the selected window, still oldest-first.
//
// Without a cursor it returns the most recent window: the last limit
// ids, or all of them when limit is zero. With a cursor it returns up
// to limit ids strictly preceding beforeID; an unknown cursor, or one
// sitting at the very start of the list, yields an empty page.
func Page(ids []string, limit int, beforeID string) []string {
	end := len(ids)
	if beforeID != "" {
		pos := slices.Index(ids, beforeID)
		if pos <= 0 {
			return nil
		}
		end = pos
	}
	start := 0
	if limit > 0 && end-limit > 0 {
		start = end - limit
	}
	return ids[start:end]
}
