package session

import "sort"

// reconcileScores derives the local/opponent win-rate pair from the server's
// nickname->percentage mapping. Percentages are clamped into [0,100] and a
// missing counterpart is inferred as the complement of the known value.
//
// When the local nickname is absent from the mapping entirely, entries are
// taken in sorted-key order — first as the local value, second as the
// opponent — so the fallback is deterministic regardless of map iteration
// order. Returns false when the mapping is empty, in which case the previous
// pair should be kept.
func reconcileScores(scores map[string]int, localNickname string) (WinRate, bool) {
	if len(scores) == 0 {
		return WinRate{}, false
	}

	if local, ok := scores[localNickname]; ok {
		mine := clampPercent(local)
		for nickname, v := range scores {
			if nickname != localNickname {
				return WinRate{Mine: mine, Theirs: clampPercent(v)}, true
			}
		}
		return WinRate{Mine: mine, Theirs: 100 - mine}, true
	}

	// Local nickname missing from the mapping: fall back to the first two
	// entries by sorted key.
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mine := clampPercent(scores[keys[0]])
	theirs := 100 - mine
	if len(keys) > 1 {
		theirs = clampPercent(scores[keys[1]])
	}
	return WinRate{Mine: mine, Theirs: theirs}, true
}
