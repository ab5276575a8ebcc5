package session

import (
	"sort"

	"github.com/aicourt/courtside/internal/protocol"
)

// filterNew returns the messages from batch whose id is strictly greater
// than cursor, sorted ascending by id. Because polls return overlapping
// snapshots, this is what guarantees each message is surfaced exactly once
// and in order. A message without an id is treated as id 0, so once any real
// id has been observed such messages are considered already seen.
func filterNew(batch []protocol.MessageDTO, cursor int64) []protocol.MessageDTO {
	fresh := make([]protocol.MessageDTO, 0, len(batch))
	for _, m := range batch {
		if m.IDOrZero() > cursor {
			fresh = append(fresh, m)
		}
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].IDOrZero() < fresh[j].IDOrZero()
	})
	return fresh
}

// maxID returns the largest message id in the batch, or fallback when the
// batch is empty.
func maxID(batch []protocol.MessageDTO, fallback int64) int64 {
	max := fallback
	for _, m := range batch {
		if id := m.IDOrZero(); id > max {
			max = id
		}
	}
	return max
}
