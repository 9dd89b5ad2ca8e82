package parser

import "sync"

// Word and hint names are interned as shared immutable strings, since
// equality on words is hot in dictionary lookup (spec §9).
var (
	internMu    sync.Mutex
	internTable = make(map[string]string)
)

func intern(s string) string {
	internMu.Lock()
	defer internMu.Unlock()
	if existing, ok := internTable[s]; ok {
		return existing
	}
	internTable[s] = s
	return s
}
