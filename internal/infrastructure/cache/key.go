package cache

import (
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Key derives the cache key for a question. Case and inner whitespace do not
// change the key.
func Key(question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	if normalized == "" {
		return ""
	}
	return strconv.FormatUint(xxh3.HashString(normalized), 16)
}
