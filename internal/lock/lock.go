package lock

import (
	"context"
	"sort"
)

// Release снимает захваченные блокировки
type Release func(ctx context.Context) error

// Locker точка сериализации "проверить и записать" для пересекающихся запросов.
// Ключи захватываются в отсортированном порядке, чтобы не было взаимной блокировки
type Locker interface {
	Acquire(ctx context.Context, keys []string) (Release, error)
}

func normalize(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
