package bootstrap

import (
	"fmt"

	"ShoeKeeper/internal/cli/repo"
	reposqlite "ShoeKeeper/internal/cli/repo/sqlite"
)

// OpenSnapshotRepo открывает кэш снимков пользователя owner под base
// и выполняет миграции.
func OpenSnapshotRepo(base, owner string) (repo.SnapshotRepository, error) {
	r, _, err := reposqlite.OpenForUser(base, owner)
	if err != nil {
		return nil, fmt.Errorf("open user db: %w", err)
	}
	return r, nil
}
