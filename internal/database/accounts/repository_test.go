package accounts

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asowa/marketplace/internal/config"
	"github.com/asowa/marketplace/internal/database"
	"github.com/asowa/marketplace/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	db, err := database.NewDatabase(config.Database{
		Driver: config.DatabaseDriverSQLite,
		Path:   filepath.Join(t.TempDir(), "accounts.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db.DB)
}

func TestRepository_Create(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	account, err := repo.Create(ctx, "Ada Lovelace", "ada@example.com", "$2a$04$hash", entities.RoleUser)

	require.NoError(t, err)
	assert.NotZero(t, account.ID)
	assert.Equal(t, "Ada Lovelace", account.Fullname)
	assert.Equal(t, "ada@example.com", account.Email)
	assert.Equal(t, entities.RoleUser, account.Role)
	assert.False(t, account.CreatedAt.IsZero())
}

func TestRepository_Create_InvalidRole(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Create(context.Background(), "Eve", "eve@example.com", "hash", entities.Role("root"))

	assert.True(t, errors.Is(err, entities.ErrInvalidRole))
}

func TestRepository_Create_DuplicateEmail(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "Ada", "ada@example.com", "hash", entities.RoleUser)
	require.NoError(t, err)

	_, err = repo.Create(ctx, "Other Ada", "ada@example.com", "hash2", entities.RoleAdmin)
	assert.True(t, errors.Is(err, entities.ErrDuplicateEmail), "got %v", err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_Create_ConcurrentSameEmail(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	const attempts = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
		others     []error
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, "Ada", "race@example.com", "hash", entities.RoleUser)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, entities.ErrDuplicateEmail):
				duplicates++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, duplicates)
}

func TestRepository_FindByEmail(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "Ada", "ada@example.com", "hash", entities.RoleUser)
	require.NoError(t, err)

	found, err := repo.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, entities.ErrAccountNotFound))
}

func TestRepository_FindByID(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "Grace", "grace@example.com", "hash", entities.RoleAdmin)
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", found.Email)
	assert.Equal(t, entities.RoleAdmin, found.Role)

	_, err = repo.FindByID(ctx, 99999)
	assert.True(t, errors.Is(err, entities.ErrAccountNotFound))
}

func TestRepository_ListAndCount(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := repo.Create(ctx, "User", email, "hash", entities.RoleUser)
		require.NoError(t, err)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a@example.com", list[0].Email)
	assert.Less(t, list[0].ID, list[2].ID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
