package store_test

import (
	"testing"
	"time"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/echotab/echotab-server/internal/errors"
	"github.com/echotab/echotab-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTags_SentinelExistsOnFreshStore(t *testing.T) {
	f := newFixture(t)

	tags := f.store.Tags.List()
	require.Len(t, tags, 1)
	assert.Equal(t, domain.UntaggedID, tags[0].ID)
	assert.Equal(t, "Untagged", tags[0].Name)
}

func TestTags_CreateAllocatesMaxPlusOne(t *testing.T) {
	f := newFixture(t)

	a, err := f.store.Tags.Create(domain.Tag{Name: "reading"})
	require.NoError(t, err)
	assert.Equal(t, 1, a.ID)

	b, err := f.store.Tags.Create(domain.Tag{Name: "work"})
	require.NoError(t, err)
	assert.Equal(t, 2, b.ID)

	// Deleting the highest id frees it for reallocation; only the floor
	// of 1 is guaranteed, never the sentinel's 0.
	_, err = f.store.Tags.Delete([]int{b.ID})
	require.NoError(t, err)

	c, err := f.store.Tags.Create(domain.Tag{Name: "travel"})
	require.NoError(t, err)
	assert.Equal(t, 2, c.ID)
}

func TestTags_CreateWithIDKeepsID(t *testing.T) {
	f := newFixture(t)

	a, err := f.store.Tags.CreateWithID(domain.Tag{ID: 7, Name: "reading"})
	require.NoError(t, err)
	assert.Equal(t, 7, a.ID)

	// Allocation continues above the adopted id.
	b, err := f.store.Tags.Create(domain.Tag{Name: "work"})
	require.NoError(t, err)
	assert.Equal(t, 8, b.ID)

	_, err = f.store.Tags.CreateWithID(domain.Tag{ID: 7, Name: "other"})
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)

	_, err = f.store.Tags.CreateWithID(domain.Tag{ID: 9, Name: "Reading"})
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)

	_, err = f.store.Tags.CreateWithID(domain.Tag{ID: domain.UntaggedID, Name: "zero"})
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestTags_CreateRejectsEmptyAndDuplicateNames(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Tags.Create(domain.Tag{Name: "   "})
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = f.store.Tags.Create(domain.Tag{Name: "Reading"})
	require.NoError(t, err)

	// Uniqueness is casefolded.
	_, err = f.store.Tags.Create(domain.Tag{Name: "reading"})
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)

	_, err = f.store.Tags.Create(domain.Tag{Name: "  READING  "})
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)
}

func TestTags_SentinelCannotBeDeletedOrModified(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Tags.Delete([]int{domain.UntaggedID})
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = f.store.Tags.Update(domain.Tag{ID: domain.UntaggedID, Name: "renamed"})
	assert.ErrorIs(t, err, errors.ErrValidation)

	// Still there.
	_, err = f.store.Tags.Get(domain.UntaggedID)
	assert.NoError(t, err)
}

func TestTags_UpdateRejectsNameCollision(t *testing.T) {
	f := newFixture(t)

	a, err := f.store.Tags.Create(domain.Tag{Name: "reading"})
	require.NoError(t, err)
	_, err = f.store.Tags.Create(domain.Tag{Name: "work"})
	require.NoError(t, err)

	a.Name = "Work"
	_, err = f.store.Tags.Update(a)
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)
}

func TestTags_DeleteSkipsUnknownIDs(t *testing.T) {
	f := newFixture(t)

	a, err := f.store.Tags.Create(domain.Tag{Name: "reading"})
	require.NoError(t, err)

	removed, err := f.store.Tags.Delete([]int{a.ID, 99})
	require.NoError(t, err)
	assert.Equal(t, []int{a.ID}, removed)

	removed, err = f.store.Tags.Delete([]int{99})
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestTags_ToggleFavorite(t *testing.T) {
	f := newFixture(t)

	a, err := f.store.Tags.Create(domain.Tag{Name: "reading"})
	require.NoError(t, err)

	got, err := f.store.Tags.ToggleFavorite(a.ID)
	require.NoError(t, err)
	assert.True(t, got.Favorite)

	got, err = f.store.Tags.ToggleFavorite(a.ID)
	require.NoError(t, err)
	assert.False(t, got.Favorite)
}

func TestTags_EnsureQuickReusesSameDay(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()

	a, err := f.store.Tags.EnsureQuick(now)
	require.NoError(t, err)
	assert.True(t, a.Quick)
	assert.Equal(t, store.QuickTagName(now), a.Name)

	b, err := f.store.Tags.EnsureQuick(now)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	// A new day gets a new quick tag.
	c, err := f.store.Tags.EnsureQuick(now.Add(24 * time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, c.ID)
}
