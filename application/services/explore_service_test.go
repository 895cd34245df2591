package services

import (
	"context"
	"sort"
	"testing"

	"wayfinder-backend/domain/core/entities"
	"wayfinder-backend/domain/navigation"
	domainservices "wayfinder-backend/domain/services"
	"wayfinder-backend/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomCandidates_PoolIsDeterministicallyOrdered(t *testing.T) {
	repo := memory.NewNodeRepository()
	start := seedNode(repo, "start", true)
	a := seedNode(repo, "a", true)
	b := seedNode(repo, "b", true)
	c := seedNode(repo, "c", true)

	svc := NewExploreService(repo, domainservices.NewAccessPolicy(), nil)
	user := &entities.User{ID: "u1", WorkspaceID: "ws1"}

	pool, err := svc.RandomCandidates(context.Background(), start, user, "ws1", navigation.Preview{})
	require.NoError(t, err)

	require.Len(t, pool, 3)
	ids := []string{pool[0].ID.String(), pool[1].ID.String(), pool[2].ID.String()}
	assert.True(t, sort.StringsAreSorted(ids))

	want := map[string]bool{a.ID.String(): true, b.ID.String(): true, c.ID.String(): true}
	for _, id := range ids {
		assert.True(t, want[id])
	}
	assert.NotContains(t, ids, start.ID.String())
}

func TestRandomCandidates_ExcludesNonNavigable(t *testing.T) {
	repo := memory.NewNodeRepository()
	start := seedNode(repo, "start", true)
	seedNode(repo, "hidden", false)
	open := seedNode(repo, "open", true)

	svc := NewExploreService(repo, domainservices.NewAccessPolicy(), nil)
	user := &entities.User{ID: "u1", WorkspaceID: "ws1"}

	pool, err := svc.RandomCandidates(context.Background(), start, user, "ws1", navigation.Preview{})
	require.NoError(t, err)

	require.Len(t, pool, 1)
	assert.True(t, pool[0].ID.Equals(open.ID))
}
