package services

import (
	"context"
	"testing"
	"time"

	"wayfinder-backend/domain/core/entities"
	"wayfinder-backend/domain/core/valueobjects"
	"wayfinder-backend/domain/navigation"
	domainservices "wayfinder-backend/domain/services"
	"wayfinder-backend/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNode(repo *memory.NodeRepository, slug string, visible bool) *entities.Node {
	node := &entities.Node{
		ID:            valueobjects.NewNodeID(),
		Slug:          slug,
		WorkspaceID:   "ws1",
		Title:         slug,
		Visible:       visible,
		Public:        true,
		Recommendable: true,
	}
	repo.AddNode(node)
	return node
}

func TestManualCandidates_OrderedByWeightThenRecency(t *testing.T) {
	repo := memory.NewNodeRepository()
	start := seedNode(repo, "start", true)
	light := seedNode(repo, "light", true)
	heavyOld := seedNode(repo, "heavy-old", true)
	heavyNew := seedNode(repo, "heavy-new", true)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.AddManualTransition(start.ID, light.ID, 1.0, base)
	repo.AddManualTransition(start.ID, heavyOld.ID, 5.0, base.Add(time.Hour))
	repo.AddManualTransition(start.ID, heavyNew.ID, 5.0, base.Add(2*time.Hour))

	svc := NewTransitionsService(repo, domainservices.NewAccessPolicy(), nil)
	user := &entities.User{ID: "u1", WorkspaceID: "ws1"}

	candidates, err := svc.ManualCandidates(context.Background(), start, user, "ws1", navigation.Preview{})
	require.NoError(t, err)

	require.Len(t, candidates, 3)
	assert.Equal(t, "heavy-new", candidates[0].Slug)
	assert.Equal(t, "heavy-old", candidates[1].Slug)
	assert.Equal(t, "light", candidates[2].Slug)

	// The edge weight rides along on the candidate.
	assert.Equal(t, 5.0, candidates[0].Weight)
	assert.Equal(t, 1.0, candidates[2].Weight)
}

func TestManualCandidates_FiltersInaccessibleTargets(t *testing.T) {
	repo := memory.NewNodeRepository()
	start := seedNode(repo, "start", true)
	hidden := seedNode(repo, "hidden", false)
	open := seedNode(repo, "open", true)

	now := time.Now()
	repo.AddManualTransition(start.ID, hidden.ID, 9.0, now)
	repo.AddManualTransition(start.ID, open.ID, 1.0, now)

	svc := NewTransitionsService(repo, domainservices.NewAccessPolicy(), nil)
	user := &entities.User{ID: "u1", WorkspaceID: "ws1"}

	candidates, err := svc.ManualCandidates(context.Background(), start, user, "ws1", navigation.Preview{})
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "open", candidates[0].Slug)
}

func TestManualCandidates_PremiumGateHonorsPreviewClock(t *testing.T) {
	repo := memory.NewNodeRepository()
	start := seedNode(repo, "start", true)
	premium := seedNode(repo, "premium", true)
	premium.PremiumOnly = true
	repo.AddNode(premium)

	repo.AddManualTransition(start.ID, premium.ID, 1.0, time.Now())

	svc := NewTransitionsService(repo, domainservices.NewAccessPolicy(), nil)
	expiry := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	user := &entities.User{ID: "u1", WorkspaceID: "ws1", Premium: true, PremiumUntil: expiry}

	// Evaluated before expiry the node is reachable, after expiry it is not.
	before := expiry.Add(-time.Hour)
	candidates, err := svc.ManualCandidates(context.Background(), start, user, "ws1", navigation.Preview{Now: &before})
	require.NoError(t, err)
	assert.Len(t, candidates, 1)

	after := expiry.Add(time.Hour)
	candidates, err = svc.ManualCandidates(context.Background(), start, user, "ws1", navigation.Preview{Now: &after})
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
