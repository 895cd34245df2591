package services

import (
	"context"
	"testing"

	"wayfinder-backend/domain/core/entities"
	"wayfinder-backend/domain/navigation"
	domainservices "wayfinder-backend/domain/services"
	"wayfinder-backend/infrastructure/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoCandidates_MostTraveledFirstWithLimit(t *testing.T) {
	repo := memory.NewNodeRepository()
	start := seedNode(repo, "start", true)
	rare := seedNode(repo, "rare", true)
	common := seedNode(repo, "common", true)
	middling := seedNode(repo, "middling", true)

	repo.AddEchoTransition(start.ID, rare.ID, 1)
	repo.AddEchoTransition(start.ID, common.ID, 50)
	repo.AddEchoTransition(start.ID, middling.ID, 10)

	svc := NewEchoService(repo, domainservices.NewAccessPolicy(), nil)
	user := &entities.User{ID: "u1", WorkspaceID: "ws1"}

	candidates, err := svc.EchoCandidates(context.Background(), start, user, "ws1", 2, navigation.Preview{})
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "common", candidates[0].Slug)
	assert.Equal(t, "middling", candidates[1].Slug)
}

func TestEchoCandidates_ExcludesSelfAndInaccessible(t *testing.T) {
	repo := memory.NewNodeRepository()
	start := seedNode(repo, "start", true)
	hidden := seedNode(repo, "hidden", false)
	open := seedNode(repo, "open", true)

	repo.AddEchoTransition(start.ID, start.ID, 100)
	repo.AddEchoTransition(start.ID, hidden.ID, 20)
	repo.AddEchoTransition(start.ID, open.ID, 5)

	svc := NewEchoService(repo, domainservices.NewAccessPolicy(), nil)
	user := &entities.User{ID: "u1", WorkspaceID: "ws1"}

	candidates, err := svc.EchoCandidates(context.Background(), start, user, "ws1", 0, navigation.Preview{})
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "open", candidates[0].Slug)
}
