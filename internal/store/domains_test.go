package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/store"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/tests/testutil"
)

func TestCreateDomainGeneratesToken(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	d := &model.Domain{WorkspaceID: "ws-1", Name: "acme.com"}
	require.NoError(t, s.CreateDomain(ctx, d))

	assert.NotEmpty(t, d.ID)
	assert.NotEmpty(t, d.VerificationToken)
	assert.Equal(t, model.DomainPending, d.Status)

	got, err := s.GetDomainByName(ctx, "acme.com")
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, d.VerificationToken, got.VerificationToken)
	assert.Nil(t, got.LastCheckedAt)
	assert.Empty(t, got.LastResult)
}

func TestGetDomainByNameNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.GetDomainByName(context.Background(), "unknown.example")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateDomainVerification(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	d := &model.Domain{WorkspaceID: "ws-1", Name: "acme.com"}
	require.NoError(t, s.CreateDomain(ctx, d))

	checkedAt := time.Date(2025, 8, 3, 14, 0, 0, 0, time.UTC)
	result := []model.DomainCheck{
		{Check: model.CheckOwnership, OK: true, Expected: "nubo-mail-verification=" + d.VerificationToken},
		{Check: model.CheckMX, OK: false, Expected: "mx.nubomail.com", Found: "mail.legacy.example"},
	}
	require.NoError(t, s.UpdateDomainVerification(ctx, d.ID, model.DomainFailed, result, checkedAt))

	got, err := s.GetDomainByName(ctx, "acme.com")
	require.NoError(t, err)
	assert.Equal(t, model.DomainFailed, got.Status)
	require.NotNil(t, got.LastCheckedAt)
	assert.WithinDuration(t, checkedAt, *got.LastCheckedAt, time.Second)
	require.Len(t, got.LastResult, 2)
	assert.Equal(t, model.CheckOwnership, got.LastResult[0].Check)
	assert.True(t, got.LastResult[0].OK)
	assert.Equal(t, model.CheckMX, got.LastResult[1].Check)
	assert.False(t, got.LastResult[1].OK)
	assert.Equal(t, "mail.legacy.example", got.LastResult[1].Found)
}

func TestListDomains(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"zeta.example", "acme.com", "mid.example"} {
		require.NoError(t, s.CreateDomain(ctx, &model.Domain{WorkspaceID: "ws-1", Name: name}))
	}

	domains, err := s.ListDomains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 3)
	assert.Equal(t, "acme.com", domains[0].Name)
	assert.Equal(t, "mid.example", domains[1].Name)
	assert.Equal(t, "zeta.example", domains[2].Name)
}
