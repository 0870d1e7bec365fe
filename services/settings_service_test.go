package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlm-community/tournament-service/models"
)

func TestSettingsDefaultsWhenUnconfigured(t *testing.T) {
	svc := NewSettingsService(newFakeSettingsRepo())

	s, err := svc.Get(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.False(t, s.DeckCheckRequired)
	assert.True(t, s.SendReminders)
	assert.Equal(t, models.DefaultReminderMinutes, s.ReminderMinutes)
}

func TestSettingsPartialUpdateKeepsOtherKeys(t *testing.T) {
	svc := NewSettingsService(newFakeSettingsRepo())
	ctx := context.Background()

	deckCheck := true
	_, err := svc.Update(ctx, "guild-1", UpdateSettingsInput{DeckCheckRequired: &deckCheck})
	require.NoError(t, err)

	minutes := 60
	updated, err := svc.Update(ctx, "guild-1", UpdateSettingsInput{ReminderMinutes: &minutes})
	require.NoError(t, err)

	assert.True(t, updated.DeckCheckRequired, "earlier key survives a later partial update")
	assert.Equal(t, 60, updated.ReminderMinutes)
	assert.True(t, updated.SendReminders)
}

func TestSettingsValidation(t *testing.T) {
	svc := NewSettingsService(newFakeSettingsRepo())
	ctx := context.Background()

	bad := 0
	_, err := svc.Update(ctx, "guild-1", UpdateSettingsInput{ReminderMinutes: &bad})
	assert.ErrorIs(t, err, ErrValidationFailed)

	tooBig := 100_000
	_, err = svc.Update(ctx, "guild-1", UpdateSettingsInput{ReminderMinutes: &tooBig})
	assert.ErrorIs(t, err, ErrValidationFailed)

	plainHTTP := "http://example.com/hook"
	_, err = svc.Update(ctx, "guild-1", UpdateSettingsInput{AnnouncementsWebhookURL: &plainHTTP})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestSettingsClearKeyWithEmptyString(t *testing.T) {
	svc := NewSettingsService(newFakeSettingsRepo())
	ctx := context.Background()

	role := "123456789"
	s, err := svc.Update(ctx, "guild-1", UpdateSettingsInput{TournamentRoleID: &role})
	require.NoError(t, err)
	require.NotNil(t, s.TournamentRoleID)

	empty := ""
	s, err = svc.Update(ctx, "guild-1", UpdateSettingsInput{TournamentRoleID: &empty})
	require.NoError(t, err)
	assert.Nil(t, s.TournamentRoleID)
}
