package models_test

import (
	"testing"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/stretchr/testify/require"
)

func TestMaintenanceSettings(t *testing.T) {
	ctx, boss := setupBoss(t)

	settings, err := models.GetMaintenanceSettings(ctx)
	require.NoError(t, err)
	require.Len(t, settings, len(models.MaintenanceModules))
	require.False(t, settings["hero"].IsDisabled)

	require.NoError(t, models.UpdateMaintenanceSettings(ctx, map[string]bool{"hero": true, "fence": false}))

	status, err := models.GetMaintenanceStatus(ctx, "hero")
	require.NoError(t, err)
	require.True(t, status.IsDisabled)
	require.Equal(t, "Wartungsmodus aktiviert von boss", *status.Reason)

	settings, err = models.GetMaintenanceSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, boss.ID, *settings["hero"].DisabledBy)

	require.NoError(t, models.UpdateMaintenanceSettings(ctx, map[string]bool{"hero": false}))
	status, err = models.GetMaintenanceStatus(ctx, "hero")
	require.NoError(t, err)
	require.False(t, status.IsDisabled)
	require.Nil(t, status.Reason)

	status, err = models.GetMaintenanceStatus(ctx, "casino")
	require.NoError(t, err)
	require.False(t, status.IsDisabled)

	err = models.UpdateMaintenanceSettings(ctx, map[string]bool{"casino": true})
	requireKind(t, utils.KindValidation, err)
	require.Equal(t, 2, activityCount(t, ctx, models.ActionMaintenance))
}
