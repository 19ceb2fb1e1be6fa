package models_test

import (
	"context"
	"testing"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/testsupport"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}

func requireKind(t *testing.T, kind utils.ErrorKind, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equalf(t, kind, utils.KindOf(err), "unexpected error: %v", err)
}

// setupBoss prepares both backends and returns a context acting as a Boss.
func setupBoss(t *testing.T) (context.Context, *models.Member) {
	t.Helper()
	testsupport.Setup(t)
	boss := testsupport.CreateMember(t, "boss", "secret", testsupport.WithRank(models.RankBoss))
	return testsupport.ActorContext(boss), boss
}

func activityCount(t *testing.T, ctx context.Context, actionType string) int {
	t.Helper()
	entries, err := models.RecentActivity(ctx, models.MaxActivityExport)
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		if e.ActionType == actionType {
			n++
		}
	}
	return n
}
