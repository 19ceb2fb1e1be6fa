// Package testsupport wires an in-memory sqlite database and a miniredis
// server into the global config handles for tests.
package testsupport

import (
	"context"
	"fmt"
	"testing"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	utils.PasswordCost = bcrypt.MinCost
}

// OpenTestDB installs a fresh migrated sqlite database as the global DB.
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:memdb_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), config.InitConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the shared in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)

	previous := config.GetDB()
	config.SetDB(db)
	t.Cleanup(func() {
		config.SetDB(previous)
		_ = sqlDB.Close()
	})

	require.NoError(t, models.MigrateTable(context.Background()))
	return db
}

// StartRedis runs a miniredis server and installs a client for it.
func StartRedis(t testing.TB) *miniredis.Miniredis {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	previous := config.GetRedisDB()
	config.SetRedisDB(client)
	t.Cleanup(func() {
		config.SetRedisDB(previous)
		_ = client.Close()
	})
	return server
}

// Setup opens both backends.
func Setup(t testing.TB) (*gorm.DB, *miniredis.Miniredis) {
	t.Helper()
	return OpenTestDB(t), StartRedis(t)
}

// Member options
type MemberOption func(*models.Member)

func WithRank(rank string) MemberOption {
	return func(m *models.Member) { m.Rank = rank }
}

func WithGrants(addMembers, manageHero, manageFence, viewActivity bool) MemberOption {
	return func(m *models.Member) {
		m.CanAddMembers = addMembers
		m.CanManageHero = manageHero
		m.CanManageFence = manageFence
		m.CanViewActivity = viewActivity
	}
}

func Inactive() MemberOption {
	return func(m *models.Member) { m.IsActive = utils.NewFalse() }
}

// CreateMember inserts an active member whose password is password.
func CreateMember(t testing.TB, username string, password string, opts ...MemberOption) *models.Member {
	t.Helper()
	hashed, err := utils.HashPassword(password)
	require.NoError(t, err)
	member := models.Member{
		Username:      username,
		Password:      string(hashed),
		FullName:      username + " Tester",
		Rank:          "Member",
		IsActive:      utils.NewTrue(),
		IsPasswordSet: true,
	}
	for _, opt := range opts {
		opt(&member)
	}
	require.NoError(t, config.GetDB().Create(&member).Error)
	return &member
}

// ActorContext returns a context carrying member as the session user.
func ActorContext(member *models.Member) context.Context {
	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, member.ID)
	ctx = utils.SetUsernameInContext(ctx, member.Username)
	ctx = utils.SetUserNameInContext(ctx, member.FullName)
	ctx = utils.SetCapabilitiesInContext(ctx, models.ResolveCapabilities(member))
	return ctx
}
