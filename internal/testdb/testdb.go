// Package testdb opens a throwaway sqlite database with the production schema
// and plugins, and seeds the rows most tests start from.
package testdb

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/mmdatafocus/float_backend/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const Password = "password123"

// Open creates a fresh database file under t.TempDir and installs it as the
// global connection for the duration of the test.
//
// BEGIN IMMEDIATE plus a busy timeout makes sqlite serialise writers the way
// row locks do on MySQL.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "float.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_txlock=immediate&_journal_mode=WAL&_foreign_keys=off", path)

	conn, err := gorm.Open(sqlite.Open(dsn), config.InitConfig())
	require.NoError(t, err)
	config.InstallPlugins(conn)
	require.NoError(t, models.MigrateTable(conn))

	previous := config.GetDB()
	config.SetDB(conn)
	t.Cleanup(func() {
		config.SetDB(previous)
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// Fixture is a shop with an owner, one active cashier, one provider per
// category and a super agent.
type Fixture struct {
	Owner          *models.User
	Cashier        *models.User
	Outsider       *models.User
	Shop           *models.Shop
	MobileProvider *models.Provider
	BankProvider   *models.Provider
	SuperAgent     *models.SuperAgent
}

func CreateUser(t testing.TB, role models.UserRole) *models.User {
	t.Helper()
	user, err := models.CreateUser(context.Background(), &models.NewUser{
		Username: string(role) + "-" + uuid.NewString()[:8],
		FullName: "Test " + string(role),
		Password: Password,
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func CreateShop(t testing.TB, owner *models.User, name string) *models.Shop {
	t.Helper()
	shop, err := models.CreateShop(context.Background(), owner.ID, &models.NewShop{Name: name})
	require.NoError(t, err)
	return shop
}

func CreateProvider(t testing.TB, actor *models.User, shop *models.Shop, name string, category models.Category) *models.Provider {
	t.Helper()
	provider, err := models.CreateProvider(context.Background(), actor.ID, shop.ID, &models.NewProvider{
		Name:     name,
		Category: category,
	})
	require.NoError(t, err)
	return provider
}

func CreateSuperAgent(t testing.TB, actor *models.User, shop *models.Shop, name string) *models.SuperAgent {
	t.Helper()
	agent, err := models.CreateSuperAgent(context.Background(), actor.ID, shop.ID, &models.NewSuperAgent{Name: name})
	require.NoError(t, err)
	return agent
}

// Seed builds a Fixture on the global connection.
func Seed(t testing.TB) *Fixture {
	t.Helper()
	f := &Fixture{
		Owner:    CreateUser(t, models.UserRoleOwner),
		Cashier:  CreateUser(t, models.UserRoleCashier),
		Outsider: CreateUser(t, models.UserRoleCashier),
	}
	f.Shop = CreateShop(t, f.Owner, "Corner Shop")
	_, err := models.AddCashier(context.Background(), f.Owner.ID, f.Shop.ID, &models.NewCashier{UserId: f.Cashier.ID})
	require.NoError(t, err)
	f.MobileProvider = CreateProvider(t, f.Owner, f.Shop, "M-Pesa", models.CategoryMobile)
	f.BankProvider = CreateProvider(t, f.Owner, f.Shop, "CRDB", models.CategoryBank)
	f.SuperAgent = CreateSuperAgent(t, f.Owner, f.Shop, "City Super Agent")
	return f
}

// Token issues a bearer token for user.
func Token(t testing.TB, user *models.User) string {
	t.Helper()
	token, err := utils.JwtGenerate(user.ID, string(user.Role))
	require.NoError(t, err)
	return token
}
