// seed-dev creates (or resets the password of) a development owner, gives it
// a shop with one mobile and one bank provider and prints a bearer token.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/mmdatafocus/float_backend/utils"
	"gorm.io/gorm"
)

func main() {
	username := flag.String("username", "devowner", "owner username")
	password := flag.String("password", "devowner123", "owner password (min 8 chars)")
	shopName := flag.String("shop", "Dev Shop", "shop name")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	user, err := models.FindUserByUsername(ctx, *username)
	switch {
	case err == nil:
		hashed, herr := utils.HashPassword(*password)
		if herr != nil {
			fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", herr)
			os.Exit(1)
		}
		if err := db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
			"password":  hashed,
			"is_active": true,
		}).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to update user: %v\n", err)
			os.Exit(1)
		}
		_ = user.RemoveInstanceRedis()
		fmt.Printf("updated user %s (%s)\n", user.Username, user.ID)
	case utils.IsAppErrorCode(err, utils.CodeNotFound):
		user, err = models.CreateUser(ctx, &models.NewUser{
			Username: *username,
			FullName: "Dev Owner",
			Password: *password,
			Role:     models.UserRoleOwner,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created user %s (%s)\n", user.Username, user.ID)
	default:
		fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
		os.Exit(1)
	}

	var shop models.Shop
	err = db.WithContext(ctx).Where("owner_id = ? AND name = ?", user.ID, *shopName).First(&shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created, cerr := models.CreateShop(ctx, user.ID, &models.NewShop{Name: *shopName})
		if cerr != nil {
			fmt.Fprintf(os.Stderr, "failed to create shop: %v\n", cerr)
			os.Exit(1)
		}
		shop = *created
		for _, p := range []models.NewProvider{
			{Name: "M-Pesa", Category: models.CategoryMobile},
			{Name: "Equity Bank", Category: models.CategoryBank},
		} {
			input := p
			if _, perr := models.CreateProvider(ctx, user.ID, shop.ID, &input); perr != nil {
				fmt.Fprintf(os.Stderr, "failed to create provider %s: %v\n", p.Name, perr)
				os.Exit(1)
			}
		}
		if _, serr := models.CreateSuperAgent(ctx, user.ID, shop.ID, &models.NewSuperAgent{Name: "Dev Super Agent"}); serr != nil {
			fmt.Fprintf(os.Stderr, "failed to create super agent: %v\n", serr)
			os.Exit(1)
		}
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup shop: %v\n", err)
		os.Exit(1)
	}

	token, err := utils.JwtGenerate(user.ID, string(user.Role))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("shop_id=%s\n", shop.ID)
	fmt.Printf("token=%s\n", token)
}
