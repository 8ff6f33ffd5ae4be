// balance-rebuild recomputes cash and float balances from the ledger and
// reports drift. With --fix the drifted rows are rewritten.
//
// Usage:
//
//	go run ./cmd/balance-rebuild --shop-id <uuid> [--fix]
//	go run ./cmd/balance-rebuild --all [--fix] [--continue-on-error]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/mmdatafocus/float_backend/utils"
)

func main() {
	shopID := flag.String("shop-id", "", "shop id (uuid)")
	all := flag.Bool("all", false, "check every shop")
	fix := flag.Bool("fix", false, "rewrite drifted balances to the ledger values")
	continueOnError := flag.Bool("continue-on-error", false, "skip failing shops and continue with the rest")
	flag.Parse()

	if strings.TrimSpace(*shopID) == "" && !*all {
		fmt.Fprintln(os.Stderr, "--shop-id or --all is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := utils.SetCorrelationIdInContext(context.Background(), uuid.NewString())
	shopIDs := []string{strings.TrimSpace(*shopID)}
	if *all {
		shopIDs = nil
		if err := db.WithContext(ctx).Model(&models.Shop{}).Order("created_at").Pluck("id", &shopIDs).Error; err != nil {
			fmt.Fprintf(os.Stderr, "list shops: %v\n", err)
			os.Exit(1)
		}
	}

	drifted := 0
	for _, id := range shopIDs {
		result, err := models.RebuildShopBalances(ctx, id, *fix)
		if err != nil {
			if *continueOnError {
				fmt.Fprintf(os.Stderr, "shop %s failed (skipping): %v\n", id, err)
				continue
			}
			fmt.Fprintf(os.Stderr, "shop %s failed: %v\n", id, err)
			os.Exit(1)
		}
		fmt.Printf("shop=%s cash expected=%s actual=%s floats=%d drifts=%d fixed=%t\n",
			id, result.Cash.Expected, result.Cash.Actual, len(result.Floats), result.Drifts, result.Fixed)
		for _, f := range result.Floats {
			if !f.InSync {
				fmt.Printf("  provider=%s category=%s expected=%s actual=%s\n", f.ProviderId, f.Category, f.Expected, f.Actual)
			}
		}
		if result.Drifts > 0 {
			drifted++
		}
	}

	fmt.Printf("balance rebuild complete: shops=%d drifted=%d\n", len(shopIDs), drifted)
	if drifted > 0 && !*fix {
		os.Exit(3)
	}
}
