package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/float_backend/models"
	"gorm.io/gorm"
)

type providerReader struct {
	db *gorm.DB
}

func (r *providerReader) getProviders(ctx context.Context, ids []string) []*dataloader.Result[*models.Provider] {
	var results []models.Provider
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Provider](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetProvider(ctx context.Context, id string) (*models.Provider, error) {
	loaders := For(ctx)
	return loaders.ProviderLoader.Load(ctx, id)()
}

func GetProviders(ctx context.Context, ids []string) ([]*models.Provider, []error) {
	loaders := For(ctx)
	return loaders.ProviderLoader.LoadMany(ctx, ids)()
}

// ProviderMap resolves ids to providers keyed by id. Unknown ids map to a
// placeholder provider.
func ProviderMap(ctx context.Context, ids []string) (map[string]*models.Provider, error) {
	out := make(map[string]*models.Provider, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	providers, errs := GetProviders(ctx, ids)
	for i, p := range providers {
		if i < len(errs) && errs[i] != nil {
			return nil, errs[i]
		}
		out[ids[i]] = p
	}
	return out, nil
}
