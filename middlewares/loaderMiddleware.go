package middlewares

import (
	"context"
	"reflect"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/models"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders batch lookups made while building one response.
type Loaders struct {
	ProviderLoader   *dataloader.Loader[string, *models.Provider]
	SuperAgentLoader *dataloader.Loader[string, *models.SuperAgent]
}

func NewLoaders(conn *gorm.DB) *Loaders {
	providerReader := &providerReader{db: conn}
	superAgentReader := &superAgentReader{db: conn}

	return &Loaders{
		ProviderLoader:   dataloader.NewBatchedLoader(providerReader.getProviders, dataloader.WithWait[string, *models.Provider](time.Millisecond)),
		SuperAgentLoader: dataloader.NewBatchedLoader(superAgentReader.getSuperAgents, dataloader.WithWait[string, *models.SuperAgent](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// For returns the request's loaders. Outside a request a fresh set is made.
func For(ctx context.Context) *Loaders {
	if loaders, ok := ctx.Value(loadersKey).(*Loaders); ok {
		return loaders
	}
	return NewLoaders(config.GetDB())
}

// handleError repeats err for every requested key
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// turns results from db into dataloader results in key order
// (T must be a struct)
func generateLoaderResults[T models.Data](results []T, ids []string) []*dataloader.Result[*T] {
	resultMap := make(map[string]T, len(results))
	for _, result := range results {
		resultMap[result.GetId()] = result
	}

	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		data := resultMap[id]
		if reflect.ValueOf(data).IsZero() {
			data = data.GetDefault(id).(T)
		}
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: &data})
	}
	return loaderResults
}
