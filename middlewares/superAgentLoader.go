package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/float_backend/models"
	"gorm.io/gorm"
)

type superAgentReader struct {
	db *gorm.DB
}

func (r *superAgentReader) getSuperAgents(ctx context.Context, ids []string) []*dataloader.Result[*models.SuperAgent] {
	var results []models.SuperAgent
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.SuperAgent](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetSuperAgent(ctx context.Context, id string) (*models.SuperAgent, error) {
	loaders := For(ctx)
	return loaders.SuperAgentLoader.Load(ctx, id)()
}
