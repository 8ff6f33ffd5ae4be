package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Provider is a mobile-money network or bank the shop acts as agent for.
// OpeningBalance is informational; float balances start from the ledger.
type Provider struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	ShopId         string          `gorm:"size:36;index;not null" json:"shop_id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Category       Category        `gorm:"size:20;not null" json:"category"`
	AgentCode      string          `gorm:"size:100" json:"agent_code"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"opening_balance"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProvider struct {
	Name           string        `json:"name" binding:"required,max=100"`
	Category       Category      `json:"category" binding:"required,oneof=mobile bank"`
	AgentCode      string        `json:"agent_code" binding:"max=100"`
	OpeningBalance *utils.Amount `json:"opening_balance"`
}

type ProviderUpdate struct {
	Name           *string       `json:"name" binding:"omitempty,max=100"`
	AgentCode      *string       `json:"agent_code" binding:"omitempty,max=100"`
	OpeningBalance *utils.Amount `json:"opening_balance"`
	IsActive       *bool         `json:"is_active"`
}

// SuperAgent is the wholesaler a shop buys or sells float through.
type SuperAgent struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ShopId    string    `gorm:"size:36;index;not null" json:"shop_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Reference string    `gorm:"size:100" json:"reference"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSuperAgent struct {
	Name      string `json:"name" binding:"required,max=100"`
	Reference string `json:"reference" binding:"max=100"`
}

type SuperAgentUpdate struct {
	Name      *string `json:"name" binding:"omitempty,max=100"`
	Reference *string `json:"reference" binding:"omitempty,max=100"`
	IsActive  *bool   `json:"is_active"`
}

func (p *Provider) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (s *SuperAgent) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (input *NewProvider) validate(tx *gorm.DB, shopId string) (decimal.Decimal, error) {
	if !input.Category.IsValid() {
		return decimal.Zero, utils.NewValidation("invalid category", map[string]string{"category": "oneof"})
	}
	opening := decimal.Zero
	if input.OpeningBalance != nil {
		opening = input.OpeningBalance.Decimal
	}
	if err := utils.ValidateMoney("opening_balance", opening, false); err != nil {
		return decimal.Zero, err
	}
	if err := utils.ValidateUnique[Provider](tx, shopId, "name", strings.TrimSpace(input.Name), ""); err != nil {
		return decimal.Zero, err
	}
	return opening, nil
}

func CreateProvider(ctx context.Context, actorId string, shopId string, input *NewProvider) (*Provider, error) {
	var provider Provider
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := VerifyShopAccess(tx, shopId, actorId); err != nil {
			return err
		}
		opening, err := input.validate(tx, shopId)
		if err != nil {
			return err
		}
		provider = Provider{
			ShopId:         shopId,
			Name:           strings.TrimSpace(input.Name),
			Category:       input.Category,
			AgentCode:      strings.TrimSpace(input.AgentCode),
			OpeningBalance: opening,
			IsActive:       utils.NewTrue(),
		}
		return tx.Create(&provider).Error
	})
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

func ListProviders(ctx context.Context, actorId string, shopId string, category *Category) ([]*Provider, error) {
	db := config.GetDB().WithContext(ctx)
	if _, err := VerifyShopAccess(db, shopId, actorId); err != nil {
		return nil, err
	}
	q := db.Where("shop_id = ?", shopId)
	if category != nil {
		q = q.Where("category = ?", *category)
	}
	var providers []*Provider
	if err := q.Order("name").Find(&providers).Error; err != nil {
		return nil, err
	}
	return providers, nil
}

// UpdateProvider edits descriptive fields. Category is fixed because float
// balances are keyed by it.
func UpdateProvider(ctx context.Context, actorId string, providerId string, input *ProviderUpdate) (*Provider, error) {
	var provider *Provider
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		provider, err = utils.FetchModelForUpdate[Provider](tx, "Provider", providerId)
		if err != nil {
			return err
		}
		if _, err := VerifyShopAccess(tx, provider.ShopId, actorId); err != nil {
			return err
		}

		changes := map[string]interface{}{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return utils.NewValidation("name is required", map[string]string{"name": "required"})
			}
			if err := utils.ValidateUnique[Provider](tx, provider.ShopId, "name", name, provider.ID); err != nil {
				return err
			}
			changes["name"] = name
		}
		if input.AgentCode != nil {
			changes["agent_code"] = strings.TrimSpace(*input.AgentCode)
		}
		if input.OpeningBalance != nil {
			if err := utils.ValidateMoney("opening_balance", input.OpeningBalance.Decimal, false); err != nil {
				return err
			}
			changes["opening_balance"] = input.OpeningBalance.Decimal
		}
		if input.IsActive != nil {
			changes["is_active"] = *input.IsActive
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(provider).Updates(changes).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", provider.ID).First(provider).Error
	})
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// DeleteProvider removes a provider nothing has been recorded against. Owner only.
func DeleteProvider(ctx context.Context, actorId string, providerId string) (*Provider, error) {
	var provider *Provider
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		provider, err = utils.FetchModelForUpdate[Provider](tx, "Provider", providerId)
		if err != nil {
			return err
		}
		shop, err := VerifyShopAccess(tx, provider.ShopId, actorId)
		if err != nil {
			return err
		}
		if err := verifyOwner(shop, actorId); err != nil {
			return err
		}

		// float rows and ledger rows keep their provider
		var count int64
		if err := tx.Model(&FloatBalance{}).Where("provider_id = ?", provider.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.NewConflict("provider has a float balance")
		}
		if err := tx.Model(&Transaction{}).Where("provider_id = ?", provider.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.NewConflict("provider has been used in transactions")
		}
		if err := tx.Model(&FloatMovement{}).Where("provider_id = ?", provider.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.NewConflict("provider has been used in float movements")
		}

		return tx.Delete(provider).Error
	})
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// GetProviderInShop fails with NOT_FOUND unless the provider belongs to shopId.
func GetProviderInShop(tx *gorm.DB, shopId string, providerId string) (*Provider, error) {
	var provider Provider
	err := tx.Where("shop_id = ? AND id = ?", shopId, providerId).Take(&provider).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("Provider")
		}
		return nil, err
	}
	return &provider, nil
}

func CreateSuperAgent(ctx context.Context, actorId string, shopId string, input *NewSuperAgent) (*SuperAgent, error) {
	var agent SuperAgent
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := VerifyShopAccess(tx, shopId, actorId); err != nil {
			return err
		}
		name := strings.TrimSpace(input.Name)
		if err := utils.ValidateUnique[SuperAgent](tx, shopId, "name", name, ""); err != nil {
			return err
		}
		agent = SuperAgent{
			ShopId:    shopId,
			Name:      name,
			Reference: strings.TrimSpace(input.Reference),
			IsActive:  utils.NewTrue(),
		}
		return tx.Create(&agent).Error
	})
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func ListSuperAgents(ctx context.Context, actorId string, shopId string) ([]*SuperAgent, error) {
	db := config.GetDB().WithContext(ctx)
	if _, err := VerifyShopAccess(db, shopId, actorId); err != nil {
		return nil, err
	}
	var agents []*SuperAgent
	if err := db.Where("shop_id = ?", shopId).Order("name").Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

func GetSuperAgent(ctx context.Context, actorId string, agentId string) (*SuperAgent, error) {
	db := config.GetDB().WithContext(ctx)
	agent, err := utils.FetchModel[SuperAgent](db, "Super agent", agentId)
	if err != nil {
		return nil, err
	}
	if _, err := VerifyShopAccess(db, agent.ShopId, actorId); err != nil {
		return nil, err
	}
	return agent, nil
}

func UpdateSuperAgent(ctx context.Context, actorId string, agentId string, input *SuperAgentUpdate) (*SuperAgent, error) {
	var agent *SuperAgent
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		agent, err = utils.FetchModelForUpdate[SuperAgent](tx, "Super agent", agentId)
		if err != nil {
			return err
		}
		if _, err := VerifyShopAccess(tx, agent.ShopId, actorId); err != nil {
			return err
		}

		changes := map[string]interface{}{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return utils.NewValidation("name is required", map[string]string{"name": "required"})
			}
			if err := utils.ValidateUnique[SuperAgent](tx, agent.ShopId, "name", name, agent.ID); err != nil {
				return err
			}
			changes["name"] = name
		}
		if input.Reference != nil {
			changes["reference"] = strings.TrimSpace(*input.Reference)
		}
		if input.IsActive != nil {
			changes["is_active"] = *input.IsActive
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(agent).Updates(changes).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", agent.ID).First(agent).Error
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// DeleteSuperAgent is refused once a float movement names the agent; deactivate
// it instead.
func DeleteSuperAgent(ctx context.Context, actorId string, agentId string) (*SuperAgent, error) {
	var agent *SuperAgent
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		agent, err = utils.FetchModelForUpdate[SuperAgent](tx, "Super agent", agentId)
		if err != nil {
			return err
		}
		shop, err := VerifyShopAccess(tx, agent.ShopId, actorId)
		if err != nil {
			return err
		}
		if err := verifyOwner(shop, actorId); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&FloatMovement{}).Where("super_agent_id = ?", agent.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.NewConflict("super agent has been used in float movements")
		}
		return tx.Delete(agent).Error
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}
