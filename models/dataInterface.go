package models

import "github.com/google/uuid"

type Identifier interface {
	GetId() string
}

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(string) Data
}

func (p Provider) GetId() string {
	return p.ID
}

// GetDefault stands in for a provider that no longer resolves, so summaries
// still render the balance row.
func (p Provider) GetDefault(id string) Data {
	return Provider{
		ID:   id,
		Name: "Unknown provider",
	}
}

func (s SuperAgent) GetId() string {
	return s.ID
}

func (s SuperAgent) GetDefault(id string) Data {
	return SuperAgent{
		ID:   id,
		Name: "Unknown super agent",
	}
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
