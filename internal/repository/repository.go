// Package repository implements PostgreSQL storage for consensus records,
// results and simulation runs.
package repository

import (
	"fmt"

	"github.com/josema3054/predicciones-deportivas/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Consensus     ConsensusRepository
	Result        ResultRepository
	SimulationRun SimulationRunRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Consensus:     NewPostgresConsensusRepository(db),
		Result:        NewPostgresResultRepository(db),
		SimulationRun: NewPostgresSimulationRunRepository(db),
	}, nil
}
