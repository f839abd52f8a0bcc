package service

import (
	"github.com/smartinventory/backend/internal/domain"
)

// HistoryRepository is re-exported from domain for convenience
type HistoryRepository = domain.HistoryRepository
