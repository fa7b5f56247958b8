package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/interfaces"
)

// Manager owns the Badger connection and the storages built on it
type Manager struct {
	db        *BadgerDB
	kv        interfaces.KeyValueStorage
	knowledge interfaces.KnowledgeStorage
	runs      interfaces.RunStorage
	logger    arbor.ILogger
}

// NewManager opens the database and creates every storage
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		kv:        NewKVStorage(db, logger),
		knowledge: NewKnowledgeStorage(db, logger),
		runs:      NewRunStorage(db, logger),
		logger:    logger,
	}

	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

func (m *Manager) KnowledgeStorage() interfaces.KnowledgeStorage {
	return m.knowledge
}

func (m *Manager) RunStorage() interfaces.RunStorage {
	return m.runs
}

// Close closes the underlying database
func (m *Manager) Close() error {
	return m.db.Close()
}
