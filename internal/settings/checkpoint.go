package settings

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
	"github.com/uptrace/bun"
)

// DefaultCheckpointName keys the resume cursor of the migration.
const DefaultCheckpointName = "faq_migration"

// MemoryCheckpointStore keeps the resume cursor in-memory.
type MemoryCheckpointStore struct {
	mu    sync.RWMutex
	value int64
}

var _ interfaces.CheckpointStore = (*MemoryCheckpointStore)(nil)

// NewMemoryCheckpointStore constructs an empty in-memory checkpoint store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{}
}

// Load returns the saved checkpoint.
func (s *MemoryCheckpointStore) Load(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, nil
}

// Save persists the checkpoint, clamping negatives to zero.
func (s *MemoryCheckpointStore) Save(_ context.Context, id int64) error {
	s.mu.Lock()
	s.value = max(id, 0)
	s.mu.Unlock()
	return nil
}

// BunCheckpointStore persists the resume cursor in the faqmigrate_checkpoints table.
type BunCheckpointStore struct {
	db   *bun.DB
	name string
}

var _ interfaces.CheckpointStore = (*BunCheckpointStore)(nil)

// NewBunCheckpointStore constructs a checkpoint store keyed by name. An empty
// name uses DefaultCheckpointName.
func NewBunCheckpointStore(db *bun.DB, name string) *BunCheckpointStore {
	if name == "" {
		name = DefaultCheckpointName
	}
	return &BunCheckpointStore{db: db, name: name}
}

// Load returns the saved checkpoint, zero when none was saved.
func (s *BunCheckpointStore) Load(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, errBunDatabaseRequired
	}
	var model checkpointModel
	err := s.db.NewSelect().Model(&model).Where("name = ?", s.name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return max(model.Value, 0), nil
}

// Save upserts the checkpoint row.
func (s *BunCheckpointStore) Save(ctx context.Context, id int64) error {
	if s.db == nil {
		return errBunDatabaseRequired
	}
	model := checkpointModel{
		Name:      s.name,
		Value:     max(id, 0),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(&model).
		On("CONFLICT (name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

type checkpointModel struct {
	bun.BaseModel `bun:"table:faqmigrate_checkpoints"`

	Name      string    `bun:",pk"`
	Value     int64     `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at"`
}
