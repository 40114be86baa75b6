package logstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DeafMist/intel-radar/backend/internal/models"
)

type interactionRow struct {
	ID              string    `gorm:"primaryKey;type:text"`
	RunID           string    `gorm:"type:text;not null;index"`
	Kind            string    `gorm:"type:text;not null"`
	OriginalQuery   string    `gorm:"type:text"`
	NormalizedQuery string    `gorm:"type:text"`
	Mode            string    `gorm:"type:text"`
	Response        string    `gorm:"type:text"`
	Strategy        string    `gorm:"type:text"`
	Documents       int       `gorm:"not null"`
	Errored         bool      `gorm:"not null"`
	Timestamp       time.Time `gorm:"type:timestamp with time zone;not null;index"`
}

func (interactionRow) TableName() string {
	return "interactions"
}

func rowFromInteraction(rec models.Interaction) interactionRow {
	return interactionRow{
		ID:              rec.ID,
		RunID:           rec.RunID,
		Kind:            string(rec.Kind),
		OriginalQuery:   rec.OriginalQuery,
		NormalizedQuery: rec.NormalizedQuery,
		Mode:            string(rec.Mode),
		Response:        rec.Response,
		Strategy:        rec.Strategy,
		Documents:       rec.Documents,
		Errored:         rec.Errored,
		Timestamp:       rec.Timestamp.UTC(),
	}
}

// Postgres stores interactions in a relational table through gorm.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgres(db), nil
}

// NewPostgres wraps an existing gorm handle.
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates or updates the interactions table.
func (p *Postgres) Migrate(ctx context.Context) error {
	if err := p.db.WithContext(ctx).AutoMigrate(&interactionRow{}); err != nil {
		return fmt.Errorf("migrate interactions: %w", err)
	}
	return nil
}

// Insert writes one record.
func (p *Postgres) Insert(ctx context.Context, rec models.Interaction) error {
	row := rowFromInteraction(rec)
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// DeleteOlderThan removes records older than maxAge in batches of batchSize
// and returns how many were deleted.
func (p *Postgres) DeleteOlderThan(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}
	cutoff := time.Now().Add(-maxAge).UTC()

	var total int64
	for {
		res := p.db.WithContext(ctx).Exec(
			`DELETE FROM "interactions" WHERE id IN (SELECT id FROM "interactions" WHERE timestamp <= ? LIMIT ?)`,
			cutoff, batchSize,
		)
		if res.Error != nil {
			return total, fmt.Errorf("delete interactions: %w", res.Error)
		}
		total += res.RowsAffected
		if res.RowsAffected < int64(batchSize) {
			return total, nil
		}
	}
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return fmt.Errorf("postgres handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
