package output

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"showlist/internal/models"
	"showlist/internal/pipeline"
)

// ErrNoDatabasePath is returned when the SQLite path is empty.
var ErrNoDatabasePath = errors.New("sqlite path is required")

const upsertBatchSize = 200

// artistRow is the artists table.
type artistRow struct {
	ID              string `gorm:"primaryKey"`
	DisplayName     string
	NormalizedName  string `gorm:"uniqueIndex"`
	TotalEventCount int
	UpdatedAt       time.Time
}

func (artistRow) TableName() string { return "artists" }

// venueRow is the venues table.
type venueRow struct {
	ID              string `gorm:"primaryKey"`
	Name            string
	NormalizedName  string `gorm:"uniqueIndex"`
	City            string
	Address         string
	Phone           string
	AgeRestriction  string
	TotalEventCount int
	Stub            bool
	UpdatedAt       time.Time
}

func (venueRow) TableName() string { return "venues" }

// eventRow is the events table.
type eventRow struct {
	ID             string    `gorm:"primaryKey"`
	Date           time.Time `gorm:"index"`
	VenueID        string    `gorm:"index"`
	ArtistIDs      []string  `gorm:"serializer:json"`
	AgeRestriction string
	Price          string
	PriceAmount    float64
	SoldOut        bool
	ShowTime       string
	SourceLine     int
	RunID          string `gorm:"index"`
	UpdatedAt      time.Time
}

func (eventRow) TableName() string { return "events" }

// runRow records each run written to the database.
type runRow struct {
	ID          string `gorm:"primaryKey"`
	GeneratedAt time.Time
	Events      int
	Artists     int
	Venues      int
	Errors      int
	Warnings    int
}

func (runRow) TableName() string { return "runs" }

// SQLiteSink upserts run results into a SQLite database, keyed by entity id.
type SQLiteSink struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if path == "" {
		return nil, ErrNoDatabasePath
	}

	dsn := path
	if path != ":memory:" {
		dsn += "?_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// every connection to :memory: is a separate database
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("getting sql handle: %w", err)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	return NewSQLiteSink(db)
}

// NewSQLiteSink wraps an open database and migrates the schema.
func NewSQLiteSink(db *gorm.DB) (*SQLiteSink, error) {
	if err := db.AutoMigrate(&artistRow{}, &venueRow{}, &eventRow{}, &runRow{}); err != nil {
		return nil, fmt.Errorf("migrating sqlite schema: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

// DB returns the underlying database handle.
func (s *SQLiteSink) DB() *gorm.DB {
	return s.db
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting sql handle: %w", err)
	}

	return sqlDB.Close()
}

// Write upserts every artist, venue and event of run in one transaction and
// records the run. Rows from earlier runs that this run does not mention are
// left in place.
func (s *SQLiteSink) Write(ctx context.Context, run *pipeline.RunResult, runID string) error {
	if run == nil {
		return ErrNilRun
	}

	now := time.Now().UTC()

	artists := make([]artistRow, 0, len(run.Artists))
	for _, a := range run.Artists {
		artists = append(artists, artistRow{
			ID:              a.ID,
			DisplayName:     a.DisplayName,
			NormalizedName:  a.NormalizedName,
			TotalEventCount: a.TotalEventCount,
			UpdatedAt:       now,
		})
	}

	venues := make([]venueRow, 0, len(run.Venues))
	for _, v := range run.Venues {
		venues = append(venues, venueRow{
			ID:              v.ID,
			Name:            v.Name,
			NormalizedName:  v.NormalizedName,
			City:            v.City,
			Address:         v.Address,
			Phone:           v.Phone,
			AgeRestriction:  string(v.AgeRestriction),
			TotalEventCount: v.TotalEventCount,
			Stub:            v.Stub,
			UpdatedAt:       now,
		})
	}

	events := eventRows(run.Events, runID, now)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{UpdateAll: true}

		if len(artists) > 0 {
			if err := tx.Clauses(upsert).CreateInBatches(&artists, upsertBatchSize).Error; err != nil {
				return fmt.Errorf("upserting artists: %w", err)
			}
		}

		if len(venues) > 0 {
			if err := tx.Clauses(upsert).CreateInBatches(&venues, upsertBatchSize).Error; err != nil {
				return fmt.Errorf("upserting venues: %w", err)
			}
		}

		if len(events) > 0 {
			if err := tx.Clauses(upsert).CreateInBatches(&events, upsertBatchSize).Error; err != nil {
				return fmt.Errorf("upserting events: %w", err)
			}
		}

		if err := tx.Clauses(upsert).Create(&runRow{
			ID:          runID,
			GeneratedAt: now,
			Events:      len(run.Events),
			Artists:     len(run.Artists),
			Venues:      len(run.Venues),
			Errors:      len(run.Errors),
			Warnings:    len(run.Warnings),
		}).Error; err != nil {
			return fmt.Errorf("recording run: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("writing sqlite: %w", err)
	}

	return nil
}

// eventRows converts events, keeping the last of any repeated id.
func eventRows(events []*models.Event, runID string, now time.Time) []eventRow {
	index := make(map[string]int, len(events))
	rows := make([]eventRow, 0, len(events))

	for _, e := range events {
		row := eventRow{
			ID:             e.ID,
			Date:           e.Date.UTC(),
			VenueID:        e.VenueID,
			ArtistIDs:      e.ArtistIDs,
			AgeRestriction: string(e.AgeRestriction),
			Price:          e.Price.String(),
			PriceAmount:    e.Price.Amount,
			SoldOut:        e.SoldOut,
			ShowTime:       e.Time,
			SourceLine:     e.SourceLine,
			RunID:          runID,
			UpdatedAt:      now,
		}

		if i, dup := index[e.ID]; dup {
			rows[i] = row

			continue
		}

		index[e.ID] = len(rows)
		rows = append(rows, row)
	}

	return rows
}
