package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/oddsmill/settler/internal/ledger"
	"github.com/oddsmill/settler/internal/pkg/apperrors"
)

// marketRow is the persistence model: one JSONB snapshot per market. The
// engine serializes all access to a market, so the row is only ever replaced
// wholesale inside a transaction.
type marketRow struct {
	ID        string `gorm:"primaryKey"`
	Payload   []byte `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (marketRow) TableName() string { return "market_states" }

type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
		// Map driver errors onto gorm's sentinels so a duplicate Create
		// matches gorm.ErrDuplicatedKey below.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&marketRow{}); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Create(ctx context.Context, st *ledger.State) error {
	row, err := toRow(st)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Create(row).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Newf(apperrors.ErrInvalidRequest, "market %s already exists", st.Market.ID)
	}
	return err
}

func (s *PostgresStore) Load(ctx context.Context, id string) (*ledger.State, error) {
	var row marketRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "market %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return fromRow(&row)
}

func (s *PostgresStore) Commit(ctx context.Context, st *ledger.State) error {
	row, err := toRow(st)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&marketRow{}).Where("id = ?", row.ID).
			Updates(map[string]any{"payload": row.Payload, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Newf(apperrors.ErrNotFound, "market %s not found", row.ID)
		}
		return nil
	})
}

func (s *PostgresStore) List(ctx context.Context) ([]*ledger.State, error) {
	var rows []marketRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*ledger.State, 0, len(rows))
	for i := range rows {
		st, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func toRow(st *ledger.State) (*marketRow, error) {
	payload, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	return &marketRow{ID: st.Market.ID, Payload: payload, UpdatedAt: time.Now().UTC()}, nil
}

func fromRow(row *marketRow) (*ledger.State, error) {
	var st ledger.State
	if err := json.Unmarshal(row.Payload, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
