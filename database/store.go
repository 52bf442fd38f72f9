package database

import (
	"database/sql"
	"fmt"
	"log"

	"marelle-logistics/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	DB *sql.DB
}

func NewStore(cfg config.Config) (*Store, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db connection failed: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}

	store := &Store{DB: db}
	if err := store.ensureTables(); err != nil {
		return nil, err
	}

	log.Println("Connected to Postgres")
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func (s *Store) ensureTables() error {
	for _, table := range ShipmentTables {
		if err := s.ensureShipmentTable(table); err != nil {
			return err
		}
	}
	return nil
}

// One table per reachable (direction, logistics-type) combination, all with
// the same denormalized shape and keyed by merchant_trade_no so retried
// submissions upsert instead of duplicating.
func (s *Store) ensureShipmentTable(name string) error {
	_, err := s.DB.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			merchant_trade_no VARCHAR(64) PRIMARY KEY,
			logistics_type VARCHAR(16) NOT NULL,
			logistics_sub_type VARCHAR(32) NOT NULL DEFAULT '',
			direction VARCHAR(16) NOT NULL,
			mode VARCHAR(8) NOT NULL DEFAULT '',
			environment VARCHAR(16) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL,
			rtn_code VARCHAR(32) NOT NULL DEFAULT '',
			rtn_msg TEXT NOT NULL DEFAULT '',
			logistics_id VARCHAR(64) NOT NULL DEFAULT '',
			booking_note VARCHAR(64) NOT NULL DEFAULT '',
			goods_amount BIGINT NOT NULL DEFAULT 0,
			goods_name VARCHAR(255) NOT NULL DEFAULT '',
			is_collection BOOLEAN NOT NULL DEFAULT FALSE,
			collection_amount BIGINT NOT NULL DEFAULT 0,
			sender_name VARCHAR(64) NOT NULL DEFAULT '',
			sender_phone VARCHAR(32) NOT NULL DEFAULT '',
			sender_cellphone VARCHAR(32) NOT NULL DEFAULT '',
			sender_zip_code VARCHAR(10) NOT NULL DEFAULT '',
			sender_address VARCHAR(255) NOT NULL DEFAULT '',
			receiver_name VARCHAR(64) NOT NULL DEFAULT '',
			receiver_phone VARCHAR(32) NOT NULL DEFAULT '',
			receiver_cellphone VARCHAR(32) NOT NULL DEFAULT '',
			receiver_zip_code VARCHAR(10) NOT NULL DEFAULT '',
			receiver_address VARCHAR(255) NOT NULL DEFAULT '',
			receiver_store_id VARCHAR(16) NOT NULL DEFAULT '',
			check_mac_value VARCHAR(64) NOT NULL DEFAULT '',
			raw_result JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, name))
	return err
}
