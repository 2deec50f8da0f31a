// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package indexer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/chain4travel/botvm/vms/botvm/events"
)

const (
	driverName     = "postgres"
	migrationTable = "botvm_migrations"
	defaultLimit   = 100
)

var _ events.Sink = (*Indexer)(nil)

// Migrations create the event archive. Rows are keyed by a serial id, as
// identical txs share a tx id.
var Migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1_events",
			Up: []string{
				`CREATE TABLE IF NOT EXISTS events (
					id          BIGSERIAL PRIMARY KEY,
					tx_id       TEXT        NOT NULL,
					event_index INTEGER     NOT NULL,
					name        TEXT        NOT NULL,
					contract    TEXT        NOT NULL,
					payload     JSONB       NOT NULL,
					indexed_at  TIMESTAMPTZ NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS events_tx_id_idx ON events (tx_id)`,
				`CREATE INDEX IF NOT EXISTS events_contract_name_idx ON events (contract, name)`,
			},
			Down: []string{
				`DROP TABLE IF EXISTS events`,
			},
		},
	},
}

// Row is one archived event.
type Row struct {
	ID        int64     `db:"id" json:"id"`
	TxID      string    `db:"tx_id" json:"txID"`
	Index     int       `db:"event_index" json:"index"`
	Name      string    `db:"name" json:"name"`
	Contract  string    `db:"contract" json:"contract"`
	Payload   string    `db:"payload" json:"payload"`
	IndexedAt time.Time `db:"indexed_at" json:"indexedAt"`
}

// Indexer archives the events of accepted txs in postgres.
type Indexer struct {
	db  *sqlx.DB
	log logging.Logger
	now func() time.Time
}

// New connects to [dataSourceName] and applies pending migrations.
func New(dataSourceName string, log logging.Logger) (*Indexer, error) {
	db, err := sqlx.Connect(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the event archive: %w", err)
	}
	indexer, err := NewWithDB(db, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return indexer, nil
}

func NewWithDB(db *sqlx.DB, log logging.Logger) (*Indexer, error) {
	migrate.SetTable(migrationTable)
	n, err := migrate.Exec(db.DB, driverName, Migrations, migrate.Up)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate the event archive: %w", err)
	}
	log.Info("event archive ready",
		zap.Int("appliedMigrations", n),
	)
	return &Indexer{
		db:  db,
		log: log,
		now: time.Now,
	}, nil
}

// Publish stores [accepted] in one database transaction.
func (i *Indexer) Publish(txID ids.ID, accepted []events.Event) error {
	if len(accepted) == 0 {
		return nil
	}
	rows, err := rowsOf(txID, accepted, i.now())
	if err != nil {
		return err
	}

	tx, err := i.db.Beginx()
	if err != nil {
		return err
	}
	_, err = tx.NamedExec(
		`INSERT INTO events (tx_id, event_index, name, contract, payload, indexed_at)
		VALUES (:tx_id, :event_index, :name, :contract, :payload, :indexed_at)`,
		rows,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to archive events of tx %s: %w", txID, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	i.log.Verbo("archived events",
		zap.Stringer("txID", txID),
		zap.Int("numEvents", len(rows)),
	)
	return nil
}

func rowsOf(txID ids.ID, accepted []events.Event, now time.Time) ([]Row, error) {
	rows := make([]Row, len(accepted))
	for index, e := range accepted {
		payload, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s event: %w", e.Name(), err)
		}
		rows[index] = Row{
			TxID:      txID.String(),
			Index:     index,
			Name:      e.Name(),
			Contract:  e.Contract().String(),
			Payload:   string(payload),
			IndexedAt: now.UTC(),
		}
	}
	return rows, nil
}

// TxEvents returns the archived events of [txID] in emission order.
func (i *Indexer) TxEvents(txID ids.ID) ([]Row, error) {
	rows := []Row{}
	err := i.db.Select(
		&rows,
		`SELECT * FROM events WHERE tx_id = $1 ORDER BY id`,
		txID.String(),
	)
	return rows, err
}

// ContractEvents returns the latest events emitted by [contract], newest
// first. An empty [name] matches every event. Non positive limits fall back
// to a default.
func (i *Indexer) ContractEvents(contract ids.ShortID, name string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows := []Row{}
	err := i.db.Select(
		&rows,
		`SELECT * FROM events
		WHERE contract = $1 AND ($2::text = '' OR name = $2::text)
		ORDER BY id DESC
		LIMIT $3`,
		contract.String(),
		name,
		limit,
	)
	return rows, err
}

func (i *Indexer) Close() error {
	return i.db.Close()
}
