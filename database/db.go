package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate"
	migratedb "github.com/golang-migrate/migrate/database"
	migratemysql "github.com/golang-migrate/migrate/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/database/sqlite3"
	_ "github.com/golang-migrate/migrate/source/file"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/evmorb/evmorb/config"
	"github.com/evmorb/evmorb/log"
	"github.com/evmorb/evmorb/types"
)

// Database persists one record per broadcast transaction, keyed by
// (chain, sender, nonce). After an ambiguous submission failure the caller
// can load the record and check the chain for the original hash instead of
// resubmitting blindly.
type Database interface {
	Init() error
	SaveTxRecord(rec *types.TxRecord) error
	LoadTxRecord(chain, sender string, nonce uint64) (*types.TxRecord, error)
	UpdateTxStatus(chain, txHash string, status types.TxRecordStatus) error
	Close() error
}

type DefaultDatabase struct {
	cfg config.Config
	db  *sql.DB
}

type dbLogger struct{}

func (l *dbLogger) Printf(format string, v ...interface{}) {
	log.Verbosef(format, v...)
}

func (l *dbLogger) Verbose() bool {
	return false
}

func NewDb(cfg config.Config) Database {
	return &DefaultDatabase{
		cfg: cfg,
	}
}

func (d *DefaultDatabase) Init() error {
	if err := d.Connect(); err != nil {
		log.Error("Failed to connect to DB. Err = ", err)
		return err
	}

	return d.DoMigration()
}

func (d *DefaultDatabase) Connect() error {
	switch d.cfg.DbDriver {
	case "sqlite3":
		return d.connectSqlite()
	case "mysql":
		return d.connectMysql()
	case "postgres":
		return d.connectPostgres()
	default:
		return fmt.Errorf("unsupported db driver %q", d.cfg.DbDriver)
	}
}

func (d *DefaultDatabase) connectSqlite() error {
	path := d.cfg.DbPath
	if d.cfg.InMemory {
		path = ":memory:"
	}
	if path == "" {
		return fmt.Errorf("sqlite3 requires db_path or in_memory")
	}

	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	d.db = database
	log.Verbose("Sqlite db is connected, path = ", path)
	return nil
}

func (d *DefaultDatabase) connectMysql() error {
	host := d.cfg.DbHost
	if host == "" {
		return fmt.Errorf("DB host cannot be empty")
	}

	username := d.cfg.DbUsername
	password := d.cfg.DbPassword
	schema := d.cfg.DbSchema

	// Create the schema if it does not exist yet, then reconnect to it.
	url := fmt.Sprintf("%s:%s@tcp(%s:%d)/", username, password, host, d.cfg.DbPort)
	database, err := sql.Open("mysql", url)
	if err != nil {
		return err
	}
	_, err = database.Exec("CREATE DATABASE IF NOT EXISTS " + schema)
	if err != nil {
		return err
	}
	database.Close()

	database, err = sql.Open("mysql",
		fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", username, password, host, d.cfg.DbPort, schema))
	if err != nil {
		return err
	}

	d.db = database
	log.Info("Db is connected successfully")
	return nil
}

func (d *DefaultDatabase) connectPostgres() error {
	host := d.cfg.DbHost
	if host == "" {
		return fmt.Errorf("DB host cannot be empty")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, d.cfg.DbPort, d.cfg.DbUsername, d.cfg.DbPassword, d.cfg.DbSchema)
	database, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	d.db = database
	log.Info("Db is connected successfully")
	return nil
}

func (d *DefaultDatabase) DoMigration() error {
	migrationDir, err := MigrationsTempDir()
	if err != nil {
		return err
	}
	defer os.RemoveAll(migrationDir)

	var driver migratedb.Driver
	switch d.cfg.DbDriver {
	case "sqlite3":
		driver, err = migratesqlite.WithInstance(d.db, &migratesqlite.Config{})
	case "mysql":
		driver, err = migratemysql.WithInstance(d.db, &migratemysql.Config{})
	case "postgres":
		driver, err = migratepostgres.WithInstance(d.db, &migratepostgres.Config{})
	default:
		return fmt.Errorf("unsupported db driver %q", d.cfg.DbDriver)
	}
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationDir, d.cfg.DbDriver, driver)
	if err != nil {
		return err
	}

	m.Log = &dbLogger{}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

func (d *DefaultDatabase) SaveTxRecord(rec *types.TxRecord) error {
	query := "INSERT INTO tx_records (chain, sender, nonce, tx_hash, status) VALUES (?, ?, ?, ?, ?)"
	switch d.cfg.DbDriver {
	case "mysql":
		query = "INSERT IGNORE INTO tx_records (chain, sender, nonce, tx_hash, status) VALUES (?, ?, ?, ?, ?)"
	case "sqlite3":
		query = "INSERT OR IGNORE INTO tx_records (chain, sender, nonce, tx_hash, status) VALUES (?, ?, ?, ?, ?)"
	case "postgres":
		query = "INSERT INTO tx_records (chain, sender, nonce, tx_hash, status) VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING"
	}

	_, err := d.db.Exec(query, rec.Chain, rec.Sender, rec.Nonce, rec.TxHash, int(rec.Status))
	return err
}

func (d *DefaultDatabase) LoadTxRecord(chain, sender string, nonce uint64) (*types.TxRecord, error) {
	query := "SELECT tx_hash, status FROM tx_records WHERE chain=? AND sender=? AND nonce=?"
	if d.cfg.DbDriver == "postgres" {
		query = "SELECT tx_hash, status FROM tx_records WHERE chain=$1 AND sender=$2 AND nonce=$3"
	}

	rows, err := d.db.Query(query, chain, sender, nonce)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	rec := &types.TxRecord{
		Chain:  chain,
		Sender: sender,
		Nonce:  nonce,
	}
	var status int
	if err := rows.Scan(&rec.TxHash, &status); err != nil {
		return nil, err
	}
	rec.Status = types.TxRecordStatus(status)

	return rec, nil
}

func (d *DefaultDatabase) UpdateTxStatus(chain, txHash string, status types.TxRecordStatus) error {
	query := "UPDATE tx_records SET status=? WHERE chain=? AND tx_hash=?"
	if d.cfg.DbDriver == "postgres" {
		query = "UPDATE tx_records SET status=$1 WHERE chain=$2 AND tx_hash=$3"
	}

	_, err := d.db.Exec(query, int(status), chain, txHash)
	return err
}

func (d *DefaultDatabase) Close() error {
	if d.db == nil {
		return nil
	}

	return d.db.Close()
}
