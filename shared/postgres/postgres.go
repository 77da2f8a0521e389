package postgres

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peng-yewang/YGMall/shared/config"
)

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

func InitializePostgresDB(cfg config.Postgres) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err = executeMigrations(cfg); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func executeMigrations(cfg config.Postgres) error {
	srcURL := (&url.URL{Scheme: "file", Path: cfg.MigrationsDir}).String()

	m, err := migrate.New(srcURL, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// ExecTx runs fn inside a transaction and commits when fn returns nil.
func ExecTx(ctx context.Context, db TxBeginner, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
