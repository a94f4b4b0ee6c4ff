// Package postgresdb provides the PostgreSQL-backed implementation of the
// user store. Each user is a single row: scalar profile columns, the
// preference and comparison lists as TEXT[] and the history as JSONB, so the
// document-per-user layout survives the relational rendering.
package postgresdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/airpoints/internal/models"
	"github.com/patric-chuzhbe/airpoints/internal/user"
)

const uniqueViolationCode = "23505"

// PostgresDB is a PostgreSQL-backed user store.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset drops all public tables before running migrations.
// It is meant for test setups.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database, runs schema
// migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil, fmt.Errorf("error while `result.resetDB()` calling: %w", err)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("error while `goose.SetDialect()` calling: %w", err)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("error while `goose.Up()` calling: %w", err)
	}

	return result, nil
}

// CreateUser inserts a new user row and returns the generated id.
// A userName collision yields models.ErrUserNameTaken.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	historyJSON, err := marshalHistory(usr.History)
	if err != nil {
		return "", err
	}

	row := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO users (
				user_name,
				password_hash,
				email,
				nationality,
				main_airport,
				preferred_carriers,
				preferred_alliances,
				comparison_list,
				history
			)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id
		`,
		usr.UserName,
		usr.PasswordHash,
		usr.Email,
		usr.Nationality,
		usr.MainAirport,
		pq.Array(normalizeList(usr.PreferredCarriers)),
		pq.Array(normalizeList(usr.PreferredAlliances)),
		pq.Array(normalizeList(usr.ComparisonList)),
		historyJSON,
	)

	var userIDFromDB string
	if err := row.Scan(&userIDFromDB); err != nil {
		if isUniqueViolation(err) {
			return "", models.ErrUserNameTaken
		}
		return "", err
	}

	return userIDFromDB, nil
}

// GetUserByID fetches a user document by its UUID.
func (db *PostgresDB) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	return db.getUserByField(ctx, "id", userID)
}

// GetUserByUserName fetches a user document by its unique name.
func (db *PostgresDB) GetUserByUserName(ctx context.Context, userName string) (*user.User, error) {
	return db.getUserByField(ctx, "user_name", userName)
}

func (db *PostgresDB) getUserByField(ctx context.Context, field, value string) (*user.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		fmt.Sprintf(
			`
				SELECT
					id,
					user_name,
					password_hash,
					email,
					nationality,
					main_airport,
					preferred_carriers,
					preferred_alliances,
					comparison_list,
					history
				FROM users
				WHERE %s = $1
			`,
			field,
		),
		value,
	)

	usr := &user.User{}
	var historyJSON []byte
	err := row.Scan(
		&usr.ID,
		&usr.UserName,
		&usr.PasswordHash,
		&usr.Email,
		&usr.Nationality,
		&usr.MainAirport,
		pq.Array(&usr.PreferredCarriers),
		pq.Array(&usr.PreferredAlliances),
		pq.Array(&usr.ComparisonList),
		&historyJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(historyJSON, &usr.History); err != nil {
		return nil, err
	}

	return usr, nil
}

// UpdateUser overwrites the profile fields of an existing user row.
// The password hash and the bounded lists are managed by their own operations.
func (db *PostgresDB) UpdateUser(ctx context.Context, usr *user.User) error {
	result, err := db.database.ExecContext(
		ctx,
		`
			UPDATE users
				SET
					user_name = $2,
					email = $3,
					nationality = $4,
					main_airport = $5,
					preferred_carriers = $6,
					preferred_alliances = $7
				WHERE id = $1
		`,
		usr.ID,
		usr.UserName,
		usr.Email,
		usr.Nationality,
		usr.MainAirport,
		pq.Array(normalizeList(usr.PreferredCarriers)),
		pq.Array(normalizeList(usr.PreferredAlliances)),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrUserNameTaken
		}
		return err
	}

	return db.checkAffected(result)
}

// UpdatePasswordHash replaces the stored hash for the given user.
func (db *PostgresDB) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	result, err := db.database.ExecContext(
		ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1`,
		userID,
		passwordHash,
	)
	if err != nil {
		return err
	}

	return db.checkAffected(result)
}

// SaveComparisonList persists the full comparison list for the given user.
func (db *PostgresDB) SaveComparisonList(ctx context.Context, userID string, items []string) error {
	result, err := db.database.ExecContext(
		ctx,
		`UPDATE users SET comparison_list = $2 WHERE id = $1`,
		userID,
		pq.Array(normalizeList(items)),
	)
	if err != nil {
		return err
	}

	return db.checkAffected(result)
}

// SaveHistory persists the full history list for the given user.
func (db *PostgresDB) SaveHistory(ctx context.Context, userID string, entries []user.HistoryEntry) error {
	historyJSON, err := marshalHistory(entries)
	if err != nil {
		return err
	}

	result, err := db.database.ExecContext(
		ctx,
		`UPDATE users SET history = $2 WHERE id = $1`,
		userID,
		historyJSON,
	)
	if err != nil {
		return err
	}

	return db.checkAffected(result)
}

// Ping verifies connectivity with the PostgreSQL database within the
// configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf("error while `db.database.ExecContext()` calling: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func marshalHistory(entries []user.HistoryEntry) ([]byte, error) {
	if entries == nil {
		entries = []user.HistoryEntry{}
	}

	return json.Marshal(entries)
}

func normalizeList(items []string) []string {
	if items == nil {
		return []string{}
	}

	return items
}
