// internal/storage/store.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"meal-planner/internal/config"
	apperrors "meal-planner/internal/errors"
	"meal-planner/internal/models"
)

var errClosed = stderrors.New("store is closed")

// Store persists requests, meals and feedback. It is append-only.
type Store struct {
	db      *sql.DB
	dialect dialect
	closed  bool
}

// Open opens or creates the backing store and ensures the schema exists.
// Calling it again on the same database is harmless.
func Open(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, apperrors.NewStorageInitError(err)
	}

	dsn := cfg.DSN
	if d.name == DriverSQLite {
		if err := ensureParentDir(cfg.Path); err != nil {
			return nil, apperrors.NewStorageInitError(err)
		}
		dsn = sqliteDSN(cfg.Path)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, apperrors.NewStorageInitError(fmt.Errorf("failed to open database: %w", err))
	}
	db.SetMaxOpenConns(d.maxOpen)
	if d.maxLifetime > 0 {
		db.SetConnMaxLifetime(d.maxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageInitError(fmt.Errorf("failed to connect: %w", err))
	}

	store := New(db, d.name)
	if err := store.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// New wraps an already opened database. driver selects the SQL dialect.
func New(db *sql.DB, driver string) *Store {
	d, err := dialectFor(driver)
	if err != nil {
		d = sqliteDialect
	}
	return &Store{db: db, dialect: d}
}

func ensureParentDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

// Initialize creates the tables and indexes if they are missing.
func (s *Store) Initialize(ctx context.Context) error {
	if s.closed {
		return apperrors.NewStorageInitError(errClosed)
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return apperrors.NewStorageInitError(fmt.Errorf("failed to create schema: %w", err))
	}
	return nil
}

// Close releases the connection. Subsequent calls return nil.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// CreateRequest inserts a request and returns its identifier.
func (s *Store) CreateRequest(ctx context.Context, budget float64, diets []string) (int64, error) {
	if s.closed {
		return 0, apperrors.NewStorageWriteError("request", errClosed)
	}
	if math.IsNaN(budget) || math.IsInf(budget, 0) || budget <= 0 {
		return 0, apperrors.NewInvalidInputError(fmt.Sprintf("budget must be a positive number, got %v", budget))
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`INSERT INTO requests (budget, diets, created_at) VALUES (?, ?, ?) RETURNING id`),
		budget, encodeList(diets), time.Now().UTC().Format(time.RFC3339Nano),
	).Scan(&id)
	if err != nil {
		return 0, apperrors.NewStorageWriteError("request", err)
	}
	return id, nil
}

// CreateMeals inserts the whole batch in one transaction. An empty batch
// does nothing; a meal without a title rejects the batch before any write.
func (s *Store) CreateMeals(ctx context.Context, requestID int64, meals []models.Meal) error {
	if len(meals) == 0 {
		return nil
	}
	if s.closed {
		return apperrors.NewStorageWriteError("meals", errClosed)
	}
	for i, meal := range meals {
		if strings.TrimSpace(meal.Title) == "" {
			return apperrors.NewInvalidInputError(fmt.Sprintf("meal %d has an empty title", i))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageWriteError("meals", fmt.Errorf("failed to start transaction: %w", err))
	}
	defer tx.Rollback()

	mealQuery := s.dialect.rebind(`
        INSERT INTO meals (request_id, title, price, diets, source_url)
        VALUES (?, ?, ?, ?, ?)
    `)
	for _, meal := range meals {
		_, err = tx.ExecContext(ctx, mealQuery,
			requestID, meal.Title, meal.Price, encodeList(meal.Diets), meal.SourceURL)
		if err != nil {
			return apperrors.NewStorageWriteError("meals", fmt.Errorf("failed to insert meal %q: %w", meal.Title, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageWriteError("meals", fmt.Errorf("failed to commit: %w", err))
	}
	return nil
}

// CreateFeedback inserts one feedback row. Duplicates are the caller's concern.
func (s *Store) CreateFeedback(ctx context.Context, requestID int64, satisfied bool, comments string) error {
	if s.closed {
		return apperrors.NewStorageWriteError("feedback", errClosed)
	}
	_, err := s.db.ExecContext(ctx,
		s.dialect.rebind(`INSERT INTO feedback (request_id, satisfied, comments) VALUES (?, ?, ?)`),
		requestID, satisfied, comments)
	if err != nil {
		return apperrors.NewStorageWriteError("feedback", err)
	}
	return nil
}

// GetSession loads one request with its meals and feedback.
func (s *Store) GetSession(ctx context.Context, requestID int64) (*models.SessionRecord, error) {
	if s.closed {
		return nil, apperrors.NewStorageReadError("request", errClosed)
	}

	row := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT id, budget, diets, created_at FROM requests WHERE id = ?`), requestID)
	req, err := scanRequest(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewStorageReadError("request", fmt.Errorf("request %d not found", requestID))
	}
	if err != nil {
		return nil, apperrors.NewStorageReadError("request", err)
	}

	record := &models.SessionRecord{Request: *req}
	if err := s.loadSession(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// RecentSessions returns up to limit sessions, newest first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]*models.SessionRecord, error) {
	if s.closed {
		return nil, apperrors.NewStorageReadError("requests", errClosed)
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		s.dialect.rebind(`SELECT id, budget, diets, created_at FROM requests ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, apperrors.NewStorageReadError("requests", err)
	}

	// Rows are drained before the per-session queries; SQLite runs on a
	// single connection.
	var records []*models.SessionRecord
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, apperrors.NewStorageReadError("requests", err)
		}
		records = append(records, &models.SessionRecord{Request: *req})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, apperrors.NewStorageReadError("requests", err)
	}
	rows.Close()

	for _, record := range records {
		if err := s.loadSession(ctx, record); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *Store) loadSession(ctx context.Context, record *models.SessionRecord) error {
	meals, err := s.loadMeals(ctx, record.Request.ID)
	if err != nil {
		return err
	}
	record.Meals = meals

	fb, err := s.loadFeedback(ctx, record.Request.ID)
	if err != nil {
		return err
	}
	record.Feedback = fb
	return nil
}

func (s *Store) loadMeals(ctx context.Context, requestID int64) ([]models.Meal, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
        SELECT id, request_id, title, price, diets, source_url
        FROM meals
        WHERE request_id = ?
        ORDER BY id
    `), requestID)
	if err != nil {
		return nil, apperrors.NewStorageReadError("meals", err)
	}
	defer rows.Close()

	var meals []models.Meal
	for rows.Next() {
		var (
			meal  models.Meal
			diets string
		)
		if err := rows.Scan(&meal.ID, &meal.RequestID, &meal.Title, &meal.Price, &diets, &meal.SourceURL); err != nil {
			return nil, apperrors.NewStorageReadError("meals", err)
		}
		meal.Diets = decodeList(diets)
		meals = append(meals, meal)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageReadError("meals", err)
	}
	return meals, nil
}

func (s *Store) loadFeedback(ctx context.Context, requestID int64) (*models.Feedback, error) {
	var fb models.Feedback
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`
        SELECT id, request_id, satisfied, comments
        FROM feedback
        WHERE request_id = ?
        ORDER BY id
        LIMIT 1
    `), requestID).Scan(&fb.ID, &fb.RequestID, &fb.Satisfied, &fb.Comments)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageReadError("feedback", err)
	}
	return &fb, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		req       models.Request
		diets     string
		createdAt string
	)
	if err := row.Scan(&req.ID, &req.Budget, &diets, &createdAt); err != nil {
		return nil, err
	}
	req.Diets = decodeList(diets)

	var err error
	if req.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &req, nil
}

// encodeList stores a list as a JSON array; nil becomes [].
func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeList(data string) []string {
	items := []string{}
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return []string{}
	}
	return items
}
