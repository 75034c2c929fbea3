package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/reloved/marketplace/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			display_name TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			item_id TEXT PRIMARY KEY,
			seller_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			furniture_type TEXT NOT NULL,
			condition TEXT,
			starting_price REAL NOT NULL CHECK (starting_price > 0),
			min_price REAL,
			image_url TEXT,
			status TEXT NOT NULL DEFAULT 'available',
			views_count INTEGER NOT NULL DEFAULT 0,
			dimensions TEXT,
			material TEXT,
			brand TEXT,
			color TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			sold_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_seller ON items(seller_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_items_type_status ON items(furniture_type, status)`,
		`CREATE TABLE IF NOT EXISTS negotiations (
			negotiation_id TEXT PRIMARY KEY,
			item_id TEXT NOT NULL,
			seller_id TEXT NOT NULL,
			buyer_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			current_offer REAL,
			final_price REAL,
			round_number INTEGER NOT NULL DEFAULT 0 CHECK (round_number >= 0),
			max_rounds INTEGER NOT NULL DEFAULT 10 CHECK (max_rounds > 0),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME,
			expires_at DATETIME,
			CHECK (seller_id != buyer_id),
			FOREIGN KEY (item_id) REFERENCES items(item_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_negotiations_item_status ON negotiations(item_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_negotiations_buyer ON negotiations(buyer_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_negotiations_seller ON negotiations(seller_id, created_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_negotiations_item_buyer_active
			ON negotiations(item_id, buyer_id) WHERE status = 'active'`,
		`CREATE TABLE IF NOT EXISTS offers (
			offer_id TEXT PRIMARY KEY,
			negotiation_id TEXT NOT NULL,
			offer_type TEXT NOT NULL,
			price REAL NOT NULL CHECK (price > 0),
			message TEXT,
			round_number INTEGER NOT NULL CHECK (round_number > 0),
			is_counter_offer INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (negotiation_id) REFERENCES negotiations(negotiation_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_negotiation_round ON offers(negotiation_id, round_number)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			conversation_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			metadata TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			message_id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_name TEXT,
			tool_payload TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (conversation_id) REFERENCES conversations(conversation_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_conv ON chat_messages(conversation_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS pending_plans (
			plan_id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			actions TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME NOT NULL,
			decided_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_plans_conv ON pending_plans(conversation_id, status)`,
		`CREATE TABLE IF NOT EXISTS deal_events (
			event_id TEXT PRIMARY KEY,
			negotiation_id TEXT NOT NULL,
			status TEXT NOT NULL,
			note TEXT,
			actor_id TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (negotiation_id) REFERENCES negotiations(negotiation_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deal_events_negotiation ON deal_events(negotiation_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertUser creates or updates a user profile.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, username, display_name, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET username = excluded.username, display_name = excluded.display_name`,
		user.UserID, user.Username, nullString(user.DisplayName), user.CreatedAt)
	return err
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	var displayName sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, username, display_name, created_at FROM users WHERE user_id = ?`,
		userID).Scan(&user.UserID, &user.Username, &displayName, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if displayName.Valid {
		user.DisplayName = displayName.String
	}
	return &user, nil
}

// CreateItem creates a new listing.
func (s *SQLiteStore) CreateItem(ctx context.Context, item *domain.Item) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (item_id, seller_id, name, description, furniture_type, condition, starting_price, min_price, image_url, status, views_count, dimensions, material, brand, color, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ItemID, item.SellerID, item.Name, nullString(item.Description), item.FurnitureType,
		nullString(item.Condition), item.StartingPrice, nullFloat(item.MinPrice), nullString(item.ImageURL),
		item.Status, item.ViewsCount, nullString(item.Dimensions), nullString(item.Material),
		nullString(item.Brand), nullString(item.Color), item.CreatedAt, item.UpdatedAt)
	return err
}

const itemColumns = `item_id, seller_id, name, description, furniture_type, condition, starting_price, min_price, image_url, status, views_count, dimensions, material, brand, color, created_at, updated_at, sold_at`

func scanItem(row interface{ Scan(...interface{}) error }) (*domain.Item, error) {
	var item domain.Item
	var description, condition, imageURL, dimensions, material, brand, color sql.NullString
	var minPrice sql.NullFloat64
	var soldAt sql.NullTime
	err := row.Scan(&item.ItemID, &item.SellerID, &item.Name, &description, &item.FurnitureType,
		&condition, &item.StartingPrice, &minPrice, &imageURL, &item.Status, &item.ViewsCount,
		&dimensions, &material, &brand, &color, &item.CreatedAt, &item.UpdatedAt, &soldAt)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.Condition = condition.String
	item.ImageURL = imageURL.String
	item.Dimensions = dimensions.String
	item.Material = material.String
	item.Brand = brand.String
	item.Color = color.String
	if minPrice.Valid {
		item.MinPrice = minPrice.Float64
	}
	if soldAt.Valid {
		item.SoldAt = &soldAt.Time
	}
	return &item, nil
}

// GetItem retrieves a listing by ID.
func (s *SQLiteStore) GetItem(ctx context.Context, itemID string) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE item_id = ?`, itemID)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems lists listings matching the filter.
func (s *SQLiteStore) ListItems(ctx context.Context, filter ItemFilter) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []interface{}

	if filter.FurnitureType != "" {
		query += ` AND furniture_type = ?`
		args = append(args, filter.FurnitureType)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.SellerID != "" {
		query += ` AND seller_id = ?`
		args = append(args, filter.SellerID)
	}

	switch filter.Sort {
	case "price_asc":
		query += ` ORDER BY starting_price ASC`
	case "price_desc":
		query += ` ORDER BY starting_price DESC`
	default:
		query += ` ORDER BY created_at DESC`
	}
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem persists seller-editable fields of a listing.
func (s *SQLiteStore) UpdateItem(ctx context.Context, item *domain.Item) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, starting_price = ?, min_price = ?, condition = ?, status = ?, updated_at = ? WHERE item_id = ?`,
		item.Name, nullString(item.Description), item.StartingPrice, nullFloat(item.MinPrice),
		nullString(item.Condition), item.Status, time.Now(), item.ItemID)
	return err
}

// IncrementItemViews bumps the view counter.
func (s *SQLiteStore) IncrementItemViews(ctx context.Context, itemID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE items SET views_count = views_count + 1 WHERE item_id = ?`, itemID)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
