// Package database provides the persistence layer for user profiles,
// conversation sessions, meal plan history and the conversation log,
// backed by a PostgreSQL pool.
package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// EnsureSchema creates the application tables if they do not exist.
	EnsureSchema(ctx context.Context) error

	// Close terminates the database connection.
	Close()

	Queries() *Queries
}

type service struct {
	pool *pgxpool.Pool
	q    *Queries
}

// Queries implements Service.
func (s *service) Queries() *Queries {
	return s.q
}

var (
	database   = os.Getenv("BLUEPRINT_DB_DATABASE")
	password   = os.Getenv("BLUEPRINT_DB_PASSWORD")
	username   = os.Getenv("BLUEPRINT_DB_USERNAME")
	port       = os.Getenv("BLUEPRINT_DB_PORT")
	host       = os.Getenv("BLUEPRINT_DB_HOST")
	schema     = os.Getenv("BLUEPRINT_DB_SCHEMA")
	dbInstance *service
)

func NewService() Service {
	// Reuse Connection
	if dbInstance != nil {
		return dbInstance
	}
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s", username, password, host, port, database, schema)

	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v\n", err)
	}

	dbInstance = &service{
		pool: pool,
		q:    New(pool),
	}
	return dbInstance
}

// EnsureSchema creates the tables this service needs. All statements are
// idempotent so repeated startups are safe.
func (s *service) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Health checks the health of the database connection.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Printf("db down: %v", err)
		return stats
	}

	poolStats := s.pool.Stat()
	stats["status"] = "up"
	stats["total_conns"] = strconv.Itoa(int(poolStats.TotalConns()))
	stats["idle_conns"] = strconv.Itoa(int(poolStats.IdleConns()))
	stats["acquired_conns"] = strconv.Itoa(int(poolStats.AcquiredConns()))
	stats["max_conns"] = strconv.Itoa(int(poolStats.MaxConns()))
	stats["acquire_count"] = strconv.FormatInt(poolStats.AcquireCount(), 10)
	stats["acquire_duration_ms"] = strconv.FormatInt(poolStats.AcquireDuration().Milliseconds(), 10)
	stats["empty_acquire_count"] = strconv.FormatInt(poolStats.EmptyAcquireCount(), 10)

	if poolStats.AcquiredConns() > (poolStats.MaxConns() * 8 / 10) { // 80% capacity
		stats["message"] = "The database connection pool is experiencing heavy load."
	}
	if poolStats.EmptyAcquireCount() > 0 {
		stats["message"] = "The application has tried to acquire a connection from an empty pool. Consider increasing max connections."
	}

	return stats
}

// Close closes the database connection.
func (s *service) Close() {
	log.Printf("Disconnected from database: %s", database)
	s.pool.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS mama_users (
		phone_number TEXT PRIMARY KEY,
		trimester TEXT NOT NULL DEFAULT '',
		dietary_preference TEXT NOT NULL DEFAULT '',
		allergies TEXT[] NOT NULL DEFAULT '{}',
		cultural_preference TEXT NOT NULL DEFAULT '',
		conditions TEXT[] NOT NULL DEFAULT '{}',
		usage_preference TEXT NOT NULL DEFAULT '',
		conversation_state TEXT NOT NULL DEFAULT 'NEW',
		selected_day TEXT NOT NULL DEFAULT '',
		selected_slot TEXT NOT NULL DEFAULT '',
		prior_state TEXT NOT NULL DEFAULT '',
		active_plan_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_active TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS meal_plans (
		plan_id TEXT PRIMARY KEY,
		phone_number TEXT NOT NULL REFERENCES mama_users(phone_number) ON DELETE CASCADE,
		week_number INT NOT NULL,
		plan_data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (phone_number, week_number)
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id BIGSERIAL PRIMARY KEY,
		phone_number TEXT NOT NULL,
		message TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meal_plans_phone ON meal_plans (phone_number, week_number DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_phone ON conversations (phone_number, created_at DESC)`,
}
