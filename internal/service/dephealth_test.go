package service

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
)

const testPGURL = "postgres://postgres@localhost:5432/images?sslmode=disable"

// TestNewDephealthService проверяет создание сервиса с изолированным registry.
// sql.Open не устанавливает соединение, поэтому БД не требуется.
func TestNewDephealthService(t *testing.T) {
	db, err := sql.Open("pgx", testPGURL)
	if err != nil {
		t.Fatalf("sql.Open() ошибка: %v", err)
	}
	defer db.Close()

	ds, err := NewDephealthService(DephealthParams{
		ServiceID:     "image-module",
		Group:         "test",
		DB:            db,
		URL:           testPGURL,
		CheckInterval: 15 * time.Second,
		Registerer:    prometheus.NewRegistry(),
	}, testLogger())
	if err != nil {
		t.Fatalf("NewDephealthService() ошибка: %v", err)
	}
	if ds == nil {
		t.Fatal("сервис не создан")
	}
}

func TestNewDephealthService_NoDB(t *testing.T) {
	_, err := NewDephealthService(DephealthParams{
		ServiceID:     "image-module",
		Group:         "test",
		URL:           testPGURL,
		CheckInterval: 15 * time.Second,
		Registerer:    prometheus.NewRegistry(),
	}, testLogger())
	if err == nil {
		t.Fatal("ожидалась ошибка без *sql.DB")
	}
}
