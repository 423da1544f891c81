package db

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"market_backend/internal/platform/config"
)

func TestBuildDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "with password",
			cfg:  config.DatabaseConfig{Host: "localhost", Port: 5432, User: "app", Password: "secret", Name: "market", SSLMode: "disable"},
			want: "host=localhost port=5432 user=app dbname=market sslmode=disable password=secret TimeZone=UTC",
		},
		{
			name: "without password",
			cfg:  config.DatabaseConfig{Host: "db", Port: 6543, User: "ro", Name: "market", SSLMode: "require"},
			want: "host=db port=6543 user=ro dbname=market sslmode=require TimeZone=UTC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := BuildDSN(tt.cfg); got != tt.want {
				t.Errorf("BuildDSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestConnectWithRetry_SuccessOnFirstTry は初回接続成功時にリトライせずDBを返すことを検証します。
func TestConnectWithRetry_SuccessOnFirstTry(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	db, err := ConnectWithRetry("test-dsn", 5*time.Second, func(string) (*gorm.DB, error) {
		return mockDB, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != mockDB {
		t.Error("expected mock DB to be returned")
	}
}

// TestConnectWithRetry_RetriesOnFailure は接続失敗時にリトライして最終的に成功することを検証します。
func TestConnectWithRetry_RetriesOnFailure(t *testing.T) {
	// mutates retryInterval, so not parallel
	old := retryInterval
	retryInterval = time.Millisecond
	t.Cleanup(func() { retryInterval = old })

	mockDB := &gorm.DB{}
	attempts := 0
	db, err := ConnectWithRetry("test-dsn", time.Second, func(string) (*gorm.DB, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return mockDB, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != mockDB {
		t.Error("expected mock DB to be returned")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

// TestConnectWithRetry_TimeoutAfterRetries はタイムアウト後にエラーが返されることを検証します。
func TestConnectWithRetry_TimeoutAfterRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	_, err := ConnectWithRetry("test-dsn", -time.Millisecond, func(string) (*gorm.DB, error) {
		attempts++
		return nil, errors.New("connection refused")
	})
	if err == nil {
		t.Fatal("expected error after timeout, got nil")
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt once the deadline has passed, got %d", attempts)
	}
}
