// Package entity defines the domain models for the watchlist feature.
package entity

import "time"

// Symbol is one tracked instrument. Code is the raw symbol accepted by the market engine
// ("AAPL", "BTC-USD", "PEPE:eth" or a contract address).
type Symbol struct {
	ID         uint      `gorm:"primaryKey"`
	Code       string    `gorm:"size:128;not null;uniqueIndex"`
	Name       string    `gorm:"size:255;not null"`
	AssetClass string    `gorm:"size:16;not null;default:stock"`
	IsActive   bool      `gorm:"not null;default:true"`
	SortKey    int       `gorm:"not null;default:0"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName pins the table name independent of the package name.
func (Symbol) TableName() string { return "watchlist_symbols" }
