// Package infrastructure contains the adapters behind the domain ports:
// MySQL stores, the filesystem blob store, the scoring clients, the
// RabbitMQ task queue and the Redis session store.
package infrastructure

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"intellimatch/domain"
)

// NewMySQL opens the database connection and migrates the schema.
func NewMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.ResumeMatch{}, &domain.MatchResult{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}
