package data

import (
	"time"

	"gorm.io/gorm"
)

// Outcome is how a connection ended, as far as the handshake is concerned.
type Outcome string

const (
	// The server replied to the client's handshake.
	OutcomeHandshaken Outcome = "handshaken"
	// The server closed the connection in response to a message.
	OutcomeRejected Outcome = "rejected"
	// The connection ended for any other reason (peer hung up, timeout, read error).
	OutcomeDropped Outcome = "dropped"
)

// ConnectionRecord is the audit entry written when a connection ends.
type ConnectionRecord struct {
	ID             uint64 `gorm:"primaryKey"`
	RemoteAddr     string `gorm:"index; not null"`
	LocalAddr      string
	Outcome        Outcome `gorm:"index; not null"`
	LastMessage    string
	ConnectedAt    time.Time
	DisconnectedAt time.Time
}

// CreateConnectionRecord persists the record to the database.
func CreateConnectionRecord(db *gorm.DB, record *ConnectionRecord) error {
	return db.Create(record).Error
}

// FindRecentConnections returns up to limit records, most recently ended first.
func FindRecentConnections(db *gorm.DB, limit int) ([]ConnectionRecord, error) {
	var records []ConnectionRecord
	err := db.Order("disconnected_at desc, id desc").Limit(limit).Find(&records).Error
	return records, err
}

// FindConnectionsByOutcome returns up to limit records with the given outcome, most
// recently ended first.
func FindConnectionsByOutcome(db *gorm.DB, outcome Outcome, limit int) ([]ConnectionRecord, error) {
	var records []ConnectionRecord
	err := db.Where("outcome = ?", outcome).
		Order("disconnected_at desc, id desc").
		Limit(limit).
		Find(&records).Error
	return records, err
}
