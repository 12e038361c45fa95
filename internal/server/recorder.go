package server

import (
	"gorm.io/gorm"

	"github.com/luserv/luserv/internal/core/data"
)

// Recorder stores the audit record of a finished connection.
type Recorder interface {
	Record(record *data.ConnectionRecord) error
}

// DBRecorder writes connection records to the configured database.
type DBRecorder struct {
	DB *gorm.DB
}

func (r DBRecorder) Record(record *data.ConnectionRecord) error {
	return data.CreateConnectionRecord(r.DB, record)
}

type nopRecorder struct{}

func (nopRecorder) Record(*data.ConnectionRecord) error { return nil }
