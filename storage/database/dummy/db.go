package dummydb

import (
	"sync"

	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/core/settings"
)

type (
	// DB is an in-memory store for tests and local runs.
	DB struct {
		merit    *meritTables
		settings *settingsTable
	}

	meritTables struct {
		sync.Mutex // held for a whole transaction
		data       *meritData
	}

	meritData struct {
		serial      int64
		submissions []merit.Submission // in creation order
		validations []merit.Validation // in creation order
	}

	settingsTable struct {
		sync.RWMutex
		record *settings.Settings
	}
)

func Open() (*DB, error) {
	db := &DB{
		merit:    &meritTables{data: new(meritData)},
		settings: new(settingsTable),
	}
	return db, nil
}

// clone deep-copies the data for a transaction.
func (d *meritData) clone() *meritData {
	c := &meritData{
		serial:      d.serial,
		submissions: make([]merit.Submission, 0, len(d.submissions)),
		validations: make([]merit.Validation, len(d.validations)),
	}
	for _, s := range d.submissions {
		c.submissions = append(c.submissions, s.Clone())
	}
	copy(c.validations, d.validations)
	return c
}
