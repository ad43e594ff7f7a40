package gormrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core"
)

// Open wraps an opened postgres connection pool in a gorm session.
func Open(db *sql.DB, logger core.Logger, debug bool) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:         newLogger(logger, debug),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening gorm session")
	}
	return gdb, nil
}

// logger forwards gorm logs to core.Logger.
type logger struct {
	core     core.Logger
	level    gormlogger.LogLevel
	slowness time.Duration
}

var _ gormlogger.Interface = (*logger)(nil) // interface compliance check

func newLogger(l core.Logger, debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return &logger{core: l, level: level, slowness: 200 * time.Millisecond}
}

func (l *logger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	nl := *l
	nl.level = level
	return &nl
}

func (l *logger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.core.Debug(fmt.Sprintf(msg, data...))
	}
}

func (l *logger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.core.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *logger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.core.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		query, rows := fc()
		l.core.Error(fmt.Sprintf("gorm: %s | %d rows | %s", elapsed, rows, query), err)
	case elapsed > l.slowness && l.level >= gormlogger.Warn:
		query, rows := fc()
		l.core.Warn(fmt.Sprintf("gorm: slow query %s | %d rows | %s", elapsed, rows, query))
	case l.level >= gormlogger.Info:
		query, rows := fc()
		l.core.Debug(fmt.Sprintf("gorm: %s | %d rows | %s", elapsed, rows, query))
	}
}
