package storage

import (
	"context"
	"errors"
	"time"

	"github.com/evcc-io/ownerportal/util"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// adapter routes gorm logging to the sqlite logger
type adapter struct {
	log *util.Logger
}

func (l *adapter) LogMode(_ logger.LogLevel) logger.Interface {
	return l
}

func (l *adapter) Info(_ context.Context, format string, args ...interface{}) {
	l.log.INFO.Printf(format, args...)
}

func (l *adapter) Warn(_ context.Context, format string, args ...interface{}) {
	l.log.WARN.Printf(format, args...)
}

func (l *adapter) Error(_ context.Context, format string, args ...interface{}) {
	l.log.ERROR.Printf(format, args...)
}

func (l *adapter) Trace(_ context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	// missing credentials are expected for new accounts
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sql, _ := fc()
		l.log.ERROR.Printf("%v: %s", err, sql)
		return
	}

	// statements carry tokens and are not logged
	_, rows := fc()
	l.log.TRACE.Printf("query: %d rows in %v", rows, time.Since(begin).Round(time.Millisecond))
}
