package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// GormLoggerConfig configures the GORM zap logger.
type GormLoggerConfig struct {
	Level                gormlogger.LogLevel
	SlowThreshold        time.Duration
	IgnoreRecordNotFound bool
}

// DefaultGormLoggerConfig returns production-safe defaults. Booking lookups
// miss often (unknown ids, ownership checks), so not-found stays quiet.
func DefaultGormLoggerConfig() GormLoggerConfig {
	return GormLoggerConfig{
		Level:                gormlogger.Warn,
		SlowThreshold:        250 * time.Millisecond,
		IgnoreRecordNotFound: true,
	}
}

// storeByTable names the fixdesk store behind each table.
var storeByTable = map[string]string{
	"bookings":               "booking",
	"payments":               "payment",
	"commission_collections": "ledger",
	"notifications":          "notification",
	"casbin_rule":            "authorization",
	"schema_migrations":      "migration",
}

// guardedTables hold writes that are conditional on current state: the
// booking status compare-and-swap and the one-entry-per-booking ledger.
// Zero affected rows there means another writer got there first.
var guardedTables = map[string]bool{
	"bookings":               true,
	"commission_collections": true,
}

// GormLogger implements gormlogger.Interface on zap. Every statement is
// tagged with the store it touches.
type GormLogger struct {
	level                gormlogger.LogLevel
	slowThreshold        time.Duration
	ignoreRecordNotFound bool
}

func NewGormLogger(cfg GormLoggerConfig) *GormLogger {
	return &GormLogger{
		level:                cfg.Level,
		slowThreshold:        cfg.SlowThreshold,
		ignoreRecordNotFound: cfg.IgnoreRecordNotFound,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.level = level
	return &next
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Info, zap.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Warn, zap.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Error, zap.ErrorLevel, msg, data)
}

func (l *GormLogger) message(ctx context.Context, min gormlogger.LogLevel, level zapcore.Level, msg string, data []interface{}) {
	if l.level < min {
		return
	}
	fields := []zap.Field{zap.String("component", "db")}
	if len(data) > 0 {
		fields = append(fields, zap.Any("data", data))
	}
	if ce := FromContext(ctx).Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

// Trace logs failed, slow and guarded-but-unapplied statements. Everything
// else is logged at debug when the level is Info.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && (!errors.Is(err, gormlogger.ErrRecordNotFound) || !l.ignoreRecordNotFound):
		sql, rows := fc()
		l.logQuery(ctx, "db.query_failed", sql, rows, elapsed, err, zap.ErrorLevel)
	case l.slowThreshold != 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logQuery(ctx, "db.query_slow", sql, rows, elapsed, nil, zap.WarnLevel)
	case err == nil && l.level >= gormlogger.Warn:
		sql, rows := fc()
		if rows == 0 && isGuardedWrite(sql) {
			l.logQuery(ctx, "db.guarded_write_skipped", sql, rows, elapsed, nil, zap.InfoLevel)
			return
		}
		if l.level >= gormlogger.Info {
			l.logQuery(ctx, "db.query", sql, rows, elapsed, nil, zap.DebugLevel)
		}
	}
}

// ParamsFilter drops bound values; bookings carry customer addresses and
// email addresses.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

func (l *GormLogger) logQuery(ctx context.Context, msg, sql string, rows int64, elapsed time.Duration, err error, level zapcore.Level) {
	table := tableFromSQL(sql)
	fields := []zap.Field{
		zap.String("component", "db"),
		zap.String("store", storeFor(table)),
		zap.String("operation", operationFromSQL(sql)),
		zap.String("table", table),
		zap.String("sql", strings.TrimSpace(sql)),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows_affected", rows))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if ce := FromContext(ctx).Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func isGuardedWrite(sql string) bool {
	switch operationFromSQL(sql) {
	case "UPDATE", "INSERT":
		return guardedTables[tableFromSQL(sql)]
	default:
		return false
	}
}

func storeFor(table string) string {
	if store, ok := storeByTable[table]; ok {
		return store
	}
	return "other"
}

func operationFromSQL(sql string) string {
	for _, token := range strings.Fields(strings.ToUpper(sql)) {
		token = strings.Trim(token, "();")
		switch token {
		case "SELECT", "INSERT", "UPDATE", "DELETE":
			return token
		case "WITH":
			continue
		}
	}
	return "UNKNOWN"
}

// tableFromSQL returns the first table named after FROM, INTO or UPDATE.
func tableFromSQL(sql string) string {
	tokens := strings.Fields(strings.TrimSpace(sql))
	for i := 0; i < len(tokens)-1; i++ {
		switch strings.ToUpper(tokens[i]) {
		case "FROM", "INTO", "UPDATE":
			table := strings.Trim(tokens[i+1], "\"`();")
			if table != "" {
				return strings.ToLower(table)
			}
		}
	}
	return ""
}

var _ gormlogger.Interface = (*GormLogger)(nil)
