package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestDSN(t *testing.T) {
	cfg := AppConfig{DBUser: "cash", DBPassword: "pw", DBHost: "db", DBPort: "3306", DBName: "cashx"}
	assert.Equal(t, "cash:pw@tcp(db:3306)/cashx?charset=utf8mb4&parseTime=True&loc=UTC", DSN(cfg))

	cfg.DatabaseURI = "root@tcp(localhost)/x"
	assert.Equal(t, "root@tcp(localhost)/x", DSN(cfg))
}

func TestSQLLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, SQLLogLevel("debug"))
	assert.Equal(t, gormlogger.Error, SQLLogLevel("error"))
	assert.Equal(t, gormlogger.Silent, SQLLogLevel("silent"))
	assert.Equal(t, gormlogger.Warn, SQLLogLevel("info"))
}
