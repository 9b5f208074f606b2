package svc

import (
	"fmt"
	"time"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/config"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/db"
)

// MustInitArchive 初始化归档库连接，失败时 panic
func MustInitArchive(conf *config.ArchiveConf) *db.DBClient {
	var dsn string
	var dialect db.DBType

	if conf.Timeout == "" {
		conf.Timeout = "5s"
	}

	switch conf.Dialect {
	case "pg", "postgres":
		dialect = db.PG
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			conf.Host,
			conf.Port,
			conf.User,
			conf.Password,
			conf.Database,
		)
	case "mysql", "":
		dialect = db.MySQL
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?timeout=%s&parseTime=true",
			conf.User,
			conf.Password,
			conf.Host,
			conf.Port,
			conf.Database,
			conf.Timeout,
		)
	default:
		panic(fmt.Sprintf("unsupported archive dialect: %s", conf.Dialect))
	}

	client, err := db.NewDBClient(dsn, dialect)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to archive db: %v", err))
	}

	sqlDB, err := client.DB.DB()
	if err != nil {
		panic(fmt.Sprintf("failed to access archive db pool: %v", err))
	}
	sqlDB.SetMaxOpenConns(conf.MaxOpenConns)
	sqlDB.SetMaxIdleConns(conf.MaxIdleConns)
	if conf.ConnMaxIdleTime != "" {
		dur, err := time.ParseDuration(conf.ConnMaxIdleTime)
		if err != nil {
			panic(fmt.Sprintf("invalid conn_max_idle_time: %v", err))
		}
		sqlDB.SetConnMaxIdleTime(dur)
	}

	return client
}
