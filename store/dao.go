package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("swap record not found")

type Dao struct {
	db *gorm.DB
}

// NewDao opens driver ("sqlite" or "mysql") at dsn and migrates the swap tables.
func NewDao(driver, dsn string, logLevel logger.LogLevel) (*Dao, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	Logger := logger.Default
	Logger = Logger.LogMode(logLevel)
	db, err := gorm.Open(dialector, &gorm.Config{Logger: Logger})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver != "mysql" && strings.Contains(dsn, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// every connection to an in-memory database sees its own empty schema
		sqlDB.SetMaxOpenConns(1)
	}
	err = db.AutoMigrate(&SwapRecord{}, &LegRecord{}, &HopRecord{})
	if err != nil {
		return nil, fmt.Errorf("migrate swap tables: %w", err)
	}
	return &Dao{db: db}, nil
}

func (dao *Dao) SaveSwap(record *SwapRecord) error {
	return dao.db.Create(record).Error
}

func (dao *Dao) SelectSwap(id uint64) (*SwapRecord, error) {
	record := &SwapRecord{}
	res := dao.db.Where("id = ?", id).Preload("LegRecords").Preload("HopRecords").Limit(1).Find(record)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("swap %d: %w", id, ErrNotFound)
	}
	return record, nil
}

func (dao *Dao) SelectSwapsByOrder(orderId uint64) ([]*SwapRecord, error) {
	records := make([]*SwapRecord, 0)
	res := dao.db.Where("order_id = ?", orderId).Order("id").Preload("LegRecords").Preload("HopRecords").Find(&records)
	return records, res.Error
}

func (dao *Dao) Close() error {
	sqlDB, err := dao.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
