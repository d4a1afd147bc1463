package store

import (
	"time"

	"github.com/egaotan/solana-router/aggregator"
)

type LegRecord struct {
	Id           uint64 `gorm:"primaryKey"`
	SwapRecordId uint64 `gorm:"index;not null"`
	Route        int    `gorm:"not null"`
	Hop          int    `gorm:"not null"`
	Leg          int    `gorm:"not null"`
	Dex          string `gorm:"type:varchar(32);not null"`
	Source       string `gorm:"type:varchar(48);not null"`
	Destination  string `gorm:"type:varchar(48);not null"`
	AmountIn     uint64 `gorm:"type:bigint unsigned;not null"`
	AmountOut    uint64 `gorm:"type:bigint unsigned;not null"`
}

type HopRecord struct {
	Id           uint64 `gorm:"primaryKey"`
	SwapRecordId uint64 `gorm:"index;not null"`
	Route        int    `gorm:"not null"`
	Hop          int    `gorm:"not null"`
	LastTo       string `gorm:"type:varchar(48);not null"`
	FromAccount  string `gorm:"type:varchar(48);not null"`
	ToAccount    string `gorm:"type:varchar(48);not null"`
	AmountIn     uint64 `gorm:"type:bigint unsigned;not null"`
	AmountOut    uint64 `gorm:"type:bigint unsigned;not null"`
}

// SwapRecord is one committed swap call.
type SwapRecord struct {
	Id          uint64       `gorm:"primaryKey"`
	OrderId     uint64       `gorm:"index;not null"`
	Mode        string       `gorm:"type:varchar(8);not null"`
	Payer       string       `gorm:"type:varchar(48);not null"`
	Source      string       `gorm:"type:varchar(48);not null"`
	Destination string       `gorm:"type:varchar(48);not null"`
	AmountIn    uint64       `gorm:"type:bigint unsigned;not null"`
	ActualIn    uint64       `gorm:"type:bigint unsigned;not null"`
	AmountOut   uint64       `gorm:"type:bigint unsigned;not null"`
	ActualOut   uint64       `gorm:"type:bigint unsigned;not null"`
	Commission  uint64       `gorm:"type:bigint unsigned;not null"`
	PlatformFee uint64       `gorm:"type:bigint unsigned;not null"`
	Trim        uint64       `gorm:"type:bigint unsigned;not null"`
	Slot        uint64       `gorm:"type:bigint unsigned;not null"`
	LegRecords  []*LegRecord `gorm:"foreignKey:SwapRecordId;references:Id"`
	HopRecords  []*HopRecord `gorm:"foreignKey:SwapRecordId;references:Id"`
	CreatedAt   time.Time
}

func NewSwapRecord(result *aggregator.Result) *SwapRecord {
	record := &SwapRecord{
		OrderId:     result.OrderID,
		Mode:        result.Mode.String(),
		Payer:       result.Payer.String(),
		Source:      result.Source.String(),
		Destination: result.Destination.String(),
		AmountIn:    result.AmountIn,
		ActualIn:    result.ActualIn,
		AmountOut:   result.AmountOut,
		ActualOut:   result.ActualOut,
		Commission:  result.Commission,
		PlatformFee: result.PlatformFee,
		Trim:        result.Trim,
		Slot:        result.Slot,
		LegRecords:  make([]*LegRecord, 0, len(result.Legs)),
		HopRecords:  make([]*HopRecord, 0, len(result.Hops)),
	}
	for _, leg := range result.Legs {
		record.LegRecords = append(record.LegRecords, &LegRecord{
			Route:       leg.Route,
			Hop:         leg.Hop,
			Leg:         leg.Leg,
			Dex:         leg.Dex.String(),
			Source:      leg.Source.String(),
			Destination: leg.Destination.String(),
			AmountIn:    leg.AmountIn,
			AmountOut:   leg.AmountOut,
		})
	}
	for _, hop := range result.Hops {
		record.HopRecords = append(record.HopRecords, &HopRecord{
			Route:       hop.Route,
			Hop:         hop.Hop,
			LastTo:      hop.LastTo.String(),
			FromAccount: hop.From.String(),
			ToAccount:   hop.To.String(),
			AmountIn:    hop.AmountIn,
			AmountOut:   hop.AmountOut,
		})
	}
	return record
}
