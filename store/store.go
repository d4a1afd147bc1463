package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/egaotan/solana-router/aggregator"
	"github.com/egaotan/solana-router/utils"
)

// Store persists committed swaps. Writes go through a buffered channel and a
// single writer goroutine; reads hit the database directly.
type Store struct {
	ctx      context.Context
	cancel   context.CancelFunc
	swapChan chan *SwapRecord
	dao      *Dao
	log      *zap.Logger
	wg       sync.WaitGroup
}

func NewStore(ctx context.Context, dao *Dao, logger *zap.Logger) *Store {
	ctx, cancel := context.WithCancel(ctx)
	return &Store{
		ctx:      ctx,
		cancel:   cancel,
		swapChan: make(chan *SwapRecord, 32),
		dao:      dao,
		log:      utils.OrNop(logger),
	}
}

func (s *Store) Start() {
	s.wg.Add(1)
	go s.store()
}

// Stop ends the writer after it has saved what is already queued.
func (s *Store) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Store) Close() error {
	s.Stop()
	return s.dao.Close()
}

func (s *Store) store() {
	defer s.wg.Done()
	for {
		select {
		case record := <-s.swapChan:
			s.save(record)
		case <-s.ctx.Done():
			for {
				select {
				case record := <-s.swapChan:
					s.save(record)
				default:
					return
				}
			}
		}
	}
}

func (s *Store) save(record *SwapRecord) {
	if err := s.dao.SaveSwap(record); err != nil {
		s.log.Error("save swap failed", zap.Uint64("order_id", record.OrderId), zap.Error(err))
		return
	}
	s.log.Debug("swap saved", zap.Uint64("id", record.Id), zap.Uint64("order_id", record.OrderId))
}

// OnSwap queues result for persistence.
func (s *Store) OnSwap(result *aggregator.Result) {
	record := NewSwapRecord(result)
	if s.ctx.Err() != nil {
		s.log.Warn("store stopped, swap dropped", zap.Uint64("order_id", record.OrderId))
		return
	}
	select {
	case s.swapChan <- record:
	case <-s.ctx.Done():
		s.log.Warn("store stopped, swap dropped", zap.Uint64("order_id", record.OrderId))
	}
}

func (s *Store) GetSwap(id uint64) (*SwapRecord, error) {
	return s.dao.SelectSwap(id)
}

func (s *Store) GetSwapsByOrder(orderId uint64) ([]*SwapRecord, error) {
	return s.dao.SelectSwapsByOrder(orderId)
}
