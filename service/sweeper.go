package service

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Sweeper chạy expiry chủ động: nhả hold quá hạn và fail các booking
// PENDING quá hạn. Chu kỳ quét = TTL/10 để ghế không bị kẹt lâu hơn
// TTL + một chu kỳ.
type Sweeper struct {
	scheduler    gocron.Scheduler
	inventory    *SeatInventory
	orchestrator *BookingOrchestrator
	interval     time.Duration
	onReleased   func(showtimeIDs []uint)
}

func NewSweeper(inventory *SeatInventory, orchestrator *BookingOrchestrator, onReleased func([]uint)) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	interval := inventory.TTL() / 10
	if interval < time.Second {
		interval = time.Second
	}
	return &Sweeper{
		scheduler:    scheduler,
		inventory:    inventory,
		orchestrator: orchestrator,
		interval:     interval,
		onReleased:   onReleased,
	}, nil
}

func (s *Sweeper) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.Run),
	)
	if err != nil {
		return err
	}
	s.scheduler.Start()
	log.Printf("Expiry sweeper chạy mỗi %s", s.interval)
	return nil
}

func (s *Sweeper) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		log.Printf("Lỗi dừng sweeper: %v", err)
	}
}

// Run là một lượt quét; cũng dùng trực tiếp trong test.
func (s *Sweeper) Run() {
	ctx := context.Background()

	showtimeIDs, err := s.inventory.Sweep(ctx)
	if err != nil {
		log.Printf("Lỗi sweep ghế: %v", err)
	} else if len(showtimeIDs) > 0 && s.onReleased != nil {
		s.onReleased(showtimeIDs)
	}

	if n, err := s.orchestrator.SweepExpired(ctx); err != nil {
		log.Printf("Lỗi sweep booking: %v", err)
	} else if n > 0 {
		log.Printf("Đã fail %d booking quá hạn giữ ghế", n)
	}
}
