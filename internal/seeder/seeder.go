package seeder

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kooko-labs/kooko/internal/database"
	"github.com/kooko-labs/kooko/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Orders seeds a small queue of example orders for local development.
func (s *Seeder) Orders(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Order{
		{
			CustomerRef:          "seed-customer-1",
			Variant:              entity.VariantPlain,
			Size:                 entity.SizeMedium,
			Quantity:             2,
			AddOns:               []string{"sugar"},
			Status:               entity.StatusPending,
			TotalPrice:           660,
			QueuePosition:        1,
			EstimatedWaitMinutes: 5,
			CreatedAt:            now,
			UpdatedAt:            now,
		},
		{
			CustomerRef:          "seed-customer-2",
			Variant:              entity.VariantSpecial,
			Size:                 entity.SizeLarge,
			Quantity:             1,
			AddOns:               []string{"groundnut", "dates"},
			Note:                 "extra hot",
			Status:               entity.StatusPreparing,
			TotalPrice:           650,
			QueuePosition:        2,
			EstimatedWaitMinutes: 10,
			CreatedAt:            now.Add(time.Minute),
			UpdatedAt:            now.Add(2 * time.Minute),
		},
	}

	for _, sample := range samples {
		order := sample
		_, err := s.db.NewInsert().Model(&order).Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded orders", zap.Int("count", len(samples)))
	}
	return nil
}
