package service

import (
	"context"
	"sort"

	"backoffice/internal/domain"
	"backoffice/internal/errors"
	"backoffice/internal/infrastructure/mysql"

	"go.uber.org/zap"
)

type StockRepository interface {
	FindByIDForUpdate(ctx context.Context, tx mysql.Tx, id int64) (*domain.StockItem, error)
	Decrement(ctx context.Context, tx mysql.Tx, id int64, quantity int) error
	Increment(ctx context.Context, tx mysql.Tx, id int64, quantity int) error
}

// Ledger is the only component allowed to mutate quantity-on-hand as an
// order side effect. Both operations run inside the caller's transaction.
type Ledger struct {
	stockRepo StockRepository
	logger    *zap.Logger
}

func NewLedger(stockRepo StockRepository, logger *zap.Logger) *Ledger {
	return &Ledger{
		stockRepo: stockRepo,
		logger:    logger,
	}
}

// Reserve deducts stock for every line, all-or-nothing. Stock rows are
// locked in ascending item id order so two concurrent reservations over
// overlapping items never lock in opposite order.
func (l *Ledger) Reserve(ctx context.Context, tx mysql.Tx, lines []domain.OrderLine) error {
	sorted := make([]domain.OrderLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StockItemID < sorted[j].StockItemID })

	for _, line := range sorted {
		item, err := l.stockRepo.FindByIDForUpdate(ctx, tx, line.StockItemID)
		if err != nil {
			return err
		}

		if !item.CanSatisfy(line.Quantity) {
			l.logger.Warn("insufficient stock",
				zap.Int64("stockItemId", item.ID),
				zap.Int("available", item.QuantityOnHand),
				zap.Int("required", line.Quantity))
			return errors.NewInsufficientStockError(item.ID, item.QuantityOnHand, line.Quantity)
		}

		if err := l.stockRepo.Decrement(ctx, tx, line.StockItemID, line.Quantity); err != nil {
			return err
		}

		l.logger.Debug("stock reserved",
			zap.Int64("stockItemId", line.StockItemID),
			zap.Int("quantity", line.Quantity))
	}

	return nil
}

// Release restores stock for every line. Restoring stock cannot fail a
// business rule, so any error here is infrastructural.
func (l *Ledger) Release(ctx context.Context, tx mysql.Tx, lines []domain.OrderLine) error {
	sorted := make([]domain.OrderLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StockItemID < sorted[j].StockItemID })

	for _, line := range sorted {
		if err := l.stockRepo.Increment(ctx, tx, line.StockItemID, line.Quantity); err != nil {
			return err
		}

		l.logger.Debug("stock released",
			zap.Int64("stockItemId", line.StockItemID),
			zap.Int("quantity", line.Quantity))
	}

	return nil
}
