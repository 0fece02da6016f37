package services

import (
	"context"

	"github.com/hausbuch/backend/internal/models"
	"github.com/hausbuch/backend/internal/store"
)

// BalanceService derives net account balances from the booking entries
// recorded since each account's last saldo checkpoint. Balances are computed
// on demand and never cached.
type BalanceService struct {
	store store.LedgerStore
}

func NewBalanceService(st store.LedgerStore) *BalanceService {
	return &BalanceService{store: st}
}

// CalculateBalanceInfo computes one balance per requested account. The sum
// window of an account starts at its latest saldo entry (inclusive, so the
// saldo amounts count) or is unbounded when no saldo exists. Ties between
// the credit and debit sums resolve to a debit balance.
func (s *BalanceService) CalculateBalanceInfo(ctx context.Context, userID string, accountIDs []string) ([]models.AccountBalanceInfo, error) {
	saldos, err := s.store.GetLastSaldoAccountEntries(ctx, userID, accountIDs)
	if err != nil {
		return nil, err
	}

	opts := make([]models.BookingSearchOption, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		opt := models.BookingSearchOption{AccountID: accountID}
		if saldo, ok := saldos[accountID]; ok {
			from := saldo.BookingTime
			opt.From = &from
		}
		opts = append(opts, opt)
	}

	entries, err := s.store.ListAccountBookingEntries(ctx, userID, opts)
	if err != nil {
		return nil, err
	}

	sumCredit := make(map[string]uint64, len(accountIDs))
	sumDebit := make(map[string]uint64, len(accountIDs))
	for _, e := range entries {
		if e.BookingType.IsCredit() {
			sumCredit[e.AccountID] += e.Amount
		} else {
			sumDebit[e.AccountID] += e.Amount
		}
	}

	infos := make([]models.AccountBalanceInfo, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		credit, debit := sumCredit[accountID], sumDebit[accountID]
		info := models.AccountBalanceInfo{AccountID: accountID, BalanceType: models.BalanceTypeDebit}
		if credit > debit {
			info.Amount = credit - debit
			info.BalanceType = models.BalanceTypeCredit
		} else {
			info.Amount = debit - credit
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// GetLastSaldoAccountEntries returns the most recent saldo entry per
// requested account; accounts without one are absent from the map.
func (s *BalanceService) GetLastSaldoAccountEntries(ctx context.Context, userID string, accountIDs []string) (map[string]models.AccountBookingEntry, error) {
	return s.store.GetLastSaldoAccountEntries(ctx, userID, accountIDs)
}
