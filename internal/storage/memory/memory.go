// Package memory provides an in-memory implementation of the storage
// interfaces. It backs the service tests and the server's dev mode; state
// is lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/ehallmark/soroban-escrow-demo/internal/models"
	"github.com/ehallmark/soroban-escrow-demo/internal/storage"
)

// Composite key types keep distinct record spaces from colliding.
type receiptKey struct {
	recipient string
	index     uint32
}

type pairKey struct {
	retainor string
	retainee string
}

type historyKey struct {
	retainor string
	retainee string
	index    uint32
}

// Store is an in-memory implementation of storage.EscrowStore and
// storage.RetainerStore. Safe for concurrent use.
type Store struct {
	mu sync.Mutex

	admin    string
	hasAdmin bool

	receipts      map[receiptKey]models.EscrowReceipt
	receiptCounts map[string]uint32

	balances       map[pairKey]models.RetainerBalance
	pendingBills   map[pairKey]models.Bill
	history        map[historyKey]models.RetainerReceipt
	historyIndexes map[pairKey]uint32
	retainees      map[string]models.RetaineeInfo
	retainors      map[string]models.RetainorInfo
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		receipts:       make(map[receiptKey]models.EscrowReceipt),
		receiptCounts:  make(map[string]uint32),
		balances:       make(map[pairKey]models.RetainerBalance),
		pendingBills:   make(map[pairKey]models.Bill),
		history:        make(map[historyKey]models.RetainerReceipt),
		historyIndexes: make(map[pairKey]uint32),
		retainees:      make(map[string]models.RetaineeInfo),
		retainors:      make(map[string]models.RetainorInfo),
	}
}

var (
	_ storage.EscrowStore   = (*Store)(nil)
	_ storage.RetainerStore = (*Store)(nil)
)

func (s *Store) Admin(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasAdmin {
		return "", storage.ErrNotFound
	}
	return s.admin, nil
}

func (s *Store) SetAdmin(ctx context.Context, admin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = admin
	s.hasAdmin = true
	return nil
}

func (s *Store) Receipt(ctx context.Context, recipient string, index uint32) (*models.EscrowReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	receipt, ok := s.receipts[receiptKey{recipient: recipient, index: index}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &receipt, nil
}

func (s *Store) ReceiptCount(ctx context.Context, recipient string) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receiptCounts[recipient], nil
}

func (s *Store) SaveDeposit(ctx context.Context, recipient string, index uint32, receipt models.EscrowReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[receiptKey{recipient: recipient, index: index}] = receipt
	s.receiptCounts[recipient] = index
	return nil
}

func (s *Store) SaveReceipt(ctx context.Context, recipient string, index uint32, receipt models.EscrowReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[receiptKey{recipient: recipient, index: index}] = receipt
	return nil
}

func (s *Store) DeleteReceipt(ctx context.Context, recipient string, index uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.receipts, receiptKey{recipient: recipient, index: index})
	return nil
}

func (s *Store) Balance(ctx context.Context, retainor, retainee string) (*models.RetainerBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[pairKey{retainor: retainor, retainee: retainee}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &balance, nil
}

func (s *Store) SetBalance(ctx context.Context, retainor, retainee string, balance models.RetainerBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[pairKey{retainor: retainor, retainee: retainee}] = balance
	return nil
}

func (s *Store) PendingBill(ctx context.Context, retainor, retainee string) (*models.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bill, ok := s.pendingBills[pairKey{retainor: retainor, retainee: retainee}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &bill, nil
}

func (s *Store) SetPendingBill(ctx context.Context, retainor, retainee string, bill models.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingBills[pairKey{retainor: retainor, retainee: retainee}] = bill
	return nil
}

func (s *Store) ClearPendingBill(ctx context.Context, retainor, retainee string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingBills, pairKey{retainor: retainor, retainee: retainee})
	return nil
}

func (s *Store) HistoryIndex(ctx context.Context, retainor, retainee string) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyIndexes[pairKey{retainor: retainor, retainee: retainee}], nil
}

func (s *Store) HistoryReceipt(ctx context.Context, retainor, retainee string, index uint32) (*models.RetainerReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	receipt, ok := s.history[historyKey{retainor: retainor, retainee: retainee, index: index}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &receipt, nil
}

func (s *Store) ApplyResolution(ctx context.Context, retainor, retainee string, balance *models.RetainerBalance, index uint32, receipt models.RetainerReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := pairKey{retainor: retainor, retainee: retainee}
	if balance != nil {
		s.balances[pair] = *balance
	}
	s.history[historyKey{retainor: retainor, retainee: retainee, index: index}] = receipt
	s.historyIndexes[pair] = index
	delete(s.pendingBills, pair)
	return nil
}

func (s *Store) RetaineeInfo(ctx context.Context, retainee string) (*models.RetaineeInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.retainees[retainee]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &info, nil
}

func (s *Store) SetRetaineeInfo(ctx context.Context, retainee string, info models.RetaineeInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retainees[retainee] = info
	return nil
}

func (s *Store) RetainorInfo(ctx context.Context, retainor string) (*models.RetainorInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.retainors[retainor]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &info, nil
}

func (s *Store) SetRetainorInfo(ctx context.Context, retainor string, info models.RetainorInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retainors[retainor] = info
	return nil
}
