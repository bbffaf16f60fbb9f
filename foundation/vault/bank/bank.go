// Package bank maintains the settlement balances the vault collects
// deposits from and pushes payouts to. It is the production implementation
// of the orchestrator's value-transfer gateway.
package bank

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/aayushmayush07/vault/foundation/vault/database"
	"github.com/aayushmayush07/vault/foundation/vault/genesis"
)

// Bank manages balances for accounts that transact with the vault.
type Bank struct {
	mu sync.RWMutex

	balances map[database.AccountID]*big.Int
	pool     *big.Int // Value currently held by the vault itself.
}

// New constructs a bank and applies the balance information from genesis.
func New(genesis genesis.Genesis) (*Bank, error) {
	b := Bank{
		balances: make(map[database.AccountID]*big.Int),
		pool:     big.NewInt(0),
	}

	for accountStr, balanceStr := range genesis.Balances {
		accountID, err := database.ToAccountID(accountStr)
		if err != nil {
			return nil, err
		}

		balance, ok := new(big.Int).SetString(balanceStr, 10)
		if !ok {
			return nil, fmt.Errorf("invalid balance for account %s", accountStr)
		}

		b.balances[accountID] = balance
	}

	return &b, nil
}

// Collect moves value from the specified account into the vault pool. This
// backs the deposit operation.
func (b *Bank) Collect(from database.AccountID, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	balance, exists := b.balances[from]
	if !exists || balance.Cmp(amount) < 0 {
		return fmt.Errorf("account %s has insufficient funds", from)
	}

	balance.Sub(balance, amount)
	b.pool.Add(b.pool, amount)

	return nil
}

// Transfer pushes value from the vault pool to the specified account. This
// backs the withdraw, ragequit and harvest payouts.
func (b *Bank) Transfer(to database.AccountID, amount *big.Int) error {
	if !to.IsAccountID() {
		return fmt.Errorf("account %s is not properly formatted", to)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pool.Cmp(amount) < 0 {
		return fmt.Errorf("vault pool has insufficient funds for %s", amount)
	}

	balance, exists := b.balances[to]
	if !exists {
		balance = big.NewInt(0)
		b.balances[to] = balance
	}

	b.pool.Sub(b.pool, amount)
	balance.Add(balance, amount)

	return nil
}

// Credit adds value to the specified account outside any vault operation.
// This exists for operator tooling on development networks.
func (b *Bank) Credit(to database.AccountID, amount *big.Int) error {
	if !to.IsAccountID() {
		return fmt.Errorf("account %s is not properly formatted", to)
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("credit amount must be positive")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	balance, exists := b.balances[to]
	if !exists {
		balance = big.NewInt(0)
		b.balances[to] = balance
	}
	balance.Add(balance, amount)

	return nil
}

// Balance returns the current balance for the specified account.
func (b *Bank) Balance(account database.AccountID) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if balance, exists := b.balances[account]; exists {
		return new(big.Int).Set(balance)
	}

	return big.NewInt(0)
}

// CopyBalances makes a copy of the current account balances.
func (b *Bank) CopyBalances() map[database.AccountID]*big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	balances := make(map[database.AccountID]*big.Int, len(b.balances))
	for accountID, balance := range b.balances {
		balances[accountID] = new(big.Int).Set(balance)
	}

	return balances
}

// Pool returns the amount of value currently held by the vault itself. Any
// difference between the pool and the sum of open obligations is the dust
// retained by truncating distributions.
func (b *Bank) Pool() *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return new(big.Int).Set(b.pool)
}
