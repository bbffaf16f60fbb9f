// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"
)

// Genesis represents the construction-time configuration for the vault.
// These values are validated once at startup and never change afterwards.
type Genesis struct {
	Date           time.Time         `json:"date"`
	Name           string            `json:"name"`             // A friendly name for this running instance.
	MaxPenaltyBps  uint64            `json:"max_penalty_bps"`  // Penalty rate charged at the instant of deposit.
	TreasuryFeeBps uint64            `json:"treasury_fee_bps"` // Treasury cut taken from any forfeited penalty.
	Treasury       string            `json:"treasury"`         // Account receiving the treasury cut.
	Balances       map[string]string `json:"balances"`         // Raw unit balances seeding the settlement bank.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the configuration is inside the supported bounds.
func (g Genesis) Validate() error {
	if g.MaxPenaltyBps > 10_000 {
		return fmt.Errorf("max penalty %d exceeds 10000 basis points", g.MaxPenaltyBps)
	}

	if g.TreasuryFeeBps > 10_000 {
		return fmt.Errorf("treasury fee %d exceeds 10000 basis points", g.TreasuryFeeBps)
	}

	if g.Treasury == "" {
		return errors.New("treasury account is required")
	}

	for account, balance := range g.Balances {
		if _, ok := new(big.Int).SetString(balance, 10); !ok {
			return fmt.Errorf("balance for account %s is not a base 10 integer", account)
		}
	}

	return nil
}
