package state_test

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aayushmayush07/vault/foundation/vault/bank"
	"github.com/aayushmayush07/vault/foundation/vault/database"
	"github.com/aayushmayush07/vault/foundation/vault/database/storage"
	"github.com/aayushmayush07/vault/foundation/vault/genesis"
	"github.com/aayushmayush07/vault/foundation/vault/state"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const treasuryID = database.AccountID("0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8")

const (
	fourteenDays = uint64(14 * 24 * 60 * 60)
	oneUnit      = int64(1_000_000_000_000_000_000)
)

// =============================================================================

type account struct {
	privateKey *ecdsa.PrivateKey
	id         database.AccountID
}

func newAccount(t *testing.T) account {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate a private key: %v", failed, err)
	}

	return account{
		privateKey: privateKey,
		id:         database.PublicKeyToAccountID(privateKey.PublicKey),
	}
}

func (a account) deposit(t *testing.T, value *big.Int, duration uint64) database.SignedOp {
	signedOp, err := database.NewDepositOp(value, duration).Sign(a.privateKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign a deposit: %v", failed, err)
	}
	return signedOp
}

func (a account) op(t *testing.T, kind database.OpKind, id uint64) database.SignedOp {
	signedOp, err := database.NewPositionOp(kind, id).Sign(a.privateKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign a %s: %v", failed, kind, err)
	}
	return signedOp
}

// =============================================================================

// testVault wires a vault against an in-memory journal and a fixed clock
// the tests advance by hand.
type testVault struct {
	state   *state.State
	bank    *bank.Bank
	storage *storage.Memory
	genesis genesis.Genesis
	advance func(d time.Duration)
	events  func() []string
}

func newVault(t *testing.T, accounts []account, funds *big.Int, wrap func(*bank.Bank) state.Gateway) *testVault {
	balances := make(map[string]string)
	for _, account := range accounts {
		balances[string(account.id)] = funds.String()
	}

	gen := genesis.Genesis{
		Date:           time.Date(2023, time.March, 10, 0, 0, 0, 0, time.UTC),
		Name:           "Vault Test Network",
		MaxPenaltyBps:  500,
		TreasuryFeeBps: 100,
		Treasury:       string(treasuryID),
		Balances:       balances,
	}

	bnk, err := bank.New(gen)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the bank: %v", failed, err)
	}

	strg, err := storage.NewMemory()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct memory storage: %v", failed, err)
	}

	var gateway state.Gateway = bnk
	if wrap != nil {
		gateway = wrap(bnk)
	}

	current := time.Date(2023, time.March, 10, 12, 0, 0, 0, time.UTC)

	var evMu sync.Mutex
	var msgs []string

	st, err := state.New(state.Config{
		Genesis: gen,
		Storage: strg,
		Gateway: gateway,
		Now:     func() time.Time { return current },
		EvHandler: func(v string, args ...any) {
			evMu.Lock()
			defer evMu.Unlock()
			msgs = append(msgs, fmt.Sprintf(v, args...))
		},
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the vault: %v", failed, err)
	}

	return &testVault{
		state:   st,
		bank:    bnk,
		storage: strg,
		genesis: gen,
		advance: func(d time.Duration) { current = current.Add(d) },
		events: func() []string {
			evMu.Lock()
			defer evMu.Unlock()
			return append([]string(nil), msgs...)
		},
	}
}

// =============================================================================

func Test_Deposit(t *testing.T) {
	t.Log("Given the need to lock value into the vault.")
	{
		alice := newAccount(t)
		vault := newVault(t, []account{alice}, big.NewInt(2*oneUnit), nil)

		t.Log("\tWhen submitting malformed deposits.")
		{
			_, err := vault.state.Deposit(alice.deposit(t, big.NewInt(0), fourteenDays))
			if !errors.Is(err, state.ErrZeroDeposit) {
				t.Fatalf("\t%s\tShould reject a zero value deposit: %v", failed, err)
			}
			t.Logf("\t%s\tShould reject a zero value deposit.", success)

			_, err = vault.state.Deposit(alice.deposit(t, big.NewInt(oneUnit), 0))
			if !errors.Is(err, state.ErrZeroDuration) {
				t.Fatalf("\t%s\tShould reject a zero duration deposit: %v", failed, err)
			}
			t.Logf("\t%s\tShould reject a zero duration deposit.", success)
		}

		t.Log("\tWhen submitting a valid deposit.")
		{
			receipt, err := vault.state.Deposit(alice.deposit(t, big.NewInt(oneUnit), fourteenDays))
			if err != nil {
				t.Fatalf("\t%s\tShould be able to deposit: %v", failed, err)
			}
			t.Logf("\t%s\tShould be able to deposit.", success)

			if receipt.PositionID != 1 {
				t.Fatalf("\t%s\tShould receive position id 1, got %d.", failed, receipt.PositionID)
			}
			t.Logf("\t%s\tShould receive position id 1.", success)

			position, exists := vault.state.QueryPosition(receipt.PositionID)
			if !exists {
				t.Fatalf("\t%s\tShould find the live position.", failed)
			}
			if position.UnlockAt != position.Start+fourteenDays {
				t.Fatalf("\t%s\tShould unlock exactly one duration after start.", failed)
			}
			t.Logf("\t%s\tShould unlock exactly one duration after start.", success)

			if vault.bank.Balance(alice.id).Cmp(big.NewInt(oneUnit)) != 0 {
				t.Fatalf("\t%s\tShould collect the value from the owner, balance %s.", failed, vault.bank.Balance(alice.id))
			}
			t.Logf("\t%s\tShould collect the value from the owner.", success)

			if vault.state.PendingReward(receipt.PositionID).Sign() != 0 {
				t.Fatalf("\t%s\tShould start with zero pending reward.", failed)
			}
			t.Logf("\t%s\tShould start with zero pending reward.", success)
		}

		t.Log("\tWhen the owner cannot fund the deposit.")
		{
			nextID := vault.state.RetrieveNextID()

			_, err := vault.state.Deposit(alice.deposit(t, big.NewInt(5*oneUnit), fourteenDays))
			if err == nil {
				t.Fatalf("\t%s\tShould reject a deposit beyond the owner balance.", failed)
			}
			t.Logf("\t%s\tShould reject a deposit beyond the owner balance.", success)

			if vault.state.RetrieveNextID() != nextID {
				t.Fatalf("\t%s\tShould roll the id counter back after a failed collection.", failed)
			}
			t.Logf("\t%s\tShould roll the id counter back after a failed collection.", success)
		}
	}
}

func Test_Withdraw(t *testing.T) {
	t.Log("Given the need to pay out a matured position.")
	{
		alice := newAccount(t)
		bob := newAccount(t)
		vault := newVault(t, []account{alice, bob}, big.NewInt(2*oneUnit), nil)

		receipt, err := vault.state.Deposit(alice.deposit(t, big.NewInt(oneUnit), fourteenDays))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to deposit: %v", failed, err)
		}

		t.Log("\tWhen the precondition is not met.")
		{
			_, err := vault.state.Withdraw(alice.op(t, database.OpWithdraw, 42))
			if !errors.Is(err, state.ErrPositionDoesNotExist) {
				t.Fatalf("\t%s\tShould reject an unknown position id: %v", failed, err)
			}
			t.Logf("\t%s\tShould reject an unknown position id.", success)

			_, err = vault.state.Withdraw(bob.op(t, database.OpWithdraw, receipt.PositionID))
			if !errors.Is(err, state.ErrNotOwner) {
				t.Fatalf("\t%s\tShould reject a caller who is not the owner: %v", failed, err)
			}
			t.Logf("\t%s\tShould reject a caller who is not the owner.", success)

			_, err = vault.state.Withdraw(alice.op(t, database.OpWithdraw, receipt.PositionID))
			if !errors.Is(err, state.ErrStakeNotMatured) {
				t.Fatalf("\t%s\tShould reject a withdraw before maturity: %v", failed, err)
			}
			t.Logf("\t%s\tShould reject a withdraw before maturity.", success)
		}

		t.Log("\tWhen the position has matured.")
		{
			vault.advance(14 * 24 * time.Hour)

			wreceipt, err := vault.state.Withdraw(alice.op(t, database.OpWithdraw, receipt.PositionID))
			if err != nil {
				t.Fatalf("\t%s\tShould be able to withdraw at the unlock boundary: %v", failed, err)
			}
			t.Logf("\t%s\tShould be able to withdraw at the unlock boundary.", success)

			if wreceipt.Paid.Cmp(big.NewInt(oneUnit)) != 0 {
				t.Fatalf("\t%s\tShould pay the full principal with no rewards, got %s.", failed, wreceipt.Paid)
			}
			t.Logf("\t%s\tShould pay the full principal with no rewards.", success)

			if _, exists := vault.state.QueryPosition(receipt.PositionID); exists {
				t.Fatalf("\t%s\tShould remove the position from the ledger.", failed)
			}
			t.Logf("\t%s\tShould remove the position from the ledger.", success)

			if vault.bank.Balance(alice.id).Cmp(big.NewInt(2*oneUnit)) != 0 {
				t.Fatalf("\t%s\tShould restore the owner balance, got %s.", failed, vault.bank.Balance(alice.id))
			}
			t.Logf("\t%s\tShould restore the owner balance.", success)
		}
	}
}

func Test_Ragequit(t *testing.T) {
	t.Log("Given two equal stakers and one early exit halfway through the lock.")
	{
		alice := newAccount(t)
		bob := newAccount(t)
		vault := newVault(t, []account{alice, bob}, big.NewInt(oneUnit), nil)

		aliceReceipt, err := vault.state.Deposit(alice.deposit(t, big.NewInt(oneUnit), fourteenDays))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to deposit: %v", failed, err)
		}
		bobReceipt, err := vault.state.Deposit(bob.deposit(t, big.NewInt(oneUnit), fourteenDays))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to deposit: %v", failed, err)
		}

		vault.advance(7 * 24 * time.Hour)

		t.Log("\tWhen the first staker ragequits.")
		{
			receipt, err := vault.state.Ragequit(alice.op(t, database.OpRagequit, aliceReceipt.PositionID))
			if err != nil {
				t.Fatalf("\t%s\tShould be able to ragequit before maturity: %v", failed, err)
			}
			t.Logf("\t%s\tShould be able to ragequit before maturity.", success)

			// Half the lock remains, so half the 500 bps maximum applies.
			penalty := big.NewInt(25_000_000_000_000_000)
			if receipt.Penalty.Cmp(penalty) != 0 {
				t.Fatalf("\t%s\tShould forfeit 250 bps of the principal, got %s.", failed, receipt.Penalty)
			}
			t.Logf("\t%s\tShould forfeit 250 bps of the principal.", success)

			payout := big.NewInt(oneUnit - 25_000_000_000_000_000)
			if receipt.Paid.Cmp(payout) != 0 {
				t.Fatalf("\t%s\tShould pay the principal minus the penalty, got %s.", failed, receipt.Paid)
			}
			t.Logf("\t%s\tShould pay the principal minus the penalty.", success)

			fee := big.NewInt(25_000_000_000_000)
			if vault.bank.Balance(treasuryID).Cmp(fee) != 0 {
				t.Fatalf("\t%s\tShould pay the treasury 100 bps of the penalty, got %s.", failed, vault.bank.Balance(treasuryID))
			}
			t.Logf("\t%s\tShould pay the treasury 100 bps of the penalty.", success)

			toStakers := big.NewInt(24_750_000_000_000_000)
			if pending := vault.state.PendingReward(bobReceipt.PositionID); pending.Cmp(toStakers) != 0 {
				t.Fatalf("\t%s\tShould socialize the rest to the remaining staker, got %s.", failed, pending)
			}
			t.Logf("\t%s\tShould socialize the rest to the remaining staker.", success)
		}

		t.Log("\tWhen the remaining staker harvests and withdraws.")
		{
			toStakers := big.NewInt(24_750_000_000_000_000)

			receipt, err := vault.state.HarvestProfit(bob.op(t, database.OpHarvest, bobReceipt.PositionID))
			if err != nil {
				t.Fatalf("\t%s\tShould be able to harvest the reward: %v", failed, err)
			}
			if receipt.Paid.Cmp(toStakers) != 0 {
				t.Fatalf("\t%s\tShould harvest the full socialized amount, got %s.", failed, receipt.Paid)
			}
			t.Logf("\t%s\tShould harvest the full socialized amount.", success)

			_, err = vault.state.HarvestProfit(bob.op(t, database.OpHarvest, bobReceipt.PositionID))
			if !errors.Is(err, state.ErrNothingToHarvest) {
				t.Fatalf("\t%s\tShould have nothing left to harvest: %v", failed, err)
			}
			t.Logf("\t%s\tShould have nothing left to harvest.", success)

			vault.advance(7 * 24 * time.Hour)

			_, err = vault.state.Ragequit(bob.op(t, database.OpRagequit, bobReceipt.PositionID))
			if !errors.Is(err, state.ErrAlreadyMatured) {
				t.Fatalf("\t%s\tShould reject a ragequit at maturity: %v", failed, err)
			}
			t.Logf("\t%s\tShould reject a ragequit at maturity.", success)

			wreceipt, err := vault.state.Withdraw(bob.op(t, database.OpWithdraw, bobReceipt.PositionID))
			if err != nil {
				t.Fatalf("\t%s\tShould be able to withdraw: %v", failed, err)
			}
			if wreceipt.Paid.Cmp(big.NewInt(oneUnit)) != 0 {
				t.Fatalf("\t%s\tShould pay the already-harvested principal only, got %s.", failed, wreceipt.Paid)
			}
			t.Logf("\t%s\tShould pay the already-harvested principal only.", success)

			// With equal shares the distribution truncates nothing, so the
			// pool must empty to the raw unit.
			if vault.bank.Pool().Sign() != 0 {
				t.Fatalf("\t%s\tShould leave no value behind in the pool, got %s.", failed, vault.bank.Pool())
			}
			t.Logf("\t%s\tShould leave no value behind in the pool.", success)
		}
	}
}

func Test_LastStakerRagequit(t *testing.T) {
	t.Log("Given a sole staker exiting early.")
	{
		alice := newAccount(t)
		vault := newVault(t, []account{alice}, big.NewInt(oneUnit), nil)

		receipt, err := vault.state.Deposit(alice.deposit(t, big.NewInt(oneUnit), fourteenDays))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to deposit: %v", failed, err)
		}

		vault.advance(7 * 24 * time.Hour)

		t.Log("\tWhen no other shares remain to socialize the penalty to.")
		{
			rreceipt, err := vault.state.Ragequit(alice.op(t, database.OpRagequit, receipt.PositionID))
			if err != nil {
				t.Fatalf("\t%s\tShould be able to ragequit: %v", failed, err)
			}
			t.Logf("\t%s\tShould be able to ragequit.", success)

			if rreceipt.Paid.Cmp(big.NewInt(oneUnit-25_000_000_000_000_000)) != 0 {
				t.Fatalf("\t%s\tShould pay the principal minus the penalty, got %s.", failed, rreceipt.Paid)
			}
			t.Logf("\t%s\tShould pay the principal minus the penalty.", success)

			if vault.bank.Balance(treasuryID).Cmp(big.NewInt(25_000_000_000_000_000)) != 0 {
				t.Fatalf("\t%s\tShould redirect the whole penalty to the treasury, got %s.", failed, vault.bank.Balance(treasuryID))
			}
			t.Logf("\t%s\tShould redirect the whole penalty to the treasury.", success)

			if vault.state.RetrieveAccPenaltyPerShare().Sign() != 0 {
				t.Fatalf("\t%s\tShould leave the accumulator untouched.", failed)
			}
			t.Logf("\t%s\tShould leave the accumulator untouched.", success)

			if vault.bank.Pool().Sign() != 0 {
				t.Fatalf("\t%s\tShould leave no value behind in the pool, got %s.", failed, vault.bank.Pool())
			}
			t.Logf("\t%s\tShould leave no value behind in the pool.", success)
		}
	}
}

// =============================================================================

// brokenGateway fails every payout while letting collections through.
type brokenGateway struct {
	*bank.Bank
}

func (g brokenGateway) Transfer(to database.AccountID, amount *big.Int) error {
	return fmt.Errorf("settlement refused transfer of %s", amount)
}

func Test_TransferFailureRollsBack(t *testing.T) {
	t.Log("Given a settlement substrate that refuses payouts.")
	{
		alice := newAccount(t)
		vault := newVault(t, []account{alice}, big.NewInt(oneUnit), func(b *bank.Bank) state.Gateway {
			return brokenGateway{b}
		})

		receipt, err := vault.state.Deposit(alice.deposit(t, big.NewInt(oneUnit), fourteenDays))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to deposit: %v", failed, err)
		}

		vault.advance(14 * 24 * time.Hour)

		t.Log("\tWhen the payout fails.")
		{
			if _, err := vault.state.Withdraw(alice.op(t, database.OpWithdraw, receipt.PositionID)); err == nil {
				t.Fatalf("\t%s\tShould surface the transfer failure.", failed)
			}
			t.Logf("\t%s\tShould surface the transfer failure.", success)

			if _, exists := vault.state.QueryPosition(receipt.PositionID); !exists {
				t.Fatalf("\t%s\tShould keep the position live after the rollback.", failed)
			}
			t.Logf("\t%s\tShould keep the position live after the rollback.", success)

			if vault.state.RetrieveTotalShares().Cmp(big.NewInt(oneUnit)) != 0 {
				t.Fatalf("\t%s\tShould keep the total shares intact, got %s.", failed, vault.state.RetrieveTotalShares())
			}
			t.Logf("\t%s\tShould keep the total shares intact.", success)
		}
	}
}

// treasuryRefusingGateway fails only the payment to the treasury, forcing
// the claw back of the owner payment.
type treasuryRefusingGateway struct {
	*bank.Bank
}

func (g treasuryRefusingGateway) Transfer(to database.AccountID, amount *big.Int) error {
	if to == treasuryID {
		return errors.New("treasury account frozen")
	}
	return g.Bank.Transfer(to, amount)
}

func Test_TreasuryFailureClawsBack(t *testing.T) {
	t.Log("Given a ragequit whose second payment fails.")
	{
		alice := newAccount(t)
		vault := newVault(t, []account{alice}, big.NewInt(oneUnit), func(b *bank.Bank) state.Gateway {
			return treasuryRefusingGateway{b}
		})

		receipt, err := vault.state.Deposit(alice.deposit(t, big.NewInt(oneUnit), fourteenDays))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to deposit: %v", failed, err)
		}

		vault.advance(7 * 24 * time.Hour)

		t.Log("\tWhen the treasury transfer is refused.")
		{
			if _, err := vault.state.Ragequit(alice.op(t, database.OpRagequit, receipt.PositionID)); err == nil {
				t.Fatalf("\t%s\tShould surface the treasury transfer failure.", failed)
			}
			t.Logf("\t%s\tShould surface the treasury transfer failure.", success)

			if vault.bank.Balance(alice.id).Sign() != 0 {
				t.Fatalf("\t%s\tShould claw the owner payment back, balance %s.", failed, vault.bank.Balance(alice.id))
			}
			t.Logf("\t%s\tShould claw the owner payment back.", success)

			if _, exists := vault.state.QueryPosition(receipt.PositionID); !exists {
				t.Fatalf("\t%s\tShould keep the position live after the rollback.", failed)
			}
			t.Logf("\t%s\tShould keep the position live after the rollback.", success)

			if vault.bank.Pool().Cmp(big.NewInt(oneUnit)) != 0 {
				t.Fatalf("\t%s\tShould keep the pool whole, got %s.", failed, vault.bank.Pool())
			}
			t.Logf("\t%s\tShould keep the pool whole.", success)
		}
	}
}

// reentrantGateway calls back into the vault from inside a payout, the way
// a hostile receiver would.
type reentrantGateway struct {
	*bank.Bank
	state    *state.State
	resubmit database.SignedOp
	inner    error
}

func (g *reentrantGateway) Transfer(to database.AccountID, amount *big.Int) error {
	_, g.inner = g.state.Withdraw(g.resubmit)
	return g.Bank.Transfer(to, amount)
}

func Test_Reentrancy(t *testing.T) {
	t.Log("Given a payout receiver that calls back into the vault.")
	{
		alice := newAccount(t)

		var gateway reentrantGateway
		vault := newVault(t, []account{alice}, big.NewInt(oneUnit), func(b *bank.Bank) state.Gateway {
			gateway.Bank = b
			return &gateway
		})
		gateway.state = vault.state

		receipt, err := vault.state.Deposit(alice.deposit(t, big.NewInt(oneUnit), fourteenDays))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to deposit: %v", failed, err)
		}

		vault.advance(14 * 24 * time.Hour)
		gateway.resubmit = alice.op(t, database.OpWithdraw, receipt.PositionID)

		t.Log("\tWhen the withdraw payout re-enters the vault.")
		{
			wreceipt, err := vault.state.Withdraw(alice.op(t, database.OpWithdraw, receipt.PositionID))
			if err != nil {
				t.Fatalf("\t%s\tShould complete the outer withdraw: %v", failed, err)
			}
			t.Logf("\t%s\tShould complete the outer withdraw.", success)

			if !errors.Is(gateway.inner, state.ErrReentrancy) {
				t.Fatalf("\t%s\tShould reject the nested invocation: %v", failed, gateway.inner)
			}
			t.Logf("\t%s\tShould reject the nested invocation.", success)

			if wreceipt.Paid.Cmp(big.NewInt(oneUnit)) != 0 {
				t.Fatalf("\t%s\tShould pay the principal exactly once, got %s.", failed, wreceipt.Paid)
			}
			t.Logf("\t%s\tShould pay the principal exactly once.", success)
		}
	}
}

func Test_ZeroPenaltyRagequit(t *testing.T) {
	t.Log("Given a ragequit so close to maturity the penalty rounds to zero.")
	{
		alice := newAccount(t)
		bob := newAccount(t)
		vault := newVault(t, []account{alice, bob}, big.NewInt(oneUnit), nil)

		receipt, err := vault.state.Deposit(alice.deposit(t, big.NewInt(oneUnit), fourteenDays))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to deposit: %v", failed, err)
		}
		if _, err := vault.state.Deposit(bob.deposit(t, big.NewInt(oneUnit), fourteenDays)); err != nil {
			t.Fatalf("\t%s\tShould be able to deposit: %v", failed, err)
		}

		vault.advance(14*24*time.Hour - time.Minute)

		t.Log("\tWhen stakers remain but nothing is socialized.")
		{
			rreceipt, err := vault.state.Ragequit(alice.op(t, database.OpRagequit, receipt.PositionID))
			if err != nil {
				t.Fatalf("\t%s\tShould be able to ragequit: %v", failed, err)
			}
			t.Logf("\t%s\tShould be able to ragequit.", success)

			if rreceipt.Penalty.Sign() != 0 || rreceipt.Paid.Cmp(big.NewInt(oneUnit)) != 0 {
				t.Fatalf("\t%s\tShould pay the full principal with a zero penalty, got %s/%s.", failed, rreceipt.Paid, rreceipt.Penalty)
			}
			t.Logf("\t%s\tShould pay the full principal with a zero penalty.", success)

			var distributed bool
			for _, msg := range vault.events() {
				if strings.Contains(msg, "PenaltyDistributed: toStakers[0]") {
					distributed = true
				}
			}
			if !distributed {
				t.Fatalf("\t%s\tShould still report the distribution to the remaining stakers.", failed)
			}
			t.Logf("\t%s\tShould still report the distribution to the remaining stakers.", success)

			if vault.state.RetrieveAccPenaltyPerShare().Sign() != 0 {
				t.Fatalf("\t%s\tShould leave the accumulator untouched.", failed)
			}
			t.Logf("\t%s\tShould leave the accumulator untouched.", success)
		}
	}
}

func Test_ConcurrentDeposits(t *testing.T) {
	t.Log("Given two callers submitting operations at the same time.")
	{
		alice := newAccount(t)

		gen := genesis.Genesis{
			Date:           time.Date(2023, time.March, 10, 0, 0, 0, 0, time.UTC),
			Name:           "Vault Test Network",
			MaxPenaltyBps:  500,
			TreasuryFeeBps: 100,
			Treasury:       string(treasuryID),
			Balances:       map[string]string{string(alice.id): big.NewInt(2 * oneUnit).String()},
		}

		bnk, err := bank.New(gen)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the bank: %v", failed, err)
		}
		strg, err := storage.NewMemory()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct memory storage: %v", failed, err)
		}

		// The first clock read happens while the vault guard is held and
		// before any gateway call, so parking it there pins the guard at a
		// known point for the second caller to run into.
		entered := make(chan struct{})
		hold := make(chan struct{})
		var once sync.Once
		current := time.Date(2023, time.March, 10, 12, 0, 0, 0, time.UTC)

		st, err := state.New(state.Config{
			Genesis: gen,
			Storage: strg,
			Gateway: bnk,
			Now: func() time.Time {
				once.Do(func() {
					close(entered)
					<-hold
				})
				return current
			},
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the vault: %v", failed, err)
		}

		t.Log("\tWhen the second submission arrives while the guard is held.")
		{
			first := alice.deposit(t, big.NewInt(oneUnit), fourteenDays)
			second := alice.deposit(t, big.NewInt(oneUnit), fourteenDays)

			var wg sync.WaitGroup
			errs := make(chan error, 2)

			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := st.Deposit(first)
				errs <- err
			}()

			<-entered

			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := st.Deposit(second)
				errs <- err
			}()

			// Give the second caller time to reach the guard before the
			// first is released.
			time.Sleep(100 * time.Millisecond)
			close(hold)
			wg.Wait()
			close(errs)

			for err := range errs {
				if err != nil {
					t.Fatalf("\t%s\tShould serialize concurrent deposits instead of failing one: %v", failed, err)
				}
			}
			t.Logf("\t%s\tShould serialize concurrent deposits instead of failing one.", success)

			if st.RetrieveTotalShares().Cmp(big.NewInt(2*oneUnit)) != 0 {
				t.Fatalf("\t%s\tShould land both deposits in the ledger, got %s.", failed, st.RetrieveTotalShares())
			}
			t.Logf("\t%s\tShould land both deposits in the ledger.", success)

			if st.RetrieveNextID() != 3 {
				t.Fatalf("\t%s\tShould hand out one id per deposit, next is %d.", failed, st.RetrieveNextID())
			}
			t.Logf("\t%s\tShould hand out one id per deposit.", success)
		}
	}
}

// =============================================================================

func Test_JournalReplay(t *testing.T) {
	t.Log("Given a vault restarting over a committed journal.")
	{
		alice := newAccount(t)
		bob := newAccount(t)
		vault := newVault(t, []account{alice, bob}, big.NewInt(oneUnit), nil)

		aliceReceipt, err := vault.state.Deposit(alice.deposit(t, big.NewInt(oneUnit), fourteenDays))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to deposit: %v", failed, err)
		}
		bobReceipt, err := vault.state.Deposit(bob.deposit(t, big.NewInt(oneUnit), fourteenDays))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to deposit: %v", failed, err)
		}

		vault.advance(7 * 24 * time.Hour)

		if _, err := vault.state.Ragequit(alice.op(t, database.OpRagequit, aliceReceipt.PositionID)); err != nil {
			t.Fatalf("\t%s\tShould be able to ragequit: %v", failed, err)
		}

		t.Log("\tWhen replaying the journal into a fresh vault over a genesis bank.")
		{
			// The restart path: a brand new bank seeded only from genesis,
			// brought up to date by the journal replay.
			freshBank, err := bank.New(vault.genesis)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to construct a fresh bank: %v", failed, err)
			}

			maturity := time.Date(2023, time.March, 25, 12, 0, 0, 0, time.UTC)

			replayed, err := state.New(state.Config{
				Genesis: vault.genesis,
				Storage: vault.storage,
				Gateway: freshBank,
				Now:     func() time.Time { return maturity },
			})
			if err != nil {
				t.Fatalf("\t%s\tShould be able to rebuild from the journal: %v", failed, err)
			}
			t.Logf("\t%s\tShould be able to rebuild from the journal.", success)

			if replayed.RetrieveTotalShares().Cmp(vault.state.RetrieveTotalShares()) != 0 {
				t.Fatalf("\t%s\tShould rebuild the same total shares.", failed)
			}
			t.Logf("\t%s\tShould rebuild the same total shares.", success)

			if replayed.RetrieveAccPenaltyPerShare().Cmp(vault.state.RetrieveAccPenaltyPerShare()) != 0 {
				t.Fatalf("\t%s\tShould rebuild the same accumulator.", failed)
			}
			t.Logf("\t%s\tShould rebuild the same accumulator.", success)

			if replayed.RetrieveNextID() != vault.state.RetrieveNextID() {
				t.Fatalf("\t%s\tShould rebuild the same id counter.", failed)
			}
			t.Logf("\t%s\tShould rebuild the same id counter.", success)

			if pending := replayed.PendingReward(bobReceipt.PositionID); pending.Cmp(vault.state.PendingReward(bobReceipt.PositionID)) != 0 {
				t.Fatalf("\t%s\tShould rebuild the same pending reward, got %s.", failed, pending)
			}
			t.Logf("\t%s\tShould rebuild the same pending reward.", success)

			if freshBank.Pool().Cmp(vault.bank.Pool()) != 0 {
				t.Fatalf("\t%s\tShould rebuild the same vault pool, got %s exp %s.", failed, freshBank.Pool(), vault.bank.Pool())
			}
			t.Logf("\t%s\tShould rebuild the same vault pool.", success)

			payout := big.NewInt(oneUnit + 24_750_000_000_000_000)

			wreceipt, err := replayed.Withdraw(bob.op(t, database.OpWithdraw, bobReceipt.PositionID))
			if err != nil {
				t.Fatalf("\t%s\tShould be able to withdraw from the replayed vault: %v", failed, err)
			}
			t.Logf("\t%s\tShould be able to withdraw from the replayed vault.", success)

			if wreceipt.Paid.Cmp(payout) != 0 {
				t.Fatalf("\t%s\tShould pay the principal plus the socialized reward, got %s.", failed, wreceipt.Paid)
			}
			t.Logf("\t%s\tShould pay the principal plus the socialized reward.", success)

			if freshBank.Balance(bob.id).Cmp(payout) != 0 {
				t.Fatalf("\t%s\tShould credit the owner in the fresh bank, got %s.", failed, freshBank.Balance(bob.id))
			}
			t.Logf("\t%s\tShould credit the owner in the fresh bank.", success)

			if freshBank.Pool().Sign() != 0 {
				t.Fatalf("\t%s\tShould drain the pool after the final exit, got %s.", failed, freshBank.Pool())
			}
			t.Logf("\t%s\tShould drain the pool after the final exit.", success)
		}
	}
}
