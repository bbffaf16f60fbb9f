package database

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/aayushmayush07/vault/foundation/vault/signature"
)

// OpKind identifies one of the four mutating vault operations.
type OpKind string

// Set of operations a caller can sign and submit.
const (
	OpDeposit  OpKind = "deposit"
	OpWithdraw OpKind = "withdraw"
	OpRagequit OpKind = "ragequit"
	OpHarvest  OpKind = "harvest"
)

// =============================================================================

// Op is the operational information a caller submits to the vault. The
// identity of the caller is not a field: it is recovered from the signature.
type Op struct {
	Kind     OpKind   `json:"kind"`     // Which state transition is requested.
	Value    *big.Int `json:"value"`    // Deposit: amount of value to lock.
	Duration uint64   `json:"duration"` // Deposit: lock duration in seconds.
	ID       uint64   `json:"id"`       // Withdraw/Ragequit/Harvest: position id.
}

// NewDepositOp constructs an operation that locks value for a duration.
func NewDepositOp(value *big.Int, duration uint64) Op {
	return Op{
		Kind:     OpDeposit,
		Value:    value,
		Duration: duration,
	}
}

// NewPositionOp constructs an operation against an existing position.
func NewPositionOp(kind OpKind, id uint64) Op {
	return Op{
		Kind:  kind,
		Value: big.NewInt(0),
		ID:    id,
	}
}

// Sign uses the specified private key to sign the operation.
func (op Op) Sign(privateKey *ecdsa.PrivateKey) (SignedOp, error) {
	v, r, s, err := signature.Sign(op, privateKey)
	if err != nil {
		return SignedOp{}, err
	}

	signedOp := SignedOp{
		Op: op,
		V:  v,
		R:  r,
		S:  s,
	}

	return signedOp, nil
}

// =============================================================================

// SignedOp is a signed version of the operation. This is how clients like
// the staker CLI submit operations for execution.
type SignedOp struct {
	Op
	V *big.Int `json:"v"` // Recovery identifier, either 31 or 32 with the vault id.
	R *big.Int `json:"r"` // First coordinate of the ECDSA signature.
	S *big.Int `json:"s"` // Second coordinate of the ECDSA signature.
}

// Validate verifies the operation has a proper signature that conforms to
// our standards and names a recognized operation kind.
func (op SignedOp) Validate() error {
	switch op.Kind {
	case OpDeposit, OpWithdraw, OpRagequit, OpHarvest:
	default:
		return fmt.Errorf("unrecognized operation %q", op.Kind)
	}

	if op.Value == nil {
		return errors.New("operation value is required")
	}

	if err := signature.VerifySignature(op.V, op.R, op.S); err != nil {
		return err
	}

	return nil
}

// FromAccount extracts the account id that signed the operation.
func (op SignedOp) FromAccount() (AccountID, error) {
	address, err := signature.FromAddress(op.Op, op.V, op.R, op.S)
	return AccountID(address), err
}

// SignatureString returns the signature as a string.
func (op SignedOp) SignatureString() string {
	return signature.SignatureString(op.V, op.R, op.S)
}

// String implements the fmt.Stringer interface for logging.
func (op SignedOp) String() string {
	from, err := op.FromAccount()
	if err != nil {
		from = "unknown"
	}

	return fmt.Sprintf("%s:%s:%d", from, op.Kind, op.ID)
}
