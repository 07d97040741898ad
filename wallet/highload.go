package wallet

import (
	"crypto/ed25519"
	"fmt"
	"math/big"
	"time"

	"ton-gmp-adapter/cell"
	"ton-gmp-adapter/pkg/tonerr"
	"ton-gmp-adapter/tonaddr"
)

// internalTransferOpcode tags the high-load wallet's internal-transfer body
// (step 2).
const internalTransferOpcode uint32 = 0xae42e5a4

// MaxActions is the most internal sends a single external message may
// carry.
const MaxActions = 254

// DefaultSendMode is the mode the wallet applies to its internal transfer
// to self (pay fees separately, ignore action-phase errors) — the
// reference implementation's fixed choice for this call path.
const DefaultSendMode uint8 = 3

// Action is one internal "send" carried by an external high-load wallet
// message: a destination, value, bounce flag and message body.
type Action struct {
	Destination tonaddr.Address
	Value       *big.Int
	Bounce      bool
	Body        *cell.Cell
}

// Clock is injected so message construction is deterministic in tests
// ("the clock source is injectable for testing").
type Clock func() time.Time

// Builder assembles signed high-load wallet external messages.
type Builder struct {
	Now Clock
}

// NewBuilder returns a Builder using the real wall clock.
func NewBuilder() *Builder {
	return &Builder{Now: time.Now}
}

func toCellAddress(a tonaddr.Address) cell.Address {
	return cell.Address{Workchain: a.Workchain, Hash: a.Hash}
}

// buildOutList folds actions into a cons-list cell: each node holds a ref
// to the previous node (nil for the first), the action's mode, and a ref
// to the constructed internal message. This is a self-consistent internal
// encoding documented in DESIGN.md, not the contract's literal
// OutList/OutAction TL-B layout (not present in the retrieved sources).
func buildOutList(actions []Action) (*cell.Cell, error) {
	if len(actions) == 0 {
		return nil, fmt.Errorf("%w: highload wallet message carries no actions", tonerr.ErrBocEncoding)
	}
	if len(actions) > MaxActions {
		return nil, fmt.Errorf("%w: %d actions exceeds max %d", tonerr.ErrBocEncoding, len(actions), MaxActions)
	}
	var prev *cell.Cell
	for _, a := range actions {
		msg, err := buildOutgoingMessage(a)
		if err != nil {
			return nil, err
		}
		b := cell.NewBuilder().StoreUint64(8, uint64(DefaultSendMode))
		if prev != nil {
			b.StoreRef(prev)
		}
		b.StoreRef(msg)
		node, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("%w: out-list node: %v", tonerr.ErrBocEncoding, err)
		}
		prev = node
	}
	return prev, nil
}

// buildOutgoingMessage wraps an Action's body as an internal message cell:
// bounce flag, destination, value, and the body as a reference.
func buildOutgoingMessage(a Action) (*cell.Cell, error) {
	bounceBit := uint64(0)
	if a.Bounce {
		bounceBit = 1
	}
	c, err := cell.NewBuilder().
		StoreUint64(1, 0). // int_msg_info tag
		StoreUint64(1, 0). // ihr_disabled
		StoreUint64(1, bounceBit).
		StoreUint64(1, 0). // bounced
		StoreAddress(cell.Address{None: true}). // src: filled in by the wallet contract itself
		StoreAddress(toCellAddress(a.Destination)).
		StoreCoins(a.Value).
		StoreRef(a.Body).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: outgoing message: %v", tonerr.ErrBocEncoding, err)
	}
	return c, nil
}

// buildInternalTransferBody encodes step 2: opcode | query_id(u64) |
// ref(out_list).
func buildInternalTransferBody(queryID uint64, outList *cell.Cell) (*cell.Cell, error) {
	c, err := cell.NewBuilder().
		StoreUint64(32, uint64(internalTransferOpcode)).
		StoreUint64(64, queryID).
		StoreRef(outList).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: internal transfer body: %v", tonerr.ErrBocEncoding, err)
	}
	return c, nil
}

// buildSelfMessage wraps the internal-transfer body as an internal message
// to the wallet itself (step 3): value=internalValue, bounce=true, src=null,
// dst=self.
func buildSelfMessage(self tonaddr.Address, internalValue *big.Int, body *cell.Cell) (*cell.Cell, error) {
	c, err := cell.NewBuilder().
		StoreUint64(1, 0).
		StoreUint64(1, 0).
		StoreUint64(1, 1). // bounce=true
		StoreUint64(1, 0).
		StoreAddress(cell.Address{None: true}).
		StoreAddress(toCellAddress(self)).
		StoreCoins(internalValue).
		StoreRef(body).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: self message: %v", tonerr.ErrBocEncoding, err)
	}
	return c, nil
}

// Build assembles and signs the full external message: actions -> out-list
// -> internal-transfer body -> self message -> signed inner -> external-in
// envelope. queryID is the value reserved by
// package queryid (shift<<10 | bitnumber); internalValue is the total value
// the self-message carries (sum of action values plus forwarding dust).
func (b *Builder) Build(w *Wallet, actions []Action, queryID uint64, internalValue *big.Int) (*cell.Cell, error) {
	outList, err := buildOutList(actions)
	if err != nil {
		return nil, err
	}
	transferBody, err := buildInternalTransferBody(queryID, outList)
	if err != nil {
		return nil, err
	}
	selfMsg, err := buildSelfMessage(w.Address, internalValue, transferBody)
	if err != nil {
		return nil, err
	}

	// created_at compensates for LiteServer clock skew (step 5); preserved
	// literally as the contract's chosen clock-skew convention.
	createdAt := uint64(b.Now().Unix()) - w.TimeoutS/60

	inner, err := cell.NewBuilder().
		StoreUint64(32, uint64(w.SubwalletID)).
		StoreRef(selfMsg).
		StoreUint64(8, uint64(DefaultSendMode)).
		StoreInt(23, int64(queryID)).
		StoreUint64(64, createdAt).
		StoreUint64(22, w.TimeoutS).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: message inner: %v", tonerr.ErrBocEncoding, err)
	}

	hash := inner.Hash()
	sig := ed25519.Sign(w.SecretKey, hash[:])

	signedBody, err := cell.NewBuilder().
		StoreBytes(sig).
		StoreRef(inner).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: signed body: %v", tonerr.ErrBocEncoding, err)
	}

	outer, err := cell.NewBuilder().
		StoreUint64(2, 0b10). // ext_in_msg_info tag
		StoreAddress(cell.Address{None: true}).
		StoreAddress(toCellAddress(w.Address)).
		StoreCoins(big.NewInt(0)). // import_fee
		StoreRef(signedBody).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: external envelope: %v", tonerr.ErrBocEncoding, err)
	}
	return outer, nil
}

// BuildBase64 is Build followed by BoC base64 serialization, the
// wire form posted to the RPC client's PostMessage.
func (b *Builder) BuildBase64(w *Wallet, actions []Action, queryID uint64, internalValue *big.Int) (string, error) {
	c, err := b.Build(w, actions, queryID, internalValue)
	if err != nil {
		return "", err
	}
	return cell.SerializeBoCBase64(c)
}
