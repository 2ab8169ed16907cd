package bitcoin

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/pkg/errors"

	"github.com/custodialabs/payment-service/internal/domain"
)

// UnsignedTransaction is the builder result handed to the signing gateway.
type UnsignedTransaction struct {
	Tx        *wire.MsgTx
	Selection domain.CoinSelection
	FeeSat    int64
	ChangeSat int64
}

// TransactionBuilder assembles unsigned payment transactions: one input per
// selected UTXO, one output paying the destination, one change output back to
// the source. It never broadcasts; broadcasting happens only after signing.
type TransactionBuilder struct {
	params        *chaincfg.Params
	selector      UtxoSelector
	maxFeePerByte float64
}

func NewTransactionBuilder(params *chaincfg.Params, selector UtxoSelector, maxFeePerByte float64) *TransactionBuilder {
	return &TransactionBuilder{
		params:        params,
		selector:      selector,
		maxFeePerByte: maxFeePerByte,
	}
}

// Build selects funding outputs and constructs the unsigned transaction.
// The fee is estimated by serializing a draft (inputs, payment output and a
// provisional change output) and multiplying its size by feePerByte. When the
// first selection cannot cover amount plus the estimated fee, selection runs
// once more with the fee folded into the target.
//
// Returns *domain.FeeTooHighError when feePerByte exceeds the configured
// ceiling and domain.ErrInsufficientBalance when the source cannot fund
// amount plus fee.
func (b *TransactionBuilder) Build(
	candidates []domain.UTXO,
	chainHeight int64,
	sourceAddress, destAddress string,
	amountSat int64,
	feePerByte float64,
) (*UnsignedTransaction, error) {
	if feePerByte > b.maxFeePerByte {
		return nil, &domain.FeeTooHighError{FeePerByte: feePerByte, Ceiling: b.maxFeePerByte}
	}

	destScript, err := payToAddrScript(destAddress, b.params)
	if err != nil {
		return nil, errors.Wrap(err, "destination address")
	}
	changeScript, err := payToAddrScript(sourceAddress, b.params)
	if err != nil {
		return nil, errors.Wrap(err, "source address")
	}

	target := amountSat
	for attempt := 0; attempt < 2; attempt++ {
		selection, err := b.selector.Select(target, candidates, chainHeight)
		if err != nil {
			return nil, err
		}

		tx, err := assemble(selection, destScript, amountSat)
		if err != nil {
			return nil, err
		}

		// Draft includes the change output so its bytes count toward the fee.
		draft := tx.Copy()
		draft.AddTxOut(wire.NewTxOut(0, changeScript))
		feeSat := int64(feePerByte * float64(draft.SerializeSize()))

		change := selection.TotalSat - amountSat - feeSat
		if change < 0 {
			// Selection covered the amount but not the fee; retry with the
			// fee included in the target.
			target = amountSat + feeSat
			continue
		}

		if !txrules.IsDustOutput(wire.NewTxOut(change, changeScript), txrules.DefaultRelayFeePerKb) {
			tx.AddTxOut(wire.NewTxOut(change, changeScript))
		} else {
			// Sub-dust change is folded into the fee.
			feeSat += change
			change = 0
		}

		return &UnsignedTransaction{
			Tx:        tx,
			Selection: selection,
			FeeSat:    feeSat,
			ChangeSat: change,
		}, nil
	}

	return nil, domain.ErrInsufficientBalance
}

func assemble(selection domain.CoinSelection, destScript []byte, amountSat int64) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(wire.TxVersion)
	for _, utxo := range selection.UTXOs {
		hash, err := chainhash.NewHashFromStr(utxo.TxID)
		if err != nil {
			return nil, errors.Wrapf(err, "utxo txid %s", utxo.TxID)
		}
		in := wire.NewTxIn(wire.NewOutPoint(hash, utxo.Vout), nil, nil)
		in.Sequence = wire.MaxTxInSequenceNum
		tx.AddTxIn(in)
	}
	tx.AddTxOut(wire.NewTxOut(amountSat, destScript))
	return tx, nil
}

func payToAddrScript(address string, params *chaincfg.Params) ([]byte, error) {
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return nil, err
	}
	if !addr.IsForNet(params) {
		return nil, errors.Errorf("address %s is not valid for network %s", address, params.Name)
	}
	return txscript.PayToAddrScript(addr)
}
