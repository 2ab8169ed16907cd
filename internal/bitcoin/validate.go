package bitcoin

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// ParseNetwork maps a configuration name to chain parameters.
func ParseNetwork(name string) (*chaincfg.Params, error) {
	switch strings.ToLower(name) {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "simnet":
		return &chaincfg.SimNetParams, nil
	}
	return nil, fmt.Errorf("unknown bitcoin network %q", name)
}

// EncodeTx hex-encodes a transaction for the wire.
func EncodeTx(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// ValidateSignedTransaction re-parses the signing gateway's output and checks
// it against the unsigned transaction it was derived from. The gateway sits
// across a trust boundary, so its response is treated as untrusted input: the
// signed transaction must be structurally sane, spend exactly the unsigned
// transaction's outpoints, carry a signature on every input, and preserve the
// payment outputs.
func ValidateSignedTransaction(signedTxHex string, unsigned *wire.MsgTx) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(signedTxHex))
	if err != nil {
		return nil, errors.Wrap(err, "signed transaction is not valid hex")
	}

	signed := &wire.MsgTx{}
	if err := signed.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, errors.Wrap(err, "signed transaction does not deserialize")
	}

	if err := blockchain.CheckTransactionSanity(btcutil.NewTx(signed)); err != nil {
		return nil, errors.Wrap(err, "signed transaction failed sanity check")
	}

	if len(signed.TxIn) != len(unsigned.TxIn) {
		return nil, errors.Errorf("signed transaction has %d inputs, expected %d", len(signed.TxIn), len(unsigned.TxIn))
	}
	for i, in := range signed.TxIn {
		if in.PreviousOutPoint != unsigned.TxIn[i].PreviousOutPoint {
			return nil, errors.Errorf("signed input %d spends %v, expected %v", i, in.PreviousOutPoint, unsigned.TxIn[i].PreviousOutPoint)
		}
		if len(in.SignatureScript) == 0 && len(in.Witness) == 0 {
			return nil, errors.Errorf("signed input %d carries no signature", i)
		}
	}

	if len(signed.TxOut) != len(unsigned.TxOut) {
		return nil, errors.Errorf("signed transaction has %d outputs, expected %d", len(signed.TxOut), len(unsigned.TxOut))
	}
	for i, out := range signed.TxOut {
		if out.Value != unsigned.TxOut[i].Value || !bytes.Equal(out.PkScript, unsigned.TxOut[i].PkScript) {
			return nil, errors.Errorf("signed output %d does not match the unsigned transaction", i)
		}
	}

	return signed, nil
}
