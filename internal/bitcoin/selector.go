package bitcoin

import (
	"sort"

	"github.com/custodialabs/payment-service/internal/domain"
)

// UtxoSelector picks the subset of unspent outputs funding one payment.
//
// The policy is deterministic so that change amounts and fee estimates are
// reproducible for a given candidate set and chain height: eligible outputs
// (confirmation depth >= MinConfirmations) are ordered deepest-first, then by
// value descending, then by outpoint, and accumulated greedily until the
// running total covers the target.
type UtxoSelector struct {
	MinConfirmations int64
}

func NewUtxoSelector(minConfirmations int64) UtxoSelector {
	if minConfirmations < 1 {
		minConfirmations = 1
	}
	return UtxoSelector{MinConfirmations: minConfirmations}
}

// Select returns the chosen subset, or domain.ErrInsufficientBalance when the
// eligible outputs cannot cover targetSat.
func (s UtxoSelector) Select(targetSat int64, candidates []domain.UTXO, chainHeight int64) (domain.CoinSelection, error) {
	eligible := make([]domain.UTXO, 0, len(candidates))
	for _, utxo := range candidates {
		if utxo.Confirmations(chainHeight) >= s.MinConfirmations {
			eligible = append(eligible, utxo)
		}
	}

	sort.Slice(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		da, db := a.Confirmations(chainHeight), b.Confirmations(chainHeight)
		if da != db {
			return da > db
		}
		if a.ValueSat != b.ValueSat {
			return a.ValueSat > b.ValueSat
		}
		if a.TxID != b.TxID {
			return a.TxID < b.TxID
		}
		return a.Vout < b.Vout
	})

	var selection domain.CoinSelection
	for _, utxo := range eligible {
		if selection.TotalSat >= targetSat {
			break
		}
		selection.UTXOs = append(selection.UTXOs, utxo)
		selection.TotalSat += utxo.ValueSat
	}

	if selection.TotalSat < targetSat {
		return domain.CoinSelection{}, domain.ErrInsufficientBalance
	}
	return selection, nil
}
