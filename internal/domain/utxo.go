package domain

// UTXO is a candidate unspent output of the source address. Ephemeral: it
// lives for a single selection call and is never persisted.
type UTXO struct {
	TxID         string
	Vout         uint32
	ValueSat     int64
	ScriptPubKey string
	// Height is the block height the output confirmed at; 0 means still in
	// the mempool.
	Height int64
}

// Confirmations returns the confirmation depth at the given chain height.
// An output in the latest block has depth 1; unconfirmed outputs have 0.
func (u UTXO) Confirmations(chainHeight int64) int64 {
	if u.Height <= 0 || u.Height > chainHeight {
		return 0
	}
	return chainHeight - u.Height + 1
}

// CoinSelection is the chosen subset of UTXOs funding one transaction.
type CoinSelection struct {
	UTXOs    []UTXO
	TotalSat int64
}
