package chain

import (
	"encoding/hex"
	"fmt"

	"github.com/DrGregDoyle/GChain/wallet"
)

// ErrInsufficientFunds is returned by BuildOrdinaryTx when the sending
// wallet's address has less spendable balance than amount.
var ErrInsufficientFunds = fmt.Errorf("chain: insufficient spendable balance: %w", ErrMissingUTXO)

// BuildOrdinaryTx assembles, signs, and returns a spend of amount from w's
// own address to toCPK, per spec.md section 4.1's "Wallet produces
// signatures over tx ids; Transaction assembles signed inputs with
// outputs" data flow. Any change above amount is returned to w's own
// address as a second output.
func BuildOrdinaryTx(bc *Blockchain, w *wallet.Wallet, toCPK string, amount uint64) (*OrdinaryTx, error) {
	spend, total, err := bc.FindSpendableOutputs(w.Address(), amount)
	if err != nil {
		return nil, ErrInsufficientFunds
	}

	inputs := make([]Input, len(spend))
	for i, s := range spend {
		inputs[i] = Input{TxID: s.Outpoint.TxID, Index: s.Outpoint.Index}
	}

	outputs := []Output{{Amount: amount, CPK: toCPK}}
	if change := total - amount; change > 0 {
		outputs = append(outputs, Output{Amount: change, CPK: w.CompressedPublicKey()})
	}

	tx := &OrdinaryTx{Inputs: inputs, Outputs: outputs, Version: 0}

	signingID := tx.SigningID()
	sigBlob, err := w.SignTransaction(hex.EncodeToString(signingID[:]))
	if err != nil {
		return nil, fmt.Errorf("chain: signing new transaction: %w", err)
	}
	for i := range tx.Inputs {
		tx.Inputs[i].Signature = sigBlob
	}

	return tx, nil
}
