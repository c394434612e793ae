package chain

import "errors"

// Validation errors per spec.md section 7's taxonomy. None of these panic:
// they reject the offending block or transaction and leave chain state as
// it was before the call.
var (
	ErrTargetNotMet                = errors.New("chain: block id does not satisfy target")
	ErrPrevHashMismatch            = errors.New("chain: block prev_hash does not match chain tip")
	ErrMissingUTXO                 = errors.New("chain: referenced output not found in utxo set")
	ErrBadSignature                = errors.New("chain: input signature does not verify against recorded output")
	ErrDoubleSpend                 = errors.New("chain: output already staged for consumption in this block")
	ErrAmountOverflow              = errors.New("chain: outputs exceed inputs plus reward")
	ErrBadMiningHeight             = errors.New("chain: mining transaction height does not match chain height")
	ErrRewardTooLarge              = errors.New("chain: mining reward exceeds remaining mining amount")
	ErrPoppedOutputAlreadyConsumed = errors.New("chain: popped block's output was already consumed")
	ErrEmptyChain                  = errors.New("chain: chain has no blocks")
	ErrGenesisImmutable            = errors.New("chain: cannot pop the genesis block")
	ErrWrongTransactionCount       = errors.New("chain: block must contain exactly one mining transaction")
)
