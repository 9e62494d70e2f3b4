package domain

import "math/big"

// Block is the subset of an execution-layer block header the dashboard shows.
type Block struct {
	Number          uint64
	Hash            string
	Miner           string
	Timestamp       uint64
	Size            uint64
	GasUsed         uint64
	TxCount         int
	Difficulty      *big.Int
	TotalDifficulty *big.Int
}
