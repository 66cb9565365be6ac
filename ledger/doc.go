// Package ledger binds the ContractsHandler game contract.
//
// # Core Components
//
// Contract: the parsed contract interface bound to its address. It builds
// log filters and decodes raw logs into Event values without a node.
//
// Client: read calls and payable transactions for one signing wallet.
// Every transaction waits for its receipt; a failed receipt is replayed to
// recover the revert reason.
//
// CallError: the structured failure of a call. Describe renders it for the
// player and NotExecuted tells a definite refusal from an unknown outcome.
package ledger
