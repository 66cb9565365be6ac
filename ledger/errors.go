package ledger

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	// CodeRejected is the wallet code for a request the user declined.
	CodeRejected = "ACTION_REJECTED"
	// CodeCallException marks a transaction mined with a failed status.
	CodeCallException = "CALL_EXCEPTION"

	rpcUserRejected = 4001
	cancelledText   = "Transaction cancelled"
)

// CallError describes a failed contract call or transaction.
type CallError struct {
	Method string
	// Code is the RPC error code in decimal, or one of CodeRejected and
	// CodeCallException.
	Code string
	// Reason is the revert reason emitted by the contract, if any.
	Reason string
	// Reverted is set when the ledger definitely refused the call.
	Reverted bool
	TxHash   common.Hash
	Err      error
}

func (e *CallError) Error() string {
	switch {
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Method, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Method, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Method, e.Code)
	}
}

func (e *CallError) Unwrap() error { return e.Err }

// Rejected reports whether the signer declined the request.
func (e *CallError) Rejected() bool {
	return e.Code == CodeRejected || e.Code == strconv.Itoa(rpcUserRejected)
}

// Describe renders err for the player: the revert reason when the contract
// gave one, otherwise the code and method, otherwise the raw error text.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var ce *CallError
	if !errors.As(err, &ce) {
		return err.Error()
	}
	if ce.Rejected() {
		return cancelledText
	}
	if ce.Reason != "" {
		return ce.Reason
	}
	if ce.Code != "" {
		return fmt.Sprintf("%s: %s", ce.Code, ce.Method)
	}
	return err.Error()
}

// NotExecuted reports whether err proves the transaction had no effect on
// the ledger: it was declined before signing or it reverted. Timeouts and
// transport failures are not proof.
func NotExecuted(err error) bool {
	var ce *CallError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Rejected() || ce.Reverted
}

var (
	hardhatReason = regexp.MustCompile(`reverted with reason string '(.*)'`)
	gethReason    = regexp.MustCompile(`execution reverted: (.*)$`)
	rejectedText  = []string{"user rejected", "user denied", strings.ToLower(CodeRejected)}
)

// wrapCall classifies a node or signer error returned for method.
func wrapCall(method string, err error) *CallError {
	ce := &CallError{Method: method, Err: err}

	var coded rpc.Error
	if errors.As(err, &coded) {
		ce.Code = strconv.Itoa(coded.ErrorCode())
	}

	var withData rpc.DataError
	if errors.As(err, &withData) {
		if reason, ok := revertReason(withData.ErrorData()); ok {
			ce.Reason = reason
			ce.Reverted = true
		}
	}

	msg := err.Error()
	if ce.Reason == "" {
		if m := hardhatReason.FindStringSubmatch(msg); m != nil {
			ce.Reason, ce.Reverted = m[1], true
		} else if m := gethReason.FindStringSubmatch(msg); m != nil {
			ce.Reason, ce.Reverted = m[1], true
		} else if strings.Contains(msg, "execution reverted") {
			ce.Reverted = true
		}
	}

	lower := strings.ToLower(msg)
	for _, s := range rejectedText {
		if strings.Contains(lower, s) {
			ce.Code = CodeRejected
			break
		}
	}
	return ce
}

func revertReason(data any) (string, bool) {
	raw, ok := data.(string)
	if !ok {
		return "", false
	}
	b, err := hexutil.Decode(raw)
	if err != nil {
		return "", false
	}
	reason, err := abi.UnpackRevert(b)
	if err != nil {
		return "", false
	}
	return reason, true
}
