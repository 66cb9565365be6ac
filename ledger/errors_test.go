package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

type nodeError struct {
	msg  string
	code int
	data any
}

func (e nodeError) Error() string  { return e.msg }
func (e nodeError) ErrorCode() int { return e.code }
func (e nodeError) ErrorData() any { return e.data }

func revertData(t *testing.T, reason string) string {
	t.Helper()
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	require.NoError(t, err)
	selector := crypto.Keccak256([]byte("Error(string)"))[:4]
	return hexutil.Encode(append(selector, packed...))
}

func TestDescribePrefersRevertReason(t *testing.T) {
	err := wrapCall(methodPlay, nodeError{
		msg:  "execution reverted",
		code: 3,
		data: revertData(t, "Stake mismatch"),
	})
	require.Equal(t, "Stake mismatch", Describe(err))
	require.True(t, err.Reverted)
	require.True(t, NotExecuted(err))
}

func TestDescribeParsesHardhatMessage(t *testing.T) {
	err := wrapCall(methodCreateGame, errors.New(
		"VM Exception while processing transaction: reverted with reason string 'Game name already used'"))
	require.Equal(t, "Game name already used", Describe(err))
}

func TestDescribeParsesGethMessage(t *testing.T) {
	err := wrapCall(methodSolve, errors.New("execution reverted: Wrong move"))
	require.Equal(t, "Wrong move", Describe(err))
}

func TestDescribeFallsBackToCodeAndMethod(t *testing.T) {
	err := wrapCall(methodJ2Timeout, nodeError{msg: "internal error", code: -32603})
	require.Equal(t, "-32603: j2Timeout", Describe(err))
	require.False(t, NotExecuted(err))
}

func TestDescribeFallsBackToRawText(t *testing.T) {
	require.Equal(t, "dial tcp: refused", Describe(errors.New("dial tcp: refused")))
	require.Equal(t, "", Describe(nil))

	wrapped := fmt.Errorf("refresh: %w", &CallError{Method: methodPlay, Err: errors.New("boom")})
	require.Equal(t, wrapped.Error(), Describe(wrapped))
}

func TestDescribeRejectedSignature(t *testing.T) {
	byCode := wrapCall(methodCreatePlayer, nodeError{msg: "denied", code: rpcUserRejected})
	require.Equal(t, "Transaction cancelled", Describe(byCode))
	require.True(t, NotExecuted(byCode))

	byText := wrapCall(methodCreatePlayer, errors.New("user rejected transaction (ACTION_REJECTED)"))
	require.Equal(t, "Transaction cancelled", Describe(byText))
}

func TestReceiptTimeoutIsNotProofOfFailure(t *testing.T) {
	err := &CallError{Method: methodCreateGame, Err: errors.New("wait for receipt: context deadline exceeded")}
	require.False(t, NotExecuted(err))
	require.False(t, NotExecuted(errors.New("other")))
}
