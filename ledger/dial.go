package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Dial connects to the node at rpcURL and returns a Client signing with the
// hex-encoded private key. The caller owns the returned node connection.
func Dial(ctx context.Context, rpcURL, contractAddress, privateKeyHex string, opts ...Option) (*Client, *ethclient.Client, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, nil, fmt.Errorf("invalid contract address %q", contractAddress)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, nil, fmt.Errorf("parse private key: %w", err)
	}
	node, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	chainID, err := node.ChainID(ctx)
	if err != nil {
		node.Close()
		return nil, nil, fmt.Errorf("read chain id: %w", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		node.Close()
		return nil, nil, fmt.Errorf("build transactor: %w", err)
	}
	contract, err := NewContract(common.HexToAddress(contractAddress))
	if err != nil {
		node.Close()
		return nil, nil, err
	}
	client, err := NewClient(contract, node, auth, opts...)
	if err != nil {
		node.Close()
		return nil, nil, err
	}
	return client, node, nil
}
