package starknet

import (
	"fmt"
	"strings"
)

// Network selects contract addresses, RPC defaults and explorer links.
type Network string

const (
	Mainnet Network = "mainnet"
	Sepolia Network = "sepolia"
)

// Chain ids as returned by starknet_chainId.
const (
	ChainIDMainnet = "0x534e5f4d41494e"       // SN_MAIN
	ChainIDSepolia = "0x534e5f5345504f4c4941" // SN_SEPOLIA
)

// ParseNetwork accepts "mainnet" or "sepolia" in any case.
func ParseNetwork(s string) (Network, error) {
	switch Network(strings.ToLower(strings.TrimSpace(s))) {
	case Mainnet:
		return Mainnet, nil
	case Sepolia:
		return Sepolia, nil
	}
	return "", fmt.Errorf("unknown network %q (want mainnet or sepolia)", s)
}

// NetworkFromChainID labels a chain id. Anything that is not recognizably
// mainnet is treated as Sepolia.
func NetworkFromChainID(chainID string) Network {
	id := strings.ToLower(chainID)
	if strings.Contains(id, "mainnet") || id == ChainIDMainnet || id == "sn_main" {
		return Mainnet
	}
	return Sepolia
}

func (n Network) ChainID() string {
	if n == Mainnet {
		return ChainIDMainnet
	}
	return ChainIDSepolia
}

// Label is the display name, e.g. "Mainnet".
func (n Network) Label() string {
	if n == Mainnet {
		return "Mainnet"
	}
	return "Sepolia"
}

// DefaultRPCURL is the public endpoint used when none is configured.
func (n Network) DefaultRPCURL() string {
	if n == Mainnet {
		return "https://starknet-mainnet.public.blastapi.io"
	}
	return "https://starknet-sepolia.public.blastapi.io"
}

// ExplorerTxURL links a transaction on Voyager.
func (n Network) ExplorerTxURL(hash string) string {
	if n == Mainnet {
		return "https://voyager.online/tx/" + hash
	}
	return "https://sepolia.voyager.online/tx/" + hash
}
