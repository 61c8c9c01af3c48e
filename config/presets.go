package config

import (
	"fmt"
	"sort"
	"strings"
)

// Preset holds the chain specific part of the configuration
type Preset struct {
	RPCEndpoint     string
	Factories       []FactoryConfig
	BaseToken       string
	BlacklistTokens []string
	LookupContract  string
	BatchSize       int64
	BatchCountLimit int
}

var presets = map[string]Preset{
	"polygon": {
		RPCEndpoint: "https://polygon-rpc.com",
		Factories: []FactoryConfig{
			{Name: "Quickswap", Address: "0x5757371414417b8C6CAad45bAeF941aBc7d3Ab32", Fee: 997, FeePrecision: 1000},
			{Name: "Sushi", Address: "0xc35DADB65012eC5796536bD9864eD8773aBc74C4", Fee: 997, FeePrecision: 1000},
			{Name: "Meshswap", Address: "0x9F3044f7F9FC8bC9eD615d54845b4577B833282d", Fee: 997, FeePrecision: 1000},
		},
		BaseToken:       "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270",
		BlacklistTokens: []string{"0x071ab2bf3Cb7c51897d74CEC58a47aE85d655956"},
		LookupContract:  "0x04290D4a6E2465b7D7cB0E9Cc166031bDc564603",
		BatchSize:       1000,
		BatchCountLimit: 30,
	},
	"fantom": {
		RPCEndpoint: "https://rpc.ftm.tools/",
		Factories: []FactoryConfig{
			{Name: "Spooky", Address: "0x152ee697f2e276fa89e96742e9bb9ab1f2e61be3", Fee: 998, FeePrecision: 1000},
			{Name: "Spirit", Address: "0xef45d134b73241eda7703fa787148d9c9f4950b0", Fee: 998, FeePrecision: 1000},
		},
		BaseToken:       "0x21be370D5312f44cB42ce377BC9b8a0cEF1A4C83",
		BlacklistTokens: []string{"0x46C642d20A21879cF0E54662dC6BBc19ef15E86e"},
		LookupContract:  "0x57E8741d93bfb3e3c5796d29e8649288e72fbd5c",
		BatchSize:       100,
		BatchCountLimit: 30,
	},
	"milko": {
		RPCEndpoint: "https://rpc-mainnet-cardano-evm.c1.milkomeda.com",
		Factories: []FactoryConfig{
			{Name: "MilkySwap", Address: "0xD6Ab33Ad975b39A8cc981bBc4Aaf61F957A5aD29", Fee: 997, FeePrecision: 1000},
			{Name: "Occam", Address: "0x2ef06A90b0E7Ae3ae508e83Ea6628a3987945460", Fee: 997, FeePrecision: 1000},
			{Name: "Muesliswap", Address: "0x57A8C24B2B0707478f91D3233A264eD77149D408", Fee: 997, FeePrecision: 1000},
			{Name: "MilkyDex", Address: "0x194Db21D9108f9da7a4E21f367d0eb8f8979144e", Fee: 9975, FeePrecision: 10000},
		},
		BaseToken:       "0xae83571000af4499798d1e3b0fa0070eb3a3e3f9",
		LookupContract:  "0x5DdDc84B41B1e661E7738BD5CdfFC3067AA48dbd",
		BatchSize:       100,
		BatchCountLimit: 30,
	},
}

// Chains returns the names of the built-in presets
func Chains() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset overwrites the chain specific fields of fc with the named preset
func ApplyPreset(fc *FileConfig, chain string) error {
	p, ok := presets[strings.ToLower(chain)]
	if !ok {
		return fmt.Errorf("unknown chain %q (available: %s)", chain, strings.Join(Chains(), ", "))
	}

	fc.Chain = strings.ToLower(chain)
	fc.RPCEndpoint = p.RPCEndpoint
	fc.Factories = append([]FactoryConfig(nil), p.Factories...)
	fc.BaseToken = p.BaseToken
	fc.BlacklistTokens = append([]string(nil), p.BlacklistTokens...)
	fc.LookupContract = p.LookupContract
	fc.BatchSize = p.BatchSize
	fc.BatchCountLimit = p.BatchCountLimit
	return nil
}
