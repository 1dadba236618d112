package blkreader

import (
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg"
)

// Magic values as uint32, the blk files store them little-endian,
// e.g. mainnet is f9 be b4 d9 on disk.
var (
	MainNetMagic  = uint32(chaincfg.MainNetParams.Net)
	TestNetMagic  = uint32(chaincfg.TestNet3Params.Net)
	SigNetMagic   = uint32(chaincfg.SigNetParams.Net)
	RegTestMagic  = uint32(chaincfg.RegressionNetParams.Net)
	networkMagics = map[string]uint32{
		"mainnet":  MainNetMagic,
		"testnet3": TestNetMagic,
		"signet":   SigNetMagic,
		"regtest":  RegTestMagic,
	}
)

// NetworkMagic looks up the magic value by network name.
func NetworkMagic(name string) (uint32, error) {
	if m, ok := networkMagics[name]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("Unknown network %q, known: %v", name, Networks())
}

func Networks() []string {
	names := make([]string, 0, len(networkMagics))
	for n := range networkMagics {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
