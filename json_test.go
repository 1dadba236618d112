package blkreader

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_TxJSON(t *testing.T) {
	tx, err := TxFromMsgTx(segwitMsgTx())
	require.NoError(t, err)

	b, err := json.Marshal(tx)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	require.Equal(t, tx.Txid.String(), m["txid"])
	require.Equal(t, tx.Hash.String(), m["hash"])
	require.Equal(t, float64(tx.Weight), m["weight"])
	require.Equal(t, float64(1_600_000_000), m["locktime"])
	require.Equal(t, tx.Hex(), m["hex"])

	vin := m["vin"].([]interface{})
	require.Len(t, vin, 2)
	in0 := vin[0].(map[string]interface{})
	require.Len(t, in0["txinwitness"], 2)
	require.Equal(t, float64(0), in0["vout"])
	in1 := vin[1].(map[string]interface{})
	require.NotContains(t, in1, "txinwitness")
	require.NotContains(t, in1, "coinbase")
	require.Equal(t, map[string]interface{}{"hex": "0014"}, in1["scriptSig"])

	vout := m["vout"].([]interface{})
	require.Equal(t, map[string]interface{}{
		"value":        float64(123456789),
		"n":            float64(0),
		"scriptPubKey": map[string]interface{}{"hex": "0014aa"},
	}, vout[0])
}

func Test_BlockJSON(t *testing.T) {
	b := genesisBlock(t)

	full, err := json.Marshal(b)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(full, &m))

	require.Equal(t, genesisHash, m["hash"])
	require.Equal(t, float64(285), m["size"])
	require.Equal(t, float64(285), m["strippedsize"])
	require.Equal(t, float64(1140), m["weight"])
	require.Equal(t, "00000001", m["versionHex"])
	require.Equal(t, "1d00ffff", m["bits"])
	require.Equal(t, float64(1), m["difficulty"])
	require.Equal(t, float64(1), m["nTx"])
	require.NotContains(t, m, "previousblockhash")

	txs := m["tx"].([]interface{})
	require.Len(t, txs, 1)
	cb := txs[0].(map[string]interface{})["vin"].([]interface{})[0].(map[string]interface{})
	require.Contains(t, cb, "coinbase")
	require.NotContains(t, cb, "txid")
	require.NotContains(t, cb, "scriptSig")

	sum, err := b.Summary()
	require.NoError(t, err)
	m = nil
	require.NoError(t, json.Unmarshal(sum, &m))
	require.NotContains(t, m, "tx")
	require.Equal(t, float64(1), m["nTx"])
}

func Test_BlockJSONPrevHash(t *testing.T) {
	b, err := BlockFromMsgBlock(segwitMsgBlock(), MainNetMagic)
	require.NoError(t, err)
	sum, err := b.Summary()
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(sum, &m))
	require.Equal(t, b.PrevHash.String(), m["previousblockhash"])
	require.Less(t, m["strippedsize"].(float64), m["size"].(float64))
}
