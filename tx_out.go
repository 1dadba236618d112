package blkreader

import "io"

type TxOut struct {
	Value        uint64 // in Satoshis
	N            uint32 // position within the transaction
	ScriptPubKey []byte
}

func (tout *TxOut) BinRead(r io.Reader) (err error) {
	if err = BinRead(&tout.Value, r); err != nil {
		return err
	}
	if tout.ScriptPubKey, err = readString(r); err != nil {
		return err
	}
	return nil
}

// N is implied by the position and not written.
func (tout *TxOut) BinWrite(w io.Writer) (err error) {
	if err = BinWrite(tout.Value, w); err != nil {
		return err
	}
	if err = writeString(tout.ScriptPubKey, w); err != nil {
		return err
	}
	return nil
}

type TxOutList []*TxOut

func (touts *TxOutList) BinRead(r io.Reader) error {
	return readList(r, func(r io.Reader, i int) error {
		txout := TxOut{N: uint32(i)}
		if err := BinRead(&txout, r); err != nil {
			return err
		}
		*touts = append(*touts, &txout)
		return nil
	})
}

func (touts *TxOutList) BinWrite(w io.Writer) error {
	return writeList(w, len(*touts), func(w io.Writer, i int) error {
		return BinWrite((*touts)[i], w)
	})
}
