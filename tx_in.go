package blkreader

import "io"

type OutPoint struct {
	Hash Uint256 // wire order, String() gives the display txid
	N    uint32
}

// InputSource tells a coinbase input apart from one that spends a
// previous output. It is either a *Coinbase or a *Spend.
type InputSource interface {
	isInputSource()
}

// Coinbase holds the payload found where a scriptSig would be. The
// output index carries no information, it is kept so that the input
// re-encodes exactly as read.
type Coinbase struct {
	Data  []byte
	Index uint32
}

type Spend struct {
	PrevOut   OutPoint
	ScriptSig []byte
}

func (*Coinbase) isInputSource() {}
func (*Spend) isInputSource()    {}

type TxIn struct {
	Source   InputSource
	Sequence uint32
	Witness  Witness // nil unless the input has a non-empty witness
}

func (tin *TxIn) IsCoinbase() bool {
	_, ok := tin.Source.(*Coinbase)
	return ok
}

// Script returns the scriptSig, or the coinbase payload.
func (tin *TxIn) Script() []byte {
	switch s := tin.Source.(type) {
	case *Coinbase:
		return s.Data
	case *Spend:
		return s.ScriptSig
	}
	return nil
}

func (tin *TxIn) BinRead(r io.Reader) (err error) {
	var op OutPoint
	if err = BinRead(&op, r); err != nil {
		return err
	}
	script, err := readString(r)
	if err != nil {
		return err
	}
	// The discriminant is the all-zero previous txid, regardless of
	// the output index.
	if op.Hash.IsZero() {
		tin.Source = &Coinbase{Data: script, Index: op.N}
	} else {
		tin.Source = &Spend{PrevOut: op, ScriptSig: script}
	}
	if err = BinRead(&tin.Sequence, r); err != nil {
		return err
	}
	return nil
}

func (tin *TxIn) BinWrite(w io.Writer) (err error) {
	var (
		op     OutPoint
		script []byte
	)
	switch s := tin.Source.(type) {
	case *Coinbase:
		op.N, script = s.Index, s.Data
	case *Spend:
		op, script = s.PrevOut, s.ScriptSig
	}
	if err = BinWrite(op, w); err != nil {
		return err
	}
	if err = writeString(script, w); err != nil {
		return err
	}
	if err = BinWrite(tin.Sequence, w); err != nil {
		return err
	}
	return nil
}

type TxInList []*TxIn

func (tins *TxInList) BinRead(r io.Reader) error {
	return readList(r, func(r io.Reader, _ int) error {
		var txin TxIn
		if err := BinRead(&txin, r); err != nil {
			return err
		}
		*tins = append(*tins, &txin)
		return nil
	})
}

func (tins *TxInList) BinWrite(w io.Writer) error {
	return writeList(w, len(*tins), func(w io.Writer, i int) error {
		return BinWrite((*tins)[i], w)
	})
}
