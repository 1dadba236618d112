package blkreader

import "io"

type WitnessItem []byte

type Witness []WitnessItem

func (wits *Witness) BinRead(r io.Reader) error {
	return readList(r, func(r io.Reader, _ int) error {
		wit, err := readString(r)
		if err != nil {
			return err
		}
		*wits = append(*wits, wit)
		return nil
	})
}

// A nil Witness is written as an empty stack.
func (wits *Witness) BinWrite(w io.Writer) error {
	return writeList(w, len(*wits), func(w io.Writer, i int) error {
		return writeString((*wits)[i], w)
	})
}
