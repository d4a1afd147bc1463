package route

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"

	"github.com/egaotan/solana-router/errcode"
	"github.com/egaotan/solana-router/program"
)

// Wire layout (borsh): amount_in u64, expect_amount_out u64, min_return u64,
// amounts vec<u64>, routes vec<vec<hop>>, hop = { dexes vec<u8>, weights vec<u8> }.
// Vectors carry a u32 little-endian length prefix.

func (p *SwapPlan) MarshalWithEncoder(encoder *bin.Encoder) error {
	for _, v := range []uint64{p.AmountIn, p.ExpectAmountOut, p.MinReturn} {
		if err := encoder.WriteUint64(v, binary.LittleEndian); err != nil {
			return err
		}
	}
	if err := encoder.WriteUint32(uint32(len(p.Amounts)), binary.LittleEndian); err != nil {
		return err
	}
	for _, amount := range p.Amounts {
		if err := encoder.WriteUint64(amount, binary.LittleEndian); err != nil {
			return err
		}
	}
	if err := encoder.WriteUint32(uint32(len(p.Routes)), binary.LittleEndian); err != nil {
		return err
	}
	for _, r := range p.Routes {
		if err := encoder.WriteUint32(uint32(len(r)), binary.LittleEndian); err != nil {
			return err
		}
		for _, hop := range r {
			if err := hop.MarshalWithEncoder(encoder); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Hop) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteUint32(uint32(len(h.Dexes)), binary.LittleEndian); err != nil {
		return err
	}
	for _, dex := range h.Dexes {
		if err := encoder.WriteUint8(uint8(dex)); err != nil {
			return err
		}
	}
	if err := encoder.WriteUint32(uint32(len(h.Weights)), binary.LittleEndian); err != nil {
		return err
	}
	for _, weight := range h.Weights {
		if err := encoder.WriteUint8(weight); err != nil {
			return err
		}
	}
	return nil
}

func (p *SwapPlan) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if p.AmountIn, err = decoder.ReadUint64(binary.LittleEndian); err != nil {
		return err
	}
	if p.ExpectAmountOut, err = decoder.ReadUint64(binary.LittleEndian); err != nil {
		return err
	}
	if p.MinReturn, err = decoder.ReadUint64(binary.LittleEndian); err != nil {
		return err
	}
	count, err := readLength(decoder, 8)
	if err != nil {
		return err
	}
	p.Amounts = make([]uint64, count)
	for i := range p.Amounts {
		if p.Amounts[i], err = decoder.ReadUint64(binary.LittleEndian); err != nil {
			return err
		}
	}
	// a route needs at least its own 4-byte length
	if count, err = readLength(decoder, 4); err != nil {
		return err
	}
	p.Routes = make([]Route, count)
	for i := range p.Routes {
		hops, err := readLength(decoder, 8)
		if err != nil {
			return err
		}
		r := make(Route, hops)
		for j := range r {
			if err := r[j].UnmarshalWithDecoder(decoder); err != nil {
				return err
			}
		}
		p.Routes[i] = r
	}
	return nil
}

func (h *Hop) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	count, err := readLength(decoder, 1)
	if err != nil {
		return err
	}
	h.Dexes = make([]program.Dex, count)
	for i := range h.Dexes {
		tag, err := decoder.ReadUint8()
		if err != nil {
			return err
		}
		h.Dexes[i] = program.Dex(tag)
	}
	if count, err = readLength(decoder, 1); err != nil {
		return err
	}
	h.Weights = make([]uint8, count)
	for i := range h.Weights {
		if h.Weights[i], err = decoder.ReadUint8(); err != nil {
			return err
		}
	}
	return nil
}

// readLength reads a vector length and rejects lengths the remaining input
// cannot possibly hold.
func readLength(decoder *bin.Decoder, minElemSize int) (int, error) {
	length, err := decoder.ReadUint32(binary.LittleEndian)
	if err != nil {
		return 0, err
	}
	if int(length)*minElemSize > decoder.Remaining() {
		return 0, errcode.ErrInvalidEncoding.Wrapf("vector length %d exceeds remaining %d bytes", length, decoder.Remaining())
	}
	return int(length), nil
}

func (p *SwapPlan) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := p.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, errcode.ErrInvalidEncoding.Wrap(err.Error())
	}
	return buf.Bytes(), nil
}

// Decode parses a wire-encoded plan. It does not validate it.
func Decode(data []byte) (*SwapPlan, error) {
	decoder := bin.NewBorshDecoder(data)
	plan := &SwapPlan{}
	if err := plan.UnmarshalWithDecoder(decoder); err != nil {
		return nil, errcode.Wrap(err, errcode.ErrInvalidEncoding, "decode swap plan")
	}
	if decoder.Remaining() != 0 {
		return nil, errcode.ErrInvalidEncoding.Wrapf("%d trailing bytes", decoder.Remaining())
	}
	return plan, nil
}
