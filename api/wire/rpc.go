package wire

import "google.golang.org/protobuf/encoding/protowire"

// RPC messages for the Engine service. Field numbers match
// api/proto/engine.proto.

type PlaceOrderRequest struct {
	OrderID  uint64
	Side     uint32
	Type     uint32
	Price    int64
	Qty      int64
	ExpireAt int64
}

func (r *PlaceOrderRequest) MarshalWire() ([]byte, error) {
	buf := make([]byte, 0, 48)
	buf = appendUint(buf, 1, r.OrderID)
	buf = appendUint(buf, 2, uint64(r.Side))
	buf = appendUint(buf, 3, uint64(r.Type))
	buf = appendInt(buf, 4, r.Price)
	buf = appendInt(buf, 5, r.Qty)
	buf = appendInt(buf, 6, r.ExpireAt)
	return buf, nil
}

func (r *PlaceOrderRequest) UnmarshalWire(data []byte) error {
	*r = PlaceOrderRequest{}
	return walkFields(data, func(num protowire.Number, v uint64) {
		switch num {
		case 1:
			r.OrderID = v
		case 2:
			r.Side = uint32(v)
		case 3:
			r.Type = uint32(v)
		case 4:
			r.Price = asInt(v)
		case 5:
			r.Qty = asInt(v)
		case 6:
			r.ExpireAt = asInt(v)
		}
	}, nil)
}

type PlaceOrderResponse struct {
	Seq       uint64
	Filled    int64
	Remaining int64
	Rested    bool
}

func (r *PlaceOrderResponse) MarshalWire() ([]byte, error) {
	buf := make([]byte, 0, 32)
	buf = appendUint(buf, 1, r.Seq)
	buf = appendInt(buf, 2, r.Filled)
	buf = appendInt(buf, 3, r.Remaining)
	buf = appendBool(buf, 4, r.Rested)
	return buf, nil
}

func (r *PlaceOrderResponse) UnmarshalWire(data []byte) error {
	*r = PlaceOrderResponse{}
	return walkFields(data, func(num protowire.Number, v uint64) {
		switch num {
		case 1:
			r.Seq = v
		case 2:
			r.Filled = asInt(v)
		case 3:
			r.Remaining = asInt(v)
		case 4:
			r.Rested = v != 0
		}
	}, nil)
}

type CancelOrderRequest struct {
	OrderID uint64
}

func (r *CancelOrderRequest) MarshalWire() ([]byte, error) {
	return appendUint(nil, 1, r.OrderID), nil
}

func (r *CancelOrderRequest) UnmarshalWire(data []byte) error {
	*r = CancelOrderRequest{}
	return walkFields(data, func(num protowire.Number, v uint64) {
		if num == 1 {
			r.OrderID = v
		}
	}, nil)
}

type CancelOrderResponse struct {
	Seq       uint64
	Cancelled bool
}

func (r *CancelOrderResponse) MarshalWire() ([]byte, error) {
	buf := appendUint(nil, 1, r.Seq)
	return appendBool(buf, 2, r.Cancelled), nil
}

func (r *CancelOrderResponse) UnmarshalWire(data []byte) error {
	*r = CancelOrderResponse{}
	return walkFields(data, func(num protowire.Number, v uint64) {
		switch num {
		case 1:
			r.Seq = v
		case 2:
			r.Cancelled = v != 0
		}
	}, nil)
}

// GetQuoteRequest asks for the levels nearest to Price: the bid at or
// below it and the ask at or above it, along with top of book.
type GetQuoteRequest struct {
	Price int64
}

func (r *GetQuoteRequest) MarshalWire() ([]byte, error) {
	return appendInt(nil, 1, r.Price), nil
}

func (r *GetQuoteRequest) UnmarshalWire(data []byte) error {
	*r = GetQuoteRequest{}
	return walkFields(data, func(num protowire.Number, v uint64) {
		if num == 1 {
			r.Price = asInt(v)
		}
	}, nil)
}

type QuoteLevel struct {
	Price int64
	Qty   int64
	Found bool
}

func (l *QuoteLevel) MarshalWire() ([]byte, error) {
	buf := appendInt(nil, 1, l.Price)
	buf = appendInt(buf, 2, l.Qty)
	return appendBool(buf, 3, l.Found), nil
}

func (l *QuoteLevel) UnmarshalWire(data []byte) error {
	*l = QuoteLevel{}
	return walkFields(data, func(num protowire.Number, v uint64) {
		switch num {
		case 1:
			l.Price = asInt(v)
		case 2:
			l.Qty = asInt(v)
		case 3:
			l.Found = v != 0
		}
	}, nil)
}

type GetQuoteResponse struct {
	BestBid    QuoteLevel
	BestAsk    QuoteLevel
	NearestBid QuoteLevel
	NearestAsk QuoteLevel
}

func (r *GetQuoteResponse) MarshalWire() ([]byte, error) {
	buf := make([]byte, 0, 64)
	var err error
	for i, lvl := range []*QuoteLevel{&r.BestBid, &r.BestAsk, &r.NearestBid, &r.NearestAsk} {
		if buf, err = appendMessage(buf, protowire.Number(i+1), lvl); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (r *GetQuoteResponse) UnmarshalWire(data []byte) error {
	*r = GetQuoteResponse{}
	return walkFields(data, nil, func(num protowire.Number, b []byte) error {
		switch num {
		case 1:
			return r.BestBid.UnmarshalWire(b)
		case 2:
			return r.BestAsk.UnmarshalWire(b)
		case 3:
			return r.NearestBid.UnmarshalWire(b)
		case 4:
			return r.NearestAsk.UnmarshalWire(b)
		}
		return nil
	})
}

type GetSnapshotRequest struct{}

func (r *GetSnapshotRequest) MarshalWire() ([]byte, error) { return nil, nil }

func (r *GetSnapshotRequest) UnmarshalWire(data []byte) error {
	return walkFields(data, nil, nil)
}

type SnapshotOrder struct {
	ID       uint64
	Side     uint32
	Type     uint32
	Price    int64
	Qty      int64
	Filled   int64
	ExpireAt int64
}

func (o *SnapshotOrder) MarshalWire() ([]byte, error) {
	buf := make([]byte, 0, 48)
	buf = appendUint(buf, 1, o.ID)
	buf = appendUint(buf, 2, uint64(o.Side))
	buf = appendUint(buf, 3, uint64(o.Type))
	buf = appendInt(buf, 4, o.Price)
	buf = appendInt(buf, 5, o.Qty)
	buf = appendInt(buf, 6, o.Filled)
	buf = appendInt(buf, 7, o.ExpireAt)
	return buf, nil
}

func (o *SnapshotOrder) UnmarshalWire(data []byte) error {
	*o = SnapshotOrder{}
	return walkFields(data, func(num protowire.Number, v uint64) {
		switch num {
		case 1:
			o.ID = v
		case 2:
			o.Side = uint32(v)
		case 3:
			o.Type = uint32(v)
		case 4:
			o.Price = asInt(v)
		case 5:
			o.Qty = asInt(v)
		case 6:
			o.Filled = asInt(v)
		case 7:
			o.ExpireAt = asInt(v)
		}
	}, nil)
}

type GetSnapshotResponse struct {
	Seq    uint64
	Orders []SnapshotOrder
}

func (r *GetSnapshotResponse) MarshalWire() ([]byte, error) {
	buf := appendUint(nil, 1, r.Seq)
	var err error
	for i := range r.Orders {
		if buf, err = appendMessage(buf, 2, &r.Orders[i]); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (r *GetSnapshotResponse) UnmarshalWire(data []byte) error {
	*r = GetSnapshotResponse{}
	return walkFields(data, func(num protowire.Number, v uint64) {
		if num == 1 {
			r.Seq = v
		}
	}, func(num protowire.Number, b []byte) error {
		if num != 2 {
			return nil
		}
		var o SnapshotOrder
		if err := o.UnmarshalWire(b); err != nil {
			return err
		}
		r.Orders = append(r.Orders, o)
		return nil
	})
}
