package wire

import "google.golang.org/protobuf/encoding/protowire"

// PlaceCommand is the WAL payload for an accepted order. The engine
// replays these deterministically after a crash.
type PlaceCommand struct {
	OrderID  uint64
	Side     uint32
	Type     uint32
	Price    int64
	Qty      int64
	ExpireAt int64
}

func (c *PlaceCommand) MarshalWire() ([]byte, error) {
	buf := make([]byte, 0, 48)
	buf = appendUint(buf, 1, c.OrderID)
	buf = appendUint(buf, 2, uint64(c.Side))
	buf = appendUint(buf, 3, uint64(c.Type))
	buf = appendInt(buf, 4, c.Price)
	buf = appendInt(buf, 5, c.Qty)
	buf = appendInt(buf, 6, c.ExpireAt)
	return buf, nil
}

func (c *PlaceCommand) UnmarshalWire(data []byte) error {
	*c = PlaceCommand{}
	return walkFields(data, func(num protowire.Number, v uint64) {
		switch num {
		case 1:
			c.OrderID = v
		case 2:
			c.Side = uint32(v)
		case 3:
			c.Type = uint32(v)
		case 4:
			c.Price = asInt(v)
		case 5:
			c.Qty = asInt(v)
		case 6:
			c.ExpireAt = asInt(v)
		}
	}, nil)
}

// CancelCommand is the WAL payload for a cancel.
type CancelCommand struct {
	OrderID uint64
}

func (c *CancelCommand) MarshalWire() ([]byte, error) {
	return appendUint(nil, 1, c.OrderID), nil
}

func (c *CancelCommand) UnmarshalWire(data []byte) error {
	*c = CancelCommand{}
	return walkFields(data, func(num protowire.Number, v uint64) {
		if num == 1 {
			c.OrderID = v
		}
	}, nil)
}

// TradeEvent is the execution report published through the outbox and
// the trades topic.
type TradeEvent struct {
	Seq     uint64
	OrderID uint64
	Price   int64
	Qty     int64
	Time    int64
}

func (e *TradeEvent) MarshalWire() ([]byte, error) {
	buf := make([]byte, 0, 40)
	buf = appendUint(buf, 1, e.Seq)
	buf = appendUint(buf, 2, e.OrderID)
	buf = appendInt(buf, 3, e.Price)
	buf = appendInt(buf, 4, e.Qty)
	buf = appendInt(buf, 5, e.Time)
	return buf, nil
}

func (e *TradeEvent) UnmarshalWire(data []byte) error {
	*e = TradeEvent{}
	return walkFields(data, func(num protowire.Number, v uint64) {
		switch num {
		case 1:
			e.Seq = v
		case 2:
			e.OrderID = v
		case 3:
			e.Price = asInt(v)
		case 4:
			e.Qty = asInt(v)
		case 5:
			e.Time = asInt(v)
		}
	}, nil)
}
