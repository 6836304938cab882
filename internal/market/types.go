package market

import "time"

// Side represents the order side: buy or sell.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the opposite side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// ParseSide maps a feed token to a Side. Anything that is not "BUY" is a sell.
func ParseSide(tok string) Side {
	if tok == "BUY" {
		return SideBuy
	}
	return SideSell
}

// OrderType represents the order type: limit or market.
type OrderType uint8

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeLimit:
		return "LIMIT"
	default:
		return "UNKNOWN"
	}
}

// ParseOrderType maps a feed token to an OrderType. Anything that is not
// "LIMIT" is treated as a market order.
func ParseOrderType(tok string) OrderType {
	if tok == "LIMIT" {
		return OrderTypeLimit
	}
	return OrderTypeMarket
}

// Order is an intent to buy or sell. It is a value object: callers own it
// until submission, after which the book tracks remaining quantity in its
// own resting state.
type Order struct {
	ID         uint64
	Instrument string
	Type       OrderType
	Side       Side
	Price      float64 // per unit; ignored for market orders
	Quantity   uint32
	Timestamp  int64 // microseconds since epoch
}

// Trade reports an execution between two orders. Side is the aggressor's
// side and Timestamp is copied from the aggressing order.
type Trade struct {
	TradeID     uint64
	BuyOrderID  uint64
	SellOrderID uint64
	Instrument  string
	Price       float64
	Quantity    uint32
	Timestamp   int64
	Side        Side
}

// NowMicros returns the current wall-clock time in microseconds since epoch.
func NowMicros() int64 {
	return time.Now().UnixMicro()
}
