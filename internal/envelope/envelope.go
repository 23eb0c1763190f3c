package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/powertac/simviewer/internal/model"
)

// Type is the envelope type tag.
type Type string

const (
	TypeInit Type = "INIT"
	TypeInfo Type = "INFO"
	TypeData Type = "DATA"
)

// Decode errors.
var (
	ErrUnknownType  = errors.New("unknown envelope type")
	ErrEmptyMessage = errors.New("empty envelope message")
)

// Envelope is one decoded push frame. Exactly one of Init, Status, Tick is
// populated, matching Type.
type Envelope struct {
	Type Type
	Game string

	Init   *InitPayload     // TypeInit
	Status model.GameStatus // TypeInfo
	Tick   *Tick            // TypeData
}

// InitPayload carries the full state of a game at (re)initialization.
type InitPayload struct {
	State       model.GameStatus
	Competition model.Competition
	Brokers     []BrokerInit
	Customers   []CustomerInit
	Snapshots   []Tick // buffered ticks, replayed in order
}

// BrokerInit is one roster entry of an INIT payload.
type BrokerInit struct {
	ID   int64
	Name string
}

// CustomerInit is one customer descriptor of an INIT payload.
type CustomerInit struct {
	ID               int64
	Name             string
	PowerType        string
	GenericPowerType string
	CustomerClass    string
	Population       int64
}

// Tick is one simulation timeslot's worth of delta updates.
type Tick struct {
	TimeSlot     int
	TimeInstance time.Time
	Brokers      []BrokerTick
	Customers    []CustomerTick
}

// BrokerTick is one broker's update within a tick. Cash is the absolute
// running balance; the remaining values are per-timeslot deltas. Absent wire
// fields have already been substituted with zero (prices: nil).
type BrokerTick struct {
	ID        int64
	Cash      float64
	Retail    RetailDelta
	Wholesale WholesaleDelta
}

// CustomerTick is one customer's update within a tick.
type CustomerTick struct {
	ID     int64
	Retail RetailDelta
}

// RetailDelta is a retail KPI delta with defaults applied.
type RetailDelta struct {
	Sub   int64
	Kwh   float64
	Money float64
	ActTx int64
	RvkTx int64
	PubTx int64
}

// WholesaleDelta is a wholesale KPI delta with defaults applied. A nil price
// means no trade occurred this timeslot, distinct from a trade at zero.
type WholesaleDelta struct {
	Mwh       float64
	Money     float64
	Price     *float64
	PriceBuy  *float64
	PriceSell *float64
}

// Decode parses one raw frame body into a typed envelope. Malformed input
// yields an error; the caller decides drop policy.
func Decode(data []byte) (Envelope, error) {
	var wire wireEnvelope
	if err := json.Unmarshal(data, &wire); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}
	if len(wire.Message) == 0 {
		return Envelope{}, ErrEmptyMessage
	}

	env := Envelope{Type: Type(wire.Type), Game: wire.Game}

	switch env.Type {
	case TypeInit:
		init, err := decodeInit(wire.Message)
		if err != nil {
			return Envelope{}, fmt.Errorf("parse INIT payload: %w", err)
		}
		env.Init = init

	case TypeInfo:
		var status string
		if err := json.Unmarshal(wire.Message, &status); err != nil {
			return Envelope{}, fmt.Errorf("parse INFO payload: %w", err)
		}
		env.Status = model.GameStatus(status)

	case TypeData:
		tick, err := decodeTick(wire.Message)
		if err != nil {
			return Envelope{}, fmt.Errorf("parse DATA payload: %w", err)
		}
		env.Tick = tick

	default:
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownType, wire.Type)
	}

	return env, nil
}

func decodeInit(data []byte) (*InitPayload, error) {
	var wire wireInit
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	init := &InitPayload{
		State: model.GameStatus(wire.State),
		Competition: model.Competition{
			BaseTimeMillis:              wire.Competition.SimulationBaseTime.Millis,
			TimeslotMillis:              wire.Competition.TimeslotDuration,
			BootstrapTimeslotCount:      wire.Competition.BootstrapTimeslotCount,
			BootstrapDiscardedTimeslots: wire.Competition.BootstrapDiscardedTimeslots,
		},
	}

	for _, b := range wire.Brokers {
		init.Brokers = append(init.Brokers, BrokerInit{ID: b.ID, Name: b.Name})
	}
	for _, c := range wire.Customers {
		init.Customers = append(init.Customers, CustomerInit{
			ID:               c.ID,
			Name:             c.Name,
			PowerType:        c.PowerType,
			GenericPowerType: c.GenericPowerType,
			CustomerClass:    c.CustomerClass,
			Population:       c.Population,
		})
	}
	for _, s := range wire.Snapshots {
		init.Snapshots = append(init.Snapshots, convertTick(s))
	}

	return init, nil
}

func decodeTick(data []byte) (*Tick, error) {
	var wire wireTick
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	tick := convertTick(wire)
	return &tick, nil
}

func convertTick(wire wireTick) Tick {
	tick := Tick{
		TimeSlot:     wire.TimeSlot,
		TimeInstance: time.UnixMilli(wire.TimeInstance).UTC(),
	}

	for _, b := range wire.Brokers {
		tick.Brokers = append(tick.Brokers, BrokerTick{
			ID:        b.ID,
			Cash:      f64(b.Cash),
			Retail:    convertRetail(b.Retail),
			Wholesale: convertWholesale(b.Wholesale),
		})
	}
	for _, c := range wire.Customers {
		tick.Customers = append(tick.Customers, CustomerTick{
			ID:     c.ID,
			Retail: convertRetail(c.Retail),
		})
	}

	return tick
}

func convertRetail(wire *wireRetail) RetailDelta {
	if wire == nil {
		return RetailDelta{}
	}
	return RetailDelta{
		Sub:   i64(wire.Sub),
		Kwh:   f64(wire.Kwh),
		Money: f64(wire.Money),
		ActTx: i64(wire.ActTx),
		RvkTx: i64(wire.RvkTx),
		PubTx: i64(wire.PubTx),
	}
}

func convertWholesale(wire *wireWholesale) WholesaleDelta {
	if wire == nil {
		return WholesaleDelta{}
	}
	return WholesaleDelta{
		Mwh:       f64(wire.Mwh),
		Money:     f64(wire.Money),
		Price:     wire.Price,
		PriceBuy:  wire.PriceBuy,
		PriceSell: wire.PriceSell,
	}
}

func f64(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func i64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
