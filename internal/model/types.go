package model

import "time"

// GameStatus is the lifecycle status of the watched game.
type GameStatus string

const (
	StatusIdle     GameStatus = "IDLE"
	StatusWaiting  GameStatus = "WAITING"
	StatusRunning  GameStatus = "RUNNING"
	StatusFinished GameStatus = "FINISHED"
	StatusOffline  GameStatus = "OFFLINE"
)

// Severity is the display severity a status maps to.
type Severity string

const (
	SeverityDefault Severity = "default"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Severity returns the display severity for a status. Unknown statuses
// (including OFFLINE) map to danger.
func (s GameStatus) Severity() Severity {
	switch s {
	case StatusRunning:
		return SeveritySuccess
	case StatusWaiting:
		return SeverityInfo
	case StatusFinished:
		return SeverityWarning
	case StatusIdle:
		return SeverityDefault
	default:
		return SeverityDanger
	}
}

// Competition holds static simulation metadata, set once per game at INIT.
type Competition struct {
	BaseTimeMillis              int64 // simulation base time (ms since epoch)
	TimeslotMillis              int64 // duration of one timeslot (ms)
	BootstrapTimeslotCount      int
	BootstrapDiscardedTimeslots int
}

// RetailKPI accumulates retail-side running totals for a broker or an
// aggregate customer.
type RetailKPI struct {
	Sub   int64   // subscription count delta sum
	Kwh   float64 // energy
	Money float64
	ActTx int64 // tariff activations
	RvkTx int64 // tariff revocations
	PubTx int64 // tariff publications
}

// WholesaleKPI accumulates wholesale-side running totals for a broker.
// Price fields are nil until the first trade, then hold the last observed
// mean price.
type WholesaleKPI struct {
	Mwh       float64
	Money     float64
	Price     *float64
	PriceBuy  *float64
	PriceSell *float64
}

// Broker is one competing broker in the current game.
type Broker struct {
	ID        int64
	Name      string
	Enabled   bool // chart visibility toggle, defaults true
	Cash      float64
	Retail    RetailKPI
	Wholesale WholesaleKPI
	GraphData map[GraphKey][]float64
}

// Customer is a raw customer descriptor, immutable after INIT.
type Customer struct {
	ID               int64
	Name             string
	PowerType        string
	GenericPowerType string
	CustomerClass    string
	Population       int64
}

// AggregateCustomer rolls up every customer sharing a power type. Aggregates
// are ordered by first appearance of their power type at INIT.
type AggregateCustomer struct {
	PowerType        string
	GenericPowerType string
	IDs              []int64
	CustomerClasses  []string
	Population       int64
	Retail           RetailKPI
	GraphData        map[GraphKey][]float64
}

// Snapshot is the canonical derived state of one game session. It is owned
// by the state.Reconciler, which is its sole writer.
type Snapshot struct {
	Competition *Competition

	Brokers     map[int64]*Broker
	BrokerOrder []int64 // broker ids in roster order

	Customers      map[int64]*Customer
	AggCustomers   []*AggregateCustomer
	CustomerAggIdx map[int64]int // customer id -> AggCustomers index, derived once at INIT

	TimeInstances []time.Time // append-only tick time axis
	LastTimeSlot  int

	GameName       string
	GameStatus     GameStatus
	PreviousStatus GameStatus // status to restore when connectivity returns
	StatusSeverity Severity
}

// NewSnapshot returns an empty snapshot in the pre-INIT state.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Brokers:        make(map[int64]*Broker),
		Customers:      make(map[int64]*Customer),
		CustomerAggIdx: make(map[int64]int),
		GameStatus:     StatusIdle,
		PreviousStatus: StatusIdle,
		StatusSeverity: StatusIdle.Severity(),
	}
}
