package envelope

import "encoding/json"

// Wire types for JSON parsing. Optional numeric fields are pointers so that
// "omitted" and "zero" stay distinguishable until defaults are applied.

type wireEnvelope struct {
	Type    string          `json:"type"`
	Game    string          `json:"game"`
	Message json.RawMessage `json:"message"`
}

type wireInit struct {
	State       string          `json:"state"`
	Competition wireCompetition `json:"competition"`
	Brokers     []wireBroker    `json:"brokers"`
	Customers   []wireCustomer  `json:"customers"`
	Snapshots   []wireTick      `json:"snapshots"`
}

type wireCompetition struct {
	SimulationBaseTime struct {
		Millis int64 `json:"millis"`
	} `json:"simulationBaseTime"`
	TimeslotDuration            int64 `json:"timeslotDuration"`
	BootstrapTimeslotCount      int   `json:"bootstrapTimeslotCount"`
	BootstrapDiscardedTimeslots int   `json:"bootstrapDiscardedTimeslots"`
}

type wireBroker struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type wireCustomer struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	PowerType        string `json:"powerType"`
	GenericPowerType string `json:"genericPowerType"`
	CustomerClass    string `json:"customerClass"`
	Population       int64  `json:"population"`
}

type wireTick struct {
	TimeSlot     int                `json:"timeSlot"`
	TimeInstance int64              `json:"timeInstance"` // ms since epoch
	Brokers      []wireBrokerTick   `json:"tickValueBrokers"`
	Customers    []wireCustomerTick `json:"tickValueCustomers"`
}

type wireBrokerTick struct {
	ID        int64          `json:"id"`
	Cash      *float64       `json:"cash"`
	Retail    *wireRetail    `json:"retail"`
	Wholesale *wireWholesale `json:"wholesale"`
}

type wireCustomerTick struct {
	ID     int64       `json:"id"`
	Retail *wireRetail `json:"retail"`
}

type wireRetail struct {
	Sub   *int64   `json:"sub"`
	Kwh   *float64 `json:"kwh"`
	Money *float64 `json:"m"`
	ActTx *int64   `json:"actTx"`
	RvkTx *int64   `json:"rvkTx"`
	PubTx *int64   `json:"pubTx"`
}

type wireWholesale struct {
	Mwh       *float64 `json:"mwh"`
	Money     *float64 `json:"m"`
	Price     *float64 `json:"p"`
	PriceBuy  *float64 `json:"pb"`
	PriceSell *float64 `json:"ps"`
}
