package envelope

import (
	"errors"
	"testing"
	"time"

	"github.com/powertac/simviewer/internal/model"
)

func TestDecode_Init(t *testing.T) {
	raw := []byte(`{
		"type": "INIT",
		"game": "game-42",
		"message": {
			"state": "RUNNING",
			"competition": {
				"simulationBaseTime": {"millis": 1255219200000},
				"timeslotDuration": 3600000,
				"bootstrapTimeslotCount": 336,
				"bootstrapDiscardedTimeslots": 24
			},
			"brokers": [
				{"id": 1, "name": "AgentUDE"},
				{"id": 2, "name": "TacTex"}
			],
			"customers": [
				{"id": 7, "name": "BrooksideHomes", "powerType": "CONSUMPTION",
				 "genericPowerType": "CONSUMPTION", "customerClass": "SMALL", "population": 30000}
			],
			"snapshots": [
				{"timeSlot": 360, "timeInstance": 1256515200000,
				 "tickValueBrokers": [{"id": 1, "cash": -14.5}],
				 "tickValueCustomers": []}
			]
		}
	}`)

	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if env.Type != TypeInit {
		t.Errorf("Type = %q, want %q", env.Type, TypeInit)
	}
	if env.Game != "game-42" {
		t.Errorf("Game = %q, want %q", env.Game, "game-42")
	}
	if env.Init == nil {
		t.Fatal("Init payload is nil")
	}
	if env.Init.State != model.StatusRunning {
		t.Errorf("State = %q, want %q", env.Init.State, model.StatusRunning)
	}
	if env.Init.Competition.BaseTimeMillis != 1255219200000 {
		t.Errorf("Competition.BaseTimeMillis = %d, want %d", env.Init.Competition.BaseTimeMillis, int64(1255219200000))
	}
	if len(env.Init.Brokers) != 2 {
		t.Fatalf("len(Brokers) = %d, want 2", len(env.Init.Brokers))
	}
	if env.Init.Brokers[0].ID != 1 || env.Init.Brokers[0].Name != "AgentUDE" {
		t.Errorf("Brokers[0] = %+v, want {1 AgentUDE}", env.Init.Brokers[0])
	}
	if len(env.Init.Customers) != 1 {
		t.Fatalf("len(Customers) = %d, want 1", len(env.Init.Customers))
	}
	if env.Init.Customers[0].Population != 30000 {
		t.Errorf("Customers[0].Population = %d, want 30000", env.Init.Customers[0].Population)
	}
	if len(env.Init.Snapshots) != 1 {
		t.Fatalf("len(Snapshots) = %d, want 1", len(env.Init.Snapshots))
	}
	if env.Init.Snapshots[0].TimeSlot != 360 {
		t.Errorf("Snapshots[0].TimeSlot = %d, want 360", env.Init.Snapshots[0].TimeSlot)
	}
}

func TestDecode_Info(t *testing.T) {
	raw := []byte(`{"type": "INFO", "game": "game-42", "message": "WAITING"}`)

	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if env.Type != TypeInfo {
		t.Errorf("Type = %q, want %q", env.Type, TypeInfo)
	}
	if env.Status != model.StatusWaiting {
		t.Errorf("Status = %q, want %q", env.Status, model.StatusWaiting)
	}
}

func TestDecode_Data(t *testing.T) {
	raw := []byte(`{
		"type": "DATA",
		"game": "game-42",
		"message": {
			"timeSlot": 361,
			"timeInstance": 1256518800000,
			"tickValueBrokers": [
				{"id": 1, "cash": 100.5,
				 "retail": {"sub": 12, "kwh": -340.2, "m": 55.1},
				 "wholesale": {"mwh": 20, "m": -41.3, "p": 32.5}}
			],
			"tickValueCustomers": [
				{"id": 7, "retail": {"sub": 3, "kwh": -12.0, "m": 4.5}}
			]
		}
	}`)

	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if env.Tick == nil {
		t.Fatal("Tick payload is nil")
	}
	tick := env.Tick

	if tick.TimeSlot != 361 {
		t.Errorf("TimeSlot = %d, want 361", tick.TimeSlot)
	}
	wantInstance := time.UnixMilli(1256518800000).UTC()
	if !tick.TimeInstance.Equal(wantInstance) {
		t.Errorf("TimeInstance = %v, want %v", tick.TimeInstance, wantInstance)
	}

	if len(tick.Brokers) != 1 {
		t.Fatalf("len(Brokers) = %d, want 1", len(tick.Brokers))
	}
	b := tick.Brokers[0]
	if b.Cash != 100.5 {
		t.Errorf("Cash = %v, want 100.5", b.Cash)
	}
	if b.Retail.Sub != 12 || b.Retail.Kwh != -340.2 || b.Retail.Money != 55.1 {
		t.Errorf("Retail = %+v, want {12 -340.2 55.1 ...}", b.Retail)
	}
	if b.Wholesale.Mwh != 20 || b.Wholesale.Money != -41.3 {
		t.Errorf("Wholesale = %+v, want mwh=20 m=-41.3", b.Wholesale)
	}
	if b.Wholesale.Price == nil || *b.Wholesale.Price != 32.5 {
		t.Errorf("Wholesale.Price = %v, want 32.5", b.Wholesale.Price)
	}

	if len(tick.Customers) != 1 {
		t.Fatalf("len(Customers) = %d, want 1", len(tick.Customers))
	}
	if tick.Customers[0].Retail.Money != 4.5 {
		t.Errorf("Customers[0].Retail.Money = %v, want 4.5", tick.Customers[0].Retail.Money)
	}
}

// Omitted wire fields default to zero; omitted prices stay nil so "no trade"
// is distinguishable from a trade at zero.
func TestDecode_DefaultSubstitution(t *testing.T) {
	raw := []byte(`{
		"type": "DATA",
		"game": "game-42",
		"message": {
			"timeSlot": 362,
			"timeInstance": 1256522400000,
			"tickValueBrokers": [
				{"id": 1, "retail": {"sub": 5}, "wholesale": {"mwh": 2}}
			],
			"tickValueCustomers": [
				{"id": 7}
			]
		}
	}`)

	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	b := env.Tick.Brokers[0]

	if b.Cash != 0 {
		t.Errorf("Cash = %v, want 0", b.Cash)
	}
	if b.Retail.Sub != 5 {
		t.Errorf("Retail.Sub = %d, want 5", b.Retail.Sub)
	}
	if b.Retail.Kwh != 0 || b.Retail.Money != 0 {
		t.Errorf("Retail kwh/m = %v/%v, want 0/0", b.Retail.Kwh, b.Retail.Money)
	}
	if b.Retail.ActTx != 0 || b.Retail.RvkTx != 0 || b.Retail.PubTx != 0 {
		t.Errorf("Retail tx counters = %d/%d/%d, want 0/0/0", b.Retail.ActTx, b.Retail.RvkTx, b.Retail.PubTx)
	}
	if b.Wholesale.Money != 0 {
		t.Errorf("Wholesale.Money = %v, want 0", b.Wholesale.Money)
	}
	if b.Wholesale.Price != nil {
		t.Errorf("Wholesale.Price = %v, want nil", *b.Wholesale.Price)
	}
	if b.Wholesale.PriceBuy != nil || b.Wholesale.PriceSell != nil {
		t.Error("Wholesale.PriceBuy/PriceSell should be nil when omitted")
	}

	c := env.Tick.Customers[0]
	if c.Retail != (RetailDelta{}) {
		t.Errorf("customer with no retail block = %+v, want zero deltas", c.Retail)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{
			name:    "unknown type",
			raw:     `{"type": "PING", "game": "g", "message": {}}`,
			wantErr: ErrUnknownType,
		},
		{
			name:    "missing message",
			raw:     `{"type": "DATA", "game": "g"}`,
			wantErr: ErrEmptyMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, raw := range []string{
		``,
		`not json`,
		`{"type": "DATA", "game": "g", "message": "not an object"}`,
		`{"type": "INIT", "game": "g", "message": [1, 2]}`,
	} {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Errorf("Decode(%q) expected error, got nil", raw)
		}
	}
}
