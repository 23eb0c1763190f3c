package model

import (
	"testing"
)

func TestSeverity(t *testing.T) {
	tests := []struct {
		status GameStatus
		want   Severity
	}{
		{StatusRunning, SeveritySuccess},
		{StatusWaiting, SeverityInfo},
		{StatusFinished, SeverityWarning},
		{StatusIdle, SeverityDefault},
		{StatusOffline, SeverityDanger},
		{GameStatus("BOOTING"), SeverityDanger},
		{GameStatus(""), SeverityDanger},
	}

	for _, tt := range tests {
		if got := tt.status.Severity(); got != tt.want {
			t.Errorf("Severity(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestNewGraphData(t *testing.T) {
	data := NewGraphData(BrokerSeriesKeys())

	if len(data) != len(BrokerSeriesKeys()) {
		t.Fatalf("len(data) = %d, want %d", len(data), len(BrokerSeriesKeys()))
	}
	for _, key := range BrokerSeriesKeys() {
		series, ok := data[key]
		if !ok {
			t.Errorf("key %q missing", key)
			continue
		}
		if series == nil {
			t.Errorf("series %q is nil, want empty slice", key)
		}
		if len(series) != 0 {
			t.Errorf("len(series[%q]) = %d, want 0", key, len(series))
		}
	}
}

func TestCustomerSeriesKeysAreRetailOnly(t *testing.T) {
	for _, key := range CustomerSeriesKeys() {
		switch key {
		case KeyAllMoneyCumulative,
			KeyWholesaleMwh, KeyWholesaleMwhCumulative,
			KeyWholesaleMoney, KeyWholesaleMoneyCumulative,
			KeyWholesalePrice, KeyWholesalePriceBuy, KeyWholesalePriceSell:
			t.Errorf("customer key set contains non-retail key %q", key)
		}
	}
}

func TestNoValue(t *testing.T) {
	if !IsNoValue(NoValue()) {
		t.Error("IsNoValue(NoValue()) = false, want true")
	}
	if IsNoValue(0) {
		t.Error("IsNoValue(0) = true, want false")
	}
	if IsNoValue(-12.5) {
		t.Error("IsNoValue(-12.5) = true, want false")
	}
}

func TestNewSnapshot(t *testing.T) {
	snap := NewSnapshot()

	if snap.Brokers == nil {
		t.Error("Brokers map is nil")
	}
	if snap.Customers == nil {
		t.Error("Customers map is nil")
	}
	if snap.GameStatus != StatusIdle {
		t.Errorf("GameStatus = %q, want %q", snap.GameStatus, StatusIdle)
	}
	if snap.PreviousStatus != StatusIdle {
		t.Errorf("PreviousStatus = %q, want %q", snap.PreviousStatus, StatusIdle)
	}
	if snap.StatusSeverity != SeverityDefault {
		t.Errorf("StatusSeverity = %q, want %q", snap.StatusSeverity, SeverityDefault)
	}
	if len(snap.TimeInstances) != 0 {
		t.Errorf("len(TimeInstances) = %d, want 0", len(snap.TimeInstances))
	}
}
