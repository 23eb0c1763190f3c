package model

import "math"

// GraphKey identifies one derived graph series.
type GraphKey string

// Recognized series keys. Broker graph data carries all of them; aggregate
// customers carry the retail subset only.
const (
	KeyAllMoneyCumulative       GraphKey = "allMoneyCumulative"
	KeySubscription             GraphKey = "subscription"
	KeySubscriptionCumulative   GraphKey = "subscriptionCumulative"
	KeyRetailKwh                GraphKey = "retailKwh"
	KeyRetailKwhCumulative      GraphKey = "retailKwhCumulative"
	KeyRetailMoney              GraphKey = "retailMoney"
	KeyRetailMoneyCumulative    GraphKey = "retailMoneyCumulative"
	KeyWholesaleMwh             GraphKey = "wholesaleMwh"
	KeyWholesaleMwhCumulative   GraphKey = "wholesaleMwhCumulative"
	KeyWholesaleMoney           GraphKey = "wholesaleMoney"
	KeyWholesaleMoneyCumulative GraphKey = "wholesaleMoneyCumulative"
	KeyWholesalePrice           GraphKey = "wholesalePrice"
	KeyWholesalePriceBuy        GraphKey = "wholesalePriceBuy"
	KeyWholesalePriceSell       GraphKey = "wholesalePriceSell"
)

// BrokerSeriesKeys returns the full recognized key set, in display order.
func BrokerSeriesKeys() []GraphKey {
	return []GraphKey{
		KeyAllMoneyCumulative,
		KeySubscription,
		KeySubscriptionCumulative,
		KeyRetailKwh,
		KeyRetailKwhCumulative,
		KeyRetailMoney,
		KeyRetailMoneyCumulative,
		KeyWholesaleMwh,
		KeyWholesaleMwhCumulative,
		KeyWholesaleMoney,
		KeyWholesaleMoneyCumulative,
		KeyWholesalePrice,
		KeyWholesalePriceBuy,
		KeyWholesalePriceSell,
	}
}

// CustomerSeriesKeys returns the retail-only subset carried by aggregate
// customers.
func CustomerSeriesKeys() []GraphKey {
	return []GraphKey{
		KeySubscription,
		KeySubscriptionCumulative,
		KeyRetailKwh,
		KeyRetailKwhCumulative,
		KeyRetailMoney,
		KeyRetailMoneyCumulative,
	}
}

// NewGraphData returns an empty series map for the given keys. Series start
// empty so that every series stays index-aligned with the time axis.
func NewGraphData(keys []GraphKey) map[GraphKey][]float64 {
	m := make(map[GraphKey][]float64, len(keys))
	for _, k := range keys {
		m[k] = []float64{}
	}
	return m
}

// NoValue marks a missing price sample ("no trade this timeslot"), as opposed
// to a trade at price zero.
func NoValue() float64 {
	return math.NaN()
}

// IsNoValue reports whether a sample is the missing-price marker.
func IsNoValue(v float64) bool {
	return math.IsNaN(v)
}
