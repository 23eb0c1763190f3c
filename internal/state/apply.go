package state

import (
	"github.com/powertac/simviewer/internal/envelope"
	"github.com/powertac/simviewer/internal/model"
)

// processBrokers replaces the broker roster. The wire omits zero-valued
// fields, so every accumulator starts explicitly at zero here.
func (r *Reconciler) processBrokers(brokers []envelope.BrokerInit) {
	r.snap.Brokers = make(map[int64]*model.Broker, len(brokers))
	r.snap.BrokerOrder = make([]int64, 0, len(brokers))

	for _, b := range brokers {
		r.snap.Brokers[b.ID] = &model.Broker{
			ID:        b.ID,
			Name:      b.Name,
			Enabled:   true,
			GraphData: model.NewGraphData(model.BrokerSeriesKeys()),
		}
		r.snap.BrokerOrder = append(r.snap.BrokerOrder, b.ID)
	}
}

// processCustomers replaces the customer roster and rebuilds the aggregates:
// one aggregate per distinct power type, ordered by first appearance, with
// a cached customer-id to aggregate-index mapping.
func (r *Reconciler) processCustomers(customers []envelope.CustomerInit) {
	r.snap.Customers = make(map[int64]*model.Customer, len(customers))
	r.snap.AggCustomers = nil
	r.snap.CustomerAggIdx = make(map[int64]int, len(customers))

	byPowerType := make(map[string]int)

	for _, c := range customers {
		r.snap.Customers[c.ID] = &model.Customer{
			ID:               c.ID,
			Name:             c.Name,
			PowerType:        c.PowerType,
			GenericPowerType: c.GenericPowerType,
			CustomerClass:    c.CustomerClass,
			Population:       c.Population,
		}

		idx, ok := byPowerType[c.PowerType]
		if !ok {
			idx = len(r.snap.AggCustomers)
			byPowerType[c.PowerType] = idx
			r.snap.AggCustomers = append(r.snap.AggCustomers, &model.AggregateCustomer{
				PowerType: c.PowerType,
				GraphData: model.NewGraphData(model.CustomerSeriesKeys()),
			})
		}

		agg := r.snap.AggCustomers[idx]
		agg.GenericPowerType = c.GenericPowerType
		agg.IDs = append(agg.IDs, c.ID)
		agg.CustomerClasses = appendMissing(agg.CustomerClasses, c.CustomerClass)
		agg.Population += c.Population

		r.snap.CustomerAggIdx[c.ID] = idx
	}
}

// applyTick folds one timeslot into the snapshot and bumps every series
// version. Dirty tracking on the write side is deliberately coarse; the
// change gate decides per consumer on the read side.
func (r *Reconciler) applyTick(tick envelope.Tick) {
	r.snap.TimeInstances = append(r.snap.TimeInstances, tick.TimeInstance)
	r.snap.LastTimeSlot = tick.TimeSlot

	seenBrokers := make(map[int64]bool, len(tick.Brokers))
	for _, bt := range tick.Brokers {
		broker, ok := r.snap.Brokers[bt.ID]
		if !ok {
			r.stats.UnknownBrokers++
			r.logger.Warn("tick for unknown broker, skipping entry",
				"broker_id", bt.ID,
				"time_slot", tick.TimeSlot,
			)
			continue
		}
		seenBrokers[bt.ID] = true
		r.applyBrokerTick(broker, bt)
	}

	// Brokers without an entry this timeslot still get a sample, so all
	// series stay aligned with the time axis.
	for _, id := range r.snap.BrokerOrder {
		if seenBrokers[id] {
			continue
		}
		broker := r.snap.Brokers[id]
		r.applyBrokerTick(broker, envelope.BrokerTick{ID: id, Cash: broker.Cash})
	}

	for _, agg := range r.snap.AggCustomers {
		prepareAggregate(agg)
	}

	seenCustomers := make(map[int64]bool, len(tick.Customers))
	for _, ct := range tick.Customers {
		seenCustomers[ct.ID] = true
		if !r.applyCustomerTick(ct) {
			r.stats.UnknownCustomers++
			r.logger.Warn("tick for unknown customer, skipping entry",
				"customer_id", ct.ID,
				"time_slot", tick.TimeSlot,
			)
		}
	}

	// Customers missing from the payload are explicit zero-delta ticks, so
	// an aggregate never silently skips a timeslot.
	for id := range r.snap.Customers {
		if seenCustomers[id] {
			continue
		}
		r.applyCustomerTick(envelope.CustomerTick{ID: id})
	}

	for key := range r.versions {
		r.versions[key]++
	}
	r.stats.TicksApplied++
}

// applyBrokerTick folds one broker entry: accumulators advance by the wire
// deltas, per-tick series record the raw delta, cumulative series record the
// updated running total. Cash is an absolute balance, not a delta.
func (r *Reconciler) applyBrokerTick(b *model.Broker, bt envelope.BrokerTick) {
	b.Cash = bt.Cash
	push(b.GraphData, model.KeyAllMoneyCumulative, bt.Cash)

	b.Retail.Sub += bt.Retail.Sub
	push(b.GraphData, model.KeySubscription, float64(bt.Retail.Sub))
	push(b.GraphData, model.KeySubscriptionCumulative, float64(b.Retail.Sub))

	b.Retail.Kwh += bt.Retail.Kwh
	push(b.GraphData, model.KeyRetailKwh, bt.Retail.Kwh)
	push(b.GraphData, model.KeyRetailKwhCumulative, b.Retail.Kwh)

	b.Retail.Money += bt.Retail.Money
	push(b.GraphData, model.KeyRetailMoney, bt.Retail.Money)
	push(b.GraphData, model.KeyRetailMoneyCumulative, b.Retail.Money)

	b.Retail.ActTx += bt.Retail.ActTx
	b.Retail.RvkTx += bt.Retail.RvkTx
	b.Retail.PubTx += bt.Retail.PubTx

	b.Wholesale.Mwh += bt.Wholesale.Mwh
	push(b.GraphData, model.KeyWholesaleMwh, bt.Wholesale.Mwh)
	push(b.GraphData, model.KeyWholesaleMwhCumulative, b.Wholesale.Mwh)

	b.Wholesale.Money += bt.Wholesale.Money
	push(b.GraphData, model.KeyWholesaleMoney, bt.Wholesale.Money)
	push(b.GraphData, model.KeyWholesaleMoneyCumulative, b.Wholesale.Money)

	b.Wholesale.Price = pushPrice(b.GraphData, model.KeyWholesalePrice, bt.Wholesale.Price, b.Wholesale.Price)
	b.Wholesale.PriceBuy = pushPrice(b.GraphData, model.KeyWholesalePriceBuy, bt.Wholesale.PriceBuy, b.Wholesale.PriceBuy)
	b.Wholesale.PriceSell = pushPrice(b.GraphData, model.KeyWholesalePriceSell, bt.Wholesale.PriceSell, b.Wholesale.PriceSell)
}

// applyCustomerTick accumulates one customer entry into its aggregate's
// current (just-prepared) sample. Multiple customers of one power type add
// into the same sample. Returns false for an unknown customer id.
func (r *Reconciler) applyCustomerTick(ct envelope.CustomerTick) bool {
	idx, ok := r.snap.CustomerAggIdx[ct.ID]
	if !ok {
		return false
	}
	agg := r.snap.AggCustomers[idx]

	agg.Retail.Sub += ct.Retail.Sub
	addLast(agg.GraphData, model.KeySubscription, float64(ct.Retail.Sub))
	addLast(agg.GraphData, model.KeySubscriptionCumulative, float64(ct.Retail.Sub))

	agg.Retail.Kwh += ct.Retail.Kwh
	addLast(agg.GraphData, model.KeyRetailKwh, ct.Retail.Kwh)
	addLast(agg.GraphData, model.KeyRetailKwhCumulative, ct.Retail.Kwh)

	agg.Retail.Money += ct.Retail.Money
	addLast(agg.GraphData, model.KeyRetailMoney, ct.Retail.Money)
	addLast(agg.GraphData, model.KeyRetailMoneyCumulative, ct.Retail.Money)

	agg.Retail.ActTx += ct.Retail.ActTx
	agg.Retail.RvkTx += ct.Retail.RvkTx
	agg.Retail.PubTx += ct.Retail.PubTx

	return true
}

// prepareAggregate pads the aggregate for the new timeslot: per-tick series
// get a zero sample, cumulative series repeat their last value. Guarantees a
// sample this timeslot even when no constituent customer reports.
func prepareAggregate(agg *model.AggregateCustomer) {
	push(agg.GraphData, model.KeySubscription, 0)
	repeatLast(agg.GraphData, model.KeySubscriptionCumulative)

	push(agg.GraphData, model.KeyRetailKwh, 0)
	repeatLast(agg.GraphData, model.KeyRetailKwhCumulative)

	push(agg.GraphData, model.KeyRetailMoney, 0)
	repeatLast(agg.GraphData, model.KeyRetailMoneyCumulative)
}

func push(g map[model.GraphKey][]float64, key model.GraphKey, v float64) {
	g[key] = append(g[key], v)
}

func repeatLast(g map[model.GraphKey][]float64, key model.GraphKey) {
	series := g[key]
	last := 0.0
	if len(series) > 0 {
		last = series[len(series)-1]
	}
	g[key] = append(series, last)
}

func addLast(g map[model.GraphKey][]float64, key model.GraphKey, v float64) {
	series := g[key]
	if len(series) == 0 {
		return
	}
	series[len(series)-1] += v
}

// pushPrice records a price sample: the no-value marker when no trade
// occurred, the mean price otherwise. Returns the updated accumulator (last
// observed price, nil until the first trade).
func pushPrice(g map[model.GraphKey][]float64, key model.GraphKey, sample, last *float64) *float64 {
	if sample == nil {
		push(g, key, model.NoValue())
		return last
	}
	push(g, key, *sample)
	v := *sample
	return &v
}

func appendMissing(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
