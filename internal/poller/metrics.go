package poller

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector exposes the cached device snapshot as Prometheus
// metrics. Collect reads the poller's cache only; it never touches the
// device, so scrapes are cheap and safe at any frequency.
type MetricsCollector struct {
	poller *Poller
	duid   string

	up            prometheus.Gauge
	power         *prometheus.GaugeVec
	operationMode *prometheus.GaugeVec
	roomTemp      *prometheus.GaugeVec
	targetTemp    *prometheus.GaugeVec
	outdoorTemp   *prometheus.GaugeVec
	errorState    *prometheus.GaugeVec
	sleepTimer    *prometheus.GaugeVec
	energyUsed    *prometheus.GaugeVec
	filterUse     *prometheus.GaugeVec
}

// NewMetricsCollector builds a collector for one unit.
func NewMetricsCollector(p *Poller, duid string) *MetricsCollector {
	labels := []string{"duid"}
	modeLabels := []string{"duid", "mode"}
	return &MetricsCollector{
		poller: p,
		duid:   duid,
		up: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "samsungac_up",
			Help: "Whether the device session is healthy (1=ready, 0=down)",
		}),
		power: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "samsungac_power",
			Help: "Whether the unit is powered on (1=on, 0=off)",
		}, labels),
		operationMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "samsungac_operation_mode",
			Help: "Current operation mode (1=active)",
		}, modeLabels),
		roomTemp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "samsungac_room_temperature_celsius",
			Help: "Reported room temperature (celsius)",
		}, labels),
		targetTemp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "samsungac_target_temperature_celsius",
			Help: "Target temperature setpoint (celsius)",
		}, labels),
		outdoorTemp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "samsungac_outdoor_temperature_celsius",
			Help: "Reported outdoor temperature (celsius)",
		}, labels),
		errorState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "samsungac_error_state",
			Help: "Whether the unit reports an error code (1=error, 0=ok)",
		}, labels),
		sleepTimer: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "samsungac_sleep_timer_minutes",
			Help: "Remaining sleep timer (minutes, 0=off)",
		}, labels),
		energyUsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "samsungac_energy_used_kwh",
			Help: "Energy used since the last counter reset (kWh)",
		}, labels),
		filterUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "samsungac_filter_use_hours",
			Help: "Filter use time (hours)",
		}, labels),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	c.up.Describe(ch)
	c.power.Describe(ch)
	c.operationMode.Describe(ch)
	c.roomTemp.Describe(ch)
	c.targetTemp.Describe(ch)
	c.outdoorTemp.Describe(ch)
	c.errorState.Describe(ch)
	c.sleepTimer.Describe(ch)
	c.energyUsed.Describe(ch)
	c.filterUse.Describe(ch)
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	if c.poller.Status() == StatusReady {
		c.up.Set(1)
	} else {
		c.up.Set(0)
	}

	c.power.Reset()
	c.operationMode.Reset()
	c.roomTemp.Reset()
	c.targetTemp.Reset()
	c.outdoorTemp.Reset()
	c.errorState.Reset()
	c.sleepTimer.Reset()
	c.energyUsed.Reset()
	c.filterUse.Reset()

	state, ok := c.poller.Snapshot()
	if ok {
		labels := prometheus.Labels{"duid": c.duid}

		c.power.With(labels).Set(boolToFloat(state.Power))
		c.operationMode.With(prometheus.Labels{"duid": c.duid, "mode": state.Mode}).Set(1)
		c.roomTemp.With(labels).Set(state.CurrentTemp)
		c.targetTemp.With(labels).Set(float64(state.TargetTemp))
		if state.OutdoorTemp != nil {
			c.outdoorTemp.With(labels).Set(*state.OutdoorTemp)
		}
		c.errorState.With(labels).Set(boolToFloat(state.Error != ""))
		c.sleepTimer.With(labels).Set(float64(state.SleepTimerMinutes))
		if state.EnergyUsedKwh != nil {
			c.energyUsed.With(labels).Set(*state.EnergyUsedKwh)
		}
		if state.FilterUseHours != nil {
			c.filterUse.With(labels).Set(float64(*state.FilterUseHours))
		}
	}

	c.up.Collect(ch)
	c.power.Collect(ch)
	c.operationMode.Collect(ch)
	c.roomTemp.Collect(ch)
	c.targetTemp.Collect(ch)
	c.outdoorTemp.Collect(ch)
	c.errorState.Collect(ch)
	c.sleepTimer.Collect(ch)
	c.energyUsed.Collect(ch)
	c.filterUse.Collect(ch)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
