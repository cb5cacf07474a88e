package reqmonitor

// overheadMetricName is the dedicated timer spec §4.F records the
// monitor's own cost to.
const overheadMetricName = "internal_overhead_request_monitor"

// trackOverhead records overhead1 (time spent inside monitorStart)
// plus overhead2 (time spent inside monitorStop) to the dedicated
// overhead timer, provided internal monitoring is enabled. Cold-start
// noise from the very first request on the process is excluded by
// the caller never invoking this for that request.
func (m *Monitor) trackOverhead(overhead1, overhead2 int64) {
	if !m.settings.internalMonitoring() {
		return
	}
	m.registry.Timer(overheadMetricName, nil, overhead1+overhead2)
}
