package reqmonitor

// monitorThisRequest implements spec §4.D's admission predicate:
// request-stats collection must be enabled, warm-up must have passed,
// and the forwarding policy table must resolve to true.
//
//	isForwarded isForwarding  result
//	false       false         true
//	true        true          false (intermediate hop)
//	true        false         adapter.IsMonitorForwardedExecutions()
//	false       true          !adapter.IsMonitorForwardedExecutions()
func monitorThisRequest(collectStats bool, warmedUp bool, isForwarded, isForwarding bool, adapter MonitoredRequest) bool {
	if !collectStats || !warmedUp {
		return false
	}

	switch {
	case !isForwarded && !isForwarding:
		return true
	case isForwarded && isForwarding:
		return false
	case isForwarded && !isForwarding:
		return adapter.IsMonitorForwardedExecutions()
	default: // !isForwarded && isForwarding
		return !adapter.IsMonitorForwardedExecutions()
	}
}

// profileThisRequest implements spec §4.D's profiling decision: only
// pay for call-stack collection when the profiler is enabled, the
// grouping factor is sane, this request is the Nth in its group, and
// at least one registered reporter would actually consume the result.
func profileThisRequest(profilerEnabled bool, everyXRequests int, priorCount int64, anyReporterActive bool) bool {
	if !profilerEnabled || everyXRequests < 1 {
		return false
	}
	if !anyReporterActive {
		return false
	}
	if everyXRequests == 1 {
		return true
	}
	return priorCount != 0 && priorCount%int64(everyXRequests) == 0
}
