package httptransport

import "expvar"

var (
	metricRoomOpsTotal  = expvar.NewMap("room_ops_total")
	metricRoomOpsErrors = expvar.NewMap("room_ops_errors_total")

	metricSettlementsTotal = expvar.NewMap("settlements_total")

	metricWithdrawalsTotal  = expvar.NewInt("withdrawals_total")
	metricWithdrawalsErrors = expvar.NewInt("withdrawals_errors_total")
	metricWithdrawnAmount   = expvar.NewInt("withdrawn_amount_total")

	metricSSEConnectionsTotal  = expvar.NewInt("sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("sse_connections_active")
)
