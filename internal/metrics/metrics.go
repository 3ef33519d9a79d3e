package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	SnapshotsReceived     atomic.Int64
	StoreWriteSuccess     atomic.Int64
	StoreWriteFailures    atomic.Int64
	StoreChannelDrops     atomic.Int64
	StateChannelDrops     atomic.Int64
	DecisionChannelDrops  atomic.Int64
	RecommendationsIssued atomic.Int64
	CommandsDispatched    atomic.Int64
	CloudForwardFailures  atomic.Int64
)

func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "optimizer_snapshots_received_total %d\n", SnapshotsReceived.Load())
	fmt.Fprintf(w, "optimizer_store_write_success_total %d\n", StoreWriteSuccess.Load())
	fmt.Fprintf(w, "optimizer_store_write_failures_total %d\n", StoreWriteFailures.Load())
	fmt.Fprintf(w, "optimizer_store_channel_drops_total %d\n", StoreChannelDrops.Load())
	fmt.Fprintf(w, "optimizer_state_channel_drops_total %d\n", StateChannelDrops.Load())
	fmt.Fprintf(w, "optimizer_decision_channel_drops_total %d\n", DecisionChannelDrops.Load())
	fmt.Fprintf(w, "optimizer_recommendations_issued_total %d\n", RecommendationsIssued.Load())
	fmt.Fprintf(w, "optimizer_commands_dispatched_total %d\n", CommandsDispatched.Load())
	fmt.Fprintf(w, "optimizer_cloud_forward_failures_total %d\n", CloudForwardFailures.Load())
}
