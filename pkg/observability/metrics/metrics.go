package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	syncsSucceeded      atomic.Int64
	syncsFailed         atomic.Int64
	publishRetries      atomic.Int64
	errorsRecorded      atomic.Int64
	menuFetchFailures   atomic.Int64
	statusWriteFailures atomic.Int64
)

func SyncSucceeded() { syncsSucceeded.Add(1) }

func SyncFailed() { syncsFailed.Add(1) }

func PublishRetried() { publishRetries.Add(1) }

func ErrorRecorded() { errorsRecorded.Add(1) }

func MenuFetchFailed() { menuFetchFailures.Add(1) }

func StatusWriteFailed() { statusWriteFailures.Add(1) }

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP menuflow_syncs_succeeded_total Number of platform syncs that completed successfully.\n")
	fmt.Fprintf(w, "# TYPE menuflow_syncs_succeeded_total counter\n")
	fmt.Fprintf(w, "menuflow_syncs_succeeded_total %d\n", syncsSucceeded.Load())

	fmt.Fprintf(w, "# HELP menuflow_syncs_failed_total Number of platform syncs that failed after retries.\n")
	fmt.Fprintf(w, "# TYPE menuflow_syncs_failed_total counter\n")
	fmt.Fprintf(w, "menuflow_syncs_failed_total %d\n", syncsFailed.Load())

	fmt.Fprintf(w, "# HELP menuflow_publish_retries_total Number of publish attempts that were retried.\n")
	fmt.Fprintf(w, "# TYPE menuflow_publish_retries_total counter\n")
	fmt.Fprintf(w, "menuflow_publish_retries_total %d\n", publishRetries.Load())

	fmt.Fprintf(w, "# HELP menuflow_sync_errors_recorded_total Number of sync errors written to the error queue.\n")
	fmt.Fprintf(w, "# TYPE menuflow_sync_errors_recorded_total counter\n")
	fmt.Fprintf(w, "menuflow_sync_errors_recorded_total %d\n", errorsRecorded.Load())

	fmt.Fprintf(w, "# HELP menuflow_menu_fetch_failures_total Number of failed menu service fetches.\n")
	fmt.Fprintf(w, "# TYPE menuflow_menu_fetch_failures_total counter\n")
	fmt.Fprintf(w, "menuflow_menu_fetch_failures_total %d\n", menuFetchFailures.Load())

	fmt.Fprintf(w, "# HELP menuflow_status_write_failures_total Number of best-effort sync status writes that failed.\n")
	fmt.Fprintf(w, "# TYPE menuflow_status_write_failures_total counter\n")
	fmt.Fprintf(w, "menuflow_status_write_failures_total %d\n", statusWriteFailures.Load())
}
