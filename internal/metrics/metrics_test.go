package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if httpRequestsTotal == nil || httpRequestDurationSeconds == nil ||
		submissionsTotal == nil || searchQueriesTotal == nil || storeErrorsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveSubmission(t *testing.T) {
	Init()
	before := testutil.ToFloat64(submissionsTotal.WithLabelValues(OutcomeAccepted))
	ObserveSubmission(OutcomeAccepted)
	ObserveSubmission("loopback")

	if got := testutil.ToFloat64(submissionsTotal.WithLabelValues(OutcomeAccepted)); got != before+1 {
		t.Errorf("expected accepted submissions %f, got %f", before+1, got)
	}
	if got := testutil.ToFloat64(submissionsTotal.WithLabelValues("loopback")); got < 1 {
		t.Errorf("expected loopback rejections to be counted, got %f", got)
	}
}

func TestObserveSearchAndStoreErrors(t *testing.T) {
	Init()
	ObserveSearch(SearchHit)
	ObserveStoreError("save")

	if got := testutil.ToFloat64(searchQueriesTotal.WithLabelValues(SearchHit)); got < 1 {
		t.Errorf("expected search hits to be counted, got %f", got)
	}
	if got := testutil.ToFloat64(storeErrorsTotal.WithLabelValues("save")); got < 1 {
		t.Errorf("expected store errors to be counted, got %f", got)
	}
}

func TestObserveHTTPRequest(t *testing.T) {
	Init()
	ObserveHTTPRequest("POST", "/direct", 201, 10*time.Millisecond)

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "201")); got != 1 {
		t.Errorf("expected one POST 201, got %f", got)
	}
}
