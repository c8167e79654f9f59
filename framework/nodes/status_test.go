package nodes

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redhat/perf-tests-ocs/test/framework/config"
	"github.com/redhat/perf-tests-ocs/test/framework/resource"
)

// scriptedQuery plays back one map of node statuses per Get call and one
// observation list per List call, recording what was requested.
type scriptedQuery struct {
	lists    [][]Observation
	listIdx  int
	gets     []map[string]Status
	getIdx   int
	getCalls [][]string
	dumps    map[string]string
}

func (q *scriptedQuery) List(ctx context.Context, selector string) ([]Observation, error) {
	if q.listIdx >= len(q.lists) {
		return q.lists[len(q.lists)-1], nil
	}
	out := q.lists[q.listIdx]
	q.listIdx++
	return out, nil
}

func (q *scriptedQuery) Get(ctx context.Context, names []string) ([]Observation, error) {
	recorded := make([]string, len(names))
	copy(recorded, names)
	q.getCalls = append(q.getCalls, recorded)

	step := q.gets[q.getIdx]
	if q.getIdx < len(q.gets)-1 {
		q.getIdx++
	}

	var out []Observation
	for _, name := range names {
		status, ok := step[name]
		if !ok {
			continue
		}
		out = append(out, Observation{Handle: resource.NewNode(name), Status: status})
	}
	return out, nil
}

func (q *scriptedQuery) Describe(ctx context.Context, h resource.Handle) (string, error) {
	if dump, ok := q.dumps[h.Name]; ok {
		return dump, nil
	}
	return "", fmt.Errorf("no dump for %s", h.Name)
}

func fastConfig() *config.Config {
	cfg := config.Default()
	cfg.StatusPollInterval = time.Millisecond
	cfg.NodeListPollInterval = time.Millisecond
	cfg.NodeListTimeout = 50 * time.Millisecond
	cfg.MembershipPollInterval = time.Millisecond
	cfg.MembershipTimeout = 50 * time.Millisecond
	cfg.NodeReadyTimeout = 50 * time.Millisecond
	cfg.DrainTimeout = 50 * time.Millisecond
	return cfg
}

func TestWaitForStatusImmediateConvergence(t *testing.T) {
	query := &scriptedQuery{
		gets: []map[string]Status{
			{"n1": StatusReady, "n2": StatusReady},
		},
	}
	w := NewWaiter(query, fastConfig(), nil)

	if err := w.WaitForStatus(context.Background(), []string{"n1", "n2"}, StatusReady, 50*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(query.getCalls) != 1 {
		t.Fatalf("expected a single probe, got %d", len(query.getCalls))
	}
}

func TestWaitForStatusNarrowsToPending(t *testing.T) {
	query := &scriptedQuery{
		gets: []map[string]Status{
			{"n1": StatusReady, "n2": StatusNotReady},
			{"n1": StatusNotReady, "n2": StatusReady},
		},
	}
	w := NewWaiter(query, fastConfig(), nil)

	if err := w.WaitForStatus(context.Background(), []string{"n1", "n2"}, StatusReady, 50*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(query.getCalls) != 2 {
		t.Fatalf("expected 2 probes, got %d", len(query.getCalls))
	}
	// n1 converged on the first probe; the second probe must only ask for
	// n2, so n1 flapping afterwards cannot re-enter the wait
	second := query.getCalls[1]
	if len(second) != 1 || second[0] != "n2" {
		t.Fatalf("second probe should query only n2, got %v", second)
	}
}

func TestWaitForStatusTimeoutReportsPending(t *testing.T) {
	query := &scriptedQuery{
		gets: []map[string]Status{
			{"n1": StatusReady, "n2": StatusNotReady},
		},
		dumps: map[string]string{"n2": "conditions:\n- type: Ready\n  status: \"False\""},
	}
	w := NewWaiter(query, fastConfig(), nil)

	err := w.WaitForStatus(context.Background(), []string{"n1", "n2"}, StatusReady, 10*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout failure")
	}

	var wse *WrongStatusError
	if !errors.As(err, &wse) {
		t.Fatalf("expected WrongStatusError, got %T: %v", err, err)
	}
	if wse.Target != StatusReady {
		t.Errorf("target = %q, want %q", wse.Target, StatusReady)
	}
	if len(wse.Pending) != 1 {
		t.Fatalf("pending = %v, want only n2", wse.Pending)
	}
	if dump, ok := wse.Pending["n2"]; !ok || dump == "" {
		t.Errorf("expected a describe dump for n2, got %q", dump)
	}
}

func TestWaitForStatusBootstrapsEmptyNameList(t *testing.T) {
	query := &scriptedQuery{
		lists: [][]Observation{
			nil,
			nil,
			{
				{Handle: resource.NewNode("n1"), Status: StatusNotReady},
				{Handle: resource.NewNode("n2"), Status: StatusNotReady},
			},
		},
		gets: []map[string]Status{
			{"n1": StatusReady, "n2": StatusReady},
		},
	}
	w := NewWaiter(query, fastConfig(), nil)

	if err := w.WaitForStatus(context.Background(), nil, StatusReady, 50*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if query.listIdx != 3 {
		t.Errorf("expected 3 list probes before a non-empty snapshot, got %d", query.listIdx)
	}
	if len(query.getCalls) == 0 || len(query.getCalls[0]) != 2 {
		t.Fatalf("status wait should cover the resolved node list, got %v", query.getCalls)
	}
}

func TestWaitForStatusBootstrapTimeout(t *testing.T) {
	query := &scriptedQuery{
		lists: [][]Observation{nil},
		gets:  []map[string]Status{{}},
	}
	cfg := fastConfig()
	cfg.NodeListTimeout = 10 * time.Millisecond
	w := NewWaiter(query, cfg, nil)

	err := w.WaitForStatus(context.Background(), nil, StatusReady, 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected bootstrap failure")
	}
	var wse *WrongStatusError
	if errors.As(err, &wse) {
		t.Fatalf("bootstrap failure must not masquerade as a status failure: %v", err)
	}
	if len(query.getCalls) != 0 {
		t.Errorf("status probes should not run when bootstrap fails, got %d", len(query.getCalls))
	}
}
