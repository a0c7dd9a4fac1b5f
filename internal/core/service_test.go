package core

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"panicconf/internal/infra/persistence/memory"
	"panicconf/pkg/domain"

	"go.uber.org/zap"
)

func newTestService(opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(NewDefaultRulesEngine()), opts...)
}

func TestPutChainRoundTrip(t *testing.T) {
	svc := newTestService()
	chain, _, err := svc.PutChain(context.Background(), Chain{Name: "cosmos", Kind: domain.ChainCosmos})
	if err != nil {
		t.Fatalf("put chain: %v", err)
	}
	got, ok := svc.Store().GetChain(chain.ID)
	if !ok || got.Name != "cosmos" {
		t.Fatalf("chain not persisted: %+v ok=%v", got, ok)
	}
}

func TestPutChainValidationFailureDoesNotCommit(t *testing.T) {
	svc := newTestService()
	_, _, err := svc.PutChain(context.Background(), Chain{Name: "", Kind: domain.ChainCosmos})
	var verr domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := svc.Store().ListChains(); len(got) != 0 {
		t.Fatalf("invalid submission must not commit: %v", got)
	}
}

func TestPutNodeWithMissingChainIsBlocked(t *testing.T) {
	svc := newTestService()
	_, _, err := svc.PutNode(context.Background(), Node{ChainID: "ghost", Name: "node-1", Kind: domain.NodeCosmos})
	var rerr domain.RuleViolationError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if !rerr.Result.HasBlocking() {
		t.Fatal("violation should be blocking")
	}
	if got := svc.Store().ListNodes(); len(got) != 0 {
		t.Fatalf("blocked node must not commit: %v", got)
	}
}

func TestImportedDuplicateNamesWarnWithoutBlocking(t *testing.T) {
	svc := newTestService()
	if err := svc.Store().ImportState(Snapshot{
		Chains: map[string]Chain{
			"c1": {Base: domain.Base{ID: "c1"}, Name: "cosmos", Kind: domain.ChainCosmos},
			"c2": {Base: domain.Base{ID: "c2"}, Name: "cosmos", Kind: domain.ChainCosmos},
		},
	}); err != nil {
		t.Fatalf("import: %v", err)
	}

	// An unrelated mutation still commits; the standing duplicate only warns.
	user, res, err := svc.PutUser(context.Background(), User{Username: "admin", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("put user: %v", err)
	}
	if user.ID == "" {
		t.Fatal("user not stored")
	}
	warned := false
	for _, v := range res.Violations {
		if v.Rule == "duplicate_name" && v.Severity == domain.SeverityWarn {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected duplicate_name warning, got %v", res.Violations)
	}
}

func TestDeleteChainCascadeThroughService(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	channel, _, err := svc.PutOpsGenieChannel(ctx, OpsGenieChannel{Name: "og", APIToken: "tok"})
	if err != nil {
		t.Fatalf("put channel: %v", err)
	}
	chain, _, err := svc.PutChain(ctx, Chain{Name: "cosmos", Kind: domain.ChainCosmos, ChannelIDs: []string{channel.ID}})
	if err != nil {
		t.Fatalf("put chain: %v", err)
	}
	if _, _, err := svc.PutNode(ctx, Node{ChainID: chain.ID, Name: "cosmos-node-1", Kind: domain.NodeCosmos}); err != nil {
		t.Fatalf("put node: %v", err)
	}

	if _, err := svc.DeleteChain(ctx, chain.ID); err != nil {
		t.Fatalf("delete chain: %v", err)
	}
	if got := svc.Store().ListNodes(); len(got) != 0 {
		t.Fatalf("cascade left nodes: %v", got)
	}
	if got := svc.Store().ListOpsGenieChannels(); len(got) != 0 {
		t.Fatalf("cascade left channels: %v", got)
	}
}

func TestExportImportRoundTripThroughService(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	if _, _, err := svc.PutChain(ctx, Chain{Name: "kusama", Kind: domain.ChainSubstrate}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	snapshot := svc.ExportState(ctx)

	restored := newTestService()
	if err := restored.ImportState(ctx, snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := restored.Store().ListChains(); len(got) != 1 || got[0].Name != "kusama" {
		t.Fatalf("round trip lost data: %v", got)
	}
}

type capturingRecorder struct {
	observed []string
	success  []bool
}

func (r *capturingRecorder) Observe(_ context.Context, operation string, success bool, _ time.Duration) {
	r.observed = append(r.observed, operation)
	r.success = append(r.success, success)
}

type capturingAudit struct {
	entries []AuditEntry
}

func (a *capturingAudit) Record(_ context.Context, entry AuditEntry) {
	a.entries = append(a.entries, entry)
}

func TestObservabilityHooksFire(t *testing.T) {
	recorder := &capturingRecorder{}
	audit := &capturingAudit{}
	tracer := NewJSONTracer(&bytes.Buffer{})
	svc := newTestService(
		WithLogger(zap.NewNop()),
		WithMetricsRecorder(recorder),
		WithTracer(tracer),
		WithAuditRecorder(audit),
	)

	if _, _, err := svc.PutChain(context.Background(), Chain{Name: "cosmos", Kind: domain.ChainCosmos}); err != nil {
		t.Fatalf("put chain: %v", err)
	}
	_, _, err := svc.PutChain(context.Background(), Chain{Name: "", Kind: domain.ChainCosmos})
	if err == nil {
		t.Fatal("expected validation failure")
	}

	if len(recorder.observed) != 2 || recorder.observed[0] != "put_chain" {
		t.Fatalf("metrics not observed: %v", recorder.observed)
	}
	if !recorder.success[0] || recorder.success[1] {
		t.Fatalf("success flags wrong: %v", recorder.success)
	}
	if len(audit.entries) != 1 || len(audit.entries[0].Changes) != 1 {
		t.Fatalf("audit should capture only the committed change: %+v", audit.entries)
	}
	spans := tracer.Recent()
	if len(spans) != 2 || spans[1].OK || spans[1].Error == "" {
		t.Fatalf("tracer spans wrong: %+v", spans)
	}
}

func TestExpvarRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.Observe(context.Background(), "put_chain", true, 20*time.Millisecond)
	rec.Observe(context.Background(), "put_chain", false, 5*time.Millisecond)

	snap := rec.Snapshot()
	st := snap.Operations["put_chain"]
	if st.Calls != 2 || st.Errors != 1 {
		t.Fatalf("counters wrong: %+v", st)
	}
	if st.TotalMS < 24 || st.MaxMS < 19 {
		t.Fatalf("latency stats wrong: %+v", st)
	}
}

func TestJSONTracerWritesLinesAndCapsRetention(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	total := traceRetention + 10
	for i := 0; i < total; i++ {
		_, span := tracer.Start(context.Background(), "put_chain")
		span.End(nil)
	}

	spans := tracer.Recent()
	if len(spans) != traceRetention {
		t.Fatalf("retention not capped: %d spans", len(spans))
	}
	if spans[len(spans)-1].Seq != uint64(total) {
		t.Fatalf("newest span dropped: seq %d", spans[len(spans)-1].Seq)
	}
	if lines := bytes.Count(buf.Bytes(), []byte("\n")); lines != total {
		t.Fatalf("expected %d JSON lines, got %d", total, lines)
	}
}
