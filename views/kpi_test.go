package views_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/google/go-cmp/cmp"
	"github.com/psn/readiness-tui/dashboard"
	"github.com/psn/readiness-tui/readiness"
	"github.com/psn/readiness-tui/views"
)

func kpiService() *readiness.MockKPIService {
	return &readiness.MockKPIService{
		ListFunc: func(ctx context.Context) ([]readiness.KPIRecord, error) {
			return []readiness.KPIRecord{
				{Name: "KPI-0001", User: "ana@psn.example", Sector: "Logistics", SectorLead: 1, TotalTasks: 1200, CompletedTasks: 900, KPIScore: 87.5},
				{Name: "KPI-0002", User: "bo@psn.example", Sector: "Logistics", TotalTasks: 3, DelayedTasks: 2, KPIScore: 12},
			}, nil
		},
	}
}

func newKPIView(svc readiness.KPIServiceAPI, caller readiness.Caller, rec *recorder) *views.KPIView {
	var post views.Poster
	if rec != nil {
		post = rec.poster()
	}
	return views.NewKPIView(views.KPIViewParams{
		Service:   svc,
		Caller:    caller,
		List:      dashboard.UserSectorKPIList,
		StaleTTL:  testStaleTTL,
		PostEvent: post,
	})
}

// eventKinds names each posted event for order assertions.
func eventKinds(events []vaxis.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = fmt.Sprintf("%T", ev)
	}
	return out
}

func TestKPIView_Load(t *testing.T) {
	kv := newKPIView(kpiService(), &readiness.MockCaller{}, nil)

	if kv.ItemCount() != 0 {
		t.Errorf("expected 0 items before load, got %d", kv.ItemCount())
	}
	if err := kv.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records := kv.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !records[0].IsSectorLead() {
		t.Error("expected first record to be a sector lead")
	}
}

func TestKPIView_Load_Error(t *testing.T) {
	svc := &readiness.MockKPIService{
		ListFunc: func(ctx context.Context) ([]readiness.KPIRecord, error) {
			return nil, context.DeadlineExceeded
		},
	}
	kv := newKPIView(svc, &readiness.MockCaller{}, nil)

	if err := kv.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if kv.Loaded() {
		t.Error("expected Loaded()=false after failed Load()")
	}
}

func TestKPIView_Stale(t *testing.T) {
	kv := views.NewKPIView(views.KPIViewParams{
		Service:  kpiService(),
		List:     dashboard.UserSectorKPIList,
		StaleTTL: time.Millisecond,
	})
	if !kv.Stale() {
		t.Error("expected Stale()=true before Load()")
	}
	_ = kv.Load(context.Background())
	if kv.Stale() {
		t.Error("expected Stale()=false right after Load()")
	}
	time.Sleep(5 * time.Millisecond)
	if !kv.Stale() {
		t.Error("expected Stale()=true after TTL")
	}
}

func TestKPIView_RunAction_Sync(t *testing.T) {
	caller := &readiness.MockCaller{
		CallFunc: func(ctx context.Context, method string, args any, out any) error {
			raw := out.(*json.RawMessage)
			*raw = json.RawMessage(`{"status":"success","created":3,"skipped":1}`)
			return nil
		},
	}
	rec := newRecorder()
	kv := newKPIView(kpiService(), caller, rec)

	if err := kv.RunAction(context.Background(), 's'); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{readiness.MethodSyncUserSectorKPI}, caller.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	events := rec.all()
	want := []string{"views.Frozen", "views.Unfrozen", "views.Notice", "views.Reload", "views.ActionDone"}
	if diff := cmp.Diff(want, eventKinds(events)); diff != "" {
		t.Fatalf("event order mismatch (-want +got):\n%s", diff)
	}
	if f := events[0].(views.Frozen); f.Message != "Syncing KPI records..." {
		t.Errorf("unexpected freeze message %q", f.Message)
	}
	if n := events[2].(views.Notice); n.Text != "All KPI entries synced successfully!" || n.Err {
		t.Errorf("unexpected notice %+v", n)
	}
	if r := events[3].(views.Reload); r.View != views.View(kv) {
		t.Error("expected Reload of the KPI view")
	}

	done := events[4].(views.ActionDone)
	var result readiness.SyncResult
	if err := json.Unmarshal(done.Reply, &result); err != nil {
		t.Fatalf("decoding reply: %v", err)
	}
	if result.Created != 3 || result.Skipped != 1 {
		t.Errorf("unexpected sync result %+v", result)
	}
}

func TestKPIView_RunAction_RecalculateDoesNotRefresh(t *testing.T) {
	caller := &readiness.MockCaller{}
	rec := newRecorder()
	kv := newKPIView(kpiService(), caller, rec)

	if err := kv.RunAction(context.Background(), 'c'); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{readiness.MethodRecalculateKPI}, caller.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	want := []string{"views.Frozen", "views.Unfrozen", "views.Notice", "views.ActionDone"}
	if diff := cmp.Diff(want, eventKinds(rec.all())); diff != "" {
		t.Errorf("event order mismatch (-want +got):\n%s", diff)
	}
}

func TestKPIView_RunAction_Error(t *testing.T) {
	boom := errors.New("boom")
	caller := &readiness.MockCaller{
		CallFunc: func(ctx context.Context, method string, args any, out any) error {
			return boom
		},
	}
	rec := newRecorder()
	kv := newKPIView(kpiService(), caller, rec)

	err := kv.RunAction(context.Background(), 's')
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	events := rec.all()
	want := []string{"views.Frozen", "views.Unfrozen", "views.ActionDone"}
	if diff := cmp.Diff(want, eventKinds(events)); diff != "" {
		t.Fatalf("event order mismatch (-want +got):\n%s", diff)
	}
	if done := events[2].(views.ActionDone); !errors.Is(done.Err, boom) || done.Label != "Sync Users & KPI" {
		t.Errorf("unexpected ActionDone %+v", done)
	}
}

func TestKPIView_RunAction_UnknownKey(t *testing.T) {
	caller := &readiness.MockCaller{}
	kv := newKPIView(kpiService(), caller, newRecorder())

	if err := kv.RunAction(context.Background(), 'x'); err == nil {
		t.Fatal("expected error for unbound key")
	}
	if len(caller.Calls()) != 0 {
		t.Error("expected no remote call")
	}
}

func TestKPIView_HandleEvent_ActionKey(t *testing.T) {
	caller := &readiness.MockCaller{}
	rec := newRecorder()
	kv := newKPIView(kpiService(), caller, rec)
	_ = kv.Load(context.Background())

	cmd, err := kv.HandleEvent(vaxis.Key{Keycode: 'c'}, vxfw.EventPhase(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd == nil {
		t.Error("expected action key to be consumed")
	}

	done := rec.waitFor(t, isActionDone).(views.ActionDone)
	if done.Label != "Recalculate KPI Scores" || done.Err != nil {
		t.Errorf("unexpected ActionDone %+v", done)
	}
}

func TestKPIView_HandleEvent_DoublePressRunsOnce(t *testing.T) {
	release := make(chan struct{})
	caller := &readiness.MockCaller{
		CallFunc: func(ctx context.Context, method string, args any, out any) error {
			<-release
			return nil
		},
	}
	rec := newRecorder()
	kv := newKPIView(kpiService(), caller, rec)
	_ = kv.Load(context.Background())

	for i := 0; i < 2; i++ {
		cmd, err := kv.HandleEvent(vaxis.Key{Keycode: 's'}, vxfw.EventPhase(0))
		if err != nil {
			t.Fatalf("press %d: unexpected error: %v", i, err)
		}
		if cmd == nil {
			t.Errorf("press %d: expected action key to be consumed", i)
		}
	}
	if !kv.Running() {
		t.Error("expected an action in flight")
	}
	close(release)

	rec.waitFor(t, isActionDone)
	if got := caller.Calls(); len(got) != 1 {
		t.Errorf("expected one remote call, got %v", got)
	}
	if kv.Running() {
		t.Error("expected the view released after ActionDone")
	}
}

func TestKPIView_RunAction_WhileRunning(t *testing.T) {
	release := make(chan struct{})
	caller := &readiness.MockCaller{
		CallFunc: func(ctx context.Context, method string, args any, out any) error {
			<-release
			return nil
		},
	}
	rec := newRecorder()
	kv := newKPIView(kpiService(), caller, rec)

	if _, err := kv.HandleEvent(vaxis.Key{Keycode: 'c'}, vxfw.EventPhase(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := kv.RunAction(context.Background(), 's'); !errors.Is(err, views.ErrActionRunning) {
		t.Errorf("expected ErrActionRunning, got %v", err)
	}
	close(release)
	rec.waitFor(t, isActionDone)

	if err := kv.RunAction(context.Background(), 's'); err != nil {
		t.Fatalf("expected a new action to start once the first finished, got %v", err)
	}
	if diff := cmp.Diff([]string{readiness.MethodRecalculateKPI, readiness.MethodSyncUserSectorKPI}, caller.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestKPIView_HandleEvent_Navigation(t *testing.T) {
	kv := newKPIView(kpiService(), &readiness.MockCaller{}, nil)
	_ = kv.Load(context.Background())

	cmd, err := kv.HandleEvent(vaxis.Key{Keycode: 'j'}, vxfw.EventPhase(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd == nil {
		t.Error("expected j to move the selection")
	}
}

func TestKPIView_Draw(t *testing.T) {
	kv := newKPIView(kpiService(), &readiness.MockCaller{}, nil)

	if _, err := kv.Draw(testDrawContext(120, 24)); err != nil {
		t.Fatalf("unexpected error drawing before load: %v", err)
	}
	_ = kv.Load(context.Background())
	s, err := kv.Draw(testDrawContext(120, 24))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Size.Width != 120 {
		t.Errorf("expected width=120, got %d", s.Size.Width)
	}
}

func TestKPIView_Draw_Empty(t *testing.T) {
	kv := newKPIView(&readiness.MockKPIService{}, &readiness.MockCaller{}, nil)
	_ = kv.Load(context.Background())

	if _, err := kv.Draw(testDrawContext(80, 24)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
