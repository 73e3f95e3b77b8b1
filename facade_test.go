package paybridge

import (
	"context"
	"testing"
	"time"

	bridgecommand "github.com/goliatone/go-paybridge/command"
	"github.com/goliatone/go-paybridge/core"
	"github.com/goliatone/go-paybridge/devkit"
	"github.com/goliatone/go-paybridge/events"
	bridgequery "github.com/goliatone/go-paybridge/query"
)

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	manager, _ := newFacadeManager(t, core.NewMemoryActivityLog(0))

	facade, err := NewFacade(manager)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.Init == nil || commands.Destroy == nil || commands.ShowChoice == nil ||
		commands.RequestPayment == nil || commands.ConfirmPayment == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.CurrentPaymentMethod == nil || queries.ListActivity == nil || queries.LatestSelection == nil {
		t.Fatalf("expected query handlers to be wired")
	}
	if facade.Bridge() == nil {
		t.Fatalf("expected bridge to be retained")
	}
}

func TestFacade_SelectionFlowsIntoQueries(t *testing.T) {
	activity := core.NewMemoryActivityLog(0)
	manager, native := newFacadeManager(t, activity)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	facade, err := NewFacade(manager)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	if err := facade.Commands().Init.Execute(ctx, bridgecommand.InitMessage{Options: InitOptions{
		IdentityKey: "pk_test_facade",
		Provider: func(context.Context, string) (CredentialPayload, error) {
			return CredentialPayload{"secret": "ek_facade"}, nil
		},
	}}); err != nil {
		t.Fatalf("execute init: %v", err)
	}
	defer manager.Destroy()

	selected := make(chan SelectionEvent, 1)
	if err := facade.Commands().ShowChoice.Execute(ctx, bridgecommand.ShowChoiceMessage{
		OnSelected: func(event SelectionEvent) { selected <- event },
	}); err != nil {
		t.Fatalf("execute show choice: %v", err)
	}
	native.Select(ctx, SelectionEvent{"brand": "visa", "last4": "4242"})

	select {
	case event := <-selected:
		if event.Last4() != "4242" {
			t.Fatalf("unexpected selection %#v", event)
		}
	case <-ctx.Done():
		t.Fatalf("selection callback did not fire")
	}

	latest, err := facade.Queries().LatestSelection.Query(ctx, bridgequery.LatestSelectionMessage{IdentityKey: "pk_test_facade"})
	if err != nil {
		t.Fatalf("query latest selection: %v", err)
	}
	if latest.Brand() != "visa" {
		t.Fatalf("expected latest selection from activity log, got %#v", latest)
	}

	page, err := facade.Queries().ListActivity.Query(ctx, bridgequery.ListActivityMessage{
		Filter: ActivityFilter{IdentityKey: "pk_test_facade", Action: core.ActivitySelectionChanged},
	})
	if err != nil {
		t.Fatalf("query list activity: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected one selection entry, got %#v", page)
	}
}

func TestNewFacade_ExplicitReadersWin(t *testing.T) {
	manager, _ := newFacadeManager(t, core.NopActivitySink{})
	reader := &stubSelectionReader{event: SelectionEvent{"brand": "amex"}}

	facade, err := NewFacade(manager, WithActivityReader(core.NewMemoryActivityLog(0)), WithSelectionReader(reader))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	latest, err := facade.Queries().LatestSelection.Query(context.Background(), bridgequery.LatestSelectionMessage{IdentityKey: "pk"})
	if err != nil {
		t.Fatalf("query latest selection: %v", err)
	}
	if latest.Brand() != "amex" || reader.calls != 1 {
		t.Fatalf("expected explicit selection reader, got %#v", latest)
	}
}

func TestNewFacade_UnreadableSinkLeavesQueriesUnwired(t *testing.T) {
	manager, _ := newFacadeManager(t, core.NopActivitySink{})

	facade, err := NewFacade(manager)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	if _, err := facade.Queries().ListActivity.Query(context.Background(), bridgequery.ListActivityMessage{}); err == nil {
		t.Fatalf("expected missing activity reader error")
	}
}

func TestNewFacade_RequiresBridge(t *testing.T) {
	facade, err := NewFacade(nil)
	if err == nil {
		t.Fatalf("expected nil bridge error")
	}
	if facade != nil {
		t.Fatalf("expected nil facade on error")
	}
}

func TestNormalizeThemeUsesARGB(t *testing.T) {
	out := NormalizeTheme(Theme{"primaryColor": "#ff0000", "fontSize": 14})
	if out["primaryColor"] != uint32(0xFFFF0000) {
		t.Fatalf("expected packed ARGB color, got %#v", out["primaryColor"])
	}
	if out["fontSize"] != 14 {
		t.Fatalf("expected non-color keys untouched, got %#v", out["fontSize"])
	}
}

func newFacadeManager(t *testing.T, sink ActivitySink) (*Manager, *devkit.FakeNative) {
	t.Helper()
	native := devkit.NewFakeNative(events.NewEmitter())
	manager, err := NewManager(native, native.Emitter(), WithActivitySink(sink))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager, native
}

type stubSelectionReader struct {
	event SelectionEvent
	calls int
}

func (s *stubSelectionReader) LatestSelection(context.Context, string) (SelectionEvent, error) {
	s.calls++
	return s.event, nil
}
