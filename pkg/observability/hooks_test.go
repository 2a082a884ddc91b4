package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	g := NoopGeneratorHooks{}
	g.OnGenerateStart(ctx, "pipes", 12)
	g.OnGenerateComplete(ctx, "pipes", 7, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "result")
	c.OnCacheMiss(ctx, "result")
	c.OnCacheSet(ctx, "result", 1024)

	r := NoopRequestHooks{}
	r.OnRequest(ctx, "POST", "/v1/generate/{generator}")
	r.OnResponse(ctx, "POST", "/v1/generate/{generator}", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Generator().(NoopGeneratorHooks); !ok {
		t.Error("Generator() should return NoopGeneratorHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Request().(NoopRequestHooks); !ok {
		t.Error("Request() should return NoopRequestHooks by default")
	}

	customGenerator := &testGeneratorHooks{}
	SetGeneratorHooks(customGenerator)
	if Generator() != customGenerator {
		t.Error("SetGeneratorHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customRequest := &testRequestHooks{}
	SetRequestHooks(customRequest)
	if Request() != customRequest {
		t.Error("SetRequestHooks should set custom hooks")
	}

	Reset()
	if _, ok := Generator().(NoopGeneratorHooks); !ok {
		t.Error("Reset() should restore NoopGeneratorHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testGeneratorHooks{}
	SetGeneratorHooks(custom)
	SetGeneratorHooks(nil)

	if Generator() != custom {
		t.Error("SetGeneratorHooks(nil) should be ignored")
	}

	Reset()
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	h := &testGeneratorHooks{}
	SetGeneratorHooks(h)
	Generator().OnGenerateStart(context.Background(), "poles", 3)
	Generator().OnGenerateComplete(context.Background(), "poles", 2, time.Millisecond, nil)
	if h.started != "poles" || h.placed != 2 {
		t.Errorf("hooks saw started=%q placed=%d", h.started, h.placed)
	}
}

// Test implementations
type testGeneratorHooks struct {
	NoopGeneratorHooks
	started string
	placed  int
}

func (h *testGeneratorHooks) OnGenerateStart(_ context.Context, generator string, _ int) {
	h.started = generator
}

func (h *testGeneratorHooks) OnGenerateComplete(_ context.Context, _ string, placed int, _ time.Duration, _ error) {
	h.placed = placed
}

type testCacheHooks struct{ NoopCacheHooks }
type testRequestHooks struct{ NoopRequestHooks }
