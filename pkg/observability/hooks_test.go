package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	c := NoopCheckHooks{}
	c.OnRunStart(ctx, 3)
	c.OnCheckStart(ctx, "nano", "releases")
	c.OnCheckComplete(ctx, "nano", "up-to-date", time.Second, nil)
	c.OnRunComplete(ctx, time.Second, nil)

	ch := NoopCacheHooks{}
	ch.OnCacheHit(ctx, "observations")
	ch.OnCacheMiss(ctx, "observations")
	ch.OnCacheSet(ctx, "observations", 1024)
	ch.OnMemoShared(ctx, "github:owner/repo")

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "api.github.com", "/repos/o/r/tags")
	h.OnResponse(ctx, "GET", "api.github.com", "/repos/o/r/tags", 200, time.Second)
	h.OnError(ctx, "GET", "api.github.com", "/repos/o/r/tags", nil)
	h.OnRetry(ctx, "GET", "api.github.com", "/repos/o/r/tags", 1, nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Check().(NoopCheckHooks); !ok {
		t.Error("Check() should return NoopCheckHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customCheck := &testCheckHooks{}
	SetCheckHooks(customCheck)
	if Check() != customCheck {
		t.Error("SetCheckHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Check().(NoopCheckHooks); !ok {
		t.Error("Reset() should restore NoopCheckHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testCheckHooks{}
	SetCheckHooks(custom)
	SetCheckHooks(nil)

	if Check() != custom {
		t.Error("SetCheckHooks(nil) should be ignored")
	}
}

type testCheckHooks struct{ NoopCheckHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
