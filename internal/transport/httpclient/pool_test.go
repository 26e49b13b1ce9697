package httpclient

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestPool_SharedClient(t *testing.T) {
	p := New(Config{MaxConnsPerHost: 4, MaxIdleConnsPerHost: 2, IdleConnTimeout: time.Second})
	defer p.Close()

	if p.Client() != p.Client() {
		t.Fatal("Client() must return the same instance")
	}
	if p.transport.MaxConnsPerHost != 4 {
		t.Errorf("MaxConnsPerHost = %d, want 4", p.transport.MaxConnsPerHost)
	}
	if p.transport.MaxIdleConnsPerHost != 2 {
		t.Errorf("MaxIdleConnsPerHost = %d, want 2", p.transport.MaxIdleConnsPerHost)
	}
}

func TestPool_ConcurrentRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := New(Config{MaxConnsPerHost: 2, MaxIdleConnsPerHost: 2, IdleConnTimeout: time.Second})
	defer p.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := p.Client().Get(srv.URL)
			if err != nil {
				errs <- err
				return
			}
			_ = resp.Body.Close()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("request failed: %v", err)
	}
}
