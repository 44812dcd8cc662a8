package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/progress"
)

func TestStreamClosesOnTerminalEvent(t *testing.T) {
	bus := progress.NewBus(0)
	handler := NewHandler(bus, zap.NewNop())

	router := chi.NewRouter()
	handler.Routes(router, []string{"*"})

	server := httptest.NewServer(router)
	defer server.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		bus.Publish(domain.ProgressEvent{JobID: "job-1", Step: "initializing", Percent: 5, Status: domain.StatusProcessing})
		bus.Publish(domain.ProgressEvent{JobID: "job-1", Step: "complete", Percent: 100, Status: domain.StatusPassed})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/jobs/job-1/progress", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	var lines []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data:") {
			lines = append(lines, line)
		}
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 data lines, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[1], `"progress":100`) {
		t.Fatalf("expected terminal event with progress:100, got %s", lines[1])
	}
}
