package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/registry"
)

type stubPort struct {
	calls   int
	profile *registry.CompanyProfile
}

func (s *stubPort) GetProfile(ctx context.Context, companyNumber string) (*registry.CompanyProfile, error) {
	s.calls++
	return s.profile, nil
}

func (s *stubPort) GetOfficers(ctx context.Context, companyNumber string) ([]registry.Officer, error) {
	return s.profile.Officers, nil
}

func newTestPort(t *testing.T) (*Port, *stubPort) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	stub := &stubPort{profile: &registry.CompanyProfile{Name: "Acme Widgets Limited", Number: "03035678"}}
	return NewPort(stub, rdb, time.Minute, zap.NewNop()), stub
}

func TestGetProfileCachesAfterFirstCall(t *testing.T) {
	port, stub := newTestPort(t)
	ctx := context.Background()

	first, err := port.GetProfile(ctx, "03035678")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if first.Name != "Acme Widgets Limited" {
		t.Errorf("got name %q", first.Name)
	}

	second, err := port.GetProfile(ctx, "03035678")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if second.Name != first.Name {
		t.Errorf("cached result mismatch: %q vs %q", second.Name, first.Name)
	}
	if stub.calls != 1 {
		t.Errorf("inner port called %d times, want 1", stub.calls)
	}
}
