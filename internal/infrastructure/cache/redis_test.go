package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestOpenRedis_SelectsDatabase(t *testing.T) {
	s := miniredis.RunT(t)

	c, err := OpenRedis(s.Addr(), 2)
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Set(ctx, "idemp:probe", "1", time.Minute).Err(); err != nil {
		t.Fatalf("SET: %v", err)
	}
	// the key must land in db 2 only
	s.Select(2)
	if got, err := s.Get("idemp:probe"); err != nil || got != "1" {
		t.Fatalf("db 2 value = %q, %v", got, err)
	}
	s.Select(0)
	if s.Exists("idemp:probe") {
		t.Fatal("key leaked into db 0")
	}
}

func TestOpenRedis_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()
	if _, err := OpenRedis(addr, 0); err == nil {
		t.Fatal("expected error for a stopped server")
	}
}
