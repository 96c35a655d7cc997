package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Brighton", "brighton"},
		{"  Newcastle   upon  Tyne ", "newcastle upon tyne"},
		{"ST IVES", "st ives"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeKey(tt.in); got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if got := CoordinateKey(50.82251, -0.13721); got != "50.82,-0.14" {
		t.Errorf("CoordinateKey = %q", got)
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 14, 9, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.SetClock(func() time.Time { return now })

	var c Cache = Instrumented("memory", m)
	if _, ok, err := c.Get(ctx, "brighton"); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	if err := c.Set(ctx, "brighton", []byte("series"), time.Hour); err != nil {
		t.Fatal(err)
	}
	val, ok, err := c.Get(ctx, "brighton")
	if err != nil || !ok || string(val) != "series" {
		t.Fatalf("Get = %q %v %v", val, ok, err)
	}

	m.SetClock(func() time.Time { return now.Add(time.Hour) })
	if _, ok, _ := c.Get(ctx, "brighton"); ok {
		t.Error("entry should expire at its TTL")
	}
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" || testing.Short() {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	r, err := DialRedis(ctx, addr, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	key := "test:" + t.Name()
	if err := r.Set(ctx, key, []byte("series"), time.Minute); err != nil {
		t.Fatal(err)
	}
	val, ok, err := r.Get(ctx, key)
	if err != nil || !ok || string(val) != "series" {
		t.Fatalf("Get = %q %v %v", val, ok, err)
	}
	if _, ok, err := r.Get(ctx, key+":missing"); ok || err != nil {
		t.Errorf("missing key: ok=%v err=%v", ok, err)
	}
}
