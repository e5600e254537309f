package benchmark

import (
	"io"
	"net/http"
	"os"
	"testing"
)

// Benchmarks run against a live server:
//
//	CLOUDLAUNCH_BENCH_URL=http://localhost:8000 CLOUDLAUNCH_BENCH_TOKEN=... go test -bench . ./benchmark
func target(b *testing.B) (string, string) {
	base := os.Getenv("CLOUDLAUNCH_BENCH_URL")
	if base == "" {
		b.Skip("CLOUDLAUNCH_BENCH_URL not set")
	}
	return base, os.Getenv("CLOUDLAUNCH_BENCH_TOKEN")
}

func get(b *testing.B, url, token string) {
	r, _ := http.NewRequest("GET", url, nil)
	if token != "" {
		r.Header.Set("Authorization", "Token "+token)
	}
	resp, err := http.DefaultClient.Do(r)
	if err != nil {
		b.Fatal(err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func BenchmarkAPI(b *testing.B) {
	base, token := target(b)

	b.Run("GET /health", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			get(b, base+"/health", "")
		}
	})

	b.Run("GET /api/v1/applications/", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			get(b, base+"/api/v1/applications/", "")
		}
	})

	b.Run("GET /api/v1/deployments/", func(b *testing.B) {
		if token == "" {
			b.Skip("CLOUDLAUNCH_BENCH_TOKEN not set")
		}
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			get(b, base+"/api/v1/deployments/", token)
		}
	})
}

func BenchmarkAPIParallel(b *testing.B) {
	base, _ := target(b)
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			get(b, base+"/api/v1/applications/", "")
		}
	})
}
