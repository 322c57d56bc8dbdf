package cpim

import (
	"testing"
	"time"
)

func BenchmarkParse(b *testing.B) {
	data := []byte(BuildWithImdn("sip:alice@example.com", "sip:bob@example.com",
		"b91a0b40-8cb8-47a9-bdd5-6a3d7f2d9b11", []byte("hello from the bench"), "text/plain", time.Now(), true))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if env := Parse(data); env == nil {
			b.Fatal("envelope not parsed")
		}
	}
}

func BenchmarkBuildWithImdn(b *testing.B) {
	now := time.Now()
	for i := 0; i < b.N; i++ {
		BuildWithImdn("sip:alice@example.com", "sip:bob@example.com",
			"b91a0b40-8cb8-47a9-bdd5-6a3d7f2d9b11", []byte("hello from the bench"), "text/plain", now, true)
	}
}
