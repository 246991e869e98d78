package articles

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/newslens-cloud/newslens/internal/domain"
)

// buildHashFields converts an Article into a flat map[string]string for HSET.
func buildHashFields(a *domain.Article) map[string]string {
	return map[string]string{
		"id":     strconv.Itoa(a.ID),
		"title":  a.Title,
		"url":    a.URL,
		"source": a.Source,
		"text":   a.Text,
		"vector": vectorToBytes(a.Vector),
	}
}

// parseHashFields converts a flat hash map back into an Article.
func parseHashFields(m map[string]string) (domain.Article, error) {
	id, err := strconv.Atoi(m["id"])
	if err != nil {
		return domain.Article{}, fmt.Errorf("bad id %q: %w", m["id"], err)
	}

	vec := bytesToVector(m["vector"])
	if vec == nil {
		return domain.Article{}, fmt.Errorf("bad vector payload (%d bytes)", len(m["vector"]))
	}

	return domain.Article{
		ID:     id,
		Title:  m["title"],
		URL:    m["url"],
		Source: m["source"],
		Text:   m["text"],
		Vector: vec,
	}, nil
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
