// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"encoding/binary"
	"fmt"
	"math"
)

// CosineSimilarity returns dot(a,b)/(|a||b|). It never fails: vectors of
// different length, zero vectors and NaN results all yield 0, and NaN
// components count as 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na2, nb2 float64
	for i := range a {
		va, vb := a[i], b[i]
		if math.IsNaN(va) {
			va = 0
		}
		if math.IsNaN(vb) {
			vb = 0
		}
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na2) * math.Sqrt(nb2))
	if math.IsNaN(sim) {
		return 0
	}
	return sim
}

// EncodeVector packs vec as little-endian float32 values for BLOB storage.
func EncodeVector(vec []float64) []byte {
	if len(vec) == 0 {
		return nil
	}
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(float32(v)))
	}
	return b
}

// DecodeVector unpacks a blob produced by EncodeVector.
func DecodeVector(b []byte) ([]float64, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d (not multiple of 4)", len(b))
	}
	vec := make([]float64, len(b)/4)
	for i := range vec {
		vec[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])))
	}
	return vec, nil
}
