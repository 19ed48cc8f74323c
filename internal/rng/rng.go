// Package rng implements the deterministic game random number
// generator. Every peer in a session advances an identical generator,
// so any divergence in its state is proof of a desync.
package rng

import "math/bits"

// State is a copyable snapshot of the generator.
type State struct {
	S0 uint32 `json:"s0"`
	S1 uint32 `json:"s1"`
}

// Prng is a two-component rotate-add generator. The zero value is a
// valid generator seeded with zeros.
type Prng struct {
	s0 uint32
	s1 uint32
}

// New returns a generator seeded with the two components.
func New(s0, s1 uint32) *Prng {
	return &Prng{s0: s0, s1: s1}
}

// NewFromSeed splits a single 64-bit seed into the two components.
func NewFromSeed(seed uint64) *Prng {
	return New(uint32(seed), uint32(seed>>32))
}

// Next advances the generator and returns the next value.
func (p *Prng) Next() uint32 {
	s0, s1 := p.s0, p.s1
	p.s0 = s0 + bits.RotateLeft32(s1^0x1234567F, -7)
	p.s1 = bits.RotateLeft32(s0, -3)
	return p.s1
}

// NextN returns a value in [0, n). n must be positive.
func (p *Prng) NextN(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return p.Next() % n
}

// NextBool returns a single random bit.
func (p *Prng) NextBool() bool {
	return p.Next()&1 == 1
}

// State returns a snapshot of the generator.
func (p *Prng) State() State {
	return State{S0: p.s0, S1: p.s1}
}

// Restore rewinds the generator to a previously captured snapshot.
func (p *Prng) Restore(s State) {
	p.s0 = s.S0
	p.s1 = s.S1
}
