package pcg

// PCG Random Number Generation
// Developed by Melissa O'Neill <oneill@pcg-random.org>
// Paper and details at http://www.pcg-random.org
// Ported to Go by Michael Jones <michael.jones@gmail.com>

// Copyright 2018 Michael T. Jones
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for
// the specific language governing permissions and limitations under the License.

import "math/bits"

const (
	maxUint64 = (1 << 64) - 1

	pcg64Multiplier = 47026247687942121848144207491837523525
	pcg64MulHi      = pcg64Multiplier >> 64
	pcg64MulLo      = pcg64Multiplier & maxUint64

	pcg64sIncrement = 117397592171526113268558934119004209487
	pcg64sIncHi     = pcg64sIncrement >> 64
	pcg64sIncLo     = pcg64sIncrement & maxUint64
)

// PCG64s is 128-bit state, single stream, XSL-RR output generator.
// It holds no shared state; two values seeded the same way
// produce the same sequence.
type PCG64s struct {
	state xuint128
}

func NewSeededPCG64s(stateHi, stateLo uint64) PCG64s {
	var p PCG64s
	p.Seed(stateHi, stateLo)
	return p
}

func (p *PCG64s) Seed(stateHi, stateLo uint64) {
	//p.state = (state+pcg64sIncrement)*pcg64Multiplier + pcg64sIncrement
	p.state = xuint128{stateHi, stateLo}
	p.add()
	p.multiply()
	p.add()
}

func (p *PCG64s) Random() uint64 {
	// Advance 64-bit linear congruential generator to new state
	p.multiply()
	p.add()

	// Confuse and permute 64-bit output from old state
	return bits.RotateLeft64(p.state.hi^p.state.lo, -int(p.state.hi>>58))
}

func (p *PCG64s) add() {
	p.state.add(xuint128{pcg64sIncHi, pcg64sIncLo})
}

func (p *PCG64s) multiply() {
	p.state.multiply(xuint128{pcg64MulHi, pcg64MulLo})
}

// Bounded returns uniform value in [0, bound). Bounded(0) is 0.
func (p *PCG64s) Bounded(bound uint64) uint64 {
	if bound == 0 {
		return 0
	}
	threshold := -bound % bound
	for {
		r := p.Random()
		if r >= threshold {
			return r % bound
		}
	}
}

// Shuffle permutes n elements with Fisher-Yates,
// walking from the last element down.
func (p *PCG64s) Shuffle(n int, swap func(i, j int)) {
	for i := uint64(n); i > 1; i-- {
		j := p.Bounded(i)
		swap(int(j), int(i-1))
	}
}
