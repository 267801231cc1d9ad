// Copyright (c) 2013, 2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import "fmt"

// QuantaPerShor is the number of Shor (the smallest indivisible unit) in
// one whole Quanta, mirroring btcutil.Amount's SatoshiPerBitcoin constant.
const QuantaPerShor = 1e9

// Amount represents a quantity of the network's native asset as an integer
// number of Shor, matching §3's "balance (unsigned 64-bit)".
type Amount uint64

// ToQuanta returns the float64 amount of Quanta represented by a.
func (a Amount) ToQuanta() float64 {
	return float64(a) / QuantaPerShor
}

// String formats a as a decimal Quanta amount followed by a unit suffix.
func (a Amount) String() string {
	return fmt.Sprintf("%.9f QRL", a.ToQuanta())
}
