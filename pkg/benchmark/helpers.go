package benchmark

import (
	"fmt"
)

// Reference checks shared by the driver and the end-to-end tests. The
// references are plain sequential partitions, so any disagreement is an
// engine ordering or counting bug.

// CheckPartition verifies a two-way result against the input and flags:
// selected elements first in original order, unselected after them in
// original order, count equal to the number of truthy flags.
func CheckPartition(input []uint32, flags []uint8, output []uint32, count uint32) error {
	if len(output) != len(input) {
		return fmt.Errorf("Lengths do not match: Expected %v, Got %v", len(input), len(output))
	}

	var want []uint32
	for i, v := range input {
		if flags[i] != 0 {
			want = append(want, v)
		}
	}
	nSel := len(want)
	for i, v := range input {
		if flags[i] == 0 {
			want = append(want, v)
		}
	}

	if (int)(count) != nSel {
		return fmt.Errorf("Wrong selected count: Expected %v, Got %v", nSel, count)
	}
	for i := 0; i < len(want); i++ {
		if output[i] != want[i] {
			return fmt.Errorf("Output doesn't match reference at %v: Expected %v, Got %v", i, want[i], output[i])
		}
	}
	return nil
}

// CheckThreeWay verifies a three-way result: each class buffer holds its
// class's elements in original order and the two reported counts are exact.
func CheckThreeWay(input []uint32, firstOp, secondOp func(uint32) bool,
	outFirst, outSecond, outUnselected []uint32, counts []uint32) error {

	var wantFirst, wantSecond, wantUnsel []uint32
	for _, v := range input {
		switch {
		case firstOp(v):
			wantFirst = append(wantFirst, v)
		case secondOp(v):
			wantSecond = append(wantSecond, v)
		default:
			wantUnsel = append(wantUnsel, v)
		}
	}

	if (int)(counts[0]) != len(wantFirst) {
		return fmt.Errorf("Wrong first-class count: Expected %v, Got %v", len(wantFirst), counts[0])
	}
	if (int)(counts[1]) != len(wantSecond) {
		return fmt.Errorf("Wrong second-class count: Expected %v, Got %v", len(wantSecond), counts[1])
	}

	for i, v := range wantFirst {
		if outFirst[i] != v {
			return fmt.Errorf("First-class output doesn't match reference at %v: Expected %v, Got %v", i, v, outFirst[i])
		}
	}
	for i, v := range wantSecond {
		if outSecond[i] != v {
			return fmt.Errorf("Second-class output doesn't match reference at %v: Expected %v, Got %v", i, v, outSecond[i])
		}
	}
	for i, v := range wantUnsel {
		if outUnselected[i] != v {
			return fmt.Errorf("Unselected output doesn't match reference at %v: Expected %v, Got %v", i, v, outUnselected[i])
		}
	}
	return nil
}
