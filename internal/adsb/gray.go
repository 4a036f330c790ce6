package adsb

// GrayToBinary converts a Gray-coded value to plain binary using the
// standard XOR fold. Total over all 16-bit inputs.
func GrayToBinary(gray uint16) uint16 {
	mask := gray >> 1
	for mask != 0 {
		gray ^= mask
		mask >>= 1
	}
	return gray
}
