package elfwriter

// bucketCounts is the classic SVR4 ld "preferred number of hash buckets"
// ladder; bucketCountFor picks from it by symbol count (spec §4.6.2).
var bucketCounts = []uint32{
	1, 3, 17, 37, 67, 97, 131, 197, 263, 521, 1031, 2053, 4099, 8209,
	16411, 32771, 65537, 131101, 262147,
}

// elfHash is the classic ELF string hash (SVR4 ABI, used unchanged by
// every ELF toolchain's .hash section).
func elfHash(name string) uint32 {
	var h, g uint32
	for i := 0; i < len(name); i++ {
		h = (h << 4) + uint32(name[i])
		g = h & 0xf0000000
		if g != 0 {
			h ^= g >> 24
		}
		h &^= g
	}
	return h
}

// bucketCountFor picks the largest ladder entry that does not exceed n,
// falling back to the floor of 1 (spec §4.6.1).
func bucketCountFor(n int) uint32 {
	result := bucketCounts[0]
	for _, c := range bucketCounts {
		if uint32(n) < c {
			break
		}
		result = c
	}
	return result
}

// BuildHash builds a SVR4 .hash section's word array
// (nbucket, nchain, bucket[nbucket], chain[nchain]) over dynsyms, whose
// index 0 is always the reserved STN_UNDEF entry and is never hashed.
func BuildHash(dynsyms []SymEnt, names func(*SymEnt) string) []uint32 {
	nchain := uint32(len(dynsyms))
	nbucket := bucketCountFor(len(dynsyms))

	bucket := make([]uint32, nbucket)
	chain := make([]uint32, nchain)

	for i := 1; i < len(dynsyms); i++ {
		name := names(&dynsyms[i])
		h := elfHash(name) % nbucket
		chain[i] = bucket[h]
		bucket[h] = uint32(i)
	}

	out := make([]uint32, 0, 2+len(bucket)+len(chain))
	out = append(out, nbucket, nchain)
	out = append(out, bucket...)
	out = append(out, chain...)
	return out
}
