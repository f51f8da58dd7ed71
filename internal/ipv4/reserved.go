package ipv4

import "slices"

// reserved lists blocks never enumerated. Order is not significant.
var reserved = []string{
	"0.0.0.0/8",       // "this" network
	"1.1.1.1/32",      // Cloudflare DNS
	"8.8.8.8/32",      // Google DNS
	"10.0.0.0/8",      // private
	"100.64.0.0/10",   // carrier-grade NAT
	"127.0.0.0/8",     // loopback
	"169.254.0.0/16",  // link-local
	"172.16.0.0/12",   // private
	"192.0.0.0/24",    // IETF protocol assignments
	"192.0.2.0/24",    // TEST-NET-1
	"192.88.99.0/24",  // 6to4 relay
	"192.168.0.0/16",  // private
	"198.18.0.0/15",   // benchmarking
	"198.51.100.0/24", // TEST-NET-2
	"203.0.113.0/24",  // TEST-NET-3
	"224.0.0.0/4",     // multicast
	"240.0.0.0/4",     // future use
}

// ReservedCIDRs returns a copy of the reserved registry.
func ReservedCIDRs() []string {
	return slices.Clone(reserved)
}

// ReservedIntervals returns the reserved registry as merged ranges.
func ReservedIntervals() []Interval {
	ranges := make([]Interval, 0, len(reserved))
	for _, cidr := range reserved {
		iv, err := ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		ranges = append(ranges, iv)
	}
	return Merge(ranges)
}

// AllowedIntervals returns every public range: the complement of the
// merged reserved registry, sorted and disjoint.
func AllowedIntervals() []Interval {
	return Complement(ReservedIntervals())
}

// AllowedIntervalsExcluding returns the public ranges with the extra CIDR
// blocks removed as well.
func AllowedIntervalsExcluding(extra []string) ([]Interval, error) {
	ranges := ReservedIntervals()
	for _, cidr := range extra {
		iv, err := ParseCIDR(cidr)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, iv)
	}
	return Complement(Merge(ranges)), nil
}
