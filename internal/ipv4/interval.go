// Package ipv4 computes the public IPv4 address space (everything outside a
// fixed reserved registry) and walks it in parallel.
package ipv4

import (
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"strconv"
	"strings"
)

// MaxAddr is the last address of the IPv4 space.
const MaxAddr = 0xFFFFFFFF

// ErrBadCIDR is returned for text that is not an IPv4 CIDR block.
var ErrBadCIDR = errors.New("bad IPv4 CIDR")

// Interval is an inclusive range of IPv4 addresses in numeric form.
type Interval struct {
	Start uint32
	End   uint32
}

// Size returns the number of addresses in the interval.
func (iv Interval) Size() uint64 {
	return uint64(iv.End) - uint64(iv.Start) + 1
}

// Contains reports whether addr lies inside the interval.
func (iv Interval) Contains(addr uint32) bool {
	return addr >= iv.Start && addr <= iv.End
}

func (iv Interval) String() string {
	return Dotted(iv.Start) + "-" + Dotted(iv.End)
}

// ParseCIDR converts "a.b.c.d/p" into its address range. Host bits of the
// address are cleared, so "10.0.0.5/8" yields 10.0.0.0-10.255.255.255.
func ParseCIDR(s string) (Interval, error) {
	prefix, err := netip.ParsePrefix(strings.TrimSpace(s))
	if err != nil {
		return Interval{}, fmt.Errorf("%w: %q: %v", ErrBadCIDR, s, err)
	}
	if !prefix.Addr().Is4() {
		return Interval{}, fmt.Errorf("%w: %q is not IPv4", ErrBadCIDR, s)
	}

	bits := prefix.Bits()
	var mask uint32
	if bits > 0 {
		mask = uint32(MaxAddr) << (32 - bits)
	}

	start := toUint32(prefix.Addr()) & mask
	return Interval{Start: start, End: start | ^mask}, nil
}

// Merge sorts intervals by start and coalesces overlapping or adjacent ones.
// The input slice is not modified.
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := slices.Clone(intervals)
	slices.SortFunc(sorted, func(a, b Interval) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		}
		return 0
	})

	out := make([]Interval, 0, len(sorted))
	cur := sorted[0]
	for _, iv := range sorted[1:] {
		// widened to avoid wrapping when cur.End is MaxAddr
		if uint64(iv.Start) <= uint64(cur.End)+1 {
			cur.End = max(cur.End, iv.End)
			continue
		}
		out = append(out, cur)
		cur = iv
	}

	return append(out, cur)
}

// Complement returns the gaps between merged intervals over the whole IPv4
// space. merged must be sorted and non-overlapping, as returned by Merge.
func Complement(merged []Interval) []Interval {
	var out []Interval

	var cursor uint64
	for _, iv := range merged {
		if cursor < uint64(iv.Start) {
			out = append(out, Interval{Start: uint32(cursor), End: iv.Start - 1})
		}
		cursor = max(cursor, uint64(iv.End)+1)
		if cursor > MaxAddr {
			return out
		}
	}

	return append(out, Interval{Start: uint32(cursor), End: MaxAddr})
}

// Total returns the number of addresses covered by intervals.
func Total(intervals []Interval) uint64 {
	var n uint64
	for _, iv := range intervals {
		n += iv.Size()
	}
	return n
}

// Dotted formats a numeric address as a.b.c.d.
func Dotted(addr uint32) string {
	buf := make([]byte, 0, 15)
	buf = strconv.AppendUint(buf, uint64(addr>>24), 10)
	buf = append(buf, '.')
	buf = strconv.AppendUint(buf, uint64(addr>>16&0xFF), 10)
	buf = append(buf, '.')
	buf = strconv.AppendUint(buf, uint64(addr>>8&0xFF), 10)
	buf = append(buf, '.')
	buf = strconv.AppendUint(buf, uint64(addr&0xFF), 10)
	return string(buf)
}

// ParseAddr converts a dotted IPv4 address into numeric form.
func ParseAddr(s string) (uint32, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil || !addr.Is4() {
		return 0, fmt.Errorf("bad IPv4 address %q", s)
	}
	return toUint32(addr), nil
}

func toUint32(addr netip.Addr) uint32 {
	b := addr.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
