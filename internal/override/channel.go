package override

import (
	"fmt"
	"sort"
)

// autoChannelWrap corrects channel numbering that resets (wraps) instead of
// counting continuously.
//
// Two corrections compose:
//
//  1. Within each recording group (every index key except the channel held
//     fixed), a channel value that fails to increase marks a wrap. Traces
//     after the wrap get a synthetic offset equal to the highest channel seen
//     so far in the group, so the wrapped segment continues the sequence
//     instead of colliding with its start.
//  2. Cables are then rebased into disjoint global channel ranges: cables in
//     ascending order each start where the previous cable's corrected range
//     ended. Per-cable streamer numbering 1..n(c) therefore becomes one
//     continuous channel axis 1..sum(n(c)).
type autoChannelWrap struct {
	cableKey   string
	channelKey string
}

func newAutoChannelWrap(s Spec) (Strategy, error) {
	st := &autoChannelWrap{cableKey: s.CableKey, channelKey: s.ChannelKey}
	if st.cableKey == "" {
		st.cableKey = "cable"
	}
	if st.channelKey == "" {
		st.channelKey = "channel"
	}
	return st, nil
}

func (s *autoChannelWrap) Name() string { return "AutoChannelWrap" }

func (s *autoChannelWrap) Apply(keys [][]int32, names []string) ([][]int32, error) {
	cablePos, err := keyIndex(names, s.cableKey)
	if err != nil {
		return nil, err
	}
	chanPos, err := keyIndex(names, s.channelKey)
	if err != nil {
		return nil, err
	}

	out := make([][]int32, len(keys))
	for i, k := range keys {
		out[i] = append([]int32(nil), k...)
	}

	// Pass 1: unwrap within each recording group (all keys except channel).
	type groupState struct {
		prev   int32
		offset int32
		max    int32
	}
	groups := make(map[string]*groupState)
	cableMax := make(map[int32]int32)

	for _, k := range out {
		gk := groupKey(k, chanPos)
		g, ok := groups[gk]
		ch := k[chanPos]
		if !ok {
			g = &groupState{prev: ch, max: ch}
			groups[gk] = g
		} else {
			if ch <= g.prev {
				// Wrap: continue numbering past the group's ceiling.
				g.offset = g.max
			}
			g.prev = ch
		}
		corrected := ch + g.offset
		if corrected > g.max {
			g.max = corrected
		}
		k[chanPos] = corrected

		cable := k[cablePos]
		if corrected > cableMax[cable] {
			cableMax[cable] = corrected
		}
	}

	// Pass 2: rebase each cable's channel range after all lower-numbered
	// cables, making the channel key globally unique on its own.
	cables := make([]int32, 0, len(cableMax))
	for c := range cableMax {
		cables = append(cables, c)
	}
	sort.Slice(cables, func(i, j int) bool { return cables[i] < cables[j] })

	cableOffset := make(map[int32]int32, len(cables))
	var cum int32
	for _, c := range cables {
		cableOffset[c] = cum
		cum += cableMax[c]
	}
	for _, k := range out {
		k[chanPos] += cableOffset[k[cablePos]]
	}

	return out, nil
}

// autoChannelTraceQC caps the number of traces a single cable may carry.
// Beyond the ceiling, an apparent wrap is treated as corrupt geometry rather
// than legitimate acquisition.
type autoChannelTraceQC struct {
	cableKey  string
	maxTraces int64
}

func newAutoChannelTraceQC(s Spec) (Strategy, error) {
	if s.MaxTraces <= 0 {
		return nil, fmt.Errorf("%w: AutoChannelTraceQC needs a positive max_traces, got %d", ErrOverride, s.MaxTraces)
	}
	st := &autoChannelTraceQC{cableKey: s.CableKey, maxTraces: s.MaxTraces}
	if st.cableKey == "" {
		st.cableKey = "cable"
	}
	return st, nil
}

func (s *autoChannelTraceQC) Name() string { return "AutoChannelTraceQC" }

func (s *autoChannelTraceQC) Apply(keys [][]int32, names []string) ([][]int32, error) {
	cablePos, err := keyIndex(names, s.cableKey)
	if err != nil {
		return nil, err
	}

	counts := make(map[int32]int64)
	for _, k := range keys {
		cable := k[cablePos]
		counts[cable]++
		if counts[cable] > s.maxTraces {
			return nil, fmt.Errorf("%w: cable %d exceeds %d traces", ErrOverride, cable, s.maxTraces)
		}
	}
	return keys, nil
}

func groupKey(k []int32, skip int) string {
	// Small fixed-rank tuples; a byte key keeps map lookups allocation-light.
	buf := make([]byte, 0, (len(k)-1)*5)
	for i, v := range k {
		if i == skip {
			continue
		}
		buf = append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), '|')
	}
	return string(buf)
}
