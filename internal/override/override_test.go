package override

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyNames = []string{"shot", "cable", "channel"}

// surveyKeys builds a key stream with per-cable channel numbering that resets
// to 1 at every cable boundary.
func surveyKeys(shots []int32, cables []int32, counts []int) [][]int32 {
	var keys [][]int32
	for _, shot := range shots {
		for ci, cable := range cables {
			for ch := int32(1); ch <= int32(counts[ci]); ch++ {
				keys = append(keys, []int32{shot, cable, ch})
			}
		}
	}
	return keys
}

func channelValues(keys [][]int32) map[int32]bool {
	set := make(map[int32]bool)
	for _, k := range keys {
		set[k[2]] = true
	}
	return set
}

func TestAutoChannelWrapSingleShot(t *testing.T) {
	cables := []int32{0, 101, 201, 301}
	counts := []int{1, 5, 7, 5}
	keys := surveyKeys([]int32{2}, cables, counts)
	require.Len(t, keys, 18)

	p, err := NewPipeline([]Spec{{Name: "AutoChannelWrap"}})
	require.NoError(t, err)

	out, err := p.Apply(keys, keyNames)
	require.NoError(t, err)

	// Corrected channels cover 1..sum(counts) with no collisions.
	seen := channelValues(out)
	assert.Len(t, seen, 18)
	for ch := int32(1); ch <= 18; ch++ {
		assert.True(t, seen[ch], "channel %d missing", ch)
	}

	// Input stream untouched.
	assert.Equal(t, int32(1), keys[1][2])
}

func TestAutoChannelWrapMultiShot(t *testing.T) {
	cables := []int32{0, 101, 201, 301}
	counts := []int{1, 5, 7, 5}
	keys := surveyKeys([]int32{2, 3, 5}, cables, counts)

	p, err := NewPipeline([]Spec{{Name: "AutoChannelWrap"}})
	require.NoError(t, err)

	out, err := p.Apply(keys, keyNames)
	require.NoError(t, err)

	// Each shot repeats the same global channel range; resets at shot
	// boundaries are recording-group boundaries, not wraps.
	seen := channelValues(out)
	assert.Len(t, seen, 18)

	// Joint keys stay unique across shots.
	joint := make(map[[3]int32]bool)
	for _, k := range out {
		key := [3]int32{k[0], k[1], k[2]}
		assert.False(t, joint[key], "duplicate joint key %v", key)
		joint[key] = true
	}
}

func TestAutoChannelWrapDetectsMidCableWrap(t *testing.T) {
	// One cable whose counter wraps back to 1 midway: 1,2,3,1,2 must become
	// 1,2,3,4,5 rather than colliding.
	keys := [][]int32{
		{1, 7, 1}, {1, 7, 2}, {1, 7, 3}, {1, 7, 1}, {1, 7, 2},
	}

	p, err := NewPipeline([]Spec{{Name: "AutoChannelWrap"}})
	require.NoError(t, err)

	out, err := p.Apply(keys, keyNames)
	require.NoError(t, err)

	var got []int32
	for _, k := range out {
		got = append(got, k[2])
	}
	assert.Equal(t, []int32{1, 2, 3, 4, 5}, got)
}

func TestAutoChannelWrapDisabledLeavesKeys(t *testing.T) {
	cables := []int32{0, 101, 201, 301}
	counts := []int{1, 5, 7, 5}
	keys := surveyKeys([]int32{2}, cables, counts)

	p, err := NewPipeline(nil)
	require.NoError(t, err)
	assert.True(t, p.Empty())

	out, err := p.Apply(keys, keyNames)
	require.NoError(t, err)
	assert.Equal(t, keys, out)

	// Channel values only span 1..max(counts); cable+channel disambiguates.
	seen := channelValues(out)
	assert.Len(t, seen, 7)
}

func TestAutoChannelTraceQCCeiling(t *testing.T) {
	keys := surveyKeys([]int32{2}, []int32{0, 101, 201, 301}, []int{1, 5, 7, 5})

	p, err := NewPipeline([]Spec{{Name: "AutoChannelTraceQC", MaxTraces: 6}})
	require.NoError(t, err)

	_, err = p.Apply(keys, keyNames)
	require.ErrorIs(t, err, ErrOverride)
	assert.Contains(t, err.Error(), "cable 201")
}

func TestAutoChannelTraceQCPasses(t *testing.T) {
	keys := surveyKeys([]int32{2}, []int32{0, 101}, []int{3, 3})

	p, err := NewPipeline([]Spec{
		{Name: "AutoChannelWrap"},
		{Name: "AutoChannelTraceQC", MaxTraces: 100000},
	})
	require.NoError(t, err)

	out, err := p.Apply(keys, keyNames)
	require.NoError(t, err)
	assert.Len(t, out, 6)
}

func TestPipelineUnknownStrategy(t *testing.T) {
	_, err := NewPipeline([]Spec{{Name: "FlattenGeometry"}})
	require.ErrorIs(t, err, ErrOverride)
}

func TestTraceQCRequiresCeiling(t *testing.T) {
	_, err := NewPipeline([]Spec{{Name: "AutoChannelTraceQC"}})
	require.ErrorIs(t, err, ErrOverride)
}

func TestWrapNeedsNamedKeys(t *testing.T) {
	p, err := NewPipeline([]Spec{{Name: "AutoChannelWrap"}})
	require.NoError(t, err)

	_, err = p.Apply([][]int32{{1, 2}}, []string{"inline", "crossline"})
	require.ErrorIs(t, err, ErrOverride)
}
