package mdio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-mdio/internal/filter"
	"github.com/robert-malhotra/go-mdio/internal/header"
	"github.com/robert-malhotra/go-mdio/internal/sample"
	"github.com/robert-malhotra/go-mdio/internal/segy"
)

var convFields = []header.FieldSpec{
	{Name: "cable", Offset: 4, Length: 2, Signed: true},
	{Name: "channel", Offset: 8, Length: 4, Signed: true},
}

type testTrace struct {
	cable, channel int32
}

// writeSurvey emits an exchange file whose trace headers carry only the
// declared fields, so a lossless export reproduces it byte for byte.
func writeSurvey(t *testing.T, format sample.Format, traces []testTrace, numSamples int) string {
	t.Helper()
	codec, err := header.NewCodec(segy.TraceHeaderSize, convFields)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "survey.sgy")
	w, err := segy.Create(path, nil, format, numSamples, 4000)
	require.NoError(t, err)
	for i, tr := range traces {
		block := make([]byte, segy.TraceHeaderSize)
		require.NoError(t, codec.Encode(map[string]int32{
			"cable":   tr.cable,
			"channel": tr.channel,
		}, block))
		samples := make([]float32, numSamples)
		for j := range samples {
			samples[j] = float32(i*1000 + j)
		}
		require.NoError(t, w.WriteTrace(block, samples))
	}
	require.NoError(t, w.Close())
	return path
}

func convConfig(overrides ...Override) ImportConfig {
	return ImportConfig{
		Fields:     convFields,
		IndexNames: []string{"cable", "channel"},
		Overrides:  overrides,
	}
}

func TestFromSegyToSegyByteIdentical(t *testing.T) {
	ctx := context.Background()
	traces := []testTrace{
		{101, 1}, {101, 2}, {101, 3},
		{102, 1}, {102, 2}, {102, 3},
	}
	src := writeSurvey(t, sample.FormatIEEE32, traces, 20)

	dir := t.TempDir()
	s, err := FromSegy(ctx, src, Target{Driver: "fs", Root: filepath.Join(dir, "store")},
		convConfig(),
		WithChunkShape([]int{2, 2, 8}),
		WithFilter(filter.Config{Compression: 6, Shuffle: true}),
	)
	require.NoError(t, err)
	require.Equal(t, int64(6), s.TraceCount())

	out := filepath.Join(dir, "out.sgy")
	require.NoError(t, ToSegy(ctx, s, out, ""))

	want, err := os.ReadFile(src)
	require.NoError(t, err)
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestFromSegyIBMFormat(t *testing.T) {
	ctx := context.Background()
	traces := []testTrace{{1, 1}, {1, 2}}
	src := writeSurvey(t, sample.FormatIBM32, traces, 10)

	s, err := FromSegy(ctx, src, Target{Driver: "memory"}, convConfig())
	require.NoError(t, err)

	format, _ := s.SourceFormat()
	require.Equal(t, "ibm32", format)

	// Integer-valued samples survive the IBM round trip exactly.
	data, _, err := s.Read(ctx, At(0), At(1), All())
	require.NoError(t, err)
	for j, v := range data {
		require.Equal(t, float32(1000+j), v)
	}
}

func TestFromSegyChannelWrap(t *testing.T) {
	// Channels reset mid-cable; the wrap override unwraps each cable and
	// rebases them into disjoint ranges, 1..sum over cables.
	ctx := context.Background()
	traces := []testTrace{
		{1, 1}, {1, 2}, {1, 3}, {1, 1}, {1, 2}, // cable 1 wraps at trace 3
		{2, 1}, {2, 2}, {2, 3},
	}
	src := writeSurvey(t, sample.FormatIEEE32, traces, 8)

	s, err := FromSegy(ctx, src, Target{Driver: "memory"},
		convConfig(Override{Name: "AutoChannelWrap"}))
	require.NoError(t, err)

	ch, err := s.Grid().SelectDim("channel")
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3, 4, 5, 6, 7, 8}, ch.Coords)

	// Export still yields the original header values, not the synthetic
	// grid coordinates.
	var channels []int32
	require.NoError(t, s.IterOriginalOrder(ctx, func(r TraceRecord) error {
		channels = append(channels, r.Fields["channel"])
		return nil
	}))
	require.Equal(t, []int32{1, 2, 3, 1, 2, 1, 2, 3}, channels)
}

func TestFromSegyNoOverrideKeepsPerCableChannels(t *testing.T) {
	// Without the wrap override, uniqueness is judged on the joint
	// (cable, channel) key and the channel dimension spans 1..max.
	ctx := context.Background()
	traces := []testTrace{
		{1, 1}, {1, 2}, {1, 3},
		{2, 1}, {2, 2}, {2, 3},
	}
	src := writeSurvey(t, sample.FormatIEEE32, traces, 8)

	s, err := FromSegy(ctx, src, Target{Driver: "memory"}, convConfig())
	require.NoError(t, err)

	ch, err := s.Grid().SelectDim("channel")
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3}, ch.Coords)
}

func TestFromSegyTraceQCCeiling(t *testing.T) {
	ctx := context.Background()
	traces := []testTrace{
		{1, 1}, {1, 2}, {1, 3},
		{2, 1},
	}
	src := writeSurvey(t, sample.FormatIEEE32, traces, 8)

	_, err := FromSegy(ctx, src, Target{Driver: "memory"},
		convConfig(Override{Name: "AutoChannelTraceQC", MaxTraces: 2}))
	require.ErrorIs(t, err, ErrGridOverride)
}

func TestFromSegyDuplicateKey(t *testing.T) {
	ctx := context.Background()
	traces := []testTrace{
		{1, 1}, {1, 2}, {1, 1},
	}
	src := writeSurvey(t, sample.FormatIEEE32, traces, 8)

	_, err := FromSegy(ctx, src, Target{Driver: "memory"}, convConfig())
	var dup *DuplicateCoordinateError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, []int32{1, 1}, dup.Key)
	require.Equal(t, int64(0), dup.First)
	require.Equal(t, int64(2), dup.Second)
}

func TestImportConfigValidation(t *testing.T) {
	_, err := FromSegy(context.Background(), "nowhere.sgy", Target{Driver: "memory"},
		ImportConfig{Fields: convFields})
	require.Error(t, err)

	_, err = FromSegy(context.Background(), "nowhere.sgy", Target{Driver: "memory"},
		ImportConfig{Fields: convFields, IndexNames: []string{"shot"}})
	require.Error(t, err)
}
