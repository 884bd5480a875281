package tuning

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Scale
	}{
		{
			name: "cents and ratio",
			text: "desc\n3\n200.0\n400.0\n2/1\n",
			want: Scale{0, 200, 400, 1200, 1200},
		},
		{
			name: "comments and blank lines",
			text: "! test.scl\n!\n\nPythagorean fragment\n 2\n!\n 3/2\n 100.0 \n",
			want: Scale{0, 100, 701.955000865, 1200},
		},
		{
			name: "unsorted input",
			text: "desc\n3\n700\n300\n500\n",
			want: Scale{0, 300, 500, 700, 1200},
		},
		{
			name: "declared count larger than lines",
			text: "desc\n5\n100\n",
			want: Scale{0, 100, 1200},
		},
		{
			name: "declared count smaller than lines",
			text: "desc\n1\n100\n200\n300\n",
			want: Scale{0, 100, 1200},
		},
		{
			name: "zero notes",
			text: "empty\n0\n",
			want: Scale{0, 1200},
		},
		{
			name: "windows line endings",
			text: "desc\r\n2\r\n100\r\n2/1\r\n",
			want: Scale{0, 100, 1200, 1200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.text)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-6, "degree %d", i)
			}
		})
	}
}

func TestDecodeTwelveTone(t *testing.T) {
	// 12 pitch lines give 13 degrees: the last one is forced to the octave.
	text := "12-tone\n12\n100\n200\n300\n400\n500\n600\n700\n800\n900\n1000\n1100\n1199.5\n"

	got, err := Decode(text)
	require.NoError(t, err)
	require.Len(t, got, 13)
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 1200.0, got[12])
	assert.Equal(t, 1100.0, got[11])
}

func TestDecodeLongScaleLeftAsIs(t *testing.T) {
	text := "long\n13\n100\n200\n300\n400\n500\n600\n700\n800\n900\n1000\n1100\n1150\n1190\n"

	got, err := Decode(text)
	require.NoError(t, err)
	require.Len(t, got, 14)
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 1190.0, got[13], "scales longer than 13 degrees keep their last pitch")
}

func TestDecodeInvariant(t *testing.T) {
	inputs := []string{
		"a\n0\n",
		"a\n2\n3/2\n5/4\n",
		"a\n4\n100\nbogus\n7/0\n300\n",
		"a\n12\n1/1\n2/1\n3/2\n4/3\n5/4\n6/5\n7/6\n8/7\n9/8\n10/9\n11/10\n12/11\n",
	}

	for _, text := range inputs {
		got, err := Decode(text)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, 0.0, got[0])
		assert.Equal(t, 1200.0, got[len(got)-1])
	}
}

func TestParseSkipsMalformedPitchLines(t *testing.T) {
	text := "desc\n7\n3/0\na/2\n3/2/1\nabc\n3 / 2\n400.0\n-3/2\n3//2\n3/x/2\n"

	file, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, "desc", file.Description)
	assert.Equal(t, 7, file.DeclaredCount)
	assert.Equal(t, []float64{400}, file.Pitches)
	assert.Equal(t, []int{3, 4, 5, 6, 7, 9, 10, 11}, file.Skipped)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantLine int
	}{
		{"empty", "", 0},
		{"only comments", "! a\n!\n", 0},
		{"missing count", "desc\n", 0},
		{"non numeric count", "desc\nabc\n100\n", 2},
		{"fractional count", "desc\n2.5\n100\n", 2},
		{"negative count", "! hdr\ndesc\n-1\n100\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scale, err := Decode(tt.text)
			require.Error(t, err)
			assert.Nil(t, scale)
			assert.True(t, errors.Is(err, ErrFormat))

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantLine, fe.Line)
		})
	}
}

func TestEncode(t *testing.T) {
	got := Encode([]float64{0, 100, 200.5, 0.00001}, 3, "3-TET Approximation of test.scl")
	want := "! Generated by xenapprox\n!\n3-TET Approximation of test.scl\n3\n100.000000\n200.500000\n1200.0"
	assert.Equal(t, want, got)
}

func TestEncodeEmpty(t *testing.T) {
	got := Encode(nil, 0, "")
	assert.Equal(t, "! Generated by xenapprox\n!\n\n0\n1200.0", got)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	scale, err := Decode("meantone\n7\n193.157\n386.314\n503.422\n696.579\n889.735\n1082.892\n2/1\n")
	require.NoError(t, err)

	for _, n := range []int{5, 7, 12, 19} {
		mapping := Approximate(scale, n)
		text := Encode(mapping.Pitches, n, "round trip")

		decoded, err := Decode(text)
		require.NoError(t, err)

		for _, cents := range mapping.Pitches {
			assert.True(t, containsApprox(decoded, cents, 1e-6), "n=%d: %f missing from %v", n, cents, decoded)
		}
		for _, cents := range decoded {
			if cents == Octave {
				continue
			}
			assert.True(t, containsApprox(mapping.Pitches, cents, 1e-6), "n=%d: unexpected %f", n, cents)
		}
	}
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.scl")

	require.NoError(t, WriteFile(path, Encode([]float64{0, 400, 700}, 3, "triad")))

	file, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, "triad", file.Description)
	assert.Equal(t, Scale{0, 400, 700, 1200, 1200}, file.Scale())

	_, err = DecodeFile(filepath.Join(dir, "missing.scl"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRatioToCents(t *testing.T) {
	cents, ok := RatioToCents(2)
	require.True(t, ok)
	assert.Equal(t, 1200.0, cents)

	cents, ok = RatioToCents(3.0 / 2.0)
	require.True(t, ok)
	assert.InDelta(t, 701.955, cents, 1e-3)

	_, ok = RatioToCents(0)
	assert.False(t, ok)
	_, ok = RatioToCents(-1.5)
	assert.False(t, ok)
}

func TestScaleClone(t *testing.T) {
	s := Scale{0, 100, 1200}
	c := s.Clone()
	c[1] = 150

	assert.Equal(t, 100.0, s[1])
	assert.False(t, s.Equal(c))
	assert.True(t, s.Equal(Scale{0, 100, 1200}))
	assert.Nil(t, Scale(nil).Clone())
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		expected Format
	}{
		{"test.scl", FormatSCL},
		{"TEST.SCL", FormatSCL},
		{"test.mid", FormatMIDI},
		{"test.midi", FormatMIDI},
		{"report.yaml", FormatYAML},
		{"report.yml", FormatYAML},
		{"test.txt", FormatUnknown},
		{"test", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectFormat(tt.filename))
		})
	}
}

func TestSwapExt(t *testing.T) {
	assert.Equal(t, "dir/scale.mid", SwapExt("dir/scale.scl", ".mid"))
	assert.Equal(t, "scale.scl", SwapExt("scale", ".scl"))
}

func containsApprox(values []float64, want, delta float64) bool {
	for _, v := range values {
		if v-want <= delta && want-v <= delta {
			return true
		}
	}
	return false
}
