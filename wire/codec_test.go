package wire

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"

	"github.com/RoboDK/RoboDK-API-sub002/robomath"
)

func loopback() (*Encoder, *Decoder, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewEncoder(&buf), NewDecoder(&buf), &buf
}

func TestLine(t *testing.T) {
	require := require.New(t)
	enc, dec, buf := loopback()

	require.NoError(enc.WriteLine("G_Item"))
	require.NoError(enc.WriteLine("multi\nline\nname"))
	require.NoError(enc.WriteLine(""))
	require.NoError(enc.WriteLine("ünïcode"))
	require.NoError(enc.Flush())
	require.Equal("G_Item\nmulti line name\n\nünïcode\n", buf.String())

	for _, want := range []string{"G_Item", "multi line name", "", "ünïcode"} {
		got, err := dec.ReadLine()
		require.NoError(err)
		require.Equal(want, got)
	}

	_, err := dec.ReadLine()
	require.ErrorIs(err, ErrShortRead)
	require.ErrorIs(err, io.EOF)
}

func TestLine_Unterminated(t *testing.T) {
	dec := NewDecoder(bytes.NewBufferString("RDK_A"))
	_, err := dec.ReadLine()
	require.ErrorIs(t, err, ErrShortRead)
}

func TestIntegers_BigEndian(t *testing.T) {
	require := require.New(t)
	enc, dec, buf := loopback()

	require.NoError(enc.WriteInt32(-2))
	require.NoError(enc.WriteUint64(0x0102030405060708))
	require.NoError(enc.Flush())
	require.Equal([]byte{0xff, 0xff, 0xff, 0xfe, 1, 2, 3, 4, 5, 6, 7, 8}, buf.Bytes())

	i, err := dec.ReadInt32()
	require.NoError(err)
	require.Equal(int32(-2), i)

	u, err := dec.ReadUint64()
	require.NoError(err)
	require.Equal(uint64(0x0102030405060708), u)
}

func TestFloat64_BigEndian(t *testing.T) {
	require := require.New(t)
	enc, dec, buf := loopback()

	require.NoError(enc.WriteFloat64(1.0))
	require.NoError(enc.Flush())
	require.Equal([]byte{0x3f, 0xf0, 0, 0, 0, 0, 0, 0}, buf.Bytes())

	for _, v := range []float64{0, -0.5, math.Pi, math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(-1)} {
		require.NoError(enc.WriteFloat64(v))
	}
	require.NoError(enc.Flush())

	buf.Next(8)
	for _, want := range []float64{0, -0.5, math.Pi, math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(-1)} {
		got, err := dec.ReadFloat64()
		require.NoError(err)
		require.Equal(want, got)
	}
}

func TestItemRef(t *testing.T) {
	require := require.New(t)
	enc, dec, buf := loopback()

	require.NoError(enc.WriteItemRef(ItemRef{Handle: 0xdeadbeef, Kind: 2}))
	require.NoError(enc.WriteItemRef(ItemRef{}))
	require.NoError(enc.Flush())
	require.Equal(24, buf.Len())
	require.Equal(make([]byte, 12), buf.Bytes()[12:])

	ref, err := dec.ReadItemRef()
	require.NoError(err)
	require.Equal(ItemRef{Handle: 0xdeadbeef, Kind: 2}, ref)
	require.False(ref.IsNull())

	ref, err = dec.ReadItemRef()
	require.NoError(err)
	require.True(ref.IsNull())
}

func TestXYZ(t *testing.T) {
	require := require.New(t)
	enc, dec, buf := loopback()

	v := r3.Vector{X: 1.5, Y: -2, Z: 1e6}
	require.NoError(enc.WriteXYZ(v))
	require.NoError(enc.Flush())
	require.Equal(24, buf.Len())

	got, err := dec.ReadXYZ()
	require.NoError(err)
	require.Equal(v, got)
}

func TestArray(t *testing.T) {
	require := require.New(t)
	enc, dec, buf := loopback()

	require.NoError(enc.WriteArray([]float64{10, 20, 30.5}))
	require.NoError(enc.WriteArray(nil))
	require.NoError(enc.Flush())
	require.Equal(4+3*8+4, buf.Len())

	got, err := dec.ReadArray()
	require.NoError(err)
	require.Equal([]float64{10, 20, 30.5}, got)

	got, err = dec.ReadArray()
	require.NoError(err)
	require.Nil(got)
}

func TestArray_Malformed(t *testing.T) {
	require := require.New(t)
	enc, dec, _ := loopback()

	require.NoError(enc.WriteInt32(-1))
	require.NoError(enc.Flush())

	_, err := dec.ReadArray()
	require.ErrorIs(err, ErrMalformed)
}

func TestReadCount(t *testing.T) {
	require := require.New(t)
	enc, dec, _ := loopback()

	for _, n := range []int32{0, 3, MaxArrayLength, -7, MaxArrayLength + 1} {
		require.NoError(enc.WriteInt32(n))
	}
	require.NoError(enc.Flush())

	for _, want := range []int{0, 3, MaxArrayLength} {
		n, err := dec.ReadCount("count")
		require.NoError(err)
		require.Equal(want, n)
	}

	_, err := dec.ReadCount("count")
	require.ErrorIs(err, ErrMalformed)
	_, err = dec.ReadCount("count")
	require.ErrorIs(err, ErrMalformed)
}

func TestPose_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for i := range 25 {
		pose, err := robomath.FromXYZRPW([]float64{
			rng.Float64()*2000 - 1000, rng.Float64()*2000 - 1000, rng.Float64()*2000 - 1000,
			rng.Float64()*360 - 180, rng.Float64()*180 - 90, rng.Float64()*360 - 180,
		})
		require.NoError(t, err)

		t.Run(fmt.Sprintf("pose_%d", i), func(t *testing.T) {
			require := require.New(t)
			enc, dec, buf := loopback()

			require.NoError(enc.WritePose(pose))
			require.NoError(enc.Flush())
			require.Equal(16*8, buf.Len())

			got, err := dec.ReadPose()
			require.NoError(err)
			require.True(got.Equal(pose, 1e-9))
		})
	}
}

func TestPose_ColumnMajor(t *testing.T) {
	require := require.New(t)
	enc, dec, _ := loopback()

	require.NoError(enc.WritePose(robomath.TransL(7, 8, 9)))
	require.NoError(enc.Flush())

	values := make([]float64, 16)
	for i := range values {
		v, err := dec.ReadFloat64()
		require.NoError(err)
		values[i] = v
	}
	// translation is the last column
	require.Equal([]float64{7, 8, 9, 1}, values[12:])
}

func TestPose_Invalid(t *testing.T) {
	enc, _, _ := loopback()
	require.ErrorIs(t, enc.WritePose(robomath.New(3, 4)), ErrInvalidPose)
	require.ErrorIs(t, enc.WritePose(nil), ErrInvalidPose)
}

func TestMatrix_PointListExact(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	for _, n := range []int{3, 6, 30, 99} {
		t.Run(fmt.Sprintf("3x%d", n), func(t *testing.T) {
			require := require.New(t)
			enc, dec, buf := loopback()

			points := robomath.New(3, n)
			for i := range 3 {
				for j := range n {
					points.Set(i, j, rng.NormFloat64()*1e3)
				}
			}

			require.NoError(enc.WriteMatrix(points))
			require.NoError(enc.Flush())
			sent := bytes.Clone(buf.Bytes())
			require.Len(sent, 8+3*n*8)

			got, err := dec.ReadMatrix()
			require.NoError(err)
			require.Equal(3, got.Rows())
			require.Equal(n, got.Cols())
			require.True(got.Equal(points, 0))

			// re-encoding the decoded matrix reproduces the same bytes
			require.NoError(enc.WriteMatrix(got))
			require.NoError(enc.Flush())
			require.Equal(sent, buf.Bytes())
		})
	}
}

func TestMatrix_Empty(t *testing.T) {
	require := require.New(t)
	enc, dec, buf := loopback()

	require.NoError(enc.WriteMatrix(nil))
	require.NoError(enc.Flush())
	require.Equal(make([]byte, 8), buf.Bytes())

	got, err := dec.ReadMatrix()
	require.NoError(err)
	require.NotNil(got)
	require.Equal(0, got.Rows())
}

func TestShortRead(t *testing.T) {
	full := func(write func(*Encoder) error) []byte {
		var buf bytes.Buffer
		enc := NewEncoder(&buf)
		require.NoError(t, write(enc))
		require.NoError(t, enc.Flush())

		return buf.Bytes()
	}

	cases := []struct {
		name string
		data []byte
		read func(*Decoder) error
	}{
		{"int32", full(func(e *Encoder) error { return e.WriteInt32(7) }), func(d *Decoder) error { _, err := d.ReadInt32(); return err }},
		{"uint64", full(func(e *Encoder) error { return e.WriteUint64(7) }), func(d *Decoder) error { _, err := d.ReadUint64(); return err }},
		{"double", full(func(e *Encoder) error { return e.WriteFloat64(7) }), func(d *Decoder) error { _, err := d.ReadFloat64(); return err }},
		{"item", full(func(e *Encoder) error { return e.WriteItemRef(ItemRef{Handle: 1, Kind: 2}) }), func(d *Decoder) error { _, err := d.ReadItemRef(); return err }},
		{"xyz", full(func(e *Encoder) error { return e.WriteXYZ(r3.Vector{X: 1}) }), func(d *Decoder) error { _, err := d.ReadXYZ(); return err }},
		{"array", full(func(e *Encoder) error { return e.WriteArray([]float64{1, 2}) }), func(d *Decoder) error { _, err := d.ReadArray(); return err }},
		{"pose", full(func(e *Encoder) error { return e.WritePose(robomath.Identity()) }), func(d *Decoder) error { _, err := d.ReadPose(); return err }},
		{"matrix", full(func(e *Encoder) error { return e.WriteMatrix(robomath.New(3, 3)) }), func(d *Decoder) error { _, err := d.ReadMatrix(); return err }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)

			require.NoError(tc.read(NewDecoder(bytes.NewReader(tc.data))))

			for cut := 0; cut < len(tc.data); cut++ {
				err := tc.read(NewDecoder(bytes.NewReader(tc.data[:cut])))
				require.ErrorIs(err, ErrShortRead, "cut at %d", cut)
			}
		})
	}
}
