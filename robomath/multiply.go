package robomath

import "fmt"

// StrassenThreshold is the dimension at which Mul switches from the direct triple loop
// to the recursive divide-and-conquer product. Recursion stops once any dimension of a
// sub-product is at or below it.
const StrassenThreshold = 32

// Mul returns the matrix product m·b.
//
// It returns ErrDimensionMismatch if m.Cols() != b.Rows().
func (m *Mat) Mul(b *Mat) (*Mat, error) {
	if m.cols != b.rows {
		return nil, fmt.Errorf("%w: multiply %dx%d by %dx%d", ErrDimensionMismatch, m.rows, m.cols, b.rows, b.cols)
	}

	if min(m.rows, m.cols, b.cols) >= StrassenThreshold {
		return mulStrassen(m, b), nil
	}

	return mulDirect(m, b), nil
}

// MulVec multiplies m by the column vector v.
//
// When m is a 4x4 pose and v has 3 elements, v is promoted to the homogeneous point
// [x y z 1] and the transformed 3-vector is returned. Otherwise len(v) must equal
// m.Cols() and the result has m.Rows() elements.
func (m *Mat) MulVec(v []float64) ([]float64, error) {
	if m.IsSquareHomogeneousShape() && len(v) == 3 {
		d := m.data
		return []float64{
			d[0]*v[0] + d[1]*v[1] + d[2]*v[2] + d[3],
			d[4]*v[0] + d[5]*v[1] + d[6]*v[2] + d[7],
			d[8]*v[0] + d[9]*v[1] + d[10]*v[2] + d[11],
		}, nil
	}

	if len(v) != m.cols {
		return nil, fmt.Errorf("%w: multiply %dx%d by vector of length %d", ErrDimensionMismatch, m.rows, m.cols, len(v))
	}

	out := make([]float64, m.rows)
	for i := range m.rows {
		row := m.data[i*m.cols : (i+1)*m.cols]
		var sum float64
		for k, x := range row {
			sum += x * v[k]
		}
		out[i] = sum
	}

	return out, nil
}

// mulDirect computes a·b with the i-k-j triple loop.
func mulDirect(a, b *Mat) *Mat {
	c := New(a.rows, b.cols)
	for i := range a.rows {
		crow := c.data[i*c.cols : (i+1)*c.cols]
		for k := range a.cols {
			aik := a.data[i*a.cols+k]
			brow := b.data[k*b.cols : (k+1)*b.cols]
			for j, bkj := range brow {
				crow[j] += aik * bkj
			}
		}
	}

	return c
}

// mulStrassen multiplies a (m x k) by b (k x n) recursively.
//
// A shape whose largest dimension is more than twice its smallest is split in half along
// that dimension with an ordinary block product. A near-square shape takes one Strassen
// step, each odd dimension padded by a single zero row or column. Recursion stops once
// any dimension reaches StrassenThreshold. Every level allocates its own blocks.
func mulStrassen(a, b *Mat) *Mat {
	m, k, n := a.rows, a.cols, b.cols
	lo := min(m, k, n)
	if lo <= StrassenThreshold {
		return mulDirect(a, b)
	}

	switch {
	case m > 2*lo:
		h := m / 2
		c := New(m, n)
		place(c, mulStrassen(block(a, 0, 0, h, k), b), 0, 0)
		place(c, mulStrassen(block(a, h, 0, m-h, k), b), h, 0)
		return c
	case n > 2*lo:
		h := n / 2
		c := New(m, n)
		place(c, mulStrassen(a, block(b, 0, 0, k, h)), 0, 0)
		place(c, mulStrassen(a, block(b, 0, h, k, n-h)), 0, h)
		return c
	case k > 2*lo:
		h := k / 2
		left := mulStrassen(block(a, 0, 0, m, h), block(b, 0, 0, h, n))
		right := mulStrassen(block(a, 0, h, m, k-h), block(b, h, 0, k-h, n))
		return sumOf(left, right)
	}

	hm, hk, hn := (m+1)/2, (k+1)/2, (n+1)/2
	pa := padTo(a, 2*hm, 2*hk)
	pb := padTo(b, 2*hk, 2*hn)

	a11, a12 := block(pa, 0, 0, hm, hk), block(pa, 0, hk, hm, hk)
	a21, a22 := block(pa, hm, 0, hm, hk), block(pa, hm, hk, hm, hk)
	b11, b12 := block(pb, 0, 0, hk, hn), block(pb, 0, hn, hk, hn)
	b21, b22 := block(pb, hk, 0, hk, hn), block(pb, hk, hn, hk, hn)

	m1 := mulStrassen(sumOf(a11, a22), sumOf(b11, b22))
	m2 := mulStrassen(sumOf(a21, a22), b11)
	m3 := mulStrassen(a11, diffOf(b12, b22))
	m4 := mulStrassen(a22, diffOf(b21, b11))
	m5 := mulStrassen(sumOf(a11, a12), b22)
	m6 := mulStrassen(diffOf(a21, a11), sumOf(b11, b12))
	m7 := mulStrassen(diffOf(a12, a22), sumOf(b21, b22))

	// only the cells inside m x n are assembled; the padding is dropped
	c := New(m, n)
	for i := range m {
		for j := range n {
			qi, qj := i%hm, j%hn
			q := qi*hn + qj
			switch {
			case i < hm && j < hn:
				c.data[i*n+j] = m1.data[q] + m4.data[q] - m5.data[q] + m7.data[q]
			case i < hm:
				c.data[i*n+j] = m3.data[q] + m5.data[q]
			case j < hn:
				c.data[i*n+j] = m2.data[q] + m4.data[q]
			default:
				c.data[i*n+j] = m1.data[q] - m2.data[q] + m3.data[q] + m6.data[q]
			}
		}
	}

	return c
}

// block copies the rows x cols sub-matrix of m starting at (r0, c0).
func block(m *Mat, r0, c0, rows, cols int) *Mat {
	b := New(rows, cols)
	for i := range rows {
		src := (r0+i)*m.cols + c0
		copy(b.data[i*cols:(i+1)*cols], m.data[src:src+cols])
	}

	return b
}

// place copies src into dst with its top-left corner at (r0, c0).
func place(dst, src *Mat, r0, c0 int) {
	for i := range src.rows {
		d := (r0+i)*dst.cols + c0
		copy(dst.data[d:d+src.cols], src.data[i*src.cols:(i+1)*src.cols])
	}
}

func sumOf(a, b *Mat) *Mat {
	c := New(a.rows, a.cols)
	for i := range c.data {
		c.data[i] = a.data[i] + b.data[i]
	}

	return c
}

func diffOf(a, b *Mat) *Mat {
	c := New(a.rows, a.cols)
	for i := range c.data {
		c.data[i] = a.data[i] - b.data[i]
	}

	return c
}

// padTo returns m grown to rows x cols with zeros, or m itself when it already fits.
func padTo(m *Mat, rows, cols int) *Mat {
	if m.rows == rows && m.cols == cols {
		return m
	}

	p := New(rows, cols)
	place(p, m, 0, 0)

	return p
}
