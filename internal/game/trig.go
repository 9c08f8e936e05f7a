package game

import "math"

// Sine and cosine ported from fdlibm, which is what V8 runs behind Math.sin
// and Math.cos. Browser peers launch missiles with those functions, so the
// launch vector must carry the same bits; math.Sin and math.Cos disagree in
// the last place for a large share of angles.
//
// Every product feeding an addition is wrapped in float64() to keep the
// compiler from fusing it.

const (
	sinS1 = -1.66666666666666324348e-01
	sinS2 = 8.33333333332248946124e-03
	sinS3 = -1.98412698298579493134e-04
	sinS4 = 2.75573137070700676789e-06
	sinS5 = -2.50507602534068634195e-08
	sinS6 = 1.58969099521155010221e-10

	cosC1 = 4.16666666666666019037e-02
	cosC2 = -1.38888888888741095749e-03
	cosC3 = 2.48015872894767294178e-05
	cosC4 = -2.75573143513906633035e-07
	cosC5 = 2.08757232129817482790e-09
	cosC6 = -1.13596475577881948265e-11

	invPio2 = 6.36619772367581382433e-01
	pio2a   = 1.57079632673412561417e+00 // first 33 bits of pi/2
	pio2aT  = 6.07710050650619224932e-11 // pi/2 - pio2a
	pio2b   = 6.07710050630396597660e-11 // second 33 bits
	pio2bT  = 2.02226624879595063154e-21
	pio2c   = 2.02226624871116645580e-21 // third 33 bits
	pio2cT  = 8.47842766036889956997e-32

	hiQuarterPi = 0x3fe921fb // high word of pi/4
	hiMedium    = 0x413921fb // high word of 2^19 * pi/2
)

// High words of n * pi/2 for n = 1..32, used to spot arguments close to a
// multiple of pi/2 where the short reduction loses precision.
var npio2HighWords = [32]int32{
	0x3FF921FB, 0x400921FB, 0x4012D97C, 0x401921FB, 0x401F6A7A, 0x4022D97C,
	0x4025FDBB, 0x402921FB, 0x402C463A, 0x402F6A7A, 0x4031475C, 0x4032D97C,
	0x40346B9C, 0x4035FDBB, 0x40378FDB, 0x403921FB, 0x403AB41B, 0x403C463A,
	0x403DD85A, 0x403F6A7A, 0x40407E4C, 0x4041475C, 0x4042106C, 0x4042D97C,
	0x4043A28C, 0x40446B9C, 0x404534AC, 0x4045FDBB, 0x4046C6CB, 0x40478FDB,
	0x404858EB, 0x404921FB,
}

func highWord(x float64) int32 {
	return int32(math.Float64bits(x) >> 32)
}

// direction returns cos and sin of angle degrees, converted to radians the
// way the peers do it.
func direction(angle float64) (cos, sin float64) {
	rad := float64(angle*math.Pi) / 180
	return fdlibmCos(rad), fdlibmSin(rad)
}

func fdlibmSin(x float64) float64 {
	ix := highWord(x) & 0x7fffffff
	switch {
	case ix <= hiQuarterPi:
		return kernelSin(x, 0, false)
	case ix >= 0x7ff00000:
		return math.NaN()
	case ix > hiMedium:
		// Never reached from a shot angle; fdlibm would need the
		// Payne-Hanek reduction here.
		return math.Sin(x)
	}
	n, y0, y1 := remPio2(x)
	switch n & 3 {
	case 0:
		return kernelSin(y0, y1, true)
	case 1:
		return kernelCos(y0, y1)
	case 2:
		return -kernelSin(y0, y1, true)
	default:
		return -kernelCos(y0, y1)
	}
}

func fdlibmCos(x float64) float64 {
	ix := highWord(x) & 0x7fffffff
	switch {
	case ix <= hiQuarterPi:
		return kernelCos(x, 0)
	case ix >= 0x7ff00000:
		return math.NaN()
	case ix > hiMedium:
		return math.Cos(x)
	}
	n, y0, y1 := remPio2(x)
	switch n & 3 {
	case 0:
		return kernelCos(y0, y1)
	case 1:
		return -kernelSin(y0, y1, true)
	case 2:
		return -kernelCos(y0, y1)
	default:
		return kernelSin(y0, y1, true)
	}
}

// kernelSin is sin(x+y) on [-pi/4, pi/4]; y is the tail of x and is only
// used when tail is set.
func kernelSin(x, y float64, tail bool) float64 {
	ix := highWord(x) & 0x7fffffff
	if ix < 0x3e400000 && int(x) == 0 {
		return x
	}
	z := float64(x * x)
	v := float64(z * x)
	r := sinS2 + float64(z*(sinS3+float64(z*(sinS4+float64(z*(sinS5+float64(z*sinS6)))))))
	if !tail {
		return x + float64(v*(sinS1+float64(z*r)))
	}
	return x - ((float64(z*(float64(0.5*y)-float64(v*r))) - y) - float64(v*sinS1))
}

// kernelCos is cos(x+y) on [-pi/4, pi/4].
func kernelCos(x, y float64) float64 {
	ix := highWord(x) & 0x7fffffff
	if ix < 0x3e400000 && int(x) == 0 {
		return 1
	}
	z := float64(x * x)
	r := float64(z * (cosC1 + float64(z*(cosC2+float64(z*(cosC3+float64(z*(cosC4+float64(z*(cosC5+float64(z*cosC6)))))))))))
	if ix < 0x3fd33333 {
		return 1 - (float64(0.5*z) - (float64(z*r) - float64(x*y)))
	}
	qx := 0.28125
	if ix <= 0x3fe90000 {
		qx = math.Float64frombits(uint64(uint32(ix-0x00200000)) << 32)
	}
	hz := float64(0.5*z) - qx
	a := 1 - qx
	return a - (hz - (float64(z*r) - float64(x*y)))
}

// remPio2 reduces x to y0+y1 in [-pi/4, pi/4] and returns the quadrant
// count n with x = n*pi/2 + y0 + y1. Valid for |x| up to 2^19 * pi/2.
func remPio2(x float64) (n int32, y0, y1 float64) {
	hx := highWord(x)
	ix := hx & 0x7fffffff
	if ix <= hiQuarterPi {
		return 0, x, 0
	}

	if ix < 0x4002d97c { // |x| < 3pi/4
		if hx > 0 {
			z := x - pio2a
			if ix != 0x3ff921fb {
				y0 = z - pio2aT
				y1 = (z - y0) - pio2aT
			} else {
				z -= pio2b
				y0 = z - pio2bT
				y1 = (z - y0) - pio2bT
			}
			return 1, y0, y1
		}
		z := x + pio2a
		if ix != 0x3ff921fb {
			y0 = z + pio2aT
			y1 = (z - y0) + pio2aT
		} else {
			z += pio2b
			y0 = z + pio2bT
			y1 = (z - y0) + pio2bT
		}
		return -1, y0, y1
	}

	t := math.Abs(x)
	n = int32(float64(t*invPio2) + 0.5)
	fn := float64(n)
	r := t - float64(fn*pio2a)
	w := float64(fn * pio2aT)
	if n < 32 && ix != npio2HighWords[n-1] {
		y0 = r - w
	} else {
		j := ix >> 20
		y0 = r - w
		i := j - (highWord(y0)>>20)&0x7ff
		if i > 16 {
			t = r
			w = float64(fn * pio2b)
			r = t - w
			w = float64(fn*pio2bT) - ((t - r) - w)
			y0 = r - w
			i = j - (highWord(y0)>>20)&0x7ff
			if i > 49 {
				t = r
				w = float64(fn * pio2c)
				r = t - w
				w = float64(fn*pio2cT) - ((t - r) - w)
				y0 = r - w
			}
		}
	}
	y1 = (r - y0) - w
	if hx < 0 {
		return -n, -y0, -y1
	}
	return n, y0, y1
}

// hypot matches V8's Math.hypot for two finite arguments: both terms are
// scaled by the larger magnitude and summed with Kahan compensation. It
// differs from math.Hypot and from Sqrt(x*x+y*y) in the last place.
func hypot(x, y float64) float64 {
	x, y = math.Abs(x), math.Abs(y)
	m := math.Max(x, y)
	if m == 0 {
		return 0
	}
	var sum, comp float64
	for _, v := range [2]float64{x, y} {
		n := v / m
		summand := float64(n*n) - comp
		next := sum + summand
		comp = (next - sum) - summand
		sum = next
	}
	return float64(math.Sqrt(sum) * m)
}
