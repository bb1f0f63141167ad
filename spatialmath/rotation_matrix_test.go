package spatialmath

import (
	"math"
	"math/rand"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func randomQuaternion(rnd *rand.Rand) quat.Number {
	return Normalize(quat.Number{
		Real: rnd.NormFloat64(),
		Imag: rnd.NormFloat64(),
		Jmag: rnd.NormFloat64(),
		Kmag: rnd.NormFloat64(),
	})
}

func TestNewRotationMatrix(t *testing.T) {
	_, err := NewRotationMatrix([]float64{1, 0, 0})
	test.That(t, err, test.ShouldNotBeNil)

	rm, err := NewRotationMatrix([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rm.At(1, 2), test.ShouldEqual, 6.)
	test.That(t, rm.Row(2).X, test.ShouldEqual, 7.)
	test.That(t, rm.Col(1).Z, test.ShouldEqual, 8.)
}

func TestClampedQuaternionIsBoundedAndFinite(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		rm := QuatToRotationMatrix(randomQuaternion(rnd))
		q := rm.ClampedQuaternion()
		for _, c := range []float64{q.Real, q.Imag, q.Jmag, q.Kmag} {
			test.That(t, math.IsNaN(c), test.ShouldBeFalse)
			test.That(t, math.IsInf(c, 0), test.ShouldBeFalse)
			test.That(t, c, test.ShouldBeBetweenOrEqual, 0, 1)
		}
	}
}

func TestClampedQuaternionNegativeCandidate(t *testing.T) {
	// A half turn around x with rounding noise on the diagonal drives the y and z candidates
	// just below zero.
	rm, err := NewRotationMatrix([]float64{
		1 + 1e-12, 0, 0,
		0, -1, 0,
		0, 0, -1,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, 1-rm.At(0, 0)+rm.At(1, 1)-rm.At(2, 2), test.ShouldBeLessThan, 0)

	q := rm.ClampedQuaternion()
	test.That(t, q.Jmag, test.ShouldEqual, 0.)
	test.That(t, q.Kmag, test.ShouldEqual, 0.)
	test.That(t, q.Real, test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, q.Imag, test.ShouldAlmostEqual, 1)

	signed := rm.Quaternion()
	test.That(t, QuaternionAlmostEqual(signed, quat.Number{Imag: 1}, 1e-6), test.ShouldBeTrue)
}

func TestClampedQuaternionMatchesNonNegativeRotations(t *testing.T) {
	// 45 degrees about (1,1,1) has every component positive.
	aa := &R4AA{Theta: math.Pi / 4, RX: 1, RY: 1, RZ: 1}
	want := aa.ToQuat()
	got := QuatToRotationMatrix(want).ClampedQuaternion()
	test.That(t, QuaternionAlmostEqual(got, want, 1e-9), test.ShouldBeTrue)
}

func TestClampedQuaternionLosesSigns(t *testing.T) {
	// -90 degrees about z needs a negative k component, the clamped roots cannot represent it and
	// come back as +90 degrees.
	minus90z := quat.Number{Real: math.Cos(math.Pi / 4), Kmag: -math.Sin(math.Pi / 4)}
	rm := QuatToRotationMatrix(minus90z)

	clamped := rm.ClampedQuaternion()
	test.That(t, QuaternionAlmostEqual(clamped, minus90z, 1e-6), test.ShouldBeFalse)
	test.That(t, QuaternionAlmostEqual(clamped, quat.Conj(minus90z), 1e-6), test.ShouldBeTrue)

	test.That(t, QuaternionAlmostEqual(rm.Quaternion(), minus90z, 1e-9), test.ShouldBeTrue)
	test.That(t, QuaternionAlmostEqual(rm.QuaternionBy(QuaternionMethodClamped), clamped, 1e-12), test.ShouldBeTrue)
	test.That(t, QuaternionAlmostEqual(rm.QuaternionBy(""), minus90z, 1e-9), test.ShouldBeTrue)
}

func TestSignedQuaternionRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		want := randomQuaternion(rnd)
		got := QuatToRotationMatrix(want).Quaternion()
		test.That(t, QuaternionAlmostEqual(got, want, 1e-9), test.ShouldBeTrue)
		test.That(t, got.Real, test.ShouldBeGreaterThanOrEqualTo, 0)
	}

	// Half turns have a zero real part, the largest component must drive the signs.
	for _, want := range []quat.Number{
		Normalize(quat.Number{Imag: 1, Jmag: -1}),
		Normalize(quat.Number{Jmag: -1, Kmag: 1}),
		Normalize(quat.Number{Imag: 1, Jmag: 2, Kmag: -3}),
	} {
		got := QuatToRotationMatrix(want).Quaternion()
		test.That(t, QuaternionAlmostEqual(got, want, 1e-9), test.ShouldBeTrue)
	}
}

func TestQuaternionMethodValidate(t *testing.T) {
	test.That(t, QuaternionMethod("").Validate(), test.ShouldBeNil)
	test.That(t, QuaternionMethodSigned.Validate(), test.ShouldBeNil)
	test.That(t, QuaternionMethodClamped.Validate(), test.ShouldBeNil)
	test.That(t, QuaternionMethod("eigen").Validate(), test.ShouldNotBeNil)
}
