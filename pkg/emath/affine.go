package emath

// 2D affine transforms, for placing card frames within their plane

import(
	"fmt"
	"math"
	"golang.org/x/image/math/f64"
)

// Use a local type so we can hang methods off it
type Aff3 f64.Aff3

// Same as image@0.7.0/draw/scale:matMul
func (p Aff3)Mult(q Aff3) Aff3 {
	return Aff3{
		p[3*0+0]*q[3*0+0] + p[3*0+1]*q[3*1+0],
		p[3*0+0]*q[3*0+1] + p[3*0+1]*q[3*1+1],
		p[3*0+0]*q[3*0+2] + p[3*0+1]*q[3*1+2] + p[3*0+2],
		p[3*1+0]*q[3*0+0] + p[3*1+1]*q[3*1+0],
		p[3*1+0]*q[3*0+1] + p[3*1+1]*q[3*1+1],
		p[3*1+0]*q[3*0+2] + p[3*1+1]*q[3*1+2] + p[3*1+2],
	}
}

func Identity() Aff3 {
	return Aff3{1, 0, 0,   0, 1, 0}
}

func (m1 Aff3)Translate(tx, ty float64) Aff3 {
	return m1.Mult(Aff3{1, 0, tx,   0, 1, ty})
}

func (m1 Aff3)Rotate(thetaDeg float64) Aff3 {
	sinTheta, cosTheta := math.Sincos(Deg2Rad(thetaDeg))
	return m1.Mult(Aff3{cosTheta, -1*sinTheta, 0,    sinTheta, cosTheta, 0})
}

func (m1 Aff3)Apply(x, y float64) (float64, float64) {
	return m1[0]*x + m1[1]*y + m1[2], m1[3]*x + m1[4]*y + m1[5]
}

func (m1 Aff3)String() string {
	return fmt.Sprintf("[%6.3f %6.3f %6.3f | %6.3f %6.3f %6.3f]", m1[0], m1[1], m1[2], m1[3], m1[4], m1[5])
}
