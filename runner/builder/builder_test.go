package builder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuilder_Defaults(t *testing.T) {
	kb := NewBuilder(Config{})
	assert.Equal(t, DefaultBlockSize, kb.BlockSize)
	assert.Equal(t, Float64, kb.FloatType)
	assert.Equal(t, INT64, kb.IntType)

	assert.Panics(t, func() { NewBuilder(Config{BlockSize: -1}) })
	assert.Panics(t, func() { NewBuilder(Config{FloatType: INT32}) })
	assert.Panics(t, func() { NewBuilder(Config{IntType: Float32}) })
}

func TestGeneratePreamble(t *testing.T) {
	kb := NewBuilder(Config{BlockSize: 64, FloatType: Float32, IntType: INT32})
	kb.AddDefine("NCORE", 12)
	kb.AddDefine("NORM", 0.25)
	kb.AddDefine("NCORE", 20)

	p := kb.GeneratePreamble()
	assert.Equal(t, p, kb.KernelPreamble)
	assert.Contains(t, p, "typedef float real_t;")
	assert.Contains(t, p, "typedef int int_t;")
	assert.Contains(t, p, "#define REAL_ZERO 0.0f")
	assert.Contains(t, p, "#define BLOCK 64")
	assert.Contains(t, p, "#define NCORE 20")
	assert.NotContains(t, p, "#define NCORE 12")
	assert.Less(t, strings.Index(p, "NCORE"), strings.Index(p, "NORM"))

	v, ok := kb.Define("NORM")
	assert.True(t, ok)
	assert.Equal(t, "0.25", v)
	_, ok = kb.Define("MISSING")
	assert.False(t, ok)
}

func TestParamBuilder_Infer(t *testing.T) {
	p := Input("U").Bind(make([]float64, 7))
	assert.Equal(t, Float64, p.Spec.DataType)
	assert.Equal(t, int64(7), p.Spec.Size)

	p = Output("idx").Bind([]int32{1, 2})
	assert.Equal(t, INT32, p.Spec.DataType)
	assert.Equal(t, int64(2), p.Spec.Size)

	s := Scalar("n").Bind(int64(3))
	assert.Equal(t, INT64, s.Spec.DataType)
	require.NoError(t, s.Spec.Validate())

	tmp := Temp("W").Type(Float64).Size(10)
	require.NoError(t, tmp.Spec.Validate())
	assert.Error(t, Temp("W").Type(Float64).Size(10).CopyTo().Spec.Validate())
	assert.Error(t, Input("X").Spec.Validate())
	assert.Error(t, Scalar("s").Bind([]float64{1}).Spec.Validate())

	c := InOut("A").Copy()
	assert.True(t, c.Spec.DoCopyTo)
	assert.True(t, c.Spec.DoCopyBack)
	c.NoCopy()
	assert.False(t, c.Spec.DoCopyTo || c.Spec.DoCopyBack)
}

func TestSignature(t *testing.T) {
	kb := NewBuilder(Config{})
	sig := kb.Signature(
		Input("U").Type(Float64).Spec,
		Output("R").Type(Float64).Spec,
		Scalar("periodic").Type(INT64).Spec,
		InOut("idx").Type(INT64).Spec,
	)
	assert.Equal(t, "const real_t* U,\n\treal_t* R,\n\tconst int_t periodic,\n\tint_t* idx", sig)

	decl := kb.Declaration("stencil", Input("U").Type(Float64).Spec)
	assert.Equal(t, "@kernel void stencil(\n\tconst real_t* U\n)", decl)
}

func TestBlockLoop(t *testing.T) {
	src := BlockLoop("NCORE", "R[i] = U[i];\n")
	assert.Contains(t, src, "@outer")
	assert.Contains(t, src, "@inner")
	assert.Contains(t, src, "if (i < NCORE)")
	assert.Contains(t, src, "\t\t\t\tR[i] = U[i];\n")
	assert.Equal(t, strings.Count(src, "{"), strings.Count(src, "}"))
}
