package occa

import (
	"fmt"
	"strings"

	"github.com/notargets/relax/runner/builder"
)

func realParam(dir func(string) *builder.ParamBuilder, name string) builder.ParamSpec {
	return dir(name).Type(builder.Float64).Spec
}

// stencilSource averages the 2*NDIM neighbours of every core cell of U into R
func stencilSource(kb *builder.Builder, ndim int) string {
	var body strings.Builder
	body.WriteString("const int_t p = CORE_TO_PAD(i);\n")
	body.WriteString("real_t sum = REAL_ZERO;\n")
	for d := 0; d < ndim; d++ {
		body.WriteString(fmt.Sprintf("sum += U[p + PS%d] + U[p - PS%d];\n", d, d))
	}
	body.WriteString("R[i] = NORM * sum;\n")

	return kb.Declaration("stencil",
		realParam(builder.Input, "U"),
		realParam(builder.Output, "R"),
	) + " {\n" + builder.BlockLoop("NCORE", body.String()) + "}\n"
}

// edgeSource refreshes both halo faces of axis d, one padded line per element
func edgeSource(kb *builder.Builder, d int) string {
	body := fmt.Sprintf(`const int_t base = (i / PS%[1]d) * PS%[1]d * PN%[1]d + (i %% PS%[1]d);
const int_t lo = base;
const int_t hi = base + (PN%[1]d - 1) * PS%[1]d;
const int_t first = base + PS%[1]d;
const int_t last = base + (PN%[1]d - 2) * PS%[1]d;
if (periodic) {
	U[lo] = U[last];
	U[hi] = U[first];
} else {
	U[lo] = U[first];
	U[hi] = U[last];
}
`, d)
	name := edgeKernel(d)
	return kb.Declaration(name,
		realParam(builder.InOut, "U"),
		builder.Scalar("periodic").Type(builder.INT64).Spec,
	) + " {\n" + builder.BlockLoop(fmt.Sprintf("NSLAB%d", d), body) + "}\n"
}

func edgeKernel(d int) string { return fmt.Sprintf("edge%d", d) }

// pinSource restores V wherever Free is zero
func pinSource(kb *builder.Builder) string {
	return kb.Declaration("pin",
		realParam(builder.InOut, "U"),
		realParam(builder.Input, "Free"),
		realParam(builder.Input, "V"),
	) + " {\n" + builder.BlockLoop("NPAD", "if (Free[i] == REAL_ZERO) U[i] = V[i];") + "}\n"
}

// blockMaxSource reduces each BLOCK of A to one entry of partial. A NaN in a
// block wins.
func blockMaxSource(signature string) string {
	return fmt.Sprintf(`@kernel void blockmax(
	%s,
	const real_t* A
) {
	for (int_t b = 0; b < NBLOCKS; ++b; @outer) {
		for (int_t t = 0; t < 1; ++t; @inner) {
			const int_t lo = b * BLOCK;
			const int_t hi = (lo + BLOCK < NCORE) ? lo + BLOCK : NCORE;
			real_t m = A[lo];
			for (int_t i = lo + 1; i < hi; ++i) {
				const real_t v = A[i];
				if (m == m && (v > m || v != v)) m = v;
			}
			partial[b] = m;
		}
	}
}
`, signature)
}

// elementwise ops over D = op(A[, B])
var ops = map[string]func(ix []string) string{
	"copy": func(ix []string) string {
		return fmt.Sprintf("D[%s] = A[%s];", ix[0], ix[1])
	},
	"sub": func(ix []string) string {
		return fmt.Sprintf("D[%s] = A[%s] - B[%s];", ix[0], ix[1], ix[2])
	},
	"abs": func(ix []string) string {
		return fmt.Sprintf("D[%s] = fabs(A[%s]);", ix[0], ix[1])
	},
	"invert": func(ix []string) string {
		return fmt.Sprintf("D[%s] = (A[%s] == REAL_ZERO) ? REAL_ONE : REAL_ZERO;", ix[0], ix[1])
	},
}

var operandNames = []string{"D", "A", "B"}

// elementwiseSource generates op for the given operand layouts. The first
// operand is written.
func elementwiseSource(kb *builder.Builder, name, op string, kinds []kind) string {
	specs := make([]builder.ParamSpec, len(kinds))
	ix := make([]string, len(kinds))
	for j, k := range kinds {
		dir := builder.Input
		if j == 0 {
			dir = builder.Output
		}
		specs[j] = realParam(dir, operandNames[j])
		ix[j] = k.index()
	}
	n := "NCORE"
	if kinds[0] == paddedKind {
		n = "NPAD"
	}
	return kb.Declaration(name, specs...) + " {\n" + builder.BlockLoop(n, ops[op](ix)) + "}\n"
}
