package builder

import (
	"fmt"
	"strings"
)

// Signature generates the parameter list for a kernel taking specs in order
func (kb *Builder) Signature(specs ...ParamSpec) string {
	params := make([]string, 0, len(specs))
	for _, s := range specs {
		params = append(params, Declare(s))
	}
	return strings.Join(params, ",\n\t")
}

// Declare renders one kernel parameter declaration
func Declare(s ParamSpec) string {
	typ := "int_t"
	if s.DataType.IsReal() {
		typ = "real_t"
	}
	if s.Direction == DirectionScalar {
		return fmt.Sprintf("const %s %s", typ, s.Name)
	}
	if s.IsConst() {
		return fmt.Sprintf("const %s* %s", typ, s.Name)
	}
	return fmt.Sprintf("%s* %s", typ, s.Name)
}

// Declaration generates a complete kernel function declaration
func (kb *Builder) Declaration(kernelName string, specs ...ParamSpec) string {
	return fmt.Sprintf("@kernel void %s(\n\t%s\n)", kernelName, kb.Signature(specs...))
}

// BlockLoop wraps body in the blocked @outer/@inner loop over n elements.
// Inside body the element index is i and is always below n.
func BlockLoop(n, body string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\tfor (int_t b = 0; b < (%s + BLOCK - 1) / BLOCK; ++b; @outer) {\n", n))
	sb.WriteString("\t\tfor (int_t t = 0; t < BLOCK; ++t; @inner) {\n")
	sb.WriteString("\t\t\tconst int_t i = b * BLOCK + t;\n")
	sb.WriteString(fmt.Sprintf("\t\t\tif (i < %s) {\n", n))
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		if line != "" {
			sb.WriteString("\t\t\t\t")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\t\t\t}\n\t\t}\n\t}\n")
	return sb.String()
}
