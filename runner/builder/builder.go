package builder

import (
	"fmt"
	"strings"
)

// DataType represents the precision of numerical data
type DataType int

const (
	Float32 DataType = iota + 1
	Float64
	INT32
	INT64
)

func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case INT32:
		return "int32"
	case INT64:
		return "int64"
	default:
		return fmt.Sprintf("DataType(%d)", int(dt))
	}
}

// IsReal reports whether dt maps to real_t in kernel code
func (dt DataType) IsReal() bool { return dt == Float32 || dt == Float64 }

// DefaultBlockSize is the @inner extent used when Config.BlockSize is zero
const DefaultBlockSize = 256

// Config describes how kernels are generated for one runner
type Config struct {
	// BlockSize is the number of elements handled by one @outer iteration
	BlockSize int
	FloatType DataType
	IntType   DataType
}

// Builder generates the preamble shared by every kernel of a runner
type Builder struct {
	Config

	defines []define

	// Generated code
	KernelPreamble string
}

type define struct {
	name, value string
}

// NewBuilder applies defaults to cfg. A negative block size panics.
func NewBuilder(cfg Config) *Builder {
	if cfg.BlockSize < 0 {
		panic(fmt.Sprintf("negative block size %d", cfg.BlockSize))
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.FloatType == 0 {
		cfg.FloatType = Float64
	}
	if cfg.IntType == 0 {
		cfg.IntType = INT64
	}
	if !cfg.FloatType.IsReal() {
		panic(fmt.Sprintf("float type %s is not a real type", cfg.FloatType))
	}
	if cfg.IntType.IsReal() {
		panic(fmt.Sprintf("int type %s is not an integer type", cfg.IntType))
	}
	return &Builder{Config: cfg}
}

// AddDefine adds or replaces a #define emitted after the type definitions
func (kb *Builder) AddDefine(name string, value interface{}) {
	v := fmt.Sprint(value)
	for i := range kb.defines {
		if kb.defines[i].name == name {
			kb.defines[i].value = v
			return
		}
	}
	kb.defines = append(kb.defines, define{name: name, value: v})
}

// Define returns the value of a define and whether it exists
func (kb *Builder) Define(name string) (string, bool) {
	for _, d := range kb.defines {
		if d.name == name {
			return d.value, true
		}
	}
	return "", false
}

// GeneratePreamble regenerates KernelPreamble from the config and defines
func (kb *Builder) GeneratePreamble() string {
	var sb strings.Builder

	sb.WriteString("// Type definitions\n")
	sb.WriteString(fmt.Sprintf("typedef %s real_t;\n", TypeName(kb.FloatType)))
	sb.WriteString(fmt.Sprintf("typedef %s int_t;\n", TypeName(kb.IntType)))
	suffix := TypeSuffix(kb.FloatType)
	sb.WriteString(fmt.Sprintf("#define REAL_ZERO 0.0%s\n", suffix))
	sb.WriteString(fmt.Sprintf("#define REAL_ONE 1.0%s\n", suffix))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("#define BLOCK %d\n", kb.BlockSize))
	for _, d := range kb.defines {
		sb.WriteString(fmt.Sprintf("#define %s %s\n", d.name, d.value))
	}

	kb.KernelPreamble = sb.String()
	return kb.KernelPreamble
}

// SizeOfType returns the size in bytes of a data type
func SizeOfType(dt DataType) int64 {
	switch dt {
	case Float32, INT32:
		return 4
	default:
		return 8
	}
}

// TypeName returns the C type name for a given DataType
func TypeName(dt DataType) string {
	switch dt {
	case Float32:
		return "float"
	case INT32:
		return "int"
	case INT64:
		return "long"
	default:
		return "double"
	}
}

// TypeSuffix returns the numeric suffix for floating point literals
func TypeSuffix(dt DataType) string {
	if dt == Float32 {
		return "f"
	}
	return ""
}
