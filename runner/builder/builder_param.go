package builder

import (
	"fmt"
	"reflect"
)

// Direction indicates parameter data flow
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
	DirectionInOut
	DirectionTemp
	DirectionScalar
)

// ParamBuilder provides a fluent interface for building kernel parameters
type ParamBuilder struct {
	Spec ParamSpec
}

// ParamSpec holds the complete specification for a kernel parameter
type ParamSpec struct {
	Name        string
	Direction   Direction
	HostBinding interface{}

	// Type and size (inferred or explicit)
	DataType DataType
	Size     int64

	// Data movement
	DoCopyTo   bool
	DoCopyBack bool
}

// Input creates a parameter specification for a const input
func Input(deviceName string) *ParamBuilder {
	return &ParamBuilder{Spec: ParamSpec{Name: deviceName, Direction: DirectionInput}}
}

// Output creates a parameter specification for a non-const output
func Output(deviceName string) *ParamBuilder {
	return &ParamBuilder{Spec: ParamSpec{Name: deviceName, Direction: DirectionOutput}}
}

// InOut creates a parameter specification for a non-const input/output
func InOut(deviceName string) *ParamBuilder {
	return &ParamBuilder{Spec: ParamSpec{Name: deviceName, Direction: DirectionInOut}}
}

// Scalar creates a parameter specification for a scalar value
func Scalar(deviceName string) *ParamBuilder {
	return &ParamBuilder{Spec: ParamSpec{Name: deviceName, Direction: DirectionScalar}}
}

// Temp creates a parameter specification for a device-only temporary array
func Temp(deviceName string) *ParamBuilder {
	return &ParamBuilder{Spec: ParamSpec{Name: deviceName, Direction: DirectionTemp}}
}

// Bind associates a host variable with this parameter
func (p *ParamBuilder) Bind(hostVar interface{}) *ParamBuilder {
	p.Spec.HostBinding = hostVar
	p.inferFromBinding()
	return p
}

// Copy sets bidirectional copy (host→device before, device→host after)
func (p *ParamBuilder) Copy() *ParamBuilder {
	p.Spec.DoCopyTo = true
	p.Spec.DoCopyBack = true
	return p
}

// CopyTo sets host→device copy at allocation
func (p *ParamBuilder) CopyTo() *ParamBuilder {
	p.Spec.DoCopyTo = true
	return p
}

// CopyBack sets device→host copy after kernel execution
func (p *ParamBuilder) CopyBack() *ParamBuilder {
	p.Spec.DoCopyBack = true
	return p
}

// NoCopy explicitly disables data movement
func (p *ParamBuilder) NoCopy() *ParamBuilder {
	p.Spec.DoCopyTo = false
	p.Spec.DoCopyBack = false
	return p
}

// Type sets explicit type (mainly for Temp arrays and unbound parameters)
func (p *ParamBuilder) Type(dataType DataType) *ParamBuilder {
	p.Spec.DataType = dataType
	return p
}

// Size sets explicit size in elements
func (p *ParamBuilder) Size(elements int) *ParamBuilder {
	p.Spec.Size = int64(elements)
	return p
}

// inferFromBinding extracts type and size information from the host binding
func (p *ParamBuilder) inferFromBinding() {
	v := reflect.ValueOf(p.Spec.HostBinding)
	if !v.IsValid() {
		return
	}
	t := v.Type()
	if t.Kind() == reflect.Slice {
		p.Spec.Size = int64(v.Len())
		t = t.Elem()
	}
	if dt := dataTypeOf(t.Kind()); dt != 0 {
		p.Spec.DataType = dt
	}
}

func dataTypeOf(kind reflect.Kind) DataType {
	switch kind {
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	case reflect.Int32:
		return INT32
	case reflect.Int, reflect.Int64:
		return INT64
	default:
		return 0
	}
}

// Validate checks the parameter is complete enough to allocate or sign
func (p *ParamSpec) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("parameter name cannot be empty")
	}
	if p.DataType == 0 {
		return fmt.Errorf("parameter %s: unknown data type", p.Name)
	}
	if p.Direction == DirectionScalar {
		if p.HostBinding != nil && reflect.TypeOf(p.HostBinding).Kind() == reflect.Slice {
			return fmt.Errorf("scalar %s bound to a slice", p.Name)
		}
		return nil
	}
	if p.Size < 0 {
		return fmt.Errorf("array %s has negative size %d", p.Name, p.Size)
	}
	if p.Direction == DirectionTemp && (p.DoCopyTo || p.DoCopyBack) {
		return fmt.Errorf("temp array %s cannot be copied", p.Name)
	}
	return nil
}

// IsConst reports whether the parameter is read-only inside kernels
func (p *ParamSpec) IsConst() bool {
	return p.Direction == DirectionInput || p.Direction == DirectionScalar
}
