package runner

import (
	"fmt"

	"github.com/notargets/relax/runner/builder"
)

// ActionFlags selects the memory operations performed around a kernel
type ActionFlags int

const (
	NoAction ActionFlags = 0
	CopyTo   ActionFlags = 1
	CopyBack ActionFlags = 2
	Copy                 = CopyTo | CopyBack
)

// DeviceBinding ties a host variable to its device representation
type DeviceBinding struct {
	Name        string
	HostBinding interface{}
	DataType    builder.DataType
	Size        int64
	IsScalar    bool
	IsTemp      bool
	IsOutput    bool
	// copy host data at allocation
	initialCopy bool
}

// ParameterUsage is a binding together with the actions a kernel requests
type ParameterUsage struct {
	Binding *DeviceBinding
	Actions ActionFlags
}

// HasAction reports whether all bits of action are set
func (pu *ParameterUsage) HasAction(action ActionFlags) bool {
	return pu.Actions&action == action
}

// DefineBindings records host bindings. No device memory is touched until
// AllocateDevice.
func (kr *Runner) DefineBindings(params ...*builder.ParamBuilder) error {
	if kr.IsAllocated {
		return fmt.Errorf("bindings cannot be added after AllocateDevice")
	}
	for _, p := range params {
		spec := p.Spec
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("invalid binding: %w", err)
		}
		if _, exists := kr.bindings[spec.Name]; exists {
			return fmt.Errorf("binding %s already defined", spec.Name)
		}
		b := &DeviceBinding{
			Name:        spec.Name,
			HostBinding: spec.HostBinding,
			DataType:    spec.DataType,
			Size:        spec.Size,
			IsScalar:    spec.Direction == builder.DirectionScalar,
			IsTemp:      spec.Direction == builder.DirectionTemp,
			IsOutput:    !spec.IsConst(),
			initialCopy: spec.DoCopyTo,
		}
		if !b.IsScalar && !b.IsTemp && b.HostBinding == nil {
			return fmt.Errorf("array %s has no host binding", spec.Name)
		}
		kr.bindings[spec.Name] = b
		kr.bindingOrder = append(kr.bindingOrder, spec.Name)
	}
	return nil
}

// GetBinding returns the binding of that name or nil
func (kr *Runner) GetBinding(name string) *DeviceBinding { return kr.bindings[name] }

// HasBinding reports whether a binding of that name exists
func (kr *Runner) HasBinding(name string) bool { return kr.bindings[name] != nil }

// AllocateDevice allocates device memory for every array binding and
// performs the host→device copies requested at definition
func (kr *Runner) AllocateDevice() error {
	if kr.IsAllocated {
		return fmt.Errorf("device memory already allocated")
	}
	for _, name := range kr.bindingOrder {
		b := kr.bindings[name]
		if b.IsScalar {
			continue
		}
		bytes := b.Size * builder.SizeOfType(b.DataType)
		if bytes == 0 {
			bytes = builder.SizeOfType(b.DataType)
		}
		mem := kr.Device.Malloc(bytes, nil, nil)
		if mem == nil {
			return fmt.Errorf("failed to allocate %d bytes for %s", bytes, name)
		}
		kr.PooledMemory[name] = mem
		if b.initialCopy {
			if err := kr.CopyToDevice(name); err != nil {
				return err
			}
		}
	}
	kr.IsAllocated = true
	return nil
}
