package runner

import (
	"fmt"
	"strings"

	"github.com/notargets/relax/runner/builder"
)

// KernelConfig references bindings in kernel argument order and the memory
// operations to perform around each execution
type KernelConfig struct {
	Name       string
	Parameters []ParameterUsage
}

// GetParameter finds a parameter usage by name
func (kc *KernelConfig) GetParameter(name string) *ParameterUsage {
	for i := range kc.Parameters {
		if kc.Parameters[i].Binding.Name == name {
			return &kc.Parameters[i]
		}
	}
	return nil
}

// ParamConfig is a lightweight builder for configuring parameter actions
type ParamConfig struct {
	name    string
	binding *DeviceBinding
	actions ActionFlags
}

// Param creates a parameter configuration for a named binding
func (kr *Runner) Param(name string) *ParamConfig {
	return &ParamConfig{name: name, binding: kr.GetBinding(name)}
}

// CopyTo sets the parameter to copy from host to device before execution
func (pc *ParamConfig) CopyTo() *ParamConfig {
	pc.actions |= CopyTo
	return pc
}

// CopyBack sets the parameter to copy from device to host after execution
func (pc *ParamConfig) CopyBack() *ParamConfig {
	pc.actions |= CopyBack
	return pc
}

// Copy sets the parameter for bidirectional copy
func (pc *ParamConfig) Copy() *ParamConfig {
	pc.actions |= Copy
	return pc
}

// NoCopy explicitly disables all copy operations for this parameter
func (pc *ParamConfig) NoCopy() *ParamConfig {
	pc.actions = NoAction
	return pc
}

// ConfigureKernel creates a kernel-specific parameter configuration
func (kr *Runner) ConfigureKernel(name string, params ...*ParamConfig) (*KernelConfig, error) {
	if !kr.IsAllocated {
		return nil, fmt.Errorf("device memory not allocated - call AllocateDevice first")
	}
	config := &KernelConfig{
		Name:       name,
		Parameters: make([]ParameterUsage, 0, len(params)),
	}
	for _, param := range params {
		if param == nil {
			continue
		}
		if param.binding == nil {
			return nil, fmt.Errorf("kernel %s: no binding named %s", name, param.name)
		}
		if config.GetParameter(param.name) != nil {
			return nil, fmt.Errorf("kernel %s: parameter %s listed twice", name, param.name)
		}
		if param.binding.IsScalar && param.actions != NoAction {
			return nil, fmt.Errorf("kernel %s: scalar %s cannot be copied", name, param.name)
		}
		if param.binding.IsTemp && param.actions != NoAction {
			return nil, fmt.Errorf("kernel %s: temp array %s cannot be copied", name, param.name)
		}
		config.Parameters = append(config.Parameters, ParameterUsage{
			Binding: param.binding,
			Actions: param.actions,
		})
	}
	kr.KernelConfigs[name] = config
	return config, nil
}

// GetKernelSignatureForConfig generates the parameter list of a configured
// kernel. Extra arguments passed to ExecuteKernel are declared by the caller
// after it.
func (kr *Runner) GetKernelSignatureForConfig(kernelName string) (string, error) {
	config, exists := kr.KernelConfigs[kernelName]
	if !exists {
		return "", fmt.Errorf("kernel %s not configured", kernelName)
	}
	params := make([]string, 0, len(config.Parameters))
	for _, p := range config.Parameters {
		b := p.Binding
		dir := builder.DirectionInput
		switch {
		case b.IsScalar:
			dir = builder.DirectionScalar
		case b.IsOutput:
			dir = builder.DirectionInOut
		}
		params = append(params, builder.Declare(builder.ParamSpec{
			Name:      b.Name,
			Direction: dir,
			DataType:  b.DataType,
		}))
	}
	return strings.Join(params, ",\n\t"), nil
}

// ExecuteKernel executes a configured kernel. Bound parameters come first in
// configuration order, followed by extra, which may hold device memory or
// scalar values.
func (kr *Runner) ExecuteKernel(name string, extra ...interface{}) error {
	config, exists := kr.KernelConfigs[name]
	if !exists {
		return fmt.Errorf("kernel %s not configured - use ConfigureKernel first", name)
	}
	kernel, exists := kr.Kernels[name]
	if !exists {
		return fmt.Errorf("kernel %s not compiled - use BuildKernel first", name)
	}

	for _, p := range config.Parameters {
		if p.HasAction(CopyTo) {
			if err := kr.CopyToDevice(p.Binding.Name); err != nil {
				return fmt.Errorf("pre-kernel copy failed: %w", err)
			}
		}
	}

	args := make([]interface{}, 0, len(config.Parameters)+len(extra))
	for _, p := range config.Parameters {
		b := p.Binding
		if b.IsScalar {
			if b.HostBinding == nil {
				return fmt.Errorf("no value provided for scalar %s", b.Name)
			}
			args = append(args, b.HostBinding)
			continue
		}
		mem, ok := kr.PooledMemory[b.Name]
		if !ok {
			return fmt.Errorf("memory for %s not found", b.Name)
		}
		args = append(args, mem)
	}
	args = append(args, extra...)

	if err := kernel.RunWithArgs(args...); err != nil {
		return fmt.Errorf("kernel execution failed: %w", err)
	}
	kr.Device.Finish()

	for _, p := range config.Parameters {
		if p.HasAction(CopyBack) {
			if err := kr.CopyFromDevice(p.Binding.Name); err != nil {
				return fmt.Errorf("post-kernel copy failed: %w", err)
			}
		}
	}
	return nil
}
