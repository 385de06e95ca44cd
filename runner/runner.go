package runner

import (
	"fmt"
	"unsafe"

	"github.com/notargets/gocca"
	"github.com/notargets/relax/runner/builder"
)

// Runner orchestrates kernel compilation, device memory and execution on one
// OCCA device
type Runner struct {
	*builder.Builder
	Device        *gocca.OCCADevice
	Kernels       map[string]*gocca.OCCAKernel
	PooledMemory  map[string]*gocca.OCCAMemory
	KernelConfigs map[string]*KernelConfig
	IsAllocated   bool

	bindings     map[string]*DeviceBinding
	bindingOrder []string
	// anonymous buffers handed out by Malloc
	scratch map[*gocca.OCCAMemory]struct{}
}

// NewRunner creates a new Runner instance
func NewRunner(device *gocca.OCCADevice, cfg builder.Config) *Runner {
	if device == nil {
		panic("runner: nil device")
	}
	return &Runner{
		Builder:       builder.NewBuilder(cfg),
		Device:        device,
		Kernels:       make(map[string]*gocca.OCCAKernel),
		PooledMemory:  make(map[string]*gocca.OCCAMemory),
		KernelConfigs: make(map[string]*KernelConfig),
		bindings:      make(map[string]*DeviceBinding),
		scratch:       make(map[*gocca.OCCAMemory]struct{}),
	}
}

// BuildKernel compiles and registers a kernel with the preamble prepended
func (kr *Runner) BuildKernel(kernelSource, kernelName string) (*gocca.OCCAKernel, error) {
	kr.GeneratePreamble()
	fullSource := kr.KernelPreamble + "\n" + kernelSource

	var (
		kernel *gocca.OCCAKernel
		err    error
	)
	if kr.Device.Mode() == "OpenMP" {
		// OpenMP does not get -O3 by default
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = kr.Device.BuildKernelFromString(fullSource, kernelName, props)
	} else {
		kernel, err = kr.Device.BuildKernelFromString(fullSource, kernelName, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kernel %s: %w", kernelName, err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("kernel build returned nil for %s", kernelName)
	}
	if old, exists := kr.Kernels[kernelName]; exists {
		old.Free()
	}
	kr.Kernels[kernelName] = kernel
	return kernel, nil
}

// HasKernel reports whether a kernel of that name has been built
func (kr *Runner) HasKernel(kernelName string) bool {
	_, ok := kr.Kernels[kernelName]
	return ok
}

// RunKernel runs a built kernel with explicit arguments and waits for it
func (kr *Runner) RunKernel(kernelName string, args ...interface{}) error {
	kernel, exists := kr.Kernels[kernelName]
	if !exists {
		return fmt.Errorf("kernel %s not compiled - use BuildKernel first", kernelName)
	}
	if err := kernel.RunWithArgs(args...); err != nil {
		return fmt.Errorf("kernel %s execution failed: %w", kernelName, err)
	}
	kr.Device.Finish()
	return nil
}

// Malloc allocates an unnamed device array of n elements of dt, initialised
// from init when it is non-nil. The buffer is owned by the runner until
// Release or Free.
func (kr *Runner) Malloc(dt builder.DataType, n int, init interface{}) (*gocca.OCCAMemory, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative element count %d", n)
	}
	bytes := int64(n) * builder.SizeOfType(dt)
	// zero-length allocations are padded to one element
	if bytes == 0 {
		bytes = builder.SizeOfType(dt)
	}
	mem := kr.Device.Malloc(bytes, nil, nil)
	if mem == nil {
		return nil, fmt.Errorf("device allocation of %d bytes failed", bytes)
	}
	kr.scratch[mem] = struct{}{}
	if init != nil {
		if m, err := hostLen(init); err == nil && m > n {
			kr.Release(mem)
			return nil, fmt.Errorf("%d initial values for %d elements", m, n)
		}
		if err := kr.Write(mem, init, dt); err != nil {
			kr.Release(mem)
			return nil, err
		}
	}
	return mem, nil
}

// Release frees a buffer returned by Malloc
func (kr *Runner) Release(mem *gocca.OCCAMemory) {
	if _, ok := kr.scratch[mem]; !ok {
		return
	}
	delete(kr.scratch, mem)
	mem.Free()
}

// Free releases all resources
func (kr *Runner) Free() {
	for _, kernel := range kr.Kernels {
		kernel.Free()
	}
	for _, mem := range kr.PooledMemory {
		mem.Free()
	}
	for mem := range kr.scratch {
		mem.Free()
	}
	kr.Kernels = make(map[string]*gocca.OCCAKernel)
	kr.PooledMemory = make(map[string]*gocca.OCCAMemory)
	kr.scratch = make(map[*gocca.OCCAMemory]struct{})
	kr.IsAllocated = false
}

func ptr[T any](s []T) unsafe.Pointer { return unsafe.Pointer(&s[0]) }
