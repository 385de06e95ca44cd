package runner

import (
	"fmt"

	"github.com/notargets/gocca"
	"github.com/notargets/relax/runner/builder"
)

// CopyToDevice copies a binding's host data to its device array
func (kr *Runner) CopyToDevice(name string) error {
	b, mem, err := kr.arrayBinding(name)
	if err != nil {
		return err
	}
	return copyHostToDevice(b.HostBinding, mem, b.DataType, int(b.Size))
}

// CopyFromDevice copies a binding's device array back into its host data
func (kr *Runner) CopyFromDevice(name string) error {
	b, mem, err := kr.arrayBinding(name)
	if err != nil {
		return err
	}
	return copyDeviceToHost(mem, b.HostBinding, b.DataType, int(b.Size))
}

// CopyArrayToHost returns a fresh host copy of a named device array
func CopyArrayToHost[T number](kr *Runner, name string) ([]T, error) {
	b, mem, err := kr.arrayBinding(name)
	if err != nil {
		return nil, err
	}
	out := make([]T, b.Size)
	if err := copyDeviceToHost(mem, out, b.DataType, int(b.Size)); err != nil {
		return nil, err
	}
	return out, nil
}

// Write copies host into an unnamed device array holding len(host) elements of dt
func (kr *Runner) Write(mem *gocca.OCCAMemory, host interface{}, dt builder.DataType) error {
	n, err := hostLen(host)
	if err != nil {
		return err
	}
	return copyHostToDevice(host, mem, dt, n)
}

// Read copies an unnamed device array of len(host) elements of dt into host
func (kr *Runner) Read(mem *gocca.OCCAMemory, host interface{}, dt builder.DataType) error {
	n, err := hostLen(host)
	if err != nil {
		return err
	}
	return copyDeviceToHost(mem, host, dt, n)
}

func (kr *Runner) arrayBinding(name string) (*DeviceBinding, *gocca.OCCAMemory, error) {
	b := kr.GetBinding(name)
	if b == nil {
		return nil, nil, fmt.Errorf("no binding named %s", name)
	}
	if b.IsScalar || b.IsTemp {
		return nil, nil, fmt.Errorf("binding %s has no host array", name)
	}
	mem, ok := kr.PooledMemory[name]
	if !ok {
		return nil, nil, fmt.Errorf("binding %s is not allocated", name)
	}
	return b, mem, nil
}

func hostLen(host interface{}) (int, error) {
	switch h := host.(type) {
	case []float64:
		return len(h), nil
	case []float32:
		return len(h), nil
	case []int64:
		return len(h), nil
	case []int32:
		return len(h), nil
	case []int:
		return len(h), nil
	default:
		return 0, fmt.Errorf("unsupported host type %T", host)
	}
}

// copyHostToDevice converts host to the device representation of dt and
// copies the first n elements
func copyHostToDevice(host interface{}, mem *gocca.OCCAMemory, dt builder.DataType, n int) error {
	have, err := hostLen(host)
	if err != nil {
		return err
	}
	if have < n {
		return fmt.Errorf("host array holds %d elements, need %d", have, n)
	}
	if n == 0 {
		return nil
	}
	bytes := int64(n) * builder.SizeOfType(dt)
	switch dt {
	case builder.Float64:
		d := convert[float64](host, n)
		mem.CopyFrom(ptr(d), bytes)
	case builder.Float32:
		d := convert[float32](host, n)
		mem.CopyFrom(ptr(d), bytes)
	case builder.INT64:
		d := convert[int64](host, n)
		mem.CopyFrom(ptr(d), bytes)
	case builder.INT32:
		d := convert[int32](host, n)
		mem.CopyFrom(ptr(d), bytes)
	default:
		return fmt.Errorf("unsupported device type %s", dt)
	}
	return nil
}

// copyDeviceToHost reads n elements of dt and converts them into host
func copyDeviceToHost(mem *gocca.OCCAMemory, host interface{}, dt builder.DataType, n int) error {
	have, err := hostLen(host)
	if err != nil {
		return err
	}
	if have < n {
		return fmt.Errorf("host array holds %d elements, need %d", have, n)
	}
	if n == 0 {
		return nil
	}
	bytes := int64(n) * builder.SizeOfType(dt)
	switch dt {
	case builder.Float64:
		d := make([]float64, n)
		mem.CopyTo(ptr(d), bytes)
		store(host, d)
	case builder.Float32:
		d := make([]float32, n)
		mem.CopyTo(ptr(d), bytes)
		store(host, d)
	case builder.INT64:
		d := make([]int64, n)
		mem.CopyTo(ptr(d), bytes)
		store(host, d)
	case builder.INT32:
		d := make([]int32, n)
		mem.CopyTo(ptr(d), bytes)
		store(host, d)
	default:
		return fmt.Errorf("unsupported device type %s", dt)
	}
	return nil
}

type number interface {
	~float64 | ~float32 | ~int64 | ~int32 | ~int
}

func convert[D number](host interface{}, n int) []D {
	out := make([]D, n)
	switch h := host.(type) {
	case []float64:
		for i := range out {
			out[i] = D(h[i])
		}
	case []float32:
		for i := range out {
			out[i] = D(h[i])
		}
	case []int64:
		for i := range out {
			out[i] = D(h[i])
		}
	case []int32:
		for i := range out {
			out[i] = D(h[i])
		}
	case []int:
		for i := range out {
			out[i] = D(h[i])
		}
	}
	return out
}

func store[S number](host interface{}, src []S) {
	switch h := host.(type) {
	case []float64:
		for i, v := range src {
			h[i] = float64(v)
		}
	case []float32:
		for i, v := range src {
			h[i] = float32(v)
		}
	case []int64:
		for i, v := range src {
			h[i] = int64(v)
		}
	case []int32:
		for i, v := range src {
			h[i] = int32(v)
		}
	case []int:
		for i, v := range src {
			h[i] = int(v)
		}
	}
}
