// Package mempool keeps size-classed pools of scratch buffers for the
// per-image measurements that run on every scan worker.
package mempool

import "sync"

var float64Pools sync.Map // key: size class (int), value: *sync.Pool

// sizeClass rounds n up to the next multiple of 1024.
func sizeClass(n int) int {
	const step = 1024
	if n <= step {
		return step
	}
	return (n + step - 1) / step * step
}

func poolFor(cls int) *sync.Pool {
	p, _ := float64Pools.LoadOrStore(cls, &sync.Pool{New: func() any {
		buf := make([]float64, cls)
		return &buf
	}})
	return p.(*sync.Pool) //nolint:forcetypeassert // only *sync.Pool is stored
}

// GetFloat64 returns a buffer of length n. Its contents are undefined.
// Return it with PutFloat64 when done.
func GetFloat64(n int) []float64 {
	cls := sizeClass(n)
	bp, ok := poolFor(cls).Get().(*[]float64)
	if !ok || cap(*bp) < n {
		return make([]float64, n, cls)
	}
	return (*bp)[:n]
}

// PutFloat64 hands buf back to its pool. A nil slice is ignored.
func PutFloat64(buf []float64) {
	if buf == nil {
		return
	}
	// Buffers are filed under the class their capacity fully covers.
	cls := cap(buf) / 1024 * 1024
	if cls == 0 {
		return
	}
	buf = buf[:cap(buf)]
	poolFor(cls).Put(&buf)
}
