package queue

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// cpuBoundWork simulates a CPU-intensive operation
func cpuBoundWork(iterations, seed int) WorkUnit {
	return func(ctx context.Context) (any, error) {
		result := 0
		for i := 0; i < iterations; i++ {
			result += i * seed
		}
		return result, nil
	}
}

// ioBoundWork simulates an I/O operation with a delay
func ioBoundWork(delay time.Duration) WorkUnit {
	return func(ctx context.Context) (any, error) {
		select {
		case <-time.After(delay):
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func runQueue(b *testing.B, tasks, workers int, unit func(i int) WorkUnit) {
	b.Helper()

	q := New(WithMaxConcurrency(workers))
	for i := range tasks {
		if err := q.Add(fmt.Sprintf("task-%d", i), unit(i)); err != nil {
			b.Fatal(err)
		}
	}
	q.Start()
	<-q.Done()
}

func BenchmarkTaskQueue_CPUBound(b *testing.B) {
	for _, workers := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				runQueue(b, 1000, workers, func(i int) WorkUnit { return cpuBoundWork(1000, i) })
			}
		})
	}
}

func BenchmarkTaskQueue_IOBound(b *testing.B) {
	for _, workers := range []int{4, 16} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			for b.Loop() {
				runQueue(b, 64, workers, func(int) WorkUnit { return ioBoundWork(time.Millisecond) })
			}
		})
	}
}

func BenchmarkTaskQueue_CancelAllUnexecuted(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		q := New(WithMaxConcurrency(1))
		for i := range 1000 {
			_ = q.Add(fmt.Sprintf("task-%d", i), cpuBoundWork(10, i))
		}
		q.CancelAllUnexecuted()
	}
}
