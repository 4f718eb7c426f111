// arbor-bench is a benchmark and stress test for the arbor library.
// It builds large trees and measures structural operations, then hammers
// the shared variant from many goroutines.
package main

import (
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phroun/arbor"
	"github.com/phroun/arbor/shared"
)

const (
	fanout     = 10
	depth      = 5 // fanout^depth leaves
	churnOps   = 100_000
	goroutines = 8
	sharedOps  = 20_000
)

type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
}

func (r BenchResult) String() string {
	if r.Ops > 0 {
		opsPerSec := float64(r.Ops) / r.Duration.Seconds()
		return fmt.Sprintf("%-40s %12v  (%d ops, %.0f ops/sec)",
			r.Name, r.Duration.Round(time.Millisecond), r.Ops, opsPerSec)
	}
	return fmt.Sprintf("%-40s %12v", r.Name, r.Duration.Round(time.Millisecond))
}

func main() {
	fmt.Println("Arbor Benchmark and Stress Test")
	fmt.Println("===============================")
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
	fmt.Println()

	var results []BenchResult
	results = append(results, benchBuild())
	results = append(results, benchWalk())
	results = append(results, benchFind())
	results = append(results, benchChurn())
	results = append(results, benchSharedContention())

	fmt.Println()
	fmt.Println("Summary")
	fmt.Println("-------")
	for _, r := range results {
		fmt.Println(r)
	}
}

// buildWide creates a complete fanout-ary tree of the given depth and
// returns the tree plus its node count.
func buildWide() (*arbor.Tree[int], int) {
	tree := arbor.New(0)
	roots := tree.Roots()
	defer roots[0].Release()

	count := 1
	level := []*arbor.Ref[arbor.Node[int]]{roots[0].Clone()}
	for d := 0; d < depth; d++ {
		var next []*arbor.Ref[arbor.Node[int]]
		for _, parent := range level {
			for i := 0; i < fanout; i++ {
				count++
				h, err := tree.Insert(parent, count)
				if err != nil {
					panic(err)
				}
				if d+1 < depth {
					next = append(next, h)
				} else {
					h.Release()
				}
			}
			parent.Release()
		}
		level = next
	}
	return tree, count
}

func benchBuild() BenchResult {
	start := time.Now()
	tree, count := buildWide()
	r := BenchResult{Name: "build wide tree", Duration: time.Since(start), Ops: count}
	tree.Close()
	return r
}

func benchWalk() BenchResult {
	tree, count := buildWide()
	defer tree.Close()

	start := time.Now()
	visited := 0
	for range tree.Walk() {
		visited++
	}
	if visited != count {
		panic(fmt.Sprintf("walked %d of %d nodes", visited, count))
	}
	return BenchResult{Name: "pre-order walk", Duration: time.Since(start), Ops: visited}
}

func benchFind() BenchResult {
	tree, count := buildWide()
	defer tree.Close()

	start := time.Now()
	h, err := tree.Find(func(v int) bool { return v == count })
	if err != nil || h == nil {
		panic("find missed the last node")
	}
	h.Release()
	return BenchResult{Name: "find worst-case leaf", Duration: time.Since(start), Ops: count}
}

// benchChurn repeatedly reparents one subtree between two anchors.
func benchChurn() BenchResult {
	tree := arbor.New(0)
	defer tree.Close()
	roots := tree.Roots()
	root := roots[0]
	defer root.Release()

	p1, _ := tree.Insert(root, 1)
	p2, _ := tree.Insert(root, 2)
	mover, _ := tree.Insert(p1, 3)
	defer p1.Release()
	defer p2.Release()
	defer mover.Release()

	start := time.Now()
	for i := 0; i < churnOps; i++ {
		target := p1
		if i%2 == 0 {
			target = p2
		}
		if err := arbor.Reparent(mover, target); err != nil {
			panic(err)
		}
	}
	d := time.Since(start)

	if err := tree.Audit(); err != nil {
		panic(err)
	}
	return BenchResult{Name: "reparent churn", Duration: d, Ops: churnOps}
}

// benchSharedContention hammers a single parent in the shared variant
// from several goroutines attaching and detaching their own children.
func benchSharedContention() BenchResult {
	parent := shared.NewNode(0)
	defer parent.Release()

	start := time.Now()
	var g errgroup.Group
	for w := 0; w < goroutines; w++ {
		g.Go(func() error {
			child := shared.NewNode(w)
			defer child.Release()
			for i := 0; i < sharedOps; i++ {
				if err := shared.Attach(parent, child); err != nil {
					return err
				}
				shared.Detach(child)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		panic(err)
	}
	d := time.Since(start)

	kids := shared.ChildrenOf(parent)
	if len(kids) != 0 {
		panic("children remained after balanced attach/detach")
	}
	return BenchResult{
		Name:     "shared attach/detach contention",
		Duration: d,
		Ops:      goroutines * sharedOps,
	}
}
