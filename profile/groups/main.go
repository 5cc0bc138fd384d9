// Profiling:
// go build ./profile/groups
// go tool pprof -http=":8000" -nodefraction=0.001 ./groups mem.pprof

package main

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/edwinsyarief/jubako"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

type comp3 struct {
	V int64
	W int64
}

func main() {
	rounds := 50
	iters := 1000
	entities := 1000
	run(rounds, iters, entities)

	f, err := os.Create("mem.pprof")
	if err != nil {
		panic(err)
	}
	defer f.Close()
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		panic(err)
	}
}

func run(rounds, iters, numEntities int) {
	for r := 0; r < rounds; r++ {
		container := jubako.NewContainer(jubako.WithInitialCapacity(numEntities))

		guard := container.Lock()
		group := guard.EntityGroup(jubako.NewTypeList(
			jubako.TypeIDFor[comp1](),
			jubako.TypeIDFor[comp2](),
		))
		for i := 0; i < numEntities; i++ {
			if i%3 == 0 {
				guard.AddEntity(jubako.Staged(comp1{V: 1}), jubako.Staged(comp3{V: 2}))
				continue
			}
			guard.AddEntity(jubako.Staged(comp1{V: 1}), jubako.Staged(comp2{V: 2}))
		}
		guard.Unlock()

		for n := 0; n < iters; n++ {
			guard := container.Lock()
			it := group.IterEntityIDs()
			for {
				id, ok := it.Next()
				if !ok {
					break
				}
				h, ok := guard.HandlerForEntity(id)
				if !ok {
					continue
				}
				c2 := jubako.GetComponent[comp2](h)
				jubako.ChangeComponent(h, func(c1 *comp1) {
					c1.V += c2.V
					c1.W += c2.W
				})
			}
			it.Close()
			guard.Unlock()
		}

		guard = container.Lock()
		group.Close(guard)
		guard.Unlock()
	}
}
