// Profiling:
// go build ./profile/entities
// go tool pprof -http=":8000" -nodefraction=0.001 ./entities mem.pprof

package main

import (
	"github.com/edwinsyarief/jubako"
	"github.com/pkg/profile"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	rounds := 50
	iters := 1000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for r := 0; r < rounds; r++ {
		container := jubako.NewContainer(jubako.WithInitialCapacity(numEntities))

		for n := 0; n < iters; n++ {
			guard := container.Lock()
			ids := make([]jubako.EntityID, 0, numEntities)
			for e := 0; e < numEntities; e++ {
				ids = append(ids, guard.AddEntity(
					jubako.Staged(comp1{V: 1, W: 2}),
					jubako.Staged(comp2{V: 3, W: 4}),
				))
			}
			it := guard.Iter()
			for it.Next() {
				h := it.Handler()
				c2 := jubako.GetComponent[comp2](h)
				jubako.ChangeComponent(h, func(c1 *comp1) {
					c1.V += c2.V
					c1.W += c2.W
				})
			}
			for _, id := range ids {
				guard.RemoveEntity(id)
			}
			guard.Unlock()
		}
	}
}
