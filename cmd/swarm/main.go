// Command swarm renders a swarm of entities bouncing around the terminal.
// Every particle is an entity in a jubako container; movement runs over a
// live entity group, and the status line is fed by a group event receiver.
//
// Keys: a spawns a particle, d despawns one, q or ESC quits.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/edwinsyarief/jubako"
	"github.com/gdamore/tcell/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

const (
	initialParticles = 64
	tickRate         = 30
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

type Glyph struct {
	Ch    rune
	Style tcell.Style
}

type app struct {
	screen    tcell.Screen
	container *jubako.Container
	group     *jubako.Group
	receiver  *jubako.Receiver

	ids    []jubako.EntityID
	joins  int
	leaves int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, eris.ToString(err, true))
		os.Exit(1)
	}
}

func run() error {
	logFile, err := os.Create("swarm.log")
	if err != nil {
		return eris.Wrap(err, "creating log file")
	}
	defer logFile.Close()
	logger := zerolog.New(logFile).With().Timestamp().Logger().Level(zerolog.TraceLevel)

	screen, err := tcell.NewScreen()
	if err != nil {
		return eris.Wrap(err, "creating screen")
	}
	if err := screen.Init(); err != nil {
		return eris.Wrap(err, "initializing screen")
	}
	defer screen.Fini()

	a := &app{
		screen: screen,
		container: jubako.NewContainer(
			jubako.WithLogger(logger),
			jubako.WithInitialCapacity(initialParticles*2),
		),
	}

	guard := a.container.Lock()
	a.group = guard.EntityGroup(jubako.NewTypeList(
		jubako.TypeIDFor[Position](),
		jubako.TypeIDFor[Velocity](),
	))
	a.receiver = a.group.EventReceiver(false, guard)
	guard.Unlock()
	defer a.receiver.Close()

	width, height := screen.Size()
	for i := 0; i < initialParticles; i++ {
		a.spawn(width, height)
	}

	return a.loop()
}

func (a *app) spawn(width, height int) {
	colors := []tcell.Color{
		tcell.ColorRed, tcell.ColorGreen, tcell.ColorYellow,
		tcell.ColorBlue, tcell.ColorFuchsia, tcell.ColorAqua,
	}
	glyphs := []rune("*o+.#@")

	id := a.container.EntityBuilder().
		With(jubako.Staged(Position{
			X: rand.Float64() * float64(width),
			Y: rand.Float64() * float64(height),
		})).
		With(jubako.Staged(Velocity{
			DX: (rand.Float64() - 0.5) * 30,
			DY: (rand.Float64() - 0.5) * 15,
		})).
		With(jubako.Staged(Glyph{
			Ch:    glyphs[rand.Intn(len(glyphs))],
			Style: tcell.StyleDefault.Foreground(colors[rand.Intn(len(colors))]),
		})).
		Build()
	a.ids = append(a.ids, id)
}

func (a *app) despawn() {
	if len(a.ids) == 0 {
		return
	}
	i := rand.Intn(len(a.ids))
	id := a.ids[i]
	a.ids[i] = a.ids[len(a.ids)-1]
	a.ids = a.ids[:len(a.ids)-1]

	guard := a.container.Lock()
	defer guard.Unlock()
	guard.RemoveEntity(id)
}

func (a *app) loop() error {
	events := make(chan tcell.Event, 8)
	quit := make(chan struct{})
	go a.screen.ChannelEvents(events, quit)

	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			switch tev := ev.(type) {
			case *tcell.EventKey:
				switch {
				case tev.Key() == tcell.KeyEscape, tev.Rune() == 'q':
					close(quit)
					return nil
				case tev.Rune() == 'a':
					width, height := a.screen.Size()
					a.spawn(width, height)
				case tev.Rune() == 'd':
					a.despawn()
				}
			case *tcell.EventResize:
				a.screen.Sync()
			}
		case <-ticker.C:
			a.tick(1.0 / tickRate)
		}
	}
}

// tick advances every particle and redraws, all under one guard acquisition.
func (a *app) tick(dt float64) {
	a.drainGroupEvents()

	width, height := a.screen.Size()
	a.screen.Clear()

	guard := a.container.Lock()
	it := a.group.IterEntityIDs()
	for {
		id, ok := it.Next()
		if !ok {
			break
		}
		handler, ok := guard.HandlerForEntity(id)
		if !ok {
			continue
		}

		velocity := jubako.GetComponent[Velocity](handler)
		var bounceX, bounceY bool
		jubako.ChangeComponent(handler, func(p *Position) {
			p.X += velocity.DX * dt
			p.Y += velocity.DY * dt
			if p.X < 0 || p.X >= float64(width) {
				bounceX = true
				p.X -= velocity.DX * dt * 2
			}
			if p.Y < 0 || p.Y >= float64(height) {
				bounceY = true
				p.Y -= velocity.DY * dt * 2
			}
		})
		if bounceX || bounceY {
			jubako.ChangeComponent(handler, func(v *Velocity) {
				if bounceX {
					v.DX = -v.DX
				}
				if bounceY {
					v.DY = -v.DY
				}
			})
		}

		position := jubako.GetComponent[Position](handler)
		glyph := jubako.GetComponent[Glyph](handler)
		if position == nil || glyph == nil {
			continue
		}
		a.screen.SetContent(int(position.X), int(position.Y), glyph.Ch, nil, glyph.Style)
	}
	it.Close()
	count := guard.EntityCount()
	guard.Unlock()

	a.drawStatus(count)
	a.screen.Show()
}

// drainGroupEvents consumes the receiver queue, counting joins and leaves.
func (a *app) drainGroupEvents() {
	for {
		ev, ok := a.receiver.Poll()
		if !ok {
			return
		}
		switch ev.Kind {
		case jubako.EntityAdded:
			a.joins++
		case jubako.EntityRemoved:
			a.leaves++
		}
		if !ev.ComponentID.IsZero() {
			ev.ComponentID.Release()
		}
	}
}

func (a *app) drawStatus(count int) {
	status := fmt.Sprintf(" particles: %d | joined: %d | left: %d | a: spawn  d: despawn  q: quit ",
		count, a.joins, a.leaves)
	style := tcell.StyleDefault.Reverse(true)
	for i, r := range status {
		a.screen.SetContent(i, 0, r, nil, style)
	}
}
