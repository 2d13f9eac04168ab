package utils

import (
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Envelope is the unit of data moved between ranks by a halo exchange. Key
// identifies the destination, Region is the destination index range
// (lower then upper corner) and Values holds the packed payload.
type Envelope struct {
	From   int
	Key    [6]int
	Region [6]int
	Values []float64
}

// ProcessGroup emulates a fixed set of ranks running as goroutines inside
// one process. All collectives must be entered by every rank in the same
// order.
type ProcessGroup struct {
	NP         int
	mu         sync.Mutex
	cond       *sync.Cond
	arrived    int
	generation int
	partial    []float64
	mailBox    *MailBox[*Envelope]
}

func NewProcessGroup(NP int) (pg *ProcessGroup) {
	if NP < 1 {
		NP = 1
	}
	pg = &ProcessGroup{
		NP:      NP,
		partial: make([]float64, NP),
		mailBox: NewMailBox[*Envelope](NP),
	}
	pg.cond = sync.NewCond(&pg.mu)
	return
}

// Barrier blocks until all NP ranks have called it.
func (pg *ProcessGroup) Barrier() {
	if pg.NP == 1 {
		return
	}
	pg.mu.Lock()
	gen := pg.generation
	pg.arrived++
	if pg.arrived == pg.NP {
		pg.arrived = 0
		pg.generation++
		pg.cond.Broadcast()
	} else {
		for gen == pg.generation {
			pg.cond.Wait()
		}
	}
	pg.mu.Unlock()
}

// AllReduceSum returns the same sum on every rank. Partial sums are combined
// in rank order so the result does not depend on goroutine scheduling.
func (pg *ProcessGroup) AllReduceSum(rank int, value float64) (sum float64) {
	if pg.NP == 1 {
		return value
	}
	pg.partial[rank] = value
	pg.Barrier()
	sum = floats.Sum(pg.partial)
	pg.Barrier()
	return
}

// AllReduceMinMax returns the global minimum and maximum of the ranks'
// local extrema.
func (pg *ProcessGroup) AllReduceMinMax(rank int, lo, hi float64) (gLo, gHi float64) {
	if pg.NP == 1 {
		return lo, hi
	}
	pg.partial[rank] = lo
	pg.Barrier()
	gLo = floats.Min(pg.partial)
	pg.Barrier()
	pg.partial[rank] = hi
	pg.Barrier()
	gHi = floats.Max(pg.partial)
	pg.Barrier()
	return
}

// Comm is one rank's handle on a ProcessGroup.
type Comm struct {
	Group *ProcessGroup
	Rank  int
}

// NewSerialComm returns the handle of the only rank of a one-rank group.
func NewSerialComm() *Comm {
	return &Comm{Group: NewProcessGroup(1)}
}

// Comms returns one handle per rank of the group.
func (pg *ProcessGroup) Comms() (comms []*Comm) {
	comms = make([]*Comm, pg.NP)
	for rank := range comms {
		comms[rank] = &Comm{Group: pg, Rank: rank}
	}
	return
}

func (c *Comm) Size() int { return c.Group.NP }

func (c *Comm) Barrier() { c.Group.Barrier() }

func (c *Comm) AllReduceSum(value float64) float64 {
	return c.Group.AllReduceSum(c.Rank, value)
}

func (c *Comm) AllReduceMinMax(lo, hi float64) (float64, float64) {
	return c.Group.AllReduceMinMax(c.Rank, lo, hi)
}

func (c *Comm) Post(targetRank int, env *Envelope) {
	env.From = c.Rank
	c.Group.mailBox.PostMessage(c.Rank, targetRank, env)
}

// Exchange delivers everything this rank posted since the last exchange and
// returns what the other ranks posted to it. The returned slice is only
// valid until the next Exchange.
func (c *Comm) Exchange() []*Envelope {
	mb := c.Group.mailBox
	mb.ClearMyMessages(c.Rank)
	mb.DeliverMyMessages(c.Rank)
	c.Barrier()
	mb.ReceiveMyMessages(c.Rank)
	c.Barrier()
	return mb.MyMessages(c.Rank)
}

// RunRanks runs fn once per rank, each in its own goroutine, and waits for all
// of them. The first non-nil error by rank order is returned.
func (pg *ProcessGroup) RunRanks(fn func(comm *Comm) error) error {
	var (
		wg    = sync.WaitGroup{}
		errs  = make([]error, pg.NP)
		comms = pg.Comms()
	)
	for np := 0; np < pg.NP; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			errs[np] = fn(comms[np])
		}(np)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
