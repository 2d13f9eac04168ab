package utils

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionMap(t *testing.T) {
	{ // Test PartitionMap
		getHisto := func(K, Np int) (histo map[int]int) {
			pm := NewPartitionMap(Np, K)
			histo = make(map[int]int)
			for np := 0; np < pm.ParallelDegree; np++ {
				maxK := pm.GetBucketDimension(np)
				histo[maxK]++
			}
			return
		}
		getTotal := func(histo map[int]int) (total int) {
			for key, count := range histo {
				total += key * count
			}
			return
		}
		assert.Equal(t, map[int]int{0: 30, 1: 2}, getHisto(2, 32))
		assert.Equal(t, map[int]int{1: 32}, getHisto(32, 32))
		assert.Equal(t, map[int]int{8: 32}, getHisto(256, 32))
		assert.Equal(t, map[int]int{8: 1, 9: 31}, getHisto(287, 32))
		assert.Equal(t, 287, getTotal(getHisto(287, 32)))
		for n := 64; n < 10000; n++ {
			var (
				keys   [2]float64
				keyNum int
			)
			histo := getHisto(n, 32)
			for key := range histo {
				keys[keyNum] = float64(key)
				keyNum++
			}
			if keyNum == 2 {
				assert.Equal(t, 1., math.Abs(keys[0]-keys[1])) // Maximum imbalance of 1
			}
			assert.Equal(t, n, getTotal(histo))
		}
	}
	{ // Test inverted bucket probe - find bucket that contains index (efficiently)
		for maxIndex := 10; maxIndex < 1000; maxIndex++ {
			pm := NewPartitionMap(5, maxIndex)
			for k := 0; k < maxIndex; k++ {
				tryCount, bn, min, max := pm.getBucketWithTryCount(k)
				mmin, mmax := pm.GetBucketRange(bn)
				assert.True(t, k >= min && k < max && min == mmin && max == mmax && tryCount <= 1)
			}
		}
	}
}

func TestMailBox(t *testing.T) {
	{ // Test post and receive round trip between two ranks through one MailBox
		mb := NewMailBox[int](2)
		mb.PostMessage(0, 1, 10)
		mb.PostMessage(0, 1, 11)
		mb.PostMessage(1, 0, 20)
		mb.DeliverMyMessages(0)
		mb.DeliverMyMessages(1)
		mb.ReceiveMyMessages(0)
		mb.ReceiveMyMessages(1)
		assert.Equal(t, []int{20}, mb.MyMessages(0))
		assert.Equal(t, []int{10, 11}, mb.MyMessages(1))
		mb.ClearMyMessages(1)
		assert.Equal(t, 0, len(mb.MyMessages(1)))
		// Sender buffers are reset by the receiver and reused
		assert.Equal(t, 0, mb.PostMsgQs[0][1].Len())
	}
	{ // Test broadcast
		mb := NewMailBox[string](3)
		mb.PostMessageToAll(2, "hello")
		mb.DeliverMyMessages(2)
		for rank := 0; rank < 2; rank++ {
			mb.ReceiveMyMessages(rank)
			assert.Equal(t, []string{"hello"}, mb.MyMessages(rank))
		}
		mb.ReceiveMyMessages(2)
		assert.Equal(t, 0, len(mb.MyMessages(2)))
	}
	{ // Test out of range target
		mb := NewMailBox[int](2)
		assert.Panics(t, func() { mb.PostMessage(0, 2, 1) })
	}
}

func TestProcessGroup(t *testing.T) {
	{ // Test AllReduceSum returns the same total on every rank
		NP := 4
		pg := NewProcessGroup(NP)
		sums := make([]float64, NP)
		err := pg.RunRanks(func(comm *Comm) error {
			for iter := 0; iter < 10; iter++ {
				sums[comm.Rank] = comm.AllReduceSum(float64(comm.Rank + 1))
			}
			return nil
		})
		require.NoError(t, err)
		for _, s := range sums {
			assert.Equal(t, 10., s)
		}
	}
	{ // Test AllReduceMinMax
		pg := NewProcessGroup(3)
		lo, hi := make([]float64, 3), make([]float64, 3)
		require.NoError(t, pg.RunRanks(func(comm *Comm) error {
			lo[comm.Rank], hi[comm.Rank] = comm.AllReduceMinMax(float64(comm.Rank), float64(10*comm.Rank))
			return nil
		}))
		assert.Equal(t, []float64{0, 0, 0}, lo)
		assert.Equal(t, []float64{20, 20, 20}, hi)
	}
	{ // Test Exchange delivers every rank's envelopes to their targets, repeatedly
		NP := 3
		pg := NewProcessGroup(NP)
		received := make([][]int, NP)
		require.NoError(t, pg.RunRanks(func(comm *Comm) error {
			for round := 0; round < 5; round++ {
				for target := 0; target < NP; target++ {
					comm.Post(target, &Envelope{Key: [6]int{round, target}, Values: []float64{float64(comm.Rank)}})
				}
				msgs := comm.Exchange()
				var from []int
				for _, msg := range msgs {
					if msg.Key[0] != round || msg.Key[1] != comm.Rank {
						panic("message delivered to the wrong round or rank")
					}
					from = append(from, msg.From)
				}
				sort.Ints(from)
				received[comm.Rank] = from
			}
			return nil
		}))
		for rank := 0; rank < NP; rank++ {
			assert.Equal(t, []int{0, 1, 2}, received[rank])
		}
	}
	{ // Test serial comm
		comm := NewSerialComm()
		assert.Equal(t, 1, comm.Size())
		assert.Equal(t, 2.5, comm.AllReduceSum(2.5))
		comm.Post(0, &Envelope{Values: []float64{1}})
		msgs := comm.Exchange()
		require.Equal(t, 1, len(msgs))
		assert.Equal(t, []float64{1}, msgs[0].Values)
	}
}
