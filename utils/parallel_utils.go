package utils

import "fmt"

// DynBuffer is an append-only buffer that can be reset without releasing
// its backing storage.
type DynBuffer[T any] struct {
	cells []T
}

func NewDynBuffer[T any](capacity int) *DynBuffer[T] {
	return &DynBuffer[T]{cells: make([]T, 0, capacity)}
}

func (db *DynBuffer[T]) Add(item T) {
	db.cells = append(db.cells, item)
}

func (db *DynBuffer[T]) Cells() []T {
	return db.cells
}

func (db *DynBuffer[T]) Len() int {
	return len(db.cells)
}

func (db *DynBuffer[T]) Reset() {
	var zero T
	for i := range db.cells {
		db.cells[i] = zero
	}
	db.cells = db.cells[:0]
}

// MailBox moves messages between NP ranks that run as goroutines.
// The pattern for one round is:
//
//	for range messages {PostMessage}; DeliverMyMessages; Barrier; ReceiveMyMessages; Barrier
//
// The second barrier keeps a fast rank from delivering the next round into a
// queue that a slower rank has not drained yet.
type MailBox[T any] struct {
	NP           int
	MessageChans []chan *DynBuffer[T]    // One per rank
	PostMsgQs    []map[int]*DynBuffer[T] // One per rank, key is target rank
	ReceiveMsgQs []*DynBuffer[T]         // One per rank
	MailFlag     []bool                  // Rank has undelivered mail
}

func NewMailBox[T any](NP int) *MailBox[T] {
	mb := &MailBox[T]{
		NP:           NP,
		MessageChans: make([]chan *DynBuffer[T], NP),
		PostMsgQs:    make([]map[int]*DynBuffer[T], NP),
		ReceiveMsgQs: make([]*DynBuffer[T], NP),
		MailFlag:     make([]bool, NP),
	}
	for n := 0; n < NP; n++ {
		mb.MessageChans[n] = make(chan *DynBuffer[T], NP) // All-to-all worst case
		mb.PostMsgQs[n] = make(map[int]*DynBuffer[T])
		mb.ReceiveMsgQs[n] = NewDynBuffer[T](0)
	}
	return mb
}

func (mb *MailBox[T]) PostMessage(myRank, targetRank int, msg T) {
	if targetRank < 0 || targetRank > mb.NP-1 {
		panic(fmt.Sprintf("target rank %d out of bounds", targetRank))
	}
	tgt, exists := mb.PostMsgQs[myRank][targetRank]
	if !exists {
		tgt = NewDynBuffer[T](0)
		mb.PostMsgQs[myRank][targetRank] = tgt
	}
	tgt.Add(msg)
	mb.MailFlag[myRank] = true
}

func (mb *MailBox[T]) PostMessageToAll(myRank int, msg T) {
	for k := 0; k < mb.NP; k++ {
		if k != myRank {
			mb.PostMessage(myRank, k, msg)
		}
	}
}

func (mb *MailBox[T]) DeliverMyMessages(myRank int) {
	if !mb.MailFlag[myRank] {
		return
	}
	for targetRank, msgBuffer := range mb.PostMsgQs[myRank] {
		if msgBuffer.Len() == 0 {
			continue
		}
		mb.MessageChans[targetRank] <- msgBuffer
	}
	mb.MailFlag[myRank] = false
}

func (mb *MailBox[T]) ReceiveMyMessages(myRank int) {
	for {
		select {
		case msgBuffer := <-mb.MessageChans[myRank]:
			for _, msg := range msgBuffer.Cells() {
				mb.ReceiveMsgQs[myRank].Add(msg)
			}
			msgBuffer.Reset() // The sender reuses this buffer next round
		default:
			return
		}
	}
}

func (mb *MailBox[T]) MyMessages(myRank int) []T {
	return mb.ReceiveMsgQs[myRank].Cells()
}

func (mb *MailBox[T]) ClearMyMessages(myRank int) {
	mb.ReceiveMsgQs[myRank].Reset()
}

// PartitionMap splits MaxIndex items into ParallelDegree contiguous buckets
// with a maximum imbalance of one item.
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

func (pm *PartitionMap) GetBucket(k int) (bucketNum, min, max int) {
	_, bucketNum, min, max = pm.getBucketWithTryCount(k)
	return
}

func (pm *PartitionMap) getBucketWithTryCount(k int) (tryCount, bucketNum, min, max int) {
	if pm.MaxIndex == 0 || k < 0 || k >= pm.MaxIndex {
		return 0, -1, 0, 0
	}
	bucketNum = int(float64(pm.ParallelDegree*k) / float64(pm.MaxIndex))
	for !(pm.Partitions[bucketNum][0] <= k && pm.Partitions[bucketNum][1] > k) {
		if pm.Partitions[bucketNum][0] > k {
			bucketNum--
		} else {
			bucketNum++
		}
		if bucketNum == -1 || bucketNum == pm.ParallelDegree {
			return 0, -1, 0, 0
		}
		tryCount++
	}
	min, max = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) (kMax int) {
	if bn == -1 {
		return pm.MaxIndex
	}
	k1, k2 := pm.GetBucketRange(bn)
	return k2 - k1
}

func (pm *PartitionMap) Split1D(bucketNum int) (bucket [2]int) {
	var (
		Npart            = pm.MaxIndex / pm.ParallelDegree
		remainder        = pm.MaxIndex % pm.ParallelDegree
		startAdd, endAdd int
	)
	if remainder != 0 { // spread the remainder over the first buckets
		if bucketNum+1 > remainder {
			startAdd = remainder
		} else {
			startAdd = bucketNum
			endAdd = 1
		}
	}
	bucket[0] = bucketNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}
